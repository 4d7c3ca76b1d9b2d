// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single job run.
const jobTimeout = 5 * time.Minute

// Job is a named unit of periodic work.
type Job struct {
	Name        string
	Description string
	Schedule    string
	Run         func(ctx context.Context) error
}

// registeredJob holds a job and its run state.
type registeredJob struct {
	job     Job
	entryID cron.EntryID
	running sync.Mutex

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	LastError   string
	NextRun     time.Time
}

// Scheduler runs registered jobs on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*registeredJob
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cronLogger := slogCronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(scheduleParser),
			cron.WithChain(cron.Recover(cronLogger)),
			cron.WithLogger(cronLogger),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*registeredJob),
	}
}

// Register adds a job. The schedule is validated before the job is added.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job requires a name and a run function")
	}
	if err := ValidateSchedule(job.Schedule); err != nil {
		return fmt.Errorf("job %s: %w", job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job already registered: %s", job.Name)
	}

	rj := &registeredJob{job: job}
	entryID, err := s.cron.AddFunc(job.Schedule, func() { s.runScheduled(rj) })
	if err != nil {
		return fmt.Errorf("scheduling job %s: %w", job.Name, err)
	}
	rj.entryID = entryID
	s.jobs[job.Name] = rj

	s.logger.Debug("registered scheduled job", "name", job.Name, "schedule", job.Schedule)
	return nil
}

// Trigger runs a registered job immediately and returns its error.
// It waits for a run of the same job that is already in progress.
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	rj, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}

	rj.running.Lock()
	defer rj.running.Unlock()
	return s.run(rj)
}

// runScheduled skips a tick while the previous run of the job is still going.
func (s *Scheduler) runScheduled(rj *registeredJob) {
	if !rj.running.TryLock() {
		s.logger.Debug("skipping scheduled job, previous run still active", "name", rj.job.Name)
		return
	}
	defer rj.running.Unlock()
	_ = s.run(rj)
}

func (s *Scheduler) run(rj *registeredJob) error {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	started := time.Now()
	err := rj.job.Run(ctx)

	rj.mu.Lock()
	rj.lastRun = started
	rj.lastErr = err
	rj.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed",
			"name", rj.job.Name,
			"duration", time.Since(started),
			"error", err,
		)
		return err
	}
	s.logger.Debug("scheduled job finished", "name", rj.job.Name, "duration", time.Since(started))
	return nil
}

// Jobs returns all registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, rj := range s.jobs {
		info := JobInfo{
			Name:        rj.job.Name,
			Description: rj.job.Description,
			Schedule:    rj.job.Schedule,
			NextRun:     s.cron.Entry(rj.entryID).Next,
		}
		rj.mu.Lock()
		info.LastRun = rj.lastRun
		if rj.lastErr != nil {
			info.LastError = rj.lastErr.Error()
		}
		rj.mu.Unlock()
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler, cancelling running jobs and waiting
// for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// slogCronLogger adapts slog to the cron.Logger interface.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
