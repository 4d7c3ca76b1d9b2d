// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Job names
const (
	JobReconcileMenus = "reconcile-menus"
	JobPruneEvents    = "prune-events"
)

// pruneSchedule runs event pruning once a day.
const pruneSchedule = "@daily"

// Reconciler regenerates stale menu caches.
type Reconciler interface {
	ReconcileStale(ctx context.Context) (int, error)
}

// EventPruner deletes old event log records.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ReconcileJob returns a job that regenerates every menu whose items cache
// lags behind its item tree.
func ReconcileJob(r Reconciler, schedule string) Job {
	return Job{
		Name:        JobReconcileMenus,
		Description: "Regenerate stale menu caches",
		Schedule:    schedule,
		Run: func(ctx context.Context) error {
			if _, err := r.ReconcileStale(ctx); err != nil {
				return fmt.Errorf("reconciling menus: %w", err)
			}
			return nil
		},
	}
}

// PruneEventsJob returns a job that deletes events older than retention.
func PruneEventsJob(p EventPruner, retention time.Duration, logger *slog.Logger) Job {
	return Job{
		Name:        JobPruneEvents,
		Description: "Delete old event log records",
		Schedule:    pruneSchedule,
		Run: func(ctx context.Context) error {
			n, err := p.DeleteOldEvents(ctx, retention)
			if err != nil {
				return fmt.Errorf("pruning events: %w", err)
			}
			if n > 0 {
				logger.Info("pruned old events", "count", n, "retention", retention)
			}
			return nil
		},
	}
}
