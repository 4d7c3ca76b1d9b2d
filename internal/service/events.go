// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/store"
)

// EventService writes the audit trail of menu changes to the Event Log.
type EventService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, logger *slog.Logger) *EventService {
	return &EventService{
		queries: store.New(db),
		logger:  logger,
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(data)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
	})
	if err != nil {
		// Info level keeps this out of the Event Log itself.
		s.logger.Info("failed to record event", "message", message, "error", err)
		return err
	}

	return nil
}

// LogMenuEvent logs a menu-related info event.
func (s *EventService) LogMenuEvent(ctx context.Context, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryMenu, message, metadata)
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, metadata)
}

// ListEvents returns one page of events, newest first.
func (s *EventService) ListEvents(ctx context.Context, limit, offset int64) ([]store.Event, error) {
	return s.queries.ListEvents(ctx, store.ListEventsParams{Limit: limit, Offset: offset})
}

// DeleteOldEvents removes events older than the specified duration and
// returns how many were removed.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteEventsOlderThan(ctx, time.Now().Add(-olderThan))
}
