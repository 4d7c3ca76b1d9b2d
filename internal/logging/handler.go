// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging builds the service logger and a slog handler that
// integrates with the Event Log. Records at WARN level and above are also
// persisted to the events table.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/store"
)

// Log formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel maps a configured level name to a slog.Level. Unknown names
// map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns a text or JSON handler writing to w.
func NewHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the Event Log database.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToEventLog(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.qualify(a))
	}
	return clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.inner = h.inner.WithGroup(name)
	if name != "" {
		clone.group = h.qualifyKey(name)
	}
	return clone
}

func (h *EventLogHandler) clone() *EventLogHandler {
	return &EventLogHandler{
		inner:   h.inner,
		queries: h.queries,
		level:   h.level,
		attrs:   append([]slog.Attr(nil), h.attrs...),
		group:   h.group,
	}
}

func (h *EventLogHandler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *EventLogHandler) qualify(a slog.Attr) slog.Attr {
	return slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value}
}

// writeToEventLog persists a record. Failures are dropped: the record has
// already reached the inner handler.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})

	// A background context keeps the write alive when the request is cancelled.
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category(r.Message, attrs),
		Message:   r.Message,
		Metadata:  metadata(attrs),
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// category uses an explicit "category" attribute when present and infers
// one from the message otherwise.
func category(message string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "category" {
			return a.Value.String()
		}
	}

	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "auth"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	case strings.Contains(msg, "menu"):
		return model.EventCategoryMenu
	case strings.Contains(msg, "config"):
		return model.EventCategoryConfig
	default:
		return model.EventCategorySystem
	}
}

func metadata(attrs []slog.Attr) string {
	fields := make(map[string]any, len(attrs))
	for _, a := range attrs {
		if a.Key == "category" {
			continue
		}
		v := a.Value.Resolve()
		switch v.Kind() {
		case slog.KindString:
			fields[a.Key] = v.String()
		case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindBool:
			fields[a.Key] = v.Any()
		default:
			fields[a.Key] = v.String()
		}
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(data)
}
