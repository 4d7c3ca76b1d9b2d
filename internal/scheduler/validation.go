// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts five-field cron expressions and descriptors such
// as "@hourly" and "@every 5m".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks that spec is a cron expression the scheduler can run.
func ValidateSchedule(spec string) error {
	if strings.TrimSpace(spec) == "" {
		return fmt.Errorf("schedule is required")
	}
	if _, err := scheduleParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}
