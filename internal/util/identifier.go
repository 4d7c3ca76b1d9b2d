// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "github.com/google/uuid"

// IsUUID reports whether s is a UUID in its canonical 36 character form.
// uuid.Parse alone also accepts the urn and braced forms.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
