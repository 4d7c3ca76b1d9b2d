// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"net/http"
)

// ErrorKind classifies domain errors.
type ErrorKind string

// Error kinds
const (
	KindNotFound         ErrorKind = "not_found"
	KindConflict         ErrorKind = "conflict"
	KindValidationFailed ErrorKind = "validation_failed"
	KindForbidden        ErrorKind = "forbidden"
)

// Error is a domain error carrying an HTTP status hint.
type Error struct {
	Kind    ErrorKind
	Message string
	// Fields maps offending field names to a reason.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code matching the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidationFailed:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// NotFound returns a not_found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict returns a conflict error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// ValidationFailed returns a validation_failed error with per-field reasons.
func ValidationFailed(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidationFailed, Message: message, Fields: fields}
}

// Forbidden returns a forbidden error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
