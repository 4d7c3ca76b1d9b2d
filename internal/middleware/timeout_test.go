// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeoutMiddlewareNormalRequest(t *testing.T) {
	handler := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/menus", nil))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != `{"data":{}}` {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestTimeoutMiddlewareSlowRequest(t *testing.T) {
	handler := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("too late"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/menus", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if got := decodeAPIError(t, w).Error.Code; got != "timeout" {
		t.Errorf("code = %q, want timeout", got)
	}
}

func TestTimeoutWriterDropsLateWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := &timeoutWriter{ResponseWriter: rec, timedOut: true}

	tw.WriteHeader(http.StatusOK)
	if _, err := tw.Write([]byte("late")); err != http.ErrHandlerTimeout {
		t.Errorf("Write error = %v, want ErrHandlerTimeout", err)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("late write reached the client: %q", rec.Body.String())
	}
}

func TestTimeoutWriterImplicitStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := &timeoutWriter{ResponseWriter: rec}

	_, _ = tw.Write([]byte("ok"))
	tw.WriteHeader(http.StatusTeapot)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
