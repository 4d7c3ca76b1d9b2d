// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API handlers for menus and menu items.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/olegiv/ocms-nav/internal/middleware"
	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/service"
	"github.com/olegiv/ocms-nav/internal/version"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	menus     *service.MenuService
	projector *service.Projector
	logger    *slog.Logger
	version   version.Info
}

// NewHandler creates a new API handler.
func NewHandler(menus *service.MenuService, projector *service.Projector, logger *slog.Logger, info version.Info) *Handler {
	return &Handler{
		menus:     menus,
		projector: projector,
		logger:    logger,
		version:   info,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
	Pages   int   `json:"pages"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse = middleware.APIError

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	middleware.WriteAPIError(w, statusCode, code, message, details)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, string(model.KindNotFound), message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// writeServiceError renders err. Domain errors keep their kind and status;
// anything else is logged and reported as an internal error.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *model.Error
	if errors.As(err, &domainErr) {
		WriteError(w, domainErr.Status(), string(domainErr.Kind), domainErr.Message, domainErr.Fields)
		return
	}

	h.logger.Error("api request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	WriteInternalError(w, "Internal server error")
}

// decodeJSON reads a JSON request body into dst. It writes a 400 response
// and returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			WriteBadRequest(w, "Request body is empty")
		case errors.As(err, &maxErr):
			WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large", nil)
		default:
			WriteBadRequest(w, "Invalid JSON body")
		}
		return false
	}
	if dec.More() {
		WriteBadRequest(w, "Request body must contain a single JSON value")
		return false
	}
	return true
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string       `json:"status"`
	API     string       `json:"api"`
	Version version.Info `json:"version"`
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{
		Status:  "ok",
		API:     "v1",
		Version: h.version,
	}, nil)
}

// AuthInfoResponse describes the calling API key.
type AuthInfoResponse struct {
	Name        string   `json:"name"`
	KeyPrefix   string   `json:"keyPrefix"`
	Permissions []string `json:"permissions"`
}

// AuthInfo handles GET /api/v1/auth and returns the authenticated key.
func (h *Handler) AuthInfo(w http.ResponseWriter, r *http.Request) {
	apiKey := middleware.GetAPIKey(r)
	if apiKey == nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Not authenticated", nil)
		return
	}

	perms := model.ParsePermissions(apiKey.Permissions)
	if perms == nil {
		perms = []string{}
	}
	WriteSuccess(w, AuthInfoResponse{
		Name:        apiKey.Name,
		KeyPrefix:   apiKey.KeyPrefix,
		Permissions: perms,
	}, nil)
}
