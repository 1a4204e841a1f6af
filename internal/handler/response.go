package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON, writeError or writeOutcome so the
// API has exactly two body shapes:
//
//	error:   {"error": "not_found", "message": "snippet not found with id a.js"}
//	outcome: {"state": {...}, "notice": {...}, "snippets": [...]}
//
// The status code is derived from the error kind in one place (statusFor),
// so an outcome and a plain error with the same cause get the same code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/daily-code/internal/apperror"
	"github.com/sakif/daily-code/internal/model"
	"github.com/sakif/daily-code/internal/service"
)

// ErrorResponse is the error body returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// NoticeResponse is the JSON form of service.Notice.
type NoticeResponse struct {
	Kind           service.NoticeKind `json:"kind"`
	Message        string             `json:"message"`
	DismissAfterMs int64              `json:"dismissAfterMs"`
}

// OutcomeResponse is the JSON form of service.Outcome.
type OutcomeResponse struct {
	State    service.EditorState     `json:"state"`
	Notice   *NoticeResponse         `json:"notice,omitempty"`
	Snippets *[]model.SnippetSummary `json:"snippets,omitempty"` // nil unless the action returns a list
	Error    string                  `json:"error,omitempty"`    // same codes as ErrorResponse.Error
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be written BEFORE the body: once Encode calls
// w.Write, later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends an ErrorResponse.
//
// Errors that are not *apperror.AppError become a generic 500: their text
// may hold file paths or driver details that must not reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status, code := statusFor(err)
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: appErr.Message,
	})
}

// writeOutcome sends a controller outcome. A failed outcome still carries
// the editor state and notice; only the status code changes. withList
// includes the snippet list even when it is empty.
func writeOutcome(w http.ResponseWriter, out service.Outcome, withList bool) {
	resp := OutcomeResponse{State: out.State}
	if withList {
		list := out.Snippets
		if list == nil {
			list = []model.SnippetSummary{}
		}
		resp.Snippets = &list
	}
	if out.Notice != nil {
		resp.Notice = &NoticeResponse{
			Kind:           out.Notice.Kind,
			Message:        out.Notice.Message,
			DismissAfterMs: out.Notice.DismissAfter.Milliseconds(),
		}
	}
	status := http.StatusOK
	if out.Err != nil {
		status, resp.Error = statusFor(out.Err)
	}
	writeJSON(w, status, resp)
}

// statusFor picks the HTTP status and error code for err.
//
// errors.Is walks the whole chain, including AppError's Err and Cause, so a
// wrapped AppError maps the same as a bare one.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error" // 400
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found" // 404
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict" // 409
	case errors.Is(err, apperror.ErrMissingCredential):
		return http.StatusPreconditionRequired, "missing_credential" // 428
	case errors.Is(err, apperror.ErrAPI):
		return http.StatusBadGateway, "api_error" // 502
	case errors.Is(err, apperror.ErrTransport):
		return http.StatusBadGateway, "transport_error" // 502
	case errors.Is(err, apperror.ErrStorage):
		return http.StatusInsufficientStorage, "storage_error" // 507
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
