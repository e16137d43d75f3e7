package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/domain"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body
}

func TestHandleErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: &domain.NotFoundError{Message: "draft x not found"}, wantStatus: http.StatusNotFound},
		{name: "validation", err: &domain.ValidationError{Message: "title is required"}, wantStatus: http.StatusBadRequest},
		{name: "wrapped validation sentinel", err: fmt.Errorf("%w: doc_path: cannot be blank", domain.ErrValidation), wantStatus: http.StatusBadRequest},
		{name: "invalid state", err: &domain.InvalidStateError{Message: "draft is approved"}, wantStatus: http.StatusUnprocessableEntity},
		{name: "unauthorized", err: &domain.UnauthorizedError{Message: "missing token"}, wantStatus: http.StatusUnauthorized},
		{name: "forbidden", err: &domain.ForbiddenError{Message: "admins only"}, wantStatus: http.StatusForbidden},
		{name: "remote client", err: &domain.RemoteClientError{Status: 422, Message: "validation failed"}, wantStatus: http.StatusBadGateway},
		{name: "remote transient", err: &domain.RemoteTransientError{Attempts: 3, Err: errors.New("unreachable")}, wantStatus: http.StatusBadGateway},
		{name: "unclassified", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, logger, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeProblem(t, rec)
			if int(body["status"].(float64)) != tt.wantStatus {
				t.Errorf("body status = %v, want %d", body["status"], tt.wantStatus)
			}
		})
	}
}

func TestHandleErrorConflictExtras(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	handleError(rec, logger, &domain.ConflictError{
		Message:  "'docs/guide.md' was modified by another writer",
		Path:     "docs/guide.md",
		Expected: "fp-1",
		Current:  "fp-2",
	})

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	body := decodeProblem(t, rec)
	if body["path"] != "docs/guide.md" {
		t.Errorf("path = %v", body["path"])
	}
	// The caller needs the current fingerprint to retry the write
	if body["current_fingerprint"] != "fp-2" {
		t.Errorf("current_fingerprint = %v, want fp-2", body["current_fingerprint"])
	}
}

func TestHandleErrorRateLimitExtras(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	handleError(rec, logger, &domain.RemoteRateLimitError{
		RetryAfter: 90 * time.Second,
		Message:    "rate limited",
	})

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	body := decodeProblem(t, rec)
	if int(body["retry_after_seconds"].(float64)) != 90 {
		t.Errorf("retry_after_seconds = %v, want 90", body["retry_after_seconds"])
	}
}
