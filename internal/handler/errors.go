package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"inkwell/internal/domain"
	"inkwell/internal/httputil"
)

// handleError maps a domain error to an RFC 7807 response. Typed errors are
// never downgraded to a generic failure; only unclassified errors become 500.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		httputil.RespondErrorWithExtras(w, conflictErr.StatusCode(), conflictErr.Message, map[string]interface{}{
			"path":                conflictErr.Path,
			"current_fingerprint": conflictErr.Current,
		})
		return
	}

	var rateErr *domain.RemoteRateLimitError
	if errors.As(err, &rateErr) {
		httputil.RespondErrorWithExtras(w, rateErr.StatusCode(), rateErr.Error(), map[string]interface{}{
			"retry_after_seconds": int(rateErr.RetryAfter.Seconds()),
		})
		return
	}

	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), err.Error())
		return
	}

	// Sentinel-wrapped errors (e.g. validation failures built with %w)
	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
