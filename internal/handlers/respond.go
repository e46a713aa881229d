package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"test12/internal/status"
)

// respondError writes rejections as {"ok":false,"reason":code}. Anything
// else is an infrastructure failure and becomes a 500.
func respondError(e *core.RequestEvent, err error) error {
	code := status.Code(err)
	if code == "" {
		slog.Error("Request failed", "path", e.Request.URL.Path, "error", err)
		return apis.NewInternalServerError("Internal error", err)
	}
	return e.JSON(httpStatus(err), map[string]any{"ok": false, "reason": code})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, status.ErrInvalidSubmission), errors.Is(err, status.ErrInvalidBundle):
		return http.StatusBadRequest
	case errors.Is(err, status.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, status.ErrBundleNotOwned), errors.Is(err, status.ErrTooManyFailedSessions):
		return http.StatusForbidden
	case errors.Is(err, status.ErrSubmissionNotFound),
		errors.Is(err, status.ErrBundleNotFound),
		errors.Is(err, status.ErrAppNotFound):
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}
