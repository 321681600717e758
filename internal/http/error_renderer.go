package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	apperrors "github.com/sajansharmanz/accountd/internal/errors"
)

// RenderError maps domain and infrastructure errors to HTTP responses.
// Authentication failures either redirect through the login page
// (loader-style reads) or render a 401 body (action-style writes);
// everything unrecognized becomes an opaque 500 with the detail logged.
func RenderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var authErr *apperrors.AuthenticationError
	var verr *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.As(err, &authErr) && authErr.Redirect:
		target := "/login?returnUrl=" + url.QueryEscape(authErr.ReturnTo)
		http.Redirect(w, r, target, http.StatusFound)

	case authErr != nil:
		WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":   "authentication_error",
			"message": "Invalid credentials",
		})

	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation_error",
			"errors": verr.Fields,
		})

	case apperrors.IsForbidden(err):
		WriteJSON(w, http.StatusForbidden, map[string]string{
			"error":   "forbidden",
			"message": "Request rejected",
		})

	case apperrors.IsConflict(err):
		body := map[string]any{
			"error":   "conflict",
			"message": "Record already exists",
		}
		if errors.As(err, &appErr) && appErr.Field != "" {
			body["field"] = appErr.Field
		}
		WriteJSON(w, http.StatusConflict, body)

	case apperrors.IsNotFound(err):
		WriteJSON(w, http.StatusNotFound, map[string]string{
			"error":   "not_found",
			"message": "Resource not found",
		})

	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "internal",
			"message": "Something went wrong. Please try again.",
		})
	}
}
