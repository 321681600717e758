package httpx

import (
	"log/slog"
	"net/http"

	"github.com/sajansharmanz/accountd/internal/service"
)

// csrfFormField is the request field carrying the raw CSRF value. It is
// read from the X-CSRF-Token header first, then the form field.
const csrfFormField = "csrf"

// CSRF returns a middleware enforcing the double-submit check on
// state-changing requests.
func CSRF(guard *service.CSRFGuard, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := guard.Check(checkRequestFrom(r)); err != nil {
				RenderError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func checkRequestFrom(r *http.Request) service.CheckRequest {
	formValue := r.Header.Get("X-CSRF-Token")
	if formValue == "" {
		formValue = r.PostFormValue(csrfFormField)
	}
	return service.CheckRequest{
		Method:    r.Method,
		Origin:    r.Header.Get("Origin"),
		Referer:   r.Header.Get("Referer"),
		Host:      r.Host,
		Cookie:    cookieValue(r, CSRFCookie),
		FormValue: formValue,
	}
}

// HandleCSRFToken issues a fresh CSRF pair: the signed half as a cookie,
// the raw half in the body for the client to echo back.
func (h *Handlers) HandleCSRFToken(w http.ResponseWriter, r *http.Request) {
	raw, signed, err := h.CSRF.Issue()
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	h.Cookies.SetCSRF(w, signed)
	WriteJSON(w, http.StatusOK, map[string]string{"csrf": raw})
}
