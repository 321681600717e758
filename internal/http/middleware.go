package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ResolveSession returns a middleware that authenticates the request
// from the session and user cookies. A silently renewed session gets
// fresh cookies on the way out; an invalid one simply yields an
// unauthenticated request.
func ResolveSession(sessions *service.SessionManager, cookies CookieWriter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionToken := cookieValue(r, SessionCookie)
			cookieUser := readUserCookie(r)

			res, err := sessions.Verify(r.Context(), sessionToken, cookieUser.ID)
			if err != nil {
				RenderError(w, r, logger, err)
				return
			}

			switch res.Status {
			case service.SessionValid:
				r = r.WithContext(WithPrincipal(r.Context(), res.Principal))

			case service.SessionRenewed:
				if err := setAuthCookies(w, cookies, res.NewToken, res.Principal); err != nil {
					RenderError(w, r, logger, err)
					return
				}
				r = r.WithContext(WithPrincipal(r.Context(), res.Principal))

			case service.SessionInvalid:
				// Fall through unauthenticated.
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns a middleware that rejects unauthenticated
// requests. Reads redirect through the login page and return to the
// original route afterwards; writes get an inline 401.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFrom(r.Context()); !ok {
				if r.Method == http.MethodGet || r.Method == http.MethodHead {
					RenderError(w, r, logger, apperrors.AuthRedirect(r.URL.Path))
				} else {
					RenderError(w, r, logger, apperrors.AuthInline())
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermissions returns a middleware that rejects principals
// missing any of the named permissions. The failure is the same generic
// authentication error as a missing session.
func RequirePermissions(logger *slog.Logger, names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok || !principal.HasPermissions(names...) {
				RenderError(w, r, logger, apperrors.AuthInline())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares right to left, so the first listed runs
// outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
