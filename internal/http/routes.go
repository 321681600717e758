package httpx

import (
	"net/http"
)

// NewRouter wires the routes and middleware stack. Session resolution
// runs on every request; CSRF guards all state-changing routes; account
// routes additionally require authentication and the matching
// permission.
func NewRouter(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	requireAuth := RequireAuth(h.Logger)
	readAccount := RequirePermissions(h.Logger, "user:read")
	writeAccount := RequirePermissions(h.Logger, "user:update")
	deleteAccount := RequirePermissions(h.Logger, "user:delete")

	mux.HandleFunc("POST /signup", h.HandleSignUp)
	mux.HandleFunc("POST /login", h.HandleLogin)
	mux.HandleFunc("POST /login/verify", h.HandleLoginVerify)
	mux.HandleFunc("POST /auth/google", h.HandleGoogleLogin)
	mux.HandleFunc("POST /auth/apple", h.HandleAppleLogin)
	mux.HandleFunc("POST /password/forgot", h.HandleForgotPassword)
	mux.HandleFunc("POST /password/reset", h.HandleResetPassword)

	mux.HandleFunc("GET /logout", h.HandleLogout)
	mux.Handle("GET /logout-all", Chain(http.HandlerFunc(h.HandleLogoutAll), requireAuth))

	mux.Handle("GET /me", Chain(http.HandlerFunc(h.HandleMe), requireAuth, readAccount))
	mux.Handle("POST /me", Chain(http.HandlerFunc(h.HandleUpdateMe), requireAuth, writeAccount))
	mux.Handle("POST /me/delete", Chain(http.HandlerFunc(h.HandleDeleteMe), requireAuth, deleteAccount))

	mux.Handle("GET /me/otp/generate", Chain(http.HandlerFunc(h.HandleOTPGenerate), requireAuth, writeAccount))
	mux.Handle("POST /me/otp/verify", Chain(http.HandlerFunc(h.HandleOTPVerify), requireAuth, writeAccount))
	mux.Handle("POST /me/otp/disable", Chain(http.HandlerFunc(h.HandleOTPDisable), requireAuth, writeAccount))

	mux.HandleFunc("GET /csrf", h.HandleCSRFToken)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("HEAD /healthz", h.HandleHealth)

	return Chain(mux,
		Recover(h.Logger),
		Logging(h.Logger),
		CSRF(h.CSRF, h.Logger),
		ResolveSession(h.Sessions, h.Cookies, h.Logger),
	)
}
