package httpx

import (
	"log/slog"
	"net/http"

	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/ports"
	"github.com/sajansharmanz/accountd/internal/service"
)

// Handlers carries the services behind the HTTP surface.
type Handlers struct {
	Auth     *service.AuthService
	OTP      *service.OTPService
	Sessions *service.SessionManager
	CSRF     *service.CSRFGuard
	Cookies  CookieWriter
	Google   ports.IdentityVerifier
	Apple    ports.IdentityVerifier
	Logger   *slog.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the body for successful credential exchanges. During
// a pending two-factor login only OTPRequired is set.
type loginResponse struct {
	User        any  `json:"user,omitempty"`
	OTPRequired bool `json:"otpRequired,omitempty"`
}

// finishLogin writes the cookies and body for a login outcome.
func (h *Handlers) finishLogin(w http.ResponseWriter, r *http.Request, res *service.LoginResult, status int) {
	if res.PendingOTP {
		// Minimal user cookie: enough for the verify step, no principal.
		if err := h.Cookies.SetUser(w, res.Pending); err != nil {
			RenderError(w, r, h.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, loginResponse{OTPRequired: true})
		return
	}

	if err := setAuthCookies(w, h.Cookies, res.SessionToken, res.Principal); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, status, loginResponse{User: res.Principal})
}

// HandleSignUp registers a new account and logs it in.
func (h *Handlers) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	h.finishLogin(w, r, res, http.StatusCreated)
}

// HandleLogin exchanges credentials for a session or a pending
// two-factor step.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	h.finishLogin(w, r, res, http.StatusOK)
}

// HandleLoginVerify completes a pending two-factor login. The pending
// user id comes from the user cookie set by HandleLogin.
func (h *Handlers) HandleLoginVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	pending := readUserCookie(r)
	res, err := h.Auth.VerifyLogin(r.Context(), pending.ID, req.Code)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	h.finishLogin(w, r, res, http.StatusOK)
}

type identityRequest struct {
	Credential string `json:"credential"`
}

func (h *Handlers) handleIdentityLogin(w http.ResponseWriter, r *http.Request, verifier ports.IdentityVerifier) {
	if verifier == nil {
		RenderError(w, r, h.Logger, apperrors.NotFound("identity provider not configured"))
		return
	}

	var req identityRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Auth.LoginWithIdentity(r.Context(), verifier, req.Credential)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	h.finishLogin(w, r, res, http.StatusOK)
}

// HandleGoogleLogin logs in with a Google ID token.
func (h *Handlers) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	h.handleIdentityLogin(w, r, h.Google)
}

// HandleAppleLogin logs in with an Apple identity token.
func (h *Handlers) HandleAppleLogin(w http.ResponseWriter, r *http.Request) {
	h.handleIdentityLogin(w, r, h.Apple)
}

// HandleLogout revokes the presented session and clears the cookies.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), cookieValue(r, SessionCookie)); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	h.Cookies.ClearAuth(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleLogoutAll revokes every session for the authenticated user.
func (h *Handlers) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	if err := h.Auth.LogoutAll(r.Context(), principal.ID); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	h.Cookies.ClearAuth(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleForgotPassword issues a reset token. The response is identical
// whether or not the email exists.
func (h *Handlers) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Auth.ForgotPassword(r.Context(), req.Email); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleResetPassword consumes a reset token and sets the new password.
func (h *Handlers) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
