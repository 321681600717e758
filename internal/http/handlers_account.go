package httpx

import (
	"net/http"
)

// HandleMe returns the authenticated principal.
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{"user": principal})
}

// HandleUpdateMe changes the account's email and/or password and
// refreshes the user cookie.
func (h *Handlers) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email,omitempty"`
		Password string `json:"password,omitempty"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	principal, _ := PrincipalFrom(r.Context())
	updated, err := h.Auth.UpdateAccount(r.Context(), principal.ID, req.Email, req.Password)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}

	if err := h.Cookies.SetUser(w, updated); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": updated})
}

// HandleDeleteMe removes the account and all of its sessions.
func (h *Handlers) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	if err := h.Auth.DeleteAccount(r.Context(), principal.ID); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	h.Cookies.ClearAuth(w)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleOTPGenerate provisions a fresh two-factor secret.
func (h *Handlers) HandleOTPGenerate(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	key, err := h.OTP.Generate(r.Context(), principal.ID)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"secret": key.Secret,
		"url":    key.URL,
	})
}

type otpCodeRequest struct {
	Code string `json:"code"`
}

// HandleOTPVerify confirms the provisioned secret and enables
// two-factor.
func (h *Handlers) HandleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req otpCodeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	principal, _ := PrincipalFrom(r.Context())
	if err := h.OTP.Verify(r.Context(), principal.ID, req.Code); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleOTPDisable turns two-factor off after checking a code.
func (h *Handlers) HandleOTPDisable(w http.ResponseWriter, r *http.Request) {
	var req otpCodeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	principal, _ := PrincipalFrom(r.Context())
	if err := h.OTP.Disable(r.Context(), principal.ID, req.Code); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
