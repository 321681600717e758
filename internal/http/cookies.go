package httpx

import (
	"encoding/json"
	"net/http"
	"net/url"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
)

// Cookie names shared with the browser client.
const (
	SessionCookie = "session"
	UserCookie    = "user"
	CSRFCookie    = "csrf"
)

// CookieWriter sets and clears the auth cookies with consistent
// attributes. Values are HttpOnly and SameSite=Lax; Secure outside
// development.
type CookieWriter struct {
	Domain string
	MaxAge int
	Secure bool
}

func (c CookieWriter) write(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSession stores the signed session token.
func (c CookieWriter) SetSession(w http.ResponseWriter, token string) {
	c.write(w, SessionCookie, token, c.MaxAge)
}

// SetUser stores the principal snapshot as escaped JSON.
func (c CookieWriter) SetUser(w http.ResponseWriter, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.write(w, UserCookie, url.QueryEscape(string(data)), c.MaxAge)
	return nil
}

// SetCSRF stores the signed CSRF cookie.
func (c CookieWriter) SetCSRF(w http.ResponseWriter, signed string) {
	c.write(w, CSRFCookie, signed, c.MaxAge)
}

// ClearAuth expires the session and user cookies.
func (c CookieWriter) ClearAuth(w http.ResponseWriter) {
	c.write(w, SessionCookie, "", -1)
	c.write(w, UserCookie, "", -1)
}

// cookieValue reads a cookie, returning "" when absent.
func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// userCookieView is the decoded shape of the user cookie. During a
// pending two-factor login it holds only the id and flag.
type userCookieView struct {
	ID         string `json:"id"`
	OTPEnabled bool   `json:"otpEnabled"`
}

// readUserCookie decodes the user cookie; zero view when absent or
// malformed.
func readUserCookie(r *http.Request) userCookieView {
	raw := cookieValue(r, UserCookie)
	if raw == "" {
		return userCookieView{}
	}
	unescaped, err := url.QueryUnescape(raw)
	if err != nil {
		return userCookieView{}
	}
	var view userCookieView
	if err := json.Unmarshal([]byte(unescaped), &view); err != nil {
		return userCookieView{}
	}
	return view
}

// setAuthCookies writes the session and user cookies for a principal.
func setAuthCookies(w http.ResponseWriter, cookies CookieWriter, token string, principal domainauth.Principal) error {
	cookies.SetSession(w, token)
	return cookies.SetUser(w, principal)
}
