package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
)

func TestCookieWriter_SetUserRoundTrip(t *testing.T) {
	w := CookieWriter{MaxAge: 3600}
	rec := httptest.NewRecorder()

	principal := domainauth.Principal{ID: "user-1", Email: "user@example.com", OTPEnabled: true}
	require.NoError(t, w.SetUser(rec, principal))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	got := readUserCookie(req)
	assert.Equal(t, "user-1", got.ID)
	assert.True(t, got.OTPEnabled)
}

func TestCookieWriter_Attributes(t *testing.T) {
	w := CookieWriter{Domain: "example.com", MaxAge: 3600, Secure: true}
	rec := httptest.NewRecorder()

	w.SetSession(rec, "token-value")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookie, c.Name)
	assert.Equal(t, "example.com", c.Domain)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestCookieWriter_ClearAuth(t *testing.T) {
	w := CookieWriter{MaxAge: 3600}
	rec := httptest.NewRecorder()

	w.ClearAuth(rec)

	names := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		names[c.Name] = true
		assert.Negative(t, c.MaxAge)
	}
	assert.True(t, names[SessionCookie])
	assert.True(t, names[UserCookie])
}

func TestReadUserCookie_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: UserCookie, Value: "%zz-not-json"})

	got := readUserCookie(req)
	assert.Empty(t, got.ID)
}
