package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	otplib "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajansharmanz/accountd/config"
	"github.com/sajansharmanz/accountd/internal/cryptoutil"
	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	mockauth "github.com/sajansharmanz/accountd/internal/mocks/auth"
	"github.com/sajansharmanz/accountd/internal/otp"
	"github.com/sajansharmanz/accountd/internal/password"
	"github.com/sajansharmanz/accountd/internal/service"
	"github.com/sajansharmanz/accountd/internal/token"
)

const testAppDomain = "http://localhost:8080"

// testClient drives the router with a per-test cookie jar.
type testClient struct {
	t        *testing.T
	router   http.Handler
	cookies  map[string]string
	users    *mockauth.MemoryUserStore
	tokens   *mockauth.MemoryTokenStore
	notifier *mockauth.RecordingNotifier
	codec    *token.Codec
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	return newTestClientWithTTL(t, time.Hour)
}

func newTestClientWithTTL(t *testing.T, sessionTTL time.Duration) *testClient {
	t.Helper()

	authCfg := config.AuthConfig{
		Secrets: config.TokenSecretsConfig{
			Session:       "session-secret",
			PasswordReset: "reset-secret",
			CSRF:          "csrf-secret",
		},
		TTL: config.TokenTTLConfig{
			Session:       sessionTTL,
			PasswordReset: 30 * time.Minute,
			CSRF:          15 * time.Minute,
		},
	}
	codec := token.NewCodec(authCfg)
	users := mockauth.NewMemoryUserStore()
	tokens := mockauth.NewMemoryTokenStore()
	notifier := &mockauth.RecordingNotifier{}
	cipher, err := cryptoutil.NewCipher("test-encryption-secret")
	require.NoError(t, err)
	engine := otp.NewEngine(config.OTPConfig{Issuer: "accountd", Label: "accountd"})
	logger := slog.Default()

	sessions := service.NewSessionManager(service.SessionManagerOptions{
		Codec: codec, Tokens: tokens, Users: users, Logger: logger,
	})
	auth := service.NewAuthService(service.AuthServiceOptions{
		Users:                  users,
		Tokens:                 tokens,
		Sessions:               sessions,
		Codec:                  codec,
		Hasher:                 password.NewHasher("pepper"),
		Cipher:                 cipher,
		OTP:                    engine,
		Notifier:               notifier,
		MaxFailedLoginAttempts: 3,
		Logger:                 logger,
	})
	otpSvc := service.NewOTPService(service.OTPServiceOptions{
		Users: users, Cipher: cipher, OTP: engine, Logger: logger,
	})
	guard := service.NewCSRFGuard(service.CSRFGuardOptions{Codec: codec, AppDomain: testAppDomain})

	handlers := &Handlers{
		Auth:     auth,
		OTP:      otpSvc,
		Sessions: sessions,
		CSRF:     guard,
		Cookies:  CookieWriter{MaxAge: 604800},
		Google:   &mockauth.MockIdentityVerifier{Identity: domainauth.Identity{Email: "google@example.com"}},
		Apple:    &mockauth.MockIdentityVerifier{Identity: domainauth.Identity{Email: "apple@example.com"}},
		Logger:   logger,
	}

	return &testClient{
		t:        t,
		router:   NewRouter(handlers),
		cookies:  make(map[string]string),
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		codec:    codec,
	}
}

func (c *testClient) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie.Value
	}
	return rec
}

func (c *testClient) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, "", nil)
}

// post runs a CSRF-protected JSON request, fetching a fresh token pair
// first the way a browser client would.
func (c *testClient) post(path, body string) *httptest.ResponseRecorder {
	c.t.Helper()

	rec := c.get("/csrf")
	require.Equal(c.t, http.StatusOK, rec.Code)
	var csrfBody struct {
		CSRF string `json:"csrf"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &csrfBody))

	return c.do(http.MethodPost, path, body, map[string]string{
		"Origin":       testAppDomain,
		"X-CSRF-Token": csrfBody.CSRF,
	})
}

func (c *testClient) signUp(email string) *httptest.ResponseRecorder {
	c.t.Helper()
	rec := c.post("/signup", `{"email":"`+email+`","password":"Password1!"}`)
	require.Equal(c.t, http.StatusCreated, rec.Code)
	return rec
}

func totpCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Digits:    otplib.DigitsSix,
		Algorithm: otplib.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestRoutes_SignUpSetsSessionCookies(t *testing.T) {
	c := newTestClient(t)

	rec := c.signUp("new@example.com")

	var body struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "new@example.com", body.User.Email)

	assert.NotEmpty(t, c.cookies[SessionCookie])
	assert.NotEmpty(t, c.cookies[UserCookie])
}

func TestRoutes_CSRFRejectsUnprotectedPost(t *testing.T) {
	c := newTestClient(t)

	t.Run("missing everything", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/signup", `{"email":"a@b.com","password":"Password1!"}`, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("cross-site origin", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/signup", `{"email":"a@b.com","password":"Password1!"}`,
			map[string]string{"Origin": "http://evil.example.com"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("good origin without token pair", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/signup", `{"email":"a@b.com","password":"Password1!"}`,
			map[string]string{"Origin": testAppDomain})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRoutes_LoginFlow(t *testing.T) {
	c := newTestClient(t)
	c.signUp("user@example.com")
	c.cookies = map[string]string{}

	t.Run("wrong password", func(t *testing.T) {
		rec := c.post("/login", `{"email":"user@example.com","password":"Wrong-pass1"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		rec := c.post("/login", `{"email":"user@example.com","password":"Password1!"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, c.cookies[SessionCookie])
	})
}

func TestRoutes_ValidationErrorBody(t *testing.T) {
	c := newTestClient(t)

	rec := c.post("/signup", `{"email":"nope","password":"short"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error  string              `json:"error"`
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error)
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "password")
}

func TestRoutes_MeRequiresAuth(t *testing.T) {
	c := newTestClient(t)

	rec := c.get("/me")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?returnUrl=%2Fme", rec.Header().Get("Location"))
}

func TestRoutes_PostRequiresAuthInline(t *testing.T) {
	c := newTestClient(t)

	// Writes get an inline 401 instead of a login redirect.
	rec := c.post("/me", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_MeWithSession(t *testing.T) {
	c := newTestClient(t)
	c.signUp("user@example.com")

	rec := c.get("/me")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user@example.com", body.User.Email)
}

func TestRoutes_UpdateMe(t *testing.T) {
	c := newTestClient(t)
	c.signUp("user@example.com")

	rec := c.post("/me", `{"email":"renamed@example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "renamed@example.com")
}

func TestRoutes_Logout(t *testing.T) {
	c := newTestClient(t)
	c.signUp("user@example.com")

	rec := c.get("/logout")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Empty(t, c.cookies[SessionCookie])

	rec = c.get("/me")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestRoutes_DeleteMe(t *testing.T) {
	c := newTestClient(t)
	c.signUp("user@example.com")

	rec := c.post("/me/delete", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Account is gone; the session no longer resolves.
	rec = c.get("/me")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestRoutes_OTPEnrollmentAndLogin(t *testing.T) {
	c := newTestClient(t)
	c.signUp("user@example.com")

	rec := c.get("/me/otp/generate")
	require.Equal(t, http.StatusOK, rec.Code)
	var gen struct {
		Secret string `json:"secret"`
		URL    string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gen))
	assert.Contains(t, gen.URL, "otpauth://totp/")

	rec = c.post("/me/otp/verify", `{"code":"`+totpCode(t, gen.Secret)+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Fresh client: password alone now only gets the pending step.
	c.cookies = map[string]string{}
	rec = c.post("/login", `{"email":"user@example.com","password":"Password1!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"otpRequired":true`)
	assert.Empty(t, c.cookies[SessionCookie])

	rec = c.post("/login/verify", `{"code":"`+totpCode(t, gen.Secret)+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, c.cookies[SessionCookie])

	rec = c.get("/me")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_OTPWrongCodeBody(t *testing.T) {
	c := newTestClient(t)
	c.signUp("user@example.com")

	rec := c.get("/me/otp/generate")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.post("/me/otp/verify", `{"code":"000000"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "OTPError")
}

func TestRoutes_PasswordResetFlow(t *testing.T) {
	c := newTestClient(t)
	c.signUp("user@example.com")
	c.cookies = map[string]string{}

	rec := c.post("/password/forgot", `{"email":"user@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, c.notifier.ResetTokens, 1)

	// Unknown email gets the identical response.
	rec = c.post("/password/forgot", `{"email":"nobody@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.post("/password/reset",
		`{"token":"`+c.notifier.ResetTokens[0]+`","password":"NewPassword1!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.post("/login", `{"email":"user@example.com","password":"NewPassword1!"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_SessionRenewalRefreshesCookies(t *testing.T) {
	c := newTestClientWithTTL(t, -time.Minute)
	c.signUp("user@example.com")

	expired := c.cookies[SessionCookie]
	require.NotEmpty(t, expired)

	// Token timestamps have second granularity; step past the issue
	// second so the renewed token differs.
	time.Sleep(1100 * time.Millisecond)

	// The expired token still has a live record, so the request renews.
	rec := c.get("/me")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, expired, c.cookies[SessionCookie])
}

func TestRoutes_GoogleLogin(t *testing.T) {
	c := newTestClient(t)

	rec := c.post("/auth/google", `{"credential":"fake-id-token"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "google@example.com")
	assert.NotEmpty(t, c.cookies[SessionCookie])
}

func TestRoutes_Healthz(t *testing.T) {
	c := newTestClient(t)

	rec := c.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	rec = c.do(http.MethodHead, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
