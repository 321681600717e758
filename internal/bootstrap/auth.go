package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sajansharmanz/accountd/config"
	"github.com/sajansharmanz/accountd/internal/adapters/apple"
	"github.com/sajansharmanz/accountd/internal/adapters/google"
	"github.com/sajansharmanz/accountd/internal/adapters/redistore"
	smtpadapter "github.com/sajansharmanz/accountd/internal/adapters/smtp"
	"github.com/sajansharmanz/accountd/internal/cryptoutil"
	"github.com/sajansharmanz/accountd/internal/data"
	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	httpx "github.com/sajansharmanz/accountd/internal/http"
	"github.com/sajansharmanz/accountd/internal/otp"
	"github.com/sajansharmanz/accountd/internal/password"
	"github.com/sajansharmanz/accountd/internal/ports"
	"github.com/sajansharmanz/accountd/internal/service"
	"github.com/sajansharmanz/accountd/internal/token"
)

// HandlersConfig contains the dependencies for BuildHandlers.
type HandlersConfig struct {
	Config *config.AppConfig
	DB     *sql.DB
	// Redis is required only when the token store backend is redis.
	Redis  redis.UniversalClient
	Logger *slog.Logger
}

// BuildHandlers wires the services behind the HTTP surface: codec,
// cipher, stores, identity verifiers, mailer, and the auth services.
func BuildHandlers(ctx context.Context, cfg HandlersConfig) (*httpx.Handlers, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	codec := token.NewCodec(appCfg.Auth)

	cipher, err := cryptoutil.NewCipher(appCfg.Auth.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	users := data.NewUserRepo(cfg.DB)
	tokens, err := buildTokenStore(appCfg, cfg.DB, cfg.Redis, codec)
	if err != nil {
		return nil, err
	}

	sessions := service.NewSessionManager(service.SessionManagerOptions{
		Codec:  codec,
		Tokens: tokens,
		Users:  users,
		Logger: logger,
	})

	auth := service.NewAuthService(service.AuthServiceOptions{
		Users:                  users,
		Tokens:                 tokens,
		Sessions:               sessions,
		Codec:                  codec,
		Hasher:                 password.NewHasher(appCfg.Auth.PasswordSecret),
		Cipher:                 cipher,
		OTP:                    otp.NewEngine(appCfg.Auth.OTP),
		Notifier:               smtpadapter.NewMailer(appCfg.SMTP, appCfg.HTTP.AppDomain),
		MaxFailedLoginAttempts: appCfg.Auth.MaxFailedLoginAttempts,
		Logger:                 logger,
	})

	otpSvc := service.NewOTPService(service.OTPServiceOptions{
		Users:  users,
		Cipher: cipher,
		OTP:    otp.NewEngine(appCfg.Auth.OTP),
		Logger: logger,
	})

	guard := service.NewCSRFGuard(service.CSRFGuardOptions{
		Codec:     codec,
		AppDomain: appCfg.HTTP.AppDomain,
	})

	googleVerifier, appleVerifier, err := buildVerifiers(ctx, appCfg.Auth.OAuth, logger)
	if err != nil {
		return nil, err
	}

	return &httpx.Handlers{
		Auth:     auth,
		OTP:      otpSvc,
		Sessions: sessions,
		CSRF:     guard,
		Cookies: httpx.CookieWriter{
			Domain: appCfg.HTTP.CookieDomain,
			MaxAge: appCfg.HTTP.CookieMaxAge,
			Secure: !appCfg.IsDev,
		},
		Google: googleVerifier,
		Apple:  appleVerifier,
		Logger: logger,
	}, nil
}

// buildTokenStore selects the revocable token record backend.
//
//nolint:ireturn // the store interface is the point of the selection.
func buildTokenStore(appCfg *config.AppConfig, db *sql.DB, client redis.UniversalClient, codec *token.Codec) (ports.TokenStore, error) {
	switch appCfg.TokenStore.Backend {
	case config.TokenStoreRedis:
		if client == nil {
			return nil, fmt.Errorf("token store backend %q requires a redis connection", appCfg.TokenStore.Backend)
		}
		ttls := map[domainauth.TokenType]time.Duration{
			domainauth.TokenTypeSession:       codec.TTL(domainauth.TokenTypeSession),
			domainauth.TokenTypePasswordReset: codec.TTL(domainauth.TokenTypePasswordReset),
		}
		return redistore.NewTokenStore(client, ttls), nil
	case config.TokenStorePostgres:
		return data.NewTokenRepo(db), nil
	default:
		return nil, fmt.Errorf("unknown token store backend %q", appCfg.TokenStore.Backend)
	}
}

// buildVerifiers constructs the external identity verifiers for the
// configured audiences. A provider without a client ID stays nil and its
// login route reports not found.
func buildVerifiers(ctx context.Context, cfg config.OAuthConfig, logger *slog.Logger) (ports.IdentityVerifier, ports.IdentityVerifier, error) {
	var googleVerifier, appleVerifier ports.IdentityVerifier

	if cfg.GoogleClientID != "" {
		v, err := google.NewVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			return nil, nil, fmt.Errorf("init google verifier: %w", err)
		}
		googleVerifier = v
	} else {
		logger.Info("google login disabled: no client id configured")
	}

	if cfg.AppleClientID != "" {
		v, err := apple.NewVerifier(ctx, cfg.AppleClientID)
		if err != nil {
			return nil, nil, fmt.Errorf("init apple verifier: %w", err)
		}
		appleVerifier = v
	} else {
		logger.Info("apple login disabled: no client id configured")
	}

	return googleVerifier, appleVerifier, nil
}
