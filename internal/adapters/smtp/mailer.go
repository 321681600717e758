// Package smtp delivers account emails over plain SMTP. Bodies are
// plain text; template design is out of scope.
package smtp

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/sajansharmanz/accountd/config"
	"github.com/sajansharmanz/accountd/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.Notifier = (*Mailer)(nil)

// Mailer sends account emails through a configured SMTP relay.
type Mailer struct {
	cfg config.SMTPConfig
	// appDomain is used to build links in email bodies.
	appDomain string

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a Mailer from configuration.
func NewMailer(cfg config.SMTPConfig, appDomain string) *Mailer {
	return &Mailer{cfg: cfg, appDomain: appDomain, send: smtp.SendMail}
}

// AccountLocked notifies the user that the account was locked after
// repeated failed logins.
func (m *Mailer) AccountLocked(_ context.Context, email string) error {
	body := strings.Join([]string{
		"Your account has been locked after too many failed login attempts.",
		"",
		"If this was not you, reset your password at " + m.appDomain + "/password/forgot",
	}, "\r\n")
	return m.deliver(email, "Your account has been locked", body)
}

// PasswordReset sends the reset link carrying the one-time token.
func (m *Mailer) PasswordReset(_ context.Context, email, token string) error {
	body := strings.Join([]string{
		"A password reset was requested for your account.",
		"",
		"Reset your password: " + m.appDomain + "/password/reset?token=" + token,
		"",
		"The link expires shortly. If you did not request this, ignore this email.",
	}, "\r\n")
	return m.deliver(email, "Reset your password", body)
}

func (m *Mailer) deliver(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
