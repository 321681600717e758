package config

// SMTPConfig contains outbound mail configuration. Notifications are
// fire-and-forget; delivery failures are logged, never surfaced to the
// auth flows.
type SMTPConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"587"`
	Username string `env:"USERNAME" envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
	From     string `env:"FROM"     envDefault:"no-reply@localhost"`
}
