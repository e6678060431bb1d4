// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework-level settings: ports, TLS, log level and body limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret string        // HS256 key; at least 32 bytes in prod
	JWTIssuer string        // iss claim, checked on every request
	JWTTTL    time.Duration // lifetime of an access token

	// Redis is optional. When set it backs token revocation and the
	// login limiter; otherwise both stay in-process.
	RedisURL string

	// HTTP edge
	CORSAllowedOrigins []string // empty means any origin, no credentials
	RateLimitRPS       int      // per-IP requests per second
	RateLimitBurst     int

	// Login throttling, per IP and per identifier
	LoginMaxAttempts int
	LoginWindow      time.Duration

	// Password reset
	ResetTokenTTL        time.Duration
	ResetCleanupInterval time.Duration // 0 disables the expired-token sweep
	BaseURL              string        // prefix for links in emails, e.g. "http://localhost:3000"

	// Email/SMTP configuration. An empty host logs messages instead.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string

	// Audit logging: all, db, log or off
	AuditLog string

	// Per-operation context deadlines
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
