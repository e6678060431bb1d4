// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/studytrack/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// minSecretLen is the shortest JWT secret accepted in prod.
const minSecretLen = 32

// appConfigKeys defines the configuration keys for StudyTrack.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: STUDYTRACK_MONGO_URI, STUDYTRACK_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "studytrack", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HS256 signing key (at least 32 bytes in production)"},
	{Name: "jwt_issuer", Default: "studytrack", Desc: "Token issuer claim"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Access token lifetime (e.g., 1h, 24h)"},

	// Redis (optional)
	{Name: "redis_url", Default: "", Desc: "Redis URL for token revocation and login limits (blank keeps both in memory)"},

	// HTTP edge
	{Name: "cors_allowed_origins", Default: "", Desc: "Comma-separated allowed origins (blank allows any origin without credentials)"},
	{Name: "rate_limit_rps", Default: 20, Desc: "Per-IP requests per second"},
	{Name: "rate_limit_burst", Default: 40, Desc: "Per-IP burst size"},

	// Login throttling
	{Name: "login_max_attempts", Default: 10, Desc: "Login attempts allowed per IP and per account within login_window"},
	{Name: "login_window", Default: "15m", Desc: "Login throttling window"},

	// Password reset
	{Name: "reset_token_ttl", Default: "1h", Desc: "Password reset link lifetime"},
	{Name: "reset_cleanup_interval", Default: "1h", Desc: "How often expired reset tokens are cleared (0 disables)"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs emails instead of sending)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@studytrack.local", Desc: "From email address"},

	// Audit logging
	{Name: "audit_log", Default: "all", Desc: "Audit event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list and aggregate reads"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-document writes"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STUDYTRACK_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STUDYTRACK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),
		JWTTTL:    appValues.Duration("jwt_ttl", 24*time.Hour),

		RedisURL: strings.TrimSpace(appValues.String("redis_url")),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),
		RateLimitRPS:       appValues.Int("rate_limit_rps"),
		RateLimitBurst:     appValues.Int("rate_limit_burst"),

		LoginMaxAttempts: appValues.Int("login_max_attempts"),
		LoginWindow:      appValues.Duration("login_window", 15*time.Minute),

		ResetTokenTTL:        appValues.Duration("reset_token_ttl", time.Hour),
		ResetCleanupInterval: appValues.Duration("reset_cleanup_interval", time.Hour),
		BaseURL:              appValues.String("base_url"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),

		AuditLog: strings.ToLower(strings.TrimSpace(appValues.String("audit_log"))),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The Mongo and Redis URLs are checked here so a typo fails before any
// connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}

	if len(appCfg.JWTSecret) < minSecretLen {
		if coreCfg != nil && coreCfg.Env == "prod" {
			return fmt.Errorf("jwt_secret must be at least %d bytes in production", minSecretLen)
		}
		logger.Warn("jwt_secret is shorter than recommended", zap.Int("min_bytes", minSecretLen))
	}
	if appCfg.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive")
	}

	if appCfg.RedisURL != "" {
		if _, err := redis.ParseURL(appCfg.RedisURL); err != nil {
			return fmt.Errorf("invalid redis_url: %w", err)
		}
	}

	if appCfg.RateLimitRPS <= 0 || appCfg.RateLimitBurst <= 0 {
		return fmt.Errorf("rate_limit_rps and rate_limit_burst must be positive")
	}
	if appCfg.LoginMaxAttempts <= 0 || appCfg.LoginWindow <= 0 {
		return fmt.Errorf("login_max_attempts and login_window must be positive")
	}
	if appCfg.ResetTokenTTL <= 0 {
		return fmt.Errorf("reset_token_ttl must be positive")
	}
	if appCfg.ResetCleanupInterval < 0 {
		return fmt.Errorf("reset_cleanup_interval must not be negative")
	}

	switch appCfg.AuditLog {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("audit_log must be one of all, db, log, off; got %q", appCfg.AuditLog)
	}

	return nil
}
