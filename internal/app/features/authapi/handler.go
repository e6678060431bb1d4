// internal/app/features/authapi/handler.go
package authapi

import (
	"fmt"
	"time"

	userstore "github.com/dalemusser/studytrack/internal/app/store/users"
	"github.com/dalemusser/studytrack/internal/app/system/auditlog"
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/dalemusser/studytrack/internal/app/system/mailer"
	"github.com/dalemusser/studytrack/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Sender delivers an email. *mailer.Mailer satisfies it.
type Sender interface {
	Send(e mailer.Email) error
}

type Handler struct {
	Users    *userstore.Store
	Tokens   *auth.TokenManager
	Revoker  auth.Revoker
	Limiter  *ratelimit.LoginLimiter
	Mail     Sender
	AuditLog *auditlog.Logger
	Log      *zap.Logger

	BaseURL  string        // prefix for reset links, e.g. "https://studytrack.app"
	SiteName string        // shown in email subjects
	ResetTTL time.Duration // lifetime of a password-reset token
}

func NewHandler(
	db *mongo.Database,
	tokens *auth.TokenManager,
	revoker auth.Revoker,
	limiter *ratelimit.LoginLimiter,
	mail Sender,
	audit *auditlog.Logger,
	baseURL string,
	resetTTL time.Duration,
	logger *zap.Logger,
) *Handler {
	if revoker == nil {
		revoker = auth.NopRevoker{}
	}
	return &Handler{
		Users:    userstore.New(db),
		Tokens:   tokens,
		Revoker:  revoker,
		Limiter:  limiter,
		Mail:     mail,
		AuditLog: audit,
		Log:      logger,
		BaseURL:  baseURL,
		SiteName: "StudyTrack",
		ResetTTL: resetTTL,
	}
}

// formatExpiry renders d for humans, e.g. "30 minutes" or "1 hour".
func formatExpiry(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := minutes / 60
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
