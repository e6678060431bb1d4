// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/studytrack/internal/app/store/audit"
	"github.com/dalemusser/studytrack/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config selects where each category is recorded.
type Config struct {
	Auth      string
	Community string
}

// Uniform applies one mode to every category.
func Uniform(mode string) Config {
	return Config{Auth: mode, Community: mode}
}

// Logger records audit events to the audit store and/or zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.CommunityID != nil {
		fields = append(fields, zap.String("community_id", event.CommunityID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to its category's mode. A nil Logger is a
// no-op so handlers can run without auditing in tests.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := ModeAll
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryCommunity:
		setting = l.config.Community
	}
	if setting == ModeOff || setting == "" {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if setting == ModeAll || setting == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func authEvent(r *http.Request, eventType string, userID *primitive.ObjectID, success bool) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

func communityEvent(r *http.Request, eventType string, userID, communityID primitive.ObjectID) audit.Event {
	return audit.Event{
		Category:    audit.CategoryCommunity,
		EventType:   eventType,
		UserID:      &userID,
		CommunityID: &communityID,
		IP:          ratelimit.ClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
	}
}

// --- Authentication Events ---

// Registered logs a new account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, username string) {
	e := authEvent(r, audit.EventRegistered, &userID, true)
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventLoginSuccess, &userID, true))
}

// LoginFailedUnknownUser logs a login for an identifier with no account.
func (l *Logger) LoginFailedUnknownUser(ctx context.Context, r *http.Request, identifier string) {
	e := authEvent(r, audit.EventLoginFailedUnknownUser, nil, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_identifier": identifier}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a login with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := authEvent(r, audit.EventLoginFailedWrongPassword, &userID, false)
	e.FailureReason = "wrong password"
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login rejected by the limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, identifier string) {
	e := authEvent(r, audit.EventLoginFailedRateLimit, nil, false)
	e.FailureReason = "rate limited"
	e.Details = map[string]string{"attempted_identifier": identifier}
	l.Log(ctx, e)
}

// Logout logs a token revocation.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventLogout, &userID, true))
}

// PasswordResetRequested logs a reset email being sent.
func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventPasswordResetRequested, &userID, true))
}

// PasswordReset logs a completed reset.
func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventPasswordReset, &userID, true))
}

// --- Community Events ---

// CommunityCreated logs a new community.
func (l *Logger) CommunityCreated(ctx context.Context, r *http.Request, userID, communityID primitive.ObjectID, name string) {
	e := communityEvent(r, audit.EventCommunityCreated, userID, communityID)
	e.Details = map[string]string{"name": name}
	l.Log(ctx, e)
}

// CommunityUpdated logs a creator's edit.
func (l *Logger) CommunityUpdated(ctx context.Context, r *http.Request, userID, communityID primitive.ObjectID, fieldsChanged string) {
	e := communityEvent(r, audit.EventCommunityUpdated, userID, communityID)
	e.Details = map[string]string{"fields_changed": fieldsChanged}
	l.Log(ctx, e)
}

// CommunityDeleted logs a deletion.
func (l *Logger) CommunityDeleted(ctx context.Context, r *http.Request, userID, communityID primitive.ObjectID) {
	l.Log(ctx, communityEvent(r, audit.EventCommunityDeleted, userID, communityID))
}

// MemberJoined logs a join.
func (l *Logger) MemberJoined(ctx context.Context, r *http.Request, userID, communityID primitive.ObjectID) {
	l.Log(ctx, communityEvent(r, audit.EventMemberJoined, userID, communityID))
}

// MemberLeft logs a leave.
func (l *Logger) MemberLeft(ctx context.Context, r *http.Request, userID, communityID primitive.ObjectID) {
	l.Log(ctx, communityEvent(r, audit.EventMemberLeft, userID, communityID))
}
