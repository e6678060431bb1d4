package ratelimit

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// LoginLimiter throttles login and password-reset attempts by client IP
// and by account email.
type LoginLimiter struct {
	ip    Counter
	email Counter
	log   *zap.Logger
}

// NewLoginLimiter builds a limiter from two counters.
func NewLoginLimiter(ip, email Counter, logger *zap.Logger) *LoginLimiter {
	return &LoginLimiter{ip: ip, email: email, log: logger}
}

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Check records an attempt and reports whether it is allowed, with a
// client-facing reason when it is not. Counter errors fail open.
func (ll *LoginLimiter) Check(ctx context.Context, r *http.Request, email string) (bool, string) {
	ok, err := ll.ip.Hit(ctx, "ip:"+ClientIP(r))
	if err != nil {
		ll.log.Warn("login limiter unavailable", zap.Error(err))
		return true, ""
	}
	if !ok {
		return false, "too many login attempts, please wait before trying again"
	}

	if k := emailKey(email); k != "" {
		ok, err := ll.email.Hit(ctx, "email:"+k)
		if err != nil {
			ll.log.Warn("login limiter unavailable", zap.Error(err))
			return true, ""
		}
		if !ok {
			return false, "too many login attempts for this account, please wait before trying again"
		}
	}
	return true, ""
}

// ResetEmail clears the account counter after a successful login.
func (ll *LoginLimiter) ResetEmail(ctx context.Context, email string) {
	if k := emailKey(email); k != "" {
		if err := ll.email.Reset(ctx, "email:"+k); err != nil {
			ll.log.Warn("login limiter reset failed", zap.Error(err))
		}
	}
}
