// internal/app/features/authapi/reset.go
package authapi

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/inputval"
	"github.com/dalemusser/studytrack/internal/app/system/mailer"
	"github.com/dalemusser/studytrack/internal/app/system/normalize"
	"github.com/dalemusser/studytrack/internal/app/system/passwords"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// forgotMessage is sent whether or not the address is registered.
const forgotMessage = "If that email is registered, a reset link has been sent"

type forgotInput struct {
	Email string `json:"email" validate:"required,email" label:"Email"`
}

type resetInput struct {
	Token    string `json:"token" validate:"required" label:"Token"`
	Password string `json:"password" validate:"required,min=8,max=72" label:"Password"`
}

// HashResetToken is what the users collection stores in place of the token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (h *Handler) resetLink(token string) string {
	return strings.TrimRight(h.BaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/forgot-password                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.InvalidInput(res.First()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "forgot password")
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(ctx, r, in.Email); !ok {
			respond.Error(w, r, h.Log, apperr.RateLimited(reason))
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, in.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.OK(w, forgotMessage, nil)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}

	token := uuid.NewString()
	expires := time.Now().UTC().Add(h.ResetTTL)
	if err := h.Users.SetResetToken(ctx, u.ID, HashResetToken(token), expires); err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}

	email := mailer.BuildResetEmail(mailer.ResetEmailData{
		SiteName:  h.SiteName,
		ResetLink: h.resetLink(token),
		ExpiresIn: formatExpiry(h.ResetTTL),
	})
	email.To = u.Email
	if err := h.Mail.Send(email); err != nil {
		// The token is stored; the user can ask again.
		h.Log.Error("reset email not sent", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	h.AuditLog.PasswordResetRequested(ctx, r, u.ID)
	respond.OK(w, forgotMessage, nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/reset-password                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Token = strings.TrimSpace(in.Token)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.InvalidInput(res.First()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reset password")
	defer cancel()

	u, err := h.Users.GetByResetToken(ctx, HashResetToken(in.Token), time.Now().UTC())
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.InvalidInput("reset token is invalid or has expired"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}

	hash, err := passwords.Hash(in.Password)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	h.AuditLog.PasswordReset(ctx, r, u.ID)
	respond.OK(w, "Password has been reset", nil)
}
