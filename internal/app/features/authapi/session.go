// internal/app/features/authapi/session.go
package authapi

import (
	"errors"
	"net/http"
	"time"

	userstore "github.com/dalemusser/studytrack/internal/app/store/users"
	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/dalemusser/studytrack/internal/app/system/authz"
	"github.com/dalemusser/studytrack/internal/app/system/inputval"
	"github.com/dalemusser/studytrack/internal/app/system/normalize"
	"github.com/dalemusser/studytrack/internal/app/system/passwords"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/dalemusser/studytrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// errBadCredentials is the single answer for unknown users and wrong
// passwords alike.
var errBadCredentials = apperr.Unauthorized("invalid credentials")

type registerInput struct {
	Username  string `json:"username" validate:"required,username" label:"Username"`
	Email     string `json:"email" validate:"required,email" label:"Email"`
	Password  string `json:"password" validate:"required,min=8,max=72" label:"Password"`
	FirstName string `json:"firstName" validate:"max=50" label:"First name"`
	LastName  string `json:"lastName" validate:"max=50" label:"Last name"`
}

type loginInput struct {
	Identifier string `json:"identifier" validate:"required,max=254" label:"Email or username"`
	Password   string `json:"password" validate:"required,max=72" label:"Password"`
}

// session is returned by register and login.
type session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func (h *Handler) issue(u *models.User) (*session, error) {
	raw, claims, err := h.Tokens.Issue(u.ID.Hex(), u.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &session{Token: raw, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/register                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Username = normalize.Username(in.Username)
	in.Email = normalize.Email(in.Email)
	in.FirstName = normalize.Name(in.FirstName)
	in.LastName = normalize.Name(in.LastName)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.InvalidInput(res.First()))
		return
	}

	hash, err := passwords.Hash(in.Password)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail), errors.Is(err, userstore.ErrDuplicateUsername):
		respond.Error(w, r, h.Log, apperr.Conflict(err.Error()))
		return
	case err != nil:
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	h.AuditLog.Registered(ctx, r, u.ID, u.Username)

	s, err := h.issue(&u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "Registration successful", s)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/login                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Identifier = normalize.Username(in.Identifier)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.InvalidInput(res.First()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(ctx, r, in.Identifier); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, in.Identifier)
			respond.Error(w, r, h.Log, apperr.RateLimited(reason))
			return
		}
	}

	u, err := h.Users.GetByIdentifier(ctx, in.Identifier)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailedUnknownUser(ctx, r, in.Identifier)
		respond.Error(w, r, h.Log, errBadCredentials)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	if err := passwords.Check(u.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, passwords.ErrMismatch) {
			h.Log.Warn("stored password hash unusable", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID)
		respond.Error(w, r, h.Log, errBadCredentials)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(ctx, in.Identifier)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID)

	s, err := h.issue(u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Login successful", s)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/logout, GET /api/auth/me                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogout revokes the presented token until it would have expired.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	uid, err := authz.UserID(r)
	if !ok || err != nil {
		respond.Error(w, r, h.Log, apperr.Unauthorized("authentication required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "logout")
	defer cancel()

	if u.TokenID != "" {
		if err := h.Revoker.Revoke(ctx, u.TokenID, u.ExpiresAt); err != nil {
			respond.Error(w, r, h.Log, apperr.Internal(err))
			return
		}
	}
	h.AuditLog.Logout(ctx, r, uid)
	respond.OK(w, "Logged out", nil)
}

func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "auth me")
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Token outlived its account.
		respond.Error(w, r, h.Log, apperr.Unauthorized("account no longer exists"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	respond.OK(w, "Current user", u)
}
