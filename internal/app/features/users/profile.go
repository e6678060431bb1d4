// internal/app/features/users/profile.go
package users

import (
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/studytrack/internal/app/store/users"
	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/authz"
	"github.com/dalemusser/studytrack/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studytrack/internal/app/system/inputval"
	"github.com/dalemusser/studytrack/internal/app/system/normalize"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/dalemusser/studytrack/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type contactInput struct {
	Email    string `json:"email" validate:"omitempty,email" label:"Contact email"`
	Phone    string `json:"phone" validate:"max=30" label:"Phone"`
	LinkedIn string `json:"linkedin" validate:"omitempty,url" label:"LinkedIn"`
	GitHub   string `json:"github" validate:"omitempty,url" label:"GitHub"`
}

type profileInput struct {
	FirstName   *string       `json:"firstName" validate:"omitempty,max=50" label:"First name"`
	LastName    *string       `json:"lastName" validate:"omitempty,max=50" label:"Last name"`
	Bio         *string       `json:"bio" validate:"omitempty,max=500" label:"Bio"`
	Avatar      *string       `json:"avatar" validate:"omitempty,url" label:"Avatar"`
	ContactInfo *contactInput `json:"contactInfo"`
}

func trimmed(p *string, clean func(string) string) *string {
	if p == nil {
		return nil
	}
	s := clean(*p)
	return &s
}

func (in profileInput) update() (userstore.ProfileUpdate, error) {
	in.FirstName = trimmed(in.FirstName, normalize.Name)
	in.LastName = trimmed(in.LastName, normalize.Name)
	in.Bio = trimmed(in.Bio, htmlsanitize.Sanitize)
	in.Avatar = trimmed(in.Avatar, strings.TrimSpace)
	if res := inputval.Validate(in); res.HasErrors() {
		return userstore.ProfileUpdate{}, apperr.InvalidInput(res.First())
	}
	upd := userstore.ProfileUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Avatar:    in.Avatar,
	}
	if ci := in.ContactInfo; ci != nil {
		upd.ContactInfo = &models.ContactInfo{
			Email:    normalize.Email(ci.Email),
			Phone:    strings.TrimSpace(ci.Phone),
			LinkedIn: strings.TrimSpace(ci.LinkedIn),
			GitHub:   strings.TrimSpace(ci.GitHub),
		}
	}
	return upd, nil
}

func userErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("user")
	}
	return apperr.Internal(err)
}

// ServeMe handles GET /api/users/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get profile")
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		respond.Error(w, r, h.Log, userErr(err))
		return
	}
	respond.OK(w, "Profile retrieved", u)
}

// HandleUpdateMe handles PATCH /api/users/me. Absent fields are unchanged.
func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in profileInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	upd, err := in.update()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update profile")
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, uid, upd)
	if err != nil {
		respond.Error(w, r, h.Log, userErr(err))
		return
	}
	respond.OK(w, "Profile updated", u)
}

// ServeMyCommunities handles GET /api/users/me/communities.
func (h *Handler) ServeMyCommunities(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user communities")
	defer cancel()

	out, err := h.Svc.UserCommunities(ctx, uid.Hex())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Communities retrieved", out)
}

// ServeProfile handles GET /api/users/{id}. Callers viewing themselves get
// the full profile; everyone else gets the public summary.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.InvalidInput("invalid user id"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get user")
	defer cancel()

	if authz.IsSelf(r, id) {
		u, err := h.Users.GetByID(ctx, id)
		if err != nil {
			respond.Error(w, r, h.Log, userErr(err))
			return
		}
		respond.OK(w, "Profile retrieved", u)
		return
	}

	s, err := h.Users.Summary(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, userErr(err))
		return
	}
	respond.OK(w, "Profile retrieved", s)
}
