// internal/app/features/communities/mutate.go
package communities

import (
	"net/http"
	"strings"

	"github.com/dalemusser/studytrack/internal/app/membership"
	"github.com/dalemusser/studytrack/internal/app/system/authz"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleCreate handles POST /api/communities.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in membership.CommunityInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create community")
	defer cancel()

	c, err := h.Svc.CreateCommunity(ctx, uid.Hex(), in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.CommunityCreated(ctx, r, uid, c.ID, c.Name)
	respond.Created(w, "Community created", c)
}

// HandleUpdate handles PATCH /api/communities/{id}. Creator only.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var patch membership.CommunityPatch
	if err := respond.Decode(r, &patch); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update community")
	defer cancel()

	view, err := h.Svc.UpdateCommunity(ctx, chi.URLParam(r, "id"), uid.Hex(), patch)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if fields := changedFields(patch); fields != "" {
		h.Audit.CommunityUpdated(ctx, r, uid, view.ID, fields)
	}
	respond.OK(w, "Community updated", view)
}

func changedFields(p membership.CommunityPatch) string {
	var f []string
	if p.Name != nil {
		f = append(f, "name")
	}
	if p.Description != nil {
		f = append(f, "description")
	}
	if p.Tags != nil {
		f = append(f, "tags")
	}
	if p.IsPrivate != nil {
		f = append(f, "isPrivate")
	}
	return strings.Join(f, ",")
}

// HandleDelete handles DELETE /api/communities/{id}. Creator only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete community")
	defer cancel()

	if err := h.Svc.DeleteCommunity(ctx, id, uid.Hex()); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if cid, err := primitive.ObjectIDFromHex(id); err == nil {
		h.Audit.CommunityDeleted(ctx, r, uid, cid)
	}
	respond.OK(w, "Community deleted", nil)
}

// HandleJoin handles POST /api/communities/{id}/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "join community")
	defer cancel()

	if err := h.Svc.Join(ctx, id, uid.Hex()); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if cid, err := primitive.ObjectIDFromHex(id); err == nil {
		h.Audit.MemberJoined(ctx, r, uid, cid)
	}
	respond.OK(w, "Joined community", nil)
}

// HandleLeave handles POST /api/communities/{id}/leave.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "leave community")
	defer cancel()

	if err := h.Svc.Leave(ctx, id, uid.Hex()); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if cid, err := primitive.ObjectIDFromHex(id); err == nil {
		h.Audit.MemberLeft(ctx, r, uid, cid)
	}
	respond.OK(w, "Left community", nil)
}

// ServeMembership handles GET /api/communities/{id}/membership and reports
// whether the caller is a member.
func (h *Handler) ServeMembership(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "membership check")
	defer cancel()

	ok := h.Svc.IsMember(ctx, chi.URLParam(r, "id"), uid.Hex())
	respond.OK(w, "Membership checked", map[string]bool{"isMember": ok})
}
