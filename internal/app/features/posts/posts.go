// internal/app/features/posts/posts.go
package posts

import (
	"net/http"

	"github.com/dalemusser/studytrack/internal/app/membership"
	"github.com/dalemusser/studytrack/internal/app/system/authz"
	"github.com/dalemusser/studytrack/internal/app/system/paging"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeByCommunity handles GET /api/posts/community/{communityId}?page=&limit=.
func (h *Handler) ServeByCommunity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list posts")
	defer cancel()

	pg := paging.Parse(r)
	page, err := h.Svc.ListCommunityPosts(ctx, chi.URLParam(r, "communityId"), pg.Page, pg.Limit)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Paginated(w, "Posts retrieved", page.Items, page.Page, page.Limit, page.Total)
}

// ServeGet handles GET /api/posts/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get post")
	defer cancel()

	p, err := h.Svc.GetPost(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Post retrieved", p)
}

// HandleCreate handles POST /api/posts. Members only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in membership.PostInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create post")
	defer cancel()

	p, err := h.Svc.CreatePost(ctx, uid.Hex(), in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "Post created", p)
}

// HandleUpdate handles PATCH /api/posts/{id}. Author only.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var patch membership.PostPatch
	if err := respond.Decode(r, &patch); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update post")
	defer cancel()

	p, err := h.Svc.UpdatePost(ctx, chi.URLParam(r, "id"), uid.Hex(), patch)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Post updated", p)
}

// HandleDelete handles DELETE /api/posts/{id}. Author only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete post")
	defer cancel()

	if err := h.Svc.DeletePost(ctx, chi.URLParam(r, "id"), uid.Hex()); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Post deleted", nil)
}
