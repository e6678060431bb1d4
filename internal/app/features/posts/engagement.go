// internal/app/features/posts/engagement.go
package posts

import (
	"net/http"

	"github.com/dalemusser/studytrack/internal/app/system/authz"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/dalemusser/studytrack/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type likeResponse struct {
	Post  *models.Post `json:"post"`
	Liked bool         `json:"liked"`
	Likes int          `json:"likes"`
}

// HandleToggleLike handles POST /api/posts/{id}/like.
func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "toggle like")
	defer cancel()

	p, liked, err := h.Svc.ToggleLike(ctx, chi.URLParam(r, "id"), uid.Hex())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	msg := "Post unliked"
	if liked {
		msg = "Post liked"
	}
	respond.OK(w, msg, likeResponse{Post: p, Liked: liked, Likes: len(p.Likes)})
}

type commentRequest struct {
	Content string `json:"content"`
}

// HandleAddComment handles POST /api/posts/{id}/comment. Members only.
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req commentRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "add comment")
	defer cancel()

	p, err := h.Svc.AddComment(ctx, chi.URLParam(r, "id"), uid.Hex(), req.Content)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "Comment added", p)
}

// HandleRemoveComment handles DELETE /api/posts/{id}/comment/{commentId}.
// Only the comment's author may remove it.
func (h *Handler) HandleRemoveComment(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "remove comment")
	defer cancel()

	p, err := h.Svc.RemoveComment(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "commentId"), uid.Hex())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Comment removed", p)
}
