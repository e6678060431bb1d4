// internal/app/features/communities/read.go
package communities

import (
	"net/http"

	"github.com/dalemusser/studytrack/internal/app/system/paging"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

// ServeList handles GET /api/communities?search=&page=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list communities")
	defer cancel()

	pg := paging.Parse(r)
	page, err := h.Svc.ListCommunities(ctx, query.Get(r, "search"), pg.Page, pg.Limit)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Paginated(w, "Communities retrieved", page.Items, page.Page, page.Limit, page.Total)
}

// ServeGet handles GET /api/communities/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get community")
	defer cancel()

	view, err := h.Svc.GetCommunity(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Community retrieved", view)
}

// ServeStats handles GET /api/communities/{id}/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "community stats")
	defer cancel()

	stats, err := h.Svc.Stats(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Community stats retrieved", stats)
}

// ServeMembers handles GET and POST /api/communities/{id}/members?page=&limit=.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list members")
	defer cancel()

	pg := paging.Parse(r)
	page, err := h.Svc.ListMembers(ctx, chi.URLParam(r, "id"), pg.Page, pg.Limit)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Paginated(w, "Members retrieved", page.Items, page.Page, page.Limit, page.Total)
}
