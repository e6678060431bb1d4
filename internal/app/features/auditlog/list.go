// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"time"

	"github.com/dalemusser/studytrack/internal/app/store/audit"
	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/authz"
	"github.com/dalemusser/studytrack/internal/app/system/normalize"
	"github.com/dalemusser/studytrack/internal/app/system/paging"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

// parseFilter reads ?category=&eventType=&startDate=&endDate=&page=&limit=.
// Dates are whole days in UTC; endDate includes the entire day.
func parseFilter(r *http.Request) (audit.QueryFilter, paging.Params, error) {
	pg := paging.Parse(r)
	f := audit.QueryFilter{
		Category:  normalize.QueryParam(query.Get(r, "category")),
		EventType: normalize.QueryParam(query.Get(r, "eventType")),
		Limit:     pg.Limit64(),
		Offset:    pg.Skip(),
	}

	if s := query.Get(r, "startDate"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, pg, apperr.InvalidInput("startDate must be YYYY-MM-DD")
		}
		f.StartTime = &t
	}
	if s := query.Get(r, "endDate"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, pg, apperr.InvalidInput("endDate must be YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &end
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return f, pg, apperr.InvalidInput("endDate is before startDate")
	}
	return f, pg, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, f audit.QueryFilter, pg paging.Params, op string) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, op)
	defer cancel()

	events, err := h.Events.Query(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	total, err := h.Events.Count(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	respond.Paginated(w, "Audit events retrieved", events, pg.Page, pg.Limit, total)
}

// ServeMine handles GET /api/audit/me.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f, pg, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f.UserID = &uid
	h.list(w, r, f, pg, "audit list mine")
}

// ServeCommunity handles GET /api/audit/communities/{id}. Only the
// community's creator may read it.
func (h *Handler) ServeCommunity(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f, pg, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "audit community lookup")
	defer cancel()

	view, err := h.Svc.GetCommunity(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if view.Creator == nil || view.Creator.ID != uid {
		respond.Error(w, r, h.Log, apperr.Forbidden("only the creator can view community activity"))
		return
	}

	cid := view.ID
	f.CommunityID = &cid
	h.list(w, r, f, pg, "audit list community")
}
