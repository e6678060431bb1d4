// internal/app/features/tasks/tasks.go
package tasks

import (
	"errors"
	"net/http"

	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/authz"
	"github.com/dalemusser/studytrack/internal/app/system/normalize"
	"github.com/dalemusser/studytrack/internal/app/system/paging"
	"github.com/dalemusser/studytrack/internal/app/system/respond"
	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/dalemusser/studytrack/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// taskID parses the {id} URL param. A malformed id is a 400.
func taskID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidInput("invalid task id")
	}
	return id, nil
}

// storeErr maps store errors. Someone else's task is indistinguishable
// from a missing one.
func storeErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("task")
	}
	return apperr.Internal(err)
}

// ServeList handles GET /api/tasks?status=&page=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	status := normalize.QueryParam(query.Get(r, "status"))
	if status != "" && !models.ValidTaskStatus(status) {
		respond.Error(w, r, h.Log, apperr.InvalidInput("status must be one of: todo, in_progress, done"))
		return
	}
	pg := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list tasks")
	defer cancel()

	items, total, err := h.Tasks.List(ctx, uid, status, pg.Skip(), pg.Limit64())
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	respond.Paginated(w, "Tasks retrieved", items, pg.Page, pg.Limit, total)
}

// ServeGet handles GET /api/tasks/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id, err := taskID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get task")
	defer cancel()

	t, err := h.Tasks.Get(ctx, id, uid)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	respond.OK(w, "Task retrieved", t)
}

// HandleCreate handles POST /api/tasks.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	task, err := in.task(uid)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create task")
	defer cancel()

	created, err := h.Tasks.Create(ctx, task)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	respond.Created(w, "Task created", created)
}

// HandleUpdate handles PATCH /api/tasks/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id, err := taskID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in patchInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	upd, err := in.update()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update task")
	defer cancel()

	t, err := h.Tasks.Apply(ctx, id, uid, upd)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	respond.OK(w, "Task updated", t)
}

// HandleDelete handles DELETE /api/tasks/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, err := authz.UserID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id, err := taskID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete task")
	defer cancel()

	n, err := h.Tasks.Delete(ctx, id, uid)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	if n == 0 {
		respond.Error(w, r, h.Log, apperr.NotFound("task"))
		return
	}
	respond.OK(w, "Task deleted", nil)
}
