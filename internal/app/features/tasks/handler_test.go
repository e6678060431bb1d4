package tasks_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/studytrack/internal/app/features/tasks"
	"github.com/dalemusser/studytrack/internal/domain/models"
	"github.com/dalemusser/studytrack/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	r := chi.NewRouter()
	r.Mount("/api/tasks", tasks.Routes(tasks.NewHandler(db, zap.NewNop())))
	return r, testutil.NewFixtures(t, db)
}

func serve(h http.Handler, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	h, fixtures := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	alice := fixtures.CreateUser(ctx, "alice")

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{"defaults", map[string]any{"title": "Read chapter 3"}, http.StatusCreated},
		{"full", map[string]any{"title": "Essay", "status": "done", "priority": "high", "dueDate": "2026-11-01T00:00:00Z"}, http.StatusCreated},
		{"missing title", map[string]any{"description": "x"}, http.StatusBadRequest},
		{"blank title", map[string]any{"title": "   "}, http.StatusBadRequest},
		{"bad status", map[string]any{"title": "T", "status": "later"}, http.StatusBadRequest},
		{"bad priority", map[string]any{"title": "T", "priority": "urgent"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, testutil.NewAuthenticatedRequest(http.MethodPost, "/api/tasks", tt.body, alice))
			rec.AssertStatus(t, tt.wantStatus)
		})
	}

	rec := serve(h, testutil.NewAuthenticatedRequest(http.MethodPost, "/api/tasks", map[string]any{"title": "Plain"}, alice))
	var got models.Task
	rec.Envelope(t, &got)
	if got.Status != models.TaskTodo || got.Priority != models.PriorityMedium {
		t.Errorf("defaults: got status %q priority %q", got.Status, got.Priority)
	}
	if got.OwnerID != alice.ID {
		t.Errorf("OwnerID: got %s, want %s", got.OwnerID.Hex(), alice.ID.Hex())
	}

	rec = serve(h, testutil.NewAuthenticatedRequest(http.MethodPost, "/api/tasks",
		map[string]any{"title": "Done already", "status": "done"}, alice))
	rec.Envelope(t, &got)
	if got.CompletedAt == nil {
		t.Error("CompletedAt should be set for a task created as done")
	}

	serve(h, testutil.NewRequest(http.MethodPost, "/api/tasks", map[string]any{"title": "x"})).
		AssertStatus(t, http.StatusUnauthorized)
}

func TestList_OwnerScopedAndFiltered(t *testing.T) {
	h, fixtures := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	alice := fixtures.CreateUser(ctx, "alice")
	bob := fixtures.CreateUser(ctx, "bob")

	fixtures.CreateTask(ctx, alice, "a1", models.TaskTodo)
	fixtures.CreateTask(ctx, alice, "a2", models.TaskDone)
	fixtures.CreateTask(ctx, alice, "a3", models.TaskTodo)
	fixtures.CreateTask(ctx, bob, "b1", models.TaskTodo)

	tests := []struct {
		name      string
		target    string
		wantItems int
		wantTotal int64
	}{
		{"all", "/api/tasks", 3, 3},
		{"todo", "/api/tasks?status=todo", 2, 2},
		{"done", "/api/tasks?status=done", 1, 1},
		{"paged", "/api/tasks?page=2&limit=2", 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, testutil.NewAuthenticatedRequest(http.MethodGet, tt.target, nil, alice))
			rec.AssertStatus(t, http.StatusOK)
			var items []models.Task
			env := rec.Envelope(t, &items)
			if len(items) != tt.wantItems {
				t.Errorf("items: got %d, want %d", len(items), tt.wantItems)
			}
			if env.Total == nil || *env.Total != tt.wantTotal {
				t.Errorf("total: got %v, want %d", env.Total, tt.wantTotal)
			}
			for _, it := range items {
				if it.OwnerID != alice.ID {
					t.Errorf("task %q belongs to someone else", it.Title)
				}
			}
		})
	}

	serve(h, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/tasks?status=someday", nil, alice)).
		AssertStatus(t, http.StatusBadRequest)
}

func TestGetUpdateDelete(t *testing.T) {
	h, fixtures := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	alice := fixtures.CreateUser(ctx, "alice")
	bob := fixtures.CreateUser(ctx, "bob")
	task := fixtures.CreateTask(ctx, alice, "Flashcards", models.TaskTodo)
	path := "/api/tasks/" + task.ID.Hex()

	serve(h, testutil.NewAuthenticatedRequest(http.MethodGet, path, nil, alice)).AssertStatus(t, http.StatusOK)
	serve(h, testutil.NewAuthenticatedRequest(http.MethodGet, path, nil, bob)).AssertStatus(t, http.StatusNotFound)
	serve(h, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/tasks/nope", nil, alice)).AssertStatus(t, http.StatusBadRequest)
	serve(h, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/tasks/"+primitive.NewObjectID().Hex(), nil, alice)).
		AssertStatus(t, http.StatusNotFound)

	serve(h, testutil.NewAuthenticatedRequest(http.MethodPatch, path, map[string]any{"status": "done"}, bob)).
		AssertStatus(t, http.StatusNotFound)

	rec := serve(h, testutil.NewAuthenticatedRequest(http.MethodPatch, path,
		map[string]any{"status": "done", "dueDate": "2026-12-01T00:00:00Z"}, alice))
	rec.AssertStatus(t, http.StatusOK)
	var got models.Task
	rec.Envelope(t, &got)
	if got.Status != models.TaskDone || got.CompletedAt == nil || got.DueDate == nil {
		t.Errorf("after done: got %+v", got)
	}
	if got.Title != "Flashcards" {
		t.Errorf("Title: got %q, want unchanged %q", got.Title, "Flashcards")
	}

	rec = serve(h, testutil.NewAuthenticatedRequest(http.MethodPatch, path,
		map[string]any{"status": "in_progress", "clearDueDate": true}, alice))
	rec.AssertStatus(t, http.StatusOK)
	got = models.Task{}
	rec.Envelope(t, &got)
	if got.CompletedAt != nil || got.DueDate != nil {
		t.Errorf("after reopen: completedAt=%v dueDate=%v, want both cleared", got.CompletedAt, got.DueDate)
	}

	serve(h, testutil.NewAuthenticatedRequest(http.MethodPatch, path, map[string]any{"title": " "}, alice)).
		AssertStatus(t, http.StatusBadRequest)
	serve(h, testutil.NewAuthenticatedRequest(http.MethodPatch, path, map[string]any{"priority": "urgent"}, alice)).
		AssertStatus(t, http.StatusBadRequest)

	serve(h, testutil.NewAuthenticatedRequest(http.MethodDelete, path, nil, bob)).AssertStatus(t, http.StatusNotFound)
	serve(h, testutil.NewAuthenticatedRequest(http.MethodDelete, path, nil, alice)).AssertStatus(t, http.StatusOK)
	serve(h, testutil.NewAuthenticatedRequest(http.MethodDelete, path, nil, alice)).AssertStatus(t, http.StatusNotFound)
}
