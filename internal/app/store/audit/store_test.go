package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/studytrack/internal/app/store/audit"
	"github.com/dalemusser/studytrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestStore_GetByCommunity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c1, c2 := primitive.NewObjectID(), primitive.NewObjectID()
	for _, cid := range []primitive.ObjectID{c1, c1, c2} {
		cid := cid
		if err := store.Log(ctx, audit.Event{
			Category:    audit.CategoryCommunity,
			EventType:   audit.EventMemberJoined,
			CommunityID: &cid,
			Success:     true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetByCommunity(ctx, c1, 10)
	if err != nil {
		t.Fatalf("GetByCommunity failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events for c1, got %d", len(events))
	}
}

func TestStore_QueryFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	events := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Timestamp: base, Success: true},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, Timestamp: base.Add(10 * time.Minute)},
		{Category: audit.CategoryCommunity, EventType: audit.EventCommunityCreated, Timestamp: base.Add(20 * time.Minute), Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	start := base.Add(5 * time.Minute)
	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int64
	}{
		{"all", audit.QueryFilter{}, 3},
		{"category", audit.QueryFilter{Category: audit.CategoryAuth}, 2},
		{"event type", audit.QueryFilter{EventType: audit.EventCommunityCreated}, 1},
		{"since", audit.QueryFilter{StartTime: &start}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := store.Count(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if n != tt.want {
				t.Errorf("Count: got %d, want %d", n, tt.want)
			}
		})
	}

	recent, err := store.GetRecent(ctx, 1)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(recent) != 1 || recent[0].EventType != audit.EventCommunityCreated {
		t.Errorf("GetRecent should return the newest event first, got %+v", recent)
	}
}
