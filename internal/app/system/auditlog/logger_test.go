package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/studytrack/internal/app/store/audit"
	"github.com/dalemusser/studytrack/internal/app/system/auditlog"
	"github.com/dalemusser/studytrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID())
	logger.MemberJoined(ctx, req, primitive.NewObjectID(), primitive.NewObjectID())
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		mode    string
		wantDB  int
		wantZap int
	}{
		{auditlog.ModeAll, 1, 1},
		{auditlog.ModeDB, 1, 0},
		{auditlog.ModeLog, 0, 1},
		{auditlog.ModeOff, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Uniform(tt.mode))
			req := httptest.NewRequest("POST", "/api/communities/x/join", nil)
			req.RemoteAddr = "10.1.2.3:999"
			uid, cid := primitive.NewObjectID(), primitive.NewObjectID()
			logger.MemberJoined(ctx, req, uid, cid)

			events, err := store.GetByCommunity(ctx, cid, 10)
			if err != nil {
				t.Fatalf("GetByCommunity failed: %v", err)
			}
			if len(events) != tt.wantDB {
				t.Errorf("db events: got %d, want %d", len(events), tt.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tt.wantZap {
				t.Errorf("zap entries: got %d, want %d", got, tt.wantZap)
			}
			if tt.wantDB == 1 {
				e := events[0]
				if e.IP != "10.1.2.3" {
					t.Errorf("IP: got %q, want %q", e.IP, "10.1.2.3")
				}
				if e.UserID == nil || *e.UserID != uid {
					t.Errorf("UserID: got %v, want %s", e.UserID, uid.Hex())
				}
			}
		})
	}
}

func TestLogger_PerCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeOff, Community: auditlog.ModeDB})
	req := httptest.NewRequest("POST", "/", nil)
	uid := primitive.NewObjectID()

	logger.LoginSuccess(ctx, req, uid)
	logger.CommunityCreated(ctx, req, uid, primitive.NewObjectID(), "Go Learners")

	events, err := store.GetByUser(ctx, uid, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventCommunityCreated {
		t.Errorf("EventType: got %q", events[0].EventType)
	}
	if events[0].Details["name"] != "Go Learners" {
		t.Errorf("Details: got %v", events[0].Details)
	}
}
