package workers_test

import (
	"testing"
	"time"

	userstore "github.com/dalemusser/studytrack/internal/app/store/users"
	"github.com/dalemusser/studytrack/internal/app/system/workers"
	"github.com/dalemusser/studytrack/internal/testutil"
	"go.uber.org/zap"
)

func TestResetTokenCleanup_RunOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "erin")
	if err := users.SetResetToken(ctx, u.ID, "h", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("SetResetToken failed: %v", err)
	}

	w := workers.NewResetTokenCleanup(users, zap.NewNop(), time.Hour)
	if n := w.RunOnce(ctx); n != 1 {
		t.Errorf("first pass: cleared %d, want 1", n)
	}
	if n := w.RunOnce(ctx); n != 0 {
		t.Errorf("second pass: cleared %d, want 0", n)
	}
}

func TestResetTokenCleanup_StartStop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	w := workers.NewResetTokenCleanup(userstore.New(db), zap.NewNop(), 10*time.Millisecond)
	w.Start()
	time.Sleep(30 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
