package validators_test

import (
	"testing"

	"github.com/dalemusser/studytrack/internal/app/system/validators"
	"github.com/dalemusser/studytrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "communities", "posts", "tasks", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestValidators_RejectInvalidDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	uid := primitive.NewObjectID()
	tests := []struct {
		name string
		coll string
		doc  bson.M
	}{
		{"user without password", "users", bson.M{"username": "ann", "username_ci": "ann", "email": "ann@test.com"}},
		{"community without creator", "communities", bson.M{"name": "Go", "name_ci": "go", "members": bson.A{}}},
		{"community with blank name", "communities", bson.M{"name": "  ", "name_ci": "  ", "creator_id": uid, "members": bson.A{uid}}},
		{"post with string author", "posts", bson.M{"title": "t", "content": "c", "author_id": "abc", "community_id": uid}},
		{"task with bad status", "tasks", bson.M{"owner_id": uid, "title": "Read ch. 3", "status": "someday", "priority": "low"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc); err == nil {
				t.Errorf("expected validation error inserting into %s", tt.coll)
			}
		})
	}
}

func TestValidators_AcceptValidCommunity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	uid := primitive.NewObjectID()
	_, err := db.Collection("communities").InsertOne(ctx, bson.M{
		"name":       "Go Fans",
		"name_ci":    "go fans",
		"tags":       bson.A{"go"},
		"is_private": false,
		"creator_id": uid,
		"members":    bson.A{uid},
		"posts":      bson.A{},
	})
	if err != nil {
		t.Errorf("insert valid community failed: %v", err)
	}
}
