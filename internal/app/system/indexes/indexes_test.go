package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/studytrack/internal/app/system/indexes"
	"github.com/dalemusser/studytrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	// SetupTestDB already ran EnsureAll once.
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("third EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		coll string
		want []string
	}{
		{"users", []string{"uniq_users_email", "uniq_users_usernameci", "idx_users_reset_token"}},
		{"communities", []string{"uniq_communities_nameci", "idx_communities_members", "idx_communities_creator", "idx_communities_createdat__id"}},
		{"posts", []string{"idx_posts_community_createdat__id", "idx_posts_author"}},
		{"tasks", []string{"idx_tasks_owner_status_due", "idx_tasks_owner_createdat"}},
		{"audit_events", []string{"idx_audit_timestamp", "idx_audit_user_timestamp", "idx_audit_community_timestamp"}},
	}

	for _, tt := range tests {
		t.Run(tt.coll, func(t *testing.T) {
			names := indexNames(t, ctx, db, tt.coll)
			for _, name := range tt.want {
				if !names[name] {
					t.Errorf("expected index %q on %s", name, tt.coll)
				}
			}
		})
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Replace a desired index with the same keys under another name.
	if _, err := db.Collection("posts").Indexes().DropOne(ctx, "idx_posts_author"); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	_, err := db.Collection("posts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "author_id", Value: 1}},
		Options: options.Index().SetName("author_old"),
	})
	if err != nil {
		t.Fatalf("create old index failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, ctx, db, "posts")
	if !names["idx_posts_author"] {
		t.Error("expected idx_posts_author after reconcile")
	}
	if names["author_old"] {
		t.Error("expected author_old to be dropped")
	}
}

func TestEnsureAll_CommunityNameUniqueCaseFolded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("communities")
	if _, err := c.InsertOne(ctx, bson.M{"name": "Rust Devs", "name_ci": "rust devs"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := c.InsertOne(ctx, bson.M{"name": "rust devs", "name_ci": "rust devs"}); err == nil {
		t.Error("expected duplicate key error on communities.name_ci")
	}
}
