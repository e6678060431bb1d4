package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/studytrack/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some random error"), false},
		{"code 20", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"code 51", mongo.CommandError{Code: 51, Message: "Illegal operation"}, true},
		{"code 263", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"other code", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}, false},
		{"transaction + replica set", errors.New("transaction failed because this is not a replica set member"), true},
		{"session + not supported", errors.New("session operations are not supported on this server"), true},
		{"single keyword", errors.New("transaction failed"), false},
		{"transaction + session", errors.New("cannot start transaction in current session state"), true},
		{"upper case", errors.New("TRANSACTION FAILED on REPLICA SET"), true},
		{"domain error", errors.New("community not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRunner_CommitsBothWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := New(db, zap.NewNop())
	err := r.Run(ctx, func(ctx context.Context) error {
		if _, err := db.Collection("txn_a").InsertOne(ctx, bson.M{"k": 1}); err != nil {
			return err
		}
		_, err := db.Collection("txn_b").InsertOne(ctx, bson.M{"k": 1})
		return err
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, coll := range []string{"txn_a", "txn_b"} {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != 1 {
			t.Errorf("%s: got %d docs, want 1", coll, n)
		}
	}
}

func TestRunner_ReturnsFnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sentinel := errors.New("stop here")
	r := New(db, zap.NewNop())
	err := r.Run(ctx, func(ctx context.Context) error {
		if _, err := db.Collection("txn_a").InsertOne(ctx, bson.M{"k": 1}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Run error: got %v, want %v", err, sentinel)
	}

	// With transactions the insert is rolled back; without them it stays.
	n, _ := db.Collection("txn_a").CountDocuments(ctx, bson.M{})
	if r.Transactional() && n != 0 {
		t.Errorf("transactional run left %d docs, want 0", n)
	}
	if !r.Transactional() && n != 1 {
		t.Errorf("non-transactional run left %d docs, want 1", n)
	}
}
