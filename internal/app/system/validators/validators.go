// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/studytrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the app's collections when missing and attaches a
// $jsonSchema validator to each. Servers without collMod validator support
// are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing := map[string]bool{}
	if names, err := db.ListCollectionNames(ctx, bson.M{}); err == nil {
		for _, n := range names {
			existing[n] = true
		}
	}

	var problems []string
	ensure := func(coll string, schema bson.M) {
		if !existing[coll] {
			if err := db.CreateCollection(ctx, coll); err != nil && !isNamespaceExistsErr(err) {
				zap.L().Warn("createCollection failed", zap.String("collection", coll), zap.Error(err))
				problems = append(problems, coll+": "+err.Error())
				return
			}
			zap.L().Info("created collection", zap.String("collection", coll))
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("communities", communitiesSchema())
	ensure("posts", postsSchema())
	ensure("tasks", tasksSchema())
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

func isNamespaceExistsErr(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 48 {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

// isUnsupported covers "no such command" (59) and "not implemented" (115)
// as returned by DocumentDB-style servers.
func isUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || ce.Code == 115) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "no such command") ||
		strings.Contains(s, "not implemented") ||
		strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func objectIDArray() bson.M {
	return bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"username", "username_ci", "email", "password_hash"},
			"properties": bson.M{
				"username":            nonBlank,
				"username_ci":         nonBlank,
				"email":               nonBlank,
				"password_hash":       nonBlank,
				"joined_communities":  objectIDArray(),
				"created_communities": objectIDArray(),
			},
		},
	}
}

func communitiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "creator_id", "members"},
			"properties": bson.M{
				"name":       nonBlank,
				"name_ci":    nonBlank,
				"tags":       bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"is_private": bson.M{"bsonType": "bool"},
				"creator_id": bson.M{"bsonType": "objectId"},
				"members":    objectIDArray(),
				"posts":      objectIDArray(),
			},
		},
	}
}

func postsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "content", "author_id", "community_id"},
			"properties": bson.M{
				"title":        nonBlank,
				"content":      nonBlank,
				"author_id":    bson.M{"bsonType": "objectId"},
				"community_id": bson.M{"bsonType": "objectId"},
				"likes":        objectIDArray(),
				"comments": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"_id", "author_id", "content"},
						"properties": bson.M{
							"_id":       bson.M{"bsonType": "objectId"},
							"author_id": bson.M{"bsonType": "objectId"},
							"content":   nonBlank,
						},
					},
				},
			},
		},
	}
}

func tasksSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"owner_id", "title", "status", "priority"},
			"properties": bson.M{
				"owner_id": bson.M{"bsonType": "objectId"},
				"title":    nonBlank,
				"status":   bson.M{"enum": bson.A{models.TaskTodo, models.TaskInProgress, models.TaskDone}},
				"priority": bson.M{"enum": bson.A{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}},
			},
		},
	}
}
