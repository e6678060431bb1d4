// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"time"

	"github.com/dalemusser/studytrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Every query is scoped by owner_id; another user's task is simply not found.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Create inserts t. Status defaults to todo and priority to medium.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.Status == models.TaskDone {
		t.CompletedAt = &now
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Get returns mongo.ErrNoDocuments unless owner owns the task.
func (s *Store) Get(ctx context.Context, id, owner primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "owner_id": owner}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns one page of owner's tasks, newest first, optionally
// filtered by status, plus the total.
func (s *Store) List(ctx context.Context, owner primitive.ObjectID, status string, skip, limit int64) ([]models.Task, int64, error) {
	filter := bson.M{"owner_id": owner}
	if status != "" {
		filter["status"] = status
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update holds the editable fields. Nil means unchanged; ClearDueDate
// removes the due date.
type Update struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
}

// Apply writes upd. Moving to done stamps completed_at; moving away from
// done clears it.
func (s *Store) Apply(ctx context.Context, id, owner primitive.ObjectID, upd Update) (*models.Task, error) {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	unset := bson.M{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
		if *upd.Status == models.TaskDone {
			set["completed_at"] = now
		} else {
			unset["completed_at"] = ""
		}
	}
	switch {
	case upd.ClearDueDate:
		unset["due_date"] = ""
	case upd.DueDate != nil:
		set["due_date"] = upd.DueDate.UTC()
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var t models.Task
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "owner_id": owner}, update, opts).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes owner's task. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id, owner primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "owner_id": owner})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
