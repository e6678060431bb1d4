// internal/app/store/posts/poststore.go
package poststore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/studytrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotCommentAuthor = errors.New("only the comment author can remove it")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("posts")}
}

func (s *Store) Create(ctx context.Context, p models.Post) (models.Post, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Likes = []primitive.ObjectID{}
	p.Comments = []models.Comment{}
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// GetByID returns mongo.ErrNoDocuments when the post does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByCommunity returns one page of a community's posts, newest first,
// plus the total.
func (s *Store) ListByCommunity(ctx context.Context, cid primitive.ObjectID, skip, limit int64) ([]models.Post, int64, error) {
	filter := bson.M{"community_id": cid}
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

	out := []models.Post{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update holds the author-editable fields. Nil means unchanged.
type Update struct {
	Title   *string
	Content *string
}

func (s *Store) Apply(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Post, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Content != nil {
		set["content"] = *upd.Content
	}
	return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (s *Store) findAndUpdate(ctx context.Context, filter bson.M, update any) (*models.Post, error) {
	var p models.Post
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a post by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCommunity removes every post of a community.
func (s *Store) DeleteByCommunity(ctx context.Context, cid primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"community_id": cid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ToggleLike adds uid to likes if absent and removes it if present, in one
// pipeline update, and returns the post as it is afterwards.
func (s *Store) ToggleLike(ctx context.Context, id, uid primitive.ObjectID) (*models.Post, error) {
	likes := bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{uid, likes}},
				bson.M{"$filter": bson.M{
					"input": likes,
					"as":    "l",
					"cond":  bson.M{"$ne": bson.A{"$$l", uid}},
				}},
				bson.M{"$concatArrays": bson.A{likes, bson.A{uid}}},
			}},
			"updated_at": time.Now().UTC(),
		}}},
	}
	return s.findAndUpdate(ctx, bson.M{"_id": id}, pipeline)
}

// AddComment appends cm and returns the updated post.
func (s *Store) AddComment(ctx context.Context, id primitive.ObjectID, cm models.Comment) (*models.Post, error) {
	return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"comments": cm},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

// RemoveComment pulls the comment only when authorID wrote it.
func (s *Store) RemoveComment(ctx context.Context, id, commentID, authorID primitive.ObjectID) (*models.Post, error) {
	p, err := s.findAndUpdate(ctx,
		bson.M{"_id": id, "comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "author_id": authorID}}},
		bson.M{
			"$pull": bson.M{"comments": bson.M{"_id": commentID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, cm := range cur.Comments {
		if cm.ID == commentID {
			return nil, ErrNotCommentAuthor
		}
	}
	return nil, ErrCommentNotFound
}
