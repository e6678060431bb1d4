// internal/app/store/communities/communitystore.go
package communitystore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/studytrack/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateName = errors.New("a community with this name already exists")
	ErrAlreadyMember = errors.New("user is already a member of this community")
	ErrLeaveRejected = errors.New("leave did not match a removable member")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("communities")}
}

// Create inserts c with the creator as its only member.
func (s *Store) Create(ctx context.Context, c models.Community) (models.Community, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	c.Members = []primitive.ObjectID{c.CreatorID}
	c.Posts = []primitive.ObjectID{}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Community{}, ErrDuplicateName
		}
		return models.Community{}, err
	}
	return c, nil
}

// GetByID returns mongo.ErrNoDocuments when the community does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Community, error) {
	var c models.Community
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update holds the creator-editable fields. Nil means unchanged.
type Update struct {
	Name        *string
	Description *string
	Tags        *[]string
	IsPrivate   *bool
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Tags == nil && u.IsPrivate == nil
}

// Apply writes upd and returns the updated community.
func (s *Store) Apply(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Community, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
		set["name_ci"] = text.Fold(*upd.Name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Tags != nil {
		tags := *upd.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}
	if upd.IsPrivate != nil {
		set["is_private"] = *upd.IsPrivate
	}

	var c models.Community
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&c)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes a community by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// AddMember appends uid to members. The membership check is part of the
// update filter so concurrent joins cannot add the same user twice.
func (s *Store) AddMember(ctx context.Context, cid, uid primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": cid, "members": bson.M{"$ne": uid}},
		bson.M{"$push": bson.M{"members": uid}, "$set": bson.M{"updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	ok, err := s.exists(ctx, cid)
	if err != nil {
		return err
	}
	if !ok {
		return mongo.ErrNoDocuments
	}
	return ErrAlreadyMember
}

// RemoveMember pulls uid from members unless uid is the creator. When the
// guarded update matches nothing it returns ErrLeaveRejected; the caller
// works out why.
func (s *Store) RemoveMember(ctx context.Context, cid, uid primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": cid, "creator_id": bson.M{"$ne": uid}, "members": uid},
		bson.M{"$pull": bson.M{"members": uid}, "$set": bson.M{"updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrLeaveRejected
	}
	return nil
}

// IsMember reports whether uid is in the community's members.
func (s *Store) IsMember(ctx context.Context, cid, uid primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": cid, "members": uid}, options.Count().SetLimit(1))
	return n > 0, err
}

// AddPost records pid in the community's posts.
func (s *Store) AddPost(ctx context.Context, cid, pid primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, cid, bson.M{
		"$addToSet": bson.M{"posts": pid},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemovePost drops pid from the community's posts.
func (s *Store) RemovePost(ctx context.Context, cid, pid primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, cid, bson.M{
		"$pull": bson.M{"posts": pid},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func searchFilter(search string) bson.M {
	search = strings.TrimSpace(search)
	if search == "" {
		return bson.M{}
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": re},
		bson.M{"description": re},
		bson.M{"tags": re},
	}}
}

// List returns one page of communities, newest first, matching search
// case-insensitively against name, description and tags, plus the total.
func (s *Store) List(ctx context.Context, search string, skip, limit int64) ([]models.Community, int64, error) {
	filter := searchFilter(search)
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

	out := []models.Community{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListForMember returns every community uid belongs to, creator or not.
func (s *Store) ListForMember(ctx context.Context, uid primitive.ObjectID) ([]models.Community, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"members": uid}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Community{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
