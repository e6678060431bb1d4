package userstore

import (
	"context"
	"errors"
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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	ErrDuplicateEmail    = errors.New("a user with this email already exists")
	ErrDuplicateUsername = errors.New("a user with this username already exists")
)

// summaryProjection is the public subset of a user document.
var summaryProjection = bson.M{
	"_id":          1,
	"username":     1,
	"first_name":   1,
	"last_name":    1,
	"avatar":       1,
	"bio":          1,
	"contact_info": 1,
}

// Create inserts a new user. Email is expected already normalized;
// UsernameCI is derived here.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.UsernameCI = text.Fold(u.Username)
	if u.JoinedCommunities == nil {
		u.JoinedCommunities = []primitive.ObjectID{}
	}
	if u.CreatedCommunities == nil {
		u.CreatedCommunities = []primitive.ObjectID{}
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			if strings.Contains(err.Error(), "uniq_users_email") {
				return models.User{}, ErrDuplicateEmail
			}
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns mongo.ErrNoDocuments when the user does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username_ci": text.Fold(username)})
}

// GetByIdentifier looks up by email when identifier contains '@',
// otherwise by username.
func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if strings.Contains(identifier, "@") {
		return s.GetByEmail(ctx, identifier)
	}
	return s.GetByUsername(ctx, identifier)
}

// Exists reports whether a user with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// ProfileUpdate holds the self-service fields. Nil means unchanged.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Bio         *string
	Avatar      *string
	ContactInfo *models.ContactInfo
}

// UpdateProfile applies upd and returns the updated user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.FirstName != nil {
		set["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		set["last_name"] = *upd.LastName
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	if upd.ContactInfo != nil {
		set["contact_info"] = *upd.ContactInfo
	}

	var u models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Summaries returns public summaries for ids, in the order of ids.
// Ids with no user are skipped.
func (s *Store) Summaries(ctx context.Context, ids []primitive.ObjectID) ([]models.UserSummary, error) {
	if len(ids) == 0 {
		return []models.UserSummary{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var found []models.UserSummary
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]models.UserSummary, 0, len(found))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// Summary returns one user's public summary.
func (s *Store) Summary(ctx context.Context, id primitive.ObjectID) (*models.UserSummary, error) {
	var u models.UserSummary
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(summaryProjection)).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

/* ---------------------- membership mirrors ---------------------- */

func (s *Store) addToSet(ctx context.Context, id primitive.ObjectID, field string, cid primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{field: cid},
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

// AddCreatedCommunity records cid in the user's created_communities.
func (s *Store) AddCreatedCommunity(ctx context.Context, userID, cid primitive.ObjectID) error {
	return s.addToSet(ctx, userID, "created_communities", cid)
}

// AddJoinedCommunity records cid in the user's joined_communities.
func (s *Store) AddJoinedCommunity(ctx context.Context, userID, cid primitive.ObjectID) error {
	return s.addToSet(ctx, userID, "joined_communities", cid)
}

// RemoveJoinedCommunity drops cid from the user's joined_communities.
func (s *Store) RemoveJoinedCommunity(ctx context.Context, userID, cid primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"joined_communities": cid},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// PullCommunityEverywhere removes cid from every user's mirrors in one pass.
func (s *Store) PullCommunityEverywhere(ctx context.Context, cid primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"$or": bson.A{
			bson.M{"joined_communities": cid},
			bson.M{"created_communities": cid},
		}},
		bson.M{
			"$pull": bson.M{"joined_communities": cid, "created_communities": cid},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

/* ------------------------ password reset ------------------------ */

// SetResetToken stores the hash of a reset token and its expiry.
func (s *Store) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"reset_password_token":   tokenHash,
		"reset_password_expires": expires.UTC(),
		"updated_at":             time.Now().UTC(),
	}})
	return err
}

// GetByResetToken finds the user holding an unexpired token hash.
func (s *Store) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return s.findOne(ctx, bson.M{
		"reset_password_token":   tokenHash,
		"reset_password_expires": bson.M{"$gt": now.UTC()},
	})
}

// SetPassword replaces the hash and clears any pending reset token.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"password_hash": hash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"reset_password_token": "", "reset_password_expires": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ClearExpiredResetTokens drops reset tokens whose expiry has passed.
func (s *Store) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"reset_password_expires": bson.M{"$lte": now.UTC()}},
		bson.M{"$unset": bson.M{"reset_password_token": "", "reset_password_expires": ""}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
