package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/studytrack/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plain password of every fixture user.
const FixturePassword = "password123"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
// Documents are written directly, bypassing the stores under test.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a user with email <username>@example.com and
// password FixturePassword.
func (f *Fixtures) CreateUser(ctx context.Context, username string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:                 primitive.NewObjectID(),
		Username:           username,
		UsernameCI:         text.Fold(username),
		Email:              strings.ToLower(username) + "@example.com",
		PasswordHash:       string(hash),
		FirstName:          "Test",
		LastName:           username,
		JoinedCommunities:  []primitive.ObjectID{},
		CreatedCommunities: []primitive.ObjectID{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateCommunity creates a community owned by creator and records it in
// the creator's created_communities.
func (f *Fixtures) CreateCommunity(ctx context.Context, name string, creator models.User) models.Community {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Community{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "About " + name,
		Tags:        []string{},
		CreatorID:   creator.ID,
		Members:     []primitive.ObjectID{creator.ID},
		Posts:       []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("communities").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test community: %v", err)
	}
	if _, err := f.db.Collection("users").UpdateByID(ctx, creator.ID,
		bson.M{"$addToSet": bson.M{"created_communities": c.ID}}); err != nil {
		f.t.Fatalf("failed to mirror test community: %v", err)
	}
	return c
}

// AddMember adds u to c on both sides of the relationship.
func (f *Fixtures) AddMember(ctx context.Context, c models.Community, u models.User) {
	f.t.Helper()

	if _, err := f.db.Collection("communities").UpdateByID(ctx, c.ID,
		bson.M{"$addToSet": bson.M{"members": u.ID}}); err != nil {
		f.t.Fatalf("failed to add member: %v", err)
	}
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID,
		bson.M{"$addToSet": bson.M{"joined_communities": c.ID}}); err != nil {
		f.t.Fatalf("failed to mirror member: %v", err)
	}
}

// CreatePost creates a post by author in c and appends it to c.posts.
func (f *Fixtures) CreatePost(ctx context.Context, c models.Community, author models.User, title string) models.Post {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Post{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Content:     "Content of " + title,
		AuthorID:    author.ID,
		CommunityID: c.ID,
		Likes:       []primitive.ObjectID{},
		Comments:    []models.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("posts").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	if _, err := f.db.Collection("communities").UpdateByID(ctx, c.ID,
		bson.M{"$push": bson.M{"posts": p.ID}}); err != nil {
		f.t.Fatalf("failed to mirror test post: %v", err)
	}
	return p
}

// AddComment appends a comment by author to p and returns it.
func (f *Fixtures) AddComment(ctx context.Context, p models.Post, author models.User, content string) models.Comment {
	f.t.Helper()

	cm := models.Comment{
		ID:        primitive.NewObjectID(),
		AuthorID:  author.ID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("posts").UpdateByID(ctx, p.ID,
		bson.M{"$push": bson.M{"comments": cm}}); err != nil {
		f.t.Fatalf("failed to add test comment: %v", err)
	}
	return cm
}

// CreateTask creates a task owned by owner.
func (f *Fixtures) CreateTask(ctx context.Context, owner models.User, title, status string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:        primitive.NewObjectID(),
		OwnerID:   owner.ID,
		Title:     title,
		Status:    status,
		Priority:  models.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// GetUser reloads a user document.
func (f *Fixtures) GetUser(ctx context.Context, id primitive.ObjectID) models.User {
	f.t.Helper()
	var u models.User
	if err := f.db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		f.t.Fatalf("failed to load user %s: %v", id.Hex(), err)
	}
	return u
}

// GetCommunity reloads a community document.
func (f *Fixtures) GetCommunity(ctx context.Context, id primitive.ObjectID) models.Community {
	f.t.Helper()
	var c models.Community
	if err := f.db.Collection("communities").FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		f.t.Fatalf("failed to load community %s: %v", id.Hex(), err)
	}
	return c
}
