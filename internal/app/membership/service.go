// Package membership owns every mutation that touches both sides of the
// user/community relationship, plus the post and comment rules that depend
// on membership.
//
// A user's joined_communities/created_communities and a community's
// members/creator_id describe the same relationship. Each operation that
// writes both runs through txn.Runner, so on a replica set the pair commits
// together. On a standalone server the writes run in order with the
// community side first.
package membership

import (
	"context"
	"errors"
	"strings"

	communitystore "github.com/dalemusser/studytrack/internal/app/store/communities"
	poststore "github.com/dalemusser/studytrack/internal/app/store/posts"
	userstore "github.com/dalemusser/studytrack/internal/app/store/users"
	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/metrics"
	"github.com/dalemusser/studytrack/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Membership event labels recorded in metrics.
const (
	EventCreate = "create"
	EventDelete = "delete"
	EventJoin   = "join"
	EventLeave  = "leave"
)

// Service implements the membership and post authorization operations.
type Service struct {
	users       *userstore.Store
	communities *communitystore.Store
	posts       *poststore.Store
	tx          *txn.Runner
	log         *zap.Logger
	metrics     *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics counts membership events on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRunner replaces the default transaction runner.
func WithRunner(r *txn.Runner) Option {
	return func(s *Service) { s.tx = r }
}

// New builds a Service over db.
func New(db *mongo.Database, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		users:       userstore.New(db),
		communities: communitystore.New(db),
		posts:       poststore.New(db),
		log:         logger,
	}
	for _, o := range opts {
		o(s)
	}
	if s.tx == nil {
		s.tx = txn.New(db, logger)
	}
	return s
}

// Page is one page of a paginated read.
type Page[T any] struct {
	Items []T
	Page  int
	Limit int
	Total int64
}

func parseID(s, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidInput("invalid " + what + " id")
	}
	return id, nil
}

// mapErr translates store errors into apperr kinds. resource names what a
// bare mongo.ErrNoDocuments refers to.
func mapErr(err error, resource string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound(resource)
	case errors.Is(err, communitystore.ErrDuplicateName):
		return apperr.Conflict("a community with this name already exists")
	case errors.Is(err, communitystore.ErrAlreadyMember):
		return apperr.Conflict("already a member of this community")
	case errors.Is(err, poststore.ErrCommentNotFound):
		return apperr.NotFound("comment")
	case errors.Is(err, poststore.ErrNotCommentAuthor):
		return apperr.Forbidden("only the comment author can remove it")
	default:
		return apperr.Internal(err)
	}
}

// requireUser returns NotFound when the authenticated id no longer names a
// user, so no mirror write is attempted for a missing account.
func (s *Service) requireUser(ctx context.Context, uid primitive.ObjectID) error {
	ok, err := s.users.Exists(ctx, uid)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("user")
	}
	return nil
}
