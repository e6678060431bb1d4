package membership

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/studytrack/internal/app/policy/communitypolicy"
	communitystore "github.com/dalemusser/studytrack/internal/app/store/communities"
	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studytrack/internal/app/system/inputval"
	"github.com/dalemusser/studytrack/internal/app/system/normalize"
	"github.com/dalemusser/studytrack/internal/app/system/paging"
	"github.com/dalemusser/studytrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CommunityInput is the body of a create request.
type CommunityInput struct {
	Name        string   `json:"name" validate:"required,max=100" label:"Name"`
	Description string   `json:"description" validate:"required,max=2000" label:"Description"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=40" label:"Tags"`
	IsPrivate   *bool    `json:"isPrivate"`
}

// CommunityPatch is a partial update. Nil fields are left untouched.
type CommunityPatch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	IsPrivate   *bool     `json:"isPrivate"`
}

// CommunityView is a community with its creator and members resolved to
// display profiles.
type CommunityView struct {
	ID          primitive.ObjectID   `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Tags        []string             `json:"tags"`
	IsPrivate   bool                 `json:"isPrivate"`
	Creator     *models.UserSummary  `json:"creator"`
	Members     []models.UserSummary `json:"members"`
	MemberCount int                  `json:"memberCount"`
	PostCount   int                  `json:"postCount"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// UserCommunities splits the communities a user belongs to by role.
type UserCommunities struct {
	Joined  []models.Community `json:"joined"`
	Created []models.Community `json:"created"`
}

func (in *CommunityInput) normalize() {
	in.Name = normalize.Name(in.Name)
	in.Description = htmlsanitize.Sanitize(in.Description)
	in.Tags = normalize.Tags(in.Tags)
}

// toUpdate normalizes and checks p and returns the store update.
func (p CommunityPatch) toUpdate() (communitystore.Update, error) {
	var upd communitystore.Update
	if p.Name != nil {
		name := normalize.Name(*p.Name)
		if name == "" {
			return upd, apperr.InvalidInput("Name is required.")
		}
		if utf8.RuneCountInString(name) > 100 {
			return upd, apperr.InvalidInput("Name must be at most 100 characters.")
		}
		upd.Name = &name
	}
	if p.Description != nil {
		desc := htmlsanitize.Sanitize(*p.Description)
		if desc == "" {
			return upd, apperr.InvalidInput("Description is required.")
		}
		if utf8.RuneCountInString(desc) > 2000 {
			return upd, apperr.InvalidInput("Description must be at most 2000 characters.")
		}
		upd.Description = &desc
	}
	if p.Tags != nil {
		tags := normalize.Tags(*p.Tags)
		if len(tags) > 20 {
			return upd, apperr.InvalidInput("Tags may have at most 20 entries.")
		}
		for _, t := range tags {
			if utf8.RuneCountInString(t) > 40 {
				return upd, apperr.InvalidInput("Tags must be at most 40 characters.")
			}
		}
		upd.Tags = &tags
	}
	upd.IsPrivate = p.IsPrivate
	return upd, nil
}

// CreateCommunity persists a community owned by userID and records it in
// the user's created_communities.
func (s *Service) CreateCommunity(ctx context.Context, userID string, in CommunityInput) (*models.Community, error) {
	uid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	in.normalize()
	if res := inputval.Validate(in); res.HasErrors() {
		return nil, apperr.InvalidInput(res.First())
	}
	if err := s.requireUser(ctx, uid); err != nil {
		return nil, err
	}

	c := models.Community{
		Name:        in.Name,
		Description: in.Description,
		Tags:        in.Tags,
		CreatorID:   uid,
	}
	if in.IsPrivate != nil {
		c.IsPrivate = *in.IsPrivate
	}

	var created models.Community
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.communities.Create(ctx, c)
		if err != nil {
			return err
		}
		return s.users.AddCreatedCommunity(ctx, uid, created.ID)
	})
	if err != nil {
		return nil, mapErr(err, "user")
	}
	s.metrics.Membership(EventCreate)
	return &created, nil
}

// loadOwned fetches a community and checks that uid created it.
func (s *Service) loadOwned(ctx context.Context, communityID, userID, action string) (*models.Community, primitive.ObjectID, error) {
	cid, err := parseID(communityID, "community")
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	uid, err := parseID(userID, "user")
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	c, err := s.communities.GetByID(ctx, cid)
	if err != nil {
		return nil, primitive.NilObjectID, mapErr(err, "community")
	}
	if !communitypolicy.CanManageCommunity(c, uid) {
		return nil, primitive.NilObjectID, apperr.Forbidden("only the creator can " + action + " this community")
	}
	return c, uid, nil
}

// UpdateCommunity applies the present fields of patch. Only the creator may
// update. A rename is checked for collisions case-insensitively.
func (s *Service) UpdateCommunity(ctx context.Context, communityID, userID string, patch CommunityPatch) (*CommunityView, error) {
	c, _, err := s.loadOwned(ctx, communityID, userID, "update")
	if err != nil {
		return nil, err
	}
	upd, err := patch.toUpdate()
	if err != nil {
		return nil, err
	}
	if !upd.Empty() {
		c, err = s.communities.Apply(ctx, c.ID, upd)
		if err != nil {
			return nil, mapErr(err, "community")
		}
	}
	return s.view(ctx, c)
}

// DeleteCommunity removes the community, its posts and every user's
// reference to it. Only the creator may delete.
func (s *Service) DeleteCommunity(ctx context.Context, communityID, userID string) error {
	c, _, err := s.loadOwned(ctx, communityID, userID, "delete")
	if err != nil {
		return err
	}

	var postsDeleted, usersTouched int64
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		n, err := s.communities.Delete(ctx, c.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return mongo.ErrNoDocuments
		}
		if postsDeleted, err = s.posts.DeleteByCommunity(ctx, c.ID); err != nil {
			return err
		}
		usersTouched, err = s.users.PullCommunityEverywhere(ctx, c.ID)
		return err
	})
	if err != nil {
		return mapErr(err, "community")
	}
	s.log.Debug("community deleted",
		zap.String("community_id", c.ID.Hex()),
		zap.Int64("posts_deleted", postsDeleted),
		zap.Int64("users_updated", usersTouched))
	s.metrics.Membership(EventDelete)
	return nil
}

// Join adds userID to the community's members and the community to the
// user's joined_communities.
func (s *Service) Join(ctx context.Context, communityID, userID string) error {
	cid, err := parseID(communityID, "community")
	if err != nil {
		return err
	}
	uid, err := parseID(userID, "user")
	if err != nil {
		return err
	}
	if err := s.requireUser(ctx, uid); err != nil {
		return err
	}

	// AddMember only succeeds for a non-member, and the creator is a member
	// from creation, so the joined mirror never receives the creator.
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.communities.AddMember(ctx, cid, uid); err != nil {
			return err
		}
		return s.users.AddJoinedCommunity(ctx, uid, cid)
	})
	if err != nil {
		return mapErr(err, "community")
	}
	s.metrics.Membership(EventJoin)
	return nil
}

// Leave removes userID from the community. The creator cannot leave.
func (s *Service) Leave(ctx context.Context, communityID, userID string) error {
	cid, err := parseID(communityID, "community")
	if err != nil {
		return err
	}
	uid, err := parseID(userID, "user")
	if err != nil {
		return err
	}

	err = s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.communities.RemoveMember(ctx, cid, uid); err != nil {
			return err
		}
		return s.users.RemoveJoinedCommunity(ctx, uid, cid)
	})
	if errors.Is(err, communitystore.ErrLeaveRejected) {
		return s.leaveRejection(ctx, cid, uid)
	}
	if err != nil {
		return mapErr(err, "community")
	}
	s.metrics.Membership(EventLeave)
	return nil
}

// leaveRejection explains a leave whose guarded update matched nothing.
func (s *Service) leaveRejection(ctx context.Context, cid, uid primitive.ObjectID) error {
	c, err := s.communities.GetByID(ctx, cid)
	if err != nil {
		return mapErr(err, "community")
	}
	if !communitypolicy.CanLeave(c, uid) {
		return apperr.Conflict("creator cannot leave their own community")
	}
	if communitypolicy.HasMember(c, uid) {
		// Joined again between the update and this read.
		return apperr.Conflict("membership changed, try again")
	}
	return apperr.Conflict("not a member of this community")
}

// IsMember reports whether userID belongs to the community. Malformed ids,
// a missing community and lookup failures all report false.
func (s *Service) IsMember(ctx context.Context, communityID, userID string) bool {
	cid, err := primitive.ObjectIDFromHex(strings.TrimSpace(communityID))
	if err != nil {
		return false
	}
	uid, err := primitive.ObjectIDFromHex(strings.TrimSpace(userID))
	if err != nil {
		return false
	}
	return s.isMember(ctx, cid, uid)
}

func (s *Service) isMember(ctx context.Context, cid, uid primitive.ObjectID) bool {
	ok, err := s.communities.IsMember(ctx, cid, uid)
	if err != nil {
		s.log.Warn("membership check failed",
			zap.String("community_id", cid.Hex()),
			zap.String("user_id", uid.Hex()),
			zap.Error(err))
		return false
	}
	return ok
}

// ListMembers returns one page of member profiles in join order. Pages past
// the end are empty.
func (s *Service) ListMembers(ctx context.Context, communityID string, page, limit int) (*Page[models.UserSummary], error) {
	cid, err := parseID(communityID, "community")
	if err != nil {
		return nil, err
	}
	c, err := s.communities.GetByID(ctx, cid)
	if err != nil {
		return nil, mapErr(err, "community")
	}

	p := paging.New(page, limit)
	lo, hi := p.Window(len(c.Members))
	members, err := s.users.Summaries(ctx, c.Members[lo:hi])
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Page[models.UserSummary]{
		Items: members,
		Page:  p.Page,
		Limit: p.Limit,
		Total: int64(len(c.Members)),
	}, nil
}

// Stats derives counts from the current members and posts lists.
func (s *Service) Stats(ctx context.Context, communityID string) (*models.CommunityStats, error) {
	cid, err := parseID(communityID, "community")
	if err != nil {
		return nil, err
	}
	c, err := s.communities.GetByID(ctx, cid)
	if err != nil {
		return nil, mapErr(err, "community")
	}
	return &models.CommunityStats{
		MemberCount: len(c.Members),
		PostCount:   len(c.Posts),
		IsPrivate:   c.IsPrivate,
		CreatedAt:   c.CreatedAt,
	}, nil
}

// GetCommunity returns the community with creator and members resolved.
func (s *Service) GetCommunity(ctx context.Context, communityID string) (*CommunityView, error) {
	cid, err := parseID(communityID, "community")
	if err != nil {
		return nil, err
	}
	c, err := s.communities.GetByID(ctx, cid)
	if err != nil {
		return nil, mapErr(err, "community")
	}
	return s.view(ctx, c)
}

// ListCommunities returns one page of communities matching search, newest
// first.
func (s *Service) ListCommunities(ctx context.Context, search string, page, limit int) (*Page[models.Community], error) {
	p := paging.New(page, limit)
	items, total, err := s.communities.List(ctx, normalize.QueryParam(search), p.Skip(), p.Limit64())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Page[models.Community]{Items: items, Page: p.Page, Limit: p.Limit, Total: total}, nil
}

// UserCommunities returns the communities userID created and the ones they
// joined. Both are read from the community side.
func (s *Service) UserCommunities(ctx context.Context, userID string) (*UserCommunities, error) {
	uid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	all, err := s.communities.ListForMember(ctx, uid)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := &UserCommunities{Joined: []models.Community{}, Created: []models.Community{}}
	for _, c := range all {
		if c.CreatorID == uid {
			out.Created = append(out.Created, c)
		} else {
			out.Joined = append(out.Joined, c)
		}
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, c *models.Community) (*CommunityView, error) {
	creator, err := s.users.Summary(ctx, c.CreatorID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal(err)
	}
	members, err := s.users.Summaries(ctx, c.Members)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return &CommunityView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Tags:        tags,
		IsPrivate:   c.IsPrivate,
		Creator:     creator,
		Members:     members,
		MemberCount: len(c.Members),
		PostCount:   len(c.Posts),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}
