package membership

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/studytrack/internal/app/policy/communitypolicy"
	poststore "github.com/dalemusser/studytrack/internal/app/store/posts"
	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studytrack/internal/app/system/inputval"
	"github.com/dalemusser/studytrack/internal/app/system/normalize"
	"github.com/dalemusser/studytrack/internal/app/system/paging"
	"github.com/dalemusser/studytrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxTitleLen   = 200
	maxContentLen = 20000
	maxCommentLen = 2000
)

// PostInput is the body of a create-post request.
type PostInput struct {
	CommunityID string `json:"communityId" validate:"required,objectid" label:"Community"`
	Title       string `json:"title" validate:"required,max=200" label:"Title"`
	Content     string `json:"content" validate:"required,max=20000" label:"Content"`
}

// PostPatch is a partial post update. Nil fields are left untouched.
type PostPatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (p PostPatch) toUpdate() (poststore.Update, error) {
	var upd poststore.Update
	if p.Title != nil {
		title := normalize.Name(*p.Title)
		if title == "" {
			return upd, apperr.InvalidInput("Title is required.")
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			return upd, apperr.InvalidInput("Title must be at most 200 characters.")
		}
		upd.Title = &title
	}
	if p.Content != nil {
		content := htmlsanitize.Sanitize(*p.Content)
		if content == "" {
			return upd, apperr.InvalidInput("Content is required.")
		}
		if utf8.RuneCountInString(content) > maxContentLen {
			return upd, apperr.InvalidInput("Content must be at most 20000 characters.")
		}
		upd.Content = &content
	}
	return upd, nil
}

// CreatePost stores a post by authorID. The author must be a member of the
// target community.
func (s *Service) CreatePost(ctx context.Context, authorID string, in PostInput) (*models.Post, error) {
	uid, err := parseID(authorID, "user")
	if err != nil {
		return nil, err
	}
	in.Title = normalize.Name(in.Title)
	in.Content = htmlsanitize.Sanitize(in.Content)
	in.CommunityID = normalize.QueryParam(in.CommunityID)
	if res := inputval.Validate(in); res.HasErrors() {
		return nil, apperr.InvalidInput(res.First())
	}
	cid, err := parseID(in.CommunityID, "community")
	if err != nil {
		return nil, err
	}
	if !s.isMember(ctx, cid, uid) {
		return nil, apperr.Forbidden("must be a member to post")
	}

	var created models.Post
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.posts.Create(ctx, models.Post{
			Title:       in.Title,
			Content:     in.Content,
			AuthorID:    uid,
			CommunityID: cid,
		})
		if err != nil {
			return err
		}
		return s.communities.AddPost(ctx, cid, created.ID)
	})
	if err != nil {
		return nil, mapErr(err, "community")
	}
	return &created, nil
}

// loadAuthored fetches a post and checks that uid wrote it.
func (s *Service) loadAuthored(ctx context.Context, postID, userID, action string) (*models.Post, error) {
	pid, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}
	uid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	p, err := s.posts.GetByID(ctx, pid)
	if err != nil {
		return nil, mapErr(err, "post")
	}
	if !communitypolicy.CanModifyPost(p, uid) {
		return nil, apperr.Forbidden("only the author can " + action + " this post")
	}
	return p, nil
}

// UpdatePost applies patch. Only the author may edit.
func (s *Service) UpdatePost(ctx context.Context, postID, userID string, patch PostPatch) (*models.Post, error) {
	p, err := s.loadAuthored(ctx, postID, userID, "edit")
	if err != nil {
		return nil, err
	}
	upd, err := patch.toUpdate()
	if err != nil {
		return nil, err
	}
	if upd.Title == nil && upd.Content == nil {
		return p, nil
	}
	updated, err := s.posts.Apply(ctx, p.ID, upd)
	if err != nil {
		return nil, mapErr(err, "post")
	}
	return updated, nil
}

// DeletePost removes the post and its entry in the community's posts list.
// Only the author may delete.
func (s *Service) DeletePost(ctx context.Context, postID, userID string) error {
	p, err := s.loadAuthored(ctx, postID, userID, "delete")
	if err != nil {
		return err
	}
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		if _, err := s.posts.Delete(ctx, p.ID); err != nil {
			return err
		}
		return s.communities.RemovePost(ctx, p.CommunityID, p.ID)
	})
	return mapErr(err, "post")
}

// ToggleLike likes the post for userID, or unlikes it if already liked.
// It reports whether the user likes the post afterwards.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, bool, error) {
	pid, err := parseID(postID, "post")
	if err != nil {
		return nil, false, err
	}
	uid, err := parseID(userID, "user")
	if err != nil {
		return nil, false, err
	}
	p, err := s.posts.ToggleLike(ctx, pid, uid)
	if err != nil {
		return nil, false, mapErr(err, "post")
	}
	liked := false
	for _, l := range p.Likes {
		if l == uid {
			liked = true
			break
		}
	}
	return p, liked, nil
}

// AddComment appends a comment by userID. The commenter must be a member of
// the post's community.
func (s *Service) AddComment(ctx context.Context, postID, userID, content string) (*models.Post, error) {
	pid, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}
	uid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	content = htmlsanitize.Sanitize(content)
	if content == "" {
		return nil, apperr.InvalidInput("Content is required.")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return nil, apperr.InvalidInput("Content must be at most 2000 characters.")
	}

	p, err := s.posts.GetByID(ctx, pid)
	if err != nil {
		return nil, mapErr(err, "post")
	}
	if !s.isMember(ctx, p.CommunityID, uid) {
		return nil, apperr.Forbidden("must be a member to comment")
	}

	updated, err := s.posts.AddComment(ctx, pid, models.Comment{
		ID:        primitive.NewObjectID(),
		AuthorID:  uid,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, mapErr(err, "post")
	}
	return updated, nil
}

// RemoveComment deletes a comment. Only the comment's author may remove it;
// the post author and the community creator get no override.
func (s *Service) RemoveComment(ctx context.Context, postID, commentID, userID string) (*models.Post, error) {
	pid, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}
	cmID, err := parseID(commentID, "comment")
	if err != nil {
		return nil, err
	}
	uid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	p, err := s.posts.GetByID(ctx, pid)
	if err != nil {
		return nil, mapErr(err, "post")
	}
	cm := communitypolicy.FindComment(p, cmID)
	if cm == nil {
		return nil, apperr.NotFound("comment")
	}
	if !communitypolicy.CanRemoveComment(cm, uid) {
		return nil, apperr.Forbidden("only the comment author can remove it")
	}

	// The store re-checks authorship in its filter.
	updated, err := s.posts.RemoveComment(ctx, pid, cmID, uid)
	if err != nil {
		return nil, mapErr(err, "post")
	}
	return updated, nil
}

// GetPost returns one post.
func (s *Service) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	pid, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}
	p, err := s.posts.GetByID(ctx, pid)
	if err != nil {
		return nil, mapErr(err, "post")
	}
	return p, nil
}

// ListCommunityPosts returns one page of a community's posts, newest first.
func (s *Service) ListCommunityPosts(ctx context.Context, communityID string, page, limit int) (*Page[models.Post], error) {
	cid, err := parseID(communityID, "community")
	if err != nil {
		return nil, err
	}
	if _, err := s.communities.GetByID(ctx, cid); err != nil {
		return nil, mapErr(err, "community")
	}
	p := paging.New(page, limit)
	items, total, err := s.posts.ListByCommunity(ctx, cid, p.Skip(), p.Limit64())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Page[models.Post]{Items: items, Page: p.Page, Limit: p.Limit, Total: total}, nil
}
