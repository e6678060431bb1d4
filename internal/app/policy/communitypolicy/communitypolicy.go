// Package communitypolicy holds the ownership rules for communities,
// posts and comments.
//
// Authorization rules:
//   - Only the creator can update or delete a community
//   - Only members can post or comment in a community
//   - Only the author can update or delete a post
//   - Only the comment's author can remove a comment; neither the post
//     author nor the community creator can remove someone else's comment
//   - The creator can never leave their own community
//
// Membership itself is checked against the database by the caller; these
// functions only compare identifiers on documents already loaded.
package communitypolicy

import (
	"github.com/dalemusser/studytrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanManageCommunity reports whether uid may update or delete c.
func CanManageCommunity(c *models.Community, uid primitive.ObjectID) bool {
	return c != nil && !uid.IsZero() && c.CreatorID == uid
}

// CanLeave reports whether uid is allowed to leave c at all. Membership is
// checked separately.
func CanLeave(c *models.Community, uid primitive.ObjectID) bool {
	return c != nil && c.CreatorID != uid
}

// HasMember reports whether uid appears in c.Members.
func HasMember(c *models.Community, uid primitive.ObjectID) bool {
	if c == nil || uid.IsZero() {
		return false
	}
	for _, m := range c.Members {
		if m == uid {
			return true
		}
	}
	return false
}

// CanModifyPost reports whether uid may update or delete p.
func CanModifyPost(p *models.Post, uid primitive.ObjectID) bool {
	return p != nil && !uid.IsZero() && p.AuthorID == uid
}

// FindComment returns the comment with id commentID, or nil.
func FindComment(p *models.Post, commentID primitive.ObjectID) *models.Comment {
	if p == nil {
		return nil
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i]
		}
	}
	return nil
}

// CanRemoveComment reports whether uid may remove cm.
func CanRemoveComment(cm *models.Comment, uid primitive.ObjectID) bool {
	return cm != nil && !uid.IsZero() && cm.AuthorID == uid
}
