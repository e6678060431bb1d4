// internal/domain/models/community.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community is a topic group users can join and post into.
//
// NOTE:
//   - CreatorID is always an element of Members.
//   - NameCI carries the unique index, so names collide case-insensitively.
//   - Posts is kept in step with the posts collection on create and delete.
type Community struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description" json:"description"`
	Tags        []string           `bson:"tags" json:"tags"`
	IsPrivate   bool               `bson:"is_private" json:"isPrivate"`

	CreatorID primitive.ObjectID   `bson:"creator_id" json:"creatorId"`
	Members   []primitive.ObjectID `bson:"members" json:"members"`
	Posts     []primitive.ObjectID `bson:"posts" json:"posts"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// CommunityStats is the derived read-only view of a community.
type CommunityStats struct {
	MemberCount int       `json:"memberCount"`
	PostCount   int       `json:"postCount"`
	IsPrivate   bool      `json:"isPrivate"`
	CreatedAt   time.Time `json:"createdAt"`
}
