// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactInfo is the optional public contact block on a user profile.
type ContactInfo struct {
	Email    string `bson:"email,omitempty" json:"email,omitempty"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	LinkedIn string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	GitHub   string `bson:"github,omitempty" json:"github,omitempty"`
}

// User is an account that owns tasks and participates in communities.
//
// NOTE:
//   - JoinedCommunities and CreatedCommunities mirror Community.Members and
//     Community.CreatorID. Only the membership service writes them.
//   - PasswordHash and the reset fields never leave the server.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	UsernameCI string             `bson:"username_ci" json:"-"`
	Email      string             `bson:"email" json:"email"`

	PasswordHash string `bson:"password_hash" json:"-"`

	FirstName   string      `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName    string      `bson:"last_name,omitempty" json:"lastName,omitempty"`
	Bio         string      `bson:"bio,omitempty" json:"bio,omitempty"`
	Avatar      string      `bson:"avatar,omitempty" json:"avatar,omitempty"`
	ContactInfo ContactInfo `bson:"contact_info" json:"contactInfo"`

	JoinedCommunities  []primitive.ObjectID `bson:"joined_communities" json:"joinedCommunities"`
	CreatedCommunities []primitive.ObjectID `bson:"created_communities" json:"createdCommunities"`

	ResetPasswordToken   string     `bson:"reset_password_token,omitempty" json:"-"`
	ResetPasswordExpires *time.Time `bson:"reset_password_expires,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// UserSummary is the display projection used wherever a user is referenced
// from another document (community creator, member lists, post authors).
type UserSummary struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Username    string             `bson:"username" json:"username"`
	FirstName   string             `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName    string             `bson:"last_name,omitempty" json:"lastName,omitempty"`
	Avatar      string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Bio         string             `bson:"bio,omitempty" json:"bio,omitempty"`
	ContactInfo *ContactInfo       `bson:"contact_info,omitempty" json:"contactInfo,omitempty"`
}
