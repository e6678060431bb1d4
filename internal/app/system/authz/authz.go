// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the caller's ObjectID, email, and a found flag.
// A malformed id in the token fails closed: ok is false.
func UserCtx(r *http.Request) (userID primitive.ObjectID, email string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, "", false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return primitive.NilObjectID, "", false
	}
	return userID, user.Email, true
}

// UserID returns the caller's id or an Unauthorized error.
func UserID(r *http.Request) (primitive.ObjectID, error) {
	id, _, ok := UserCtx(r)
	if !ok {
		return primitive.NilObjectID, apperr.Unauthorized("authentication required")
	}
	return id, nil
}

// IsSelf reports whether the caller is the user with the given id.
func IsSelf(r *http.Request, id primitive.ObjectID) bool {
	me, _, ok := UserCtx(r)
	return ok && me == id
}
