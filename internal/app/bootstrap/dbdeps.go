// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	StudyTrackMongoClient   *mongo.Client
	StudyTrackMongoDatabase *mongo.Database

	// Redis is nil unless redis_url is set.
	Redis *redis.Client
}
