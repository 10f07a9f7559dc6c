package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a row does not exist at the requested path.
var ErrNotFound = errors.New("not found")

// Store defines the key-value persistence operations. Absent optional rows
// (profiles, credentials, cache entries) are reported as (nil, nil); rows a
// caller asked for by ID return ErrNotFound.
type Store interface {
	// User profiles (users/{userId}/profile)
	GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveUserProfile(ctx context.Context, userID string, profile *models.UserProfile) error

	// Login credentials (creds/{email})
	GetCredentials(ctx context.Context, email string) (*models.Credentials, error)
	SaveCredentials(ctx context.Context, creds *models.Credentials) error

	// Rate limits (rateLimits/{userId}/{endpoint}). The increment is atomic
	// where the backend supports it; a fresh window starts at count 1.
	IncrRateLimit(ctx context.Context, userID, endpoint string, window time.Duration) (*models.RateLimitRecord, error)

	// AI response cache (aiCache/{fingerprint})
	GetCacheEntry(ctx context.Context, fingerprint string) (*models.CacheEntry, error)
	SetCacheEntry(ctx context.Context, fingerprint string, entry *models.CacheEntry, ttl time.Duration) error

	// Courses (courses/{courseId})
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)

	// Career paths (careerPaths/{pathId})
	ListCareerPaths(ctx context.Context) ([]models.CareerPath, error)

	// Forum posts (forumPosts/{postId}), newest first on list
	PushForumPost(ctx context.Context, post *models.ForumPost) (string, error)
	ListForumPosts(ctx context.Context, limit int) ([]models.ForumPost, error)

	// SeedRows pushes generated rows under a collection, returning the new
	// child keys.
	SeedRows(ctx context.Context, collection string, rows []map[string]interface{}) ([]string, error)

	Close() error
}

// Manager wraps the configured storage backend.
type Manager struct {
	Store
	logger *logrus.Logger
}

// NewManager creates a storage manager for the configured backend.
func NewManager(cfg *config.Config, logger *logrus.Logger) (*Manager, error) {
	var backend Store
	var err error

	switch cfg.Storage.Type {
	case "redis":
		backend, err = NewRedisStore(&cfg.Storage.Redis, logger)
		if err != nil {
			return nil, err
		}
	case "memory":
		backend = NewMemoryStore(&cfg.Storage.Memory, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	logger.WithField("type", cfg.Storage.Type).Info("Storage initialized")

	return &Manager{Store: backend, logger: logger}, nil
}
