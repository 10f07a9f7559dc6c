package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	"github.com/sirupsen/logrus"
)

// RedisStore implements Store on Redis. Rows are JSON values; ordered
// collections keep an index list of child keys alongside the rows.
type RedisStore struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisStore(cfg *config.RedisConfig, logger *logrus.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, logger: logger}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) getJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisStore) setJSON(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *RedisStore) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	found, err := r.getJSON(ctx, "users:"+userID+":profile", &profile)
	if err != nil || !found {
		return nil, err
	}
	return &profile, nil
}

func (r *RedisStore) SaveUserProfile(ctx context.Context, userID string, profile *models.UserProfile) error {
	return r.setJSON(ctx, "users:"+userID+":profile", profile, 0)
}

func (r *RedisStore) GetCredentials(ctx context.Context, email string) (*models.Credentials, error) {
	var creds models.Credentials
	found, err := r.getJSON(ctx, "creds:"+email, &creds)
	if err != nil || !found {
		return nil, err
	}
	return &creds, nil
}

func (r *RedisStore) SaveCredentials(ctx context.Context, creds *models.Credentials) error {
	return r.setJSON(ctx, "creds:"+creds.Email, creds, 0)
}

// IncrRateLimit uses a native counter with a window-length expiry so the
// read-modify-write race of a JSON record cannot undercount. The key expiring
// is what starts a fresh window at count 1.
func (r *RedisStore) IncrRateLimit(ctx context.Context, userID, endpoint string, window time.Duration) (*models.RateLimitRecord, error) {
	key := fmt.Sprintf("rateLimits:%s:%s", userID, endpoint)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if count == 1 {
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return nil, err
		}
	}

	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if ttl < 0 {
		// Expiry lost (e.g. crash between INCR and PEXPIRE); restore it.
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return nil, err
		}
		ttl = window
	}

	return &models.RateLimitRecord{
		Count:   int(count),
		ResetAt: time.Now().Add(ttl).UnixMilli(),
	}, nil
}

func (r *RedisStore) GetCacheEntry(ctx context.Context, fingerprint string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	found, err := r.getJSON(ctx, "aiCache:"+fingerprint, &entry)
	if err != nil || !found {
		return nil, err
	}
	return &entry, nil
}

func (r *RedisStore) SetCacheEntry(ctx context.Context, fingerprint string, entry *models.CacheEntry, ttl time.Duration) error {
	return r.setJSON(ctx, "aiCache:"+fingerprint, entry, ttl)
}

func (r *RedisStore) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	found, err := r.getJSON(ctx, "courses:"+courseID, &course)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &course, nil
}

func (r *RedisStore) ListCareerPaths(ctx context.Context) ([]models.CareerPath, error) {
	ids, err := r.client.LRange(ctx, "careerPaths:index", 0, -1).Result()
	if err != nil {
		return nil, err
	}

	paths := make([]models.CareerPath, 0, len(ids))
	for _, id := range ids {
		var path models.CareerPath
		found, err := r.getJSON(ctx, "careerPaths:"+id, &path)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		path.PathID = id
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *RedisStore) PushForumPost(ctx context.Context, post *models.ForumPost) (string, error) {
	id := uuid.NewString()
	if err := r.setJSON(ctx, "forumPosts:"+id, post, 0); err != nil {
		return "", err
	}
	if err := r.client.RPush(ctx, "forumPosts:index", id).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (r *RedisStore) ListForumPosts(ctx context.Context, limit int) ([]models.ForumPost, error) {
	ids, err := r.client.LRange(ctx, "forumPosts:index", int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}

	// Newest first
	posts := make([]models.ForumPost, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		var post models.ForumPost
		found, err := r.getJSON(ctx, "forumPosts:"+ids[i], &post)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		post.ID = ids[i]
		posts = append(posts, post)
	}
	return posts, nil
}

func (r *RedisStore) SeedRows(ctx context.Context, collection string, rows []map[string]interface{}) ([]string, error) {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		id := uuid.NewString()
		if err := r.setJSON(ctx, collection+":"+id, row, 0); err != nil {
			return ids, err
		}
		if err := r.client.RPush(ctx, collection+":index", id).Err(); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}

	r.logger.WithFields(logrus.Fields{
		"collection": collection,
		"count":      len(ids),
	}).Info("Seeded rows")

	return ids, nil
}
