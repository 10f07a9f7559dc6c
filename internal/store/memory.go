package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// MemoryStore implements Store in process memory, for development and tests.
type MemoryStore struct {
	profiles *cache.Cache
	creds    *cache.Cache
	aiCache  *cache.Cache
	courses  *cache.Cache
	rows     *cache.Cache

	mu         sync.Mutex
	rateLimits map[string]*models.RateLimitRecord
	indexes    map[string][]string

	logger *logrus.Logger
}

func NewMemoryStore(cfg *config.MemoryConfig, logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		profiles:   cache.New(cache.NoExpiration, cache.NoExpiration),
		creds:      cache.New(cache.NoExpiration, cache.NoExpiration),
		aiCache:    cache.New(cfg.DefaultExpiration, cfg.CleanupInterval),
		courses:    cache.New(cache.NoExpiration, cache.NoExpiration),
		rows:       cache.New(cache.NoExpiration, cache.NoExpiration),
		rateLimits: make(map[string]*models.RateLimitRecord),
		indexes:    make(map[string][]string),
		logger:     logger,
	}
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if val, found := m.profiles.Get(userID); found {
		return val.(*models.UserProfile), nil
	}
	return nil, nil
}

func (m *MemoryStore) SaveUserProfile(ctx context.Context, userID string, profile *models.UserProfile) error {
	m.profiles.Set(userID, profile, cache.NoExpiration)
	return nil
}

func (m *MemoryStore) GetCredentials(ctx context.Context, email string) (*models.Credentials, error) {
	if val, found := m.creds.Get(email); found {
		return val.(*models.Credentials), nil
	}
	return nil, nil
}

func (m *MemoryStore) SaveCredentials(ctx context.Context, creds *models.Credentials) error {
	m.creds.Set(creds.Email, creds, cache.NoExpiration)
	return nil
}

func (m *MemoryStore) IncrRateLimit(ctx context.Context, userID, endpoint string, window time.Duration) (*models.RateLimitRecord, error) {
	key := userID + ":" + endpoint
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.rateLimits[key]
	if !ok || now.UnixMilli() >= rec.ResetAt {
		rec = &models.RateLimitRecord{
			Count:   1,
			ResetAt: now.Add(window).UnixMilli(),
		}
		m.rateLimits[key] = rec
	} else {
		rec.Count++
	}

	copied := *rec
	return &copied, nil
}

func (m *MemoryStore) GetCacheEntry(ctx context.Context, fingerprint string) (*models.CacheEntry, error) {
	if val, found := m.aiCache.Get(fingerprint); found {
		return val.(*models.CacheEntry), nil
	}
	return nil, nil
}

func (m *MemoryStore) SetCacheEntry(ctx context.Context, fingerprint string, entry *models.CacheEntry, ttl time.Duration) error {
	m.aiCache.Set(fingerprint, entry, ttl)
	return nil
}

func (m *MemoryStore) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	if val, found := m.courses.Get(courseID); found {
		return val.(*models.Course), nil
	}
	// Seeded course rows land in the generic collections.
	if val, found := m.rows.Get("courses:" + courseID); found {
		var course models.Course
		if err := decodeRow(val.(map[string]interface{}), &course); err != nil {
			return nil, err
		}
		return &course, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListCareerPaths(ctx context.Context) ([]models.CareerPath, error) {
	m.mu.Lock()
	ids := append([]string(nil), m.indexes["careerPaths"]...)
	m.mu.Unlock()

	paths := make([]models.CareerPath, 0, len(ids))
	for _, id := range ids {
		val, found := m.rows.Get("careerPaths:" + id)
		if !found {
			continue
		}
		var path models.CareerPath
		if err := decodeRow(val.(map[string]interface{}), &path); err != nil {
			return nil, err
		}
		path.PathID = id
		paths = append(paths, path)
	}
	return paths, nil
}

func (m *MemoryStore) PushForumPost(ctx context.Context, post *models.ForumPost) (string, error) {
	id := uuid.NewString()

	copied := *post
	m.rows.Set("forumPosts:"+id, &copied, cache.NoExpiration)

	m.mu.Lock()
	m.indexes["forumPosts"] = append(m.indexes["forumPosts"], id)
	m.mu.Unlock()

	return id, nil
}

func (m *MemoryStore) ListForumPosts(ctx context.Context, limit int) ([]models.ForumPost, error) {
	m.mu.Lock()
	ids := append([]string(nil), m.indexes["forumPosts"]...)
	m.mu.Unlock()

	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}

	// Newest first
	posts := make([]models.ForumPost, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		val, found := m.rows.Get("forumPosts:" + ids[i])
		if !found {
			continue
		}
		post := *val.(*models.ForumPost)
		post.ID = ids[i]
		posts = append(posts, post)
	}
	return posts, nil
}

func (m *MemoryStore) SeedRows(ctx context.Context, collection string, rows []map[string]interface{}) ([]string, error) {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		id := uuid.NewString()
		m.rows.Set(collection+":"+id, row, cache.NoExpiration)

		m.mu.Lock()
		m.indexes[collection] = append(m.indexes[collection], id)
		m.mu.Unlock()

		ids = append(ids, id)
	}
	return ids, nil
}

// decodeRow converts a generic seeded row into a typed struct.
func decodeRow(row map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
