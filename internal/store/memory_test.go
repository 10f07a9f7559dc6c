package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewMemoryStore(&config.MemoryConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	}, log)
}

func TestUserProfileRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	got, err := st.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	profile := &models.UserProfile{Email: "a@b.in", Name: "Asha", UserType: "student"}
	require.NoError(t, st.SaveUserProfile(ctx, "u1", profile))

	got, err = st.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Asha", got.Name)
}

func TestGetCourseNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetCourse(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestIncrRateLimitCountsAndResets(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.IncrRateLimit(ctx, "u1", "roadmap", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Count)

	rec, err = st.IncrRateLimit(ctx, "u1", "roadmap", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Count)

	// Expired window is treated as absent and restarts at 1.
	time.Sleep(80 * time.Millisecond)
	rec, err = st.IncrRateLimit(ctx, "u1", "roadmap", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Count)
	assert.Greater(t, rec.ResetAt, time.Now().UnixMilli())
}

func TestCacheEntryTTL(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	entry := &models.CacheEntry{
		Response:  []byte(`{"x":1}`),
		CreatedAt: time.Now().UnixMilli(),
		ExpiresAt: time.Now().Add(time.Minute).UnixMilli(),
	}
	require.NoError(t, st.SetCacheEntry(ctx, "fp", entry, time.Minute))

	got, err := st.GetCacheEntry(ctx, "fp")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Response, got.Response)

	got, err = st.GetCacheEntry(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetCourseFromSeededRows(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ids, err := st.SeedRows(ctx, "courses", []map[string]interface{}{
		{"name": "SQL Bootcamp", "provider": "Acme", "price": 4999},
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	course, err := st.GetCourse(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "SQL Bootcamp", course.Name)
	assert.Equal(t, 4999, course.Price)
}

func TestForumPostsNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := st.PushForumPost(ctx, &models.ForumPost{Title: title, Content: "c"})
		require.NoError(t, err)
	}

	posts, err := st.ListForumPosts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "third", posts[0].Title)
	assert.Equal(t, "second", posts[1].Title)
	assert.NotEmpty(t, posts[0].ID)
}

func TestSeedRowsAndListCareerPaths(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rows := []map[string]interface{}{
		{"title": "Data Engineer", "initialSalary": 900000, "demand": "High"},
		{"title": "SRE", "initialSalary": 1100000, "demand": "Medium"},
	}
	ids, err := st.SeedRows(ctx, "careerPaths", rows)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	paths, err := st.ListCareerPaths(ctx)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "Data Engineer", paths[0].Title)
	assert.NotEmpty(t, paths[0].PathID)
}
