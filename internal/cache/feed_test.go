package cache

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient connects to TEST_REDIS_URL on DB 15 and skips when no server is
// reachable.
func testClient(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	opts.DB = 15

	client := redis.NewClient(opts)
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestAddPostIgnoresMissingFeed(t *testing.T) {
	client := testClient(t)
	feeds := NewFeedCache(client)
	ctx := context.Background()

	require.NoError(t, feeds.AddPost(ctx, 1, 100, 1000))

	ready, err := feeds.Ready(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ready)
}

// warm builds user's feed through the BeginWarm/Warm pair.
func warm(t *testing.T, feeds FeedCache, userID int64, posts []PostScore) {
	t.Helper()
	ctx := context.Background()
	token, err := feeds.BeginWarm(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NoError(t, feeds.Warm(ctx, userID, token, posts))
}

func TestWarmThenAddNewestFirst(t *testing.T) {
	client := testClient(t)
	feeds := NewFeedCache(client)
	ctx := context.Background()

	warm(t, feeds, 1, []PostScore{{PostID: 10, Timestamp: 100}, {PostID: 11, Timestamp: 200}})
	require.NoError(t, feeds.AddPost(ctx, 1, 12, 300))

	ids, err := feeds.GetFeed(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 11, 10}, ids)

	ttl, err := client.TTL(ctx, feedKey(1)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl.Seconds(), float64(0))
}

func TestAddPostTrimsToCap(t *testing.T) {
	client := testClient(t)
	feeds := NewFeedCache(client)
	ctx := context.Background()

	posts := make([]PostScore, FeedCap)
	for i := range posts {
		posts[i] = PostScore{PostID: int64(i + 1), Timestamp: int64(i + 1)}
	}
	warm(t, feeds, 1, posts)
	require.NoError(t, feeds.AddPost(ctx, 1, 9999, int64(FeedCap+1)))

	size, err := client.ZCard(ctx, feedKey(1)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(FeedCap), size)

	ids, err := feeds.GetFeed(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{9999}, ids)
}

func TestRemovePostsAndInvalidate(t *testing.T) {
	client := testClient(t)
	feeds := NewFeedCache(client)
	ctx := context.Background()

	warm(t, feeds, 1, []PostScore{{1, 1}, {2, 2}, {3, 3}})
	require.NoError(t, feeds.RemovePosts(ctx, 1, 1, 3))

	ids, err := feeds.GetFeed(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	require.NoError(t, feeds.Invalidate(ctx, 1))
	ready, err := feeds.Ready(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestWarmKeepsPostsAddedDuringTheSnapshot(t *testing.T) {
	client := testClient(t)
	feeds := NewFeedCache(client)
	ctx := context.Background()

	token, err := feeds.BeginWarm(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ready, err := feeds.Ready(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ready, "a half-warmed feed is not readable")

	// fan-out of a post committed after the snapshot query ran
	require.NoError(t, feeds.AddPost(ctx, 1, 30, 300))
	require.NoError(t, feeds.Warm(ctx, 1, token, []PostScore{{PostID: 10, Timestamp: 100}, {PostID: 20, Timestamp: 200}}))

	ready, err = feeds.Ready(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ready)

	ids, err := feeds.GetFeed(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 20, 10}, ids)

	size, err := client.ZCard(ctx, feedKey(1)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), size, "the warm marker is removed")

	ttl, err := client.TTL(ctx, feedKey(1)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, WarmTTL)
}

func TestBeginWarmIsExclusive(t *testing.T) {
	client := testClient(t)
	feeds := NewFeedCache(client)
	ctx := context.Background()

	first, err := feeds.BeginWarm(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := feeds.BeginWarm(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, second)

	ttl, err := client.TTL(ctx, feedKey(1)).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, WarmTTL)
}

func TestWarmAfterInvalidateIsDropped(t *testing.T) {
	client := testClient(t)
	feeds := NewFeedCache(client)
	ctx := context.Background()

	token, err := feeds.BeginWarm(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, feeds.Invalidate(ctx, 1))

	require.NoError(t, feeds.Warm(ctx, 1, token, []PostScore{{PostID: 10, Timestamp: 100}}))

	n, err := client.Exists(ctx, feedKey(1)).Result()
	require.NoError(t, err)
	assert.Zero(t, n, "a snapshot from before the invalidation is not written")
}
