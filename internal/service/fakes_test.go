package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"chirpfeed/internal/cache"
	"chirpfeed/internal/model"
	"chirpfeed/internal/queue"
	"chirpfeed/internal/storage"
)

// =============================================================================
// IN-MEMORY STORE
// =============================================================================
//
// memStore keeps every table as a map and hands out repository views over it.
// Like the real schema, reverse indexes are never stored: a post's likers and
// a user's liked posts both come from the same likes map.
// Transactions are driven through sqlmock; the store itself applies writes
// immediately.

type pair struct{ a, b int64 }

type memStore struct {
	clock  time.Time
	nextID int64

	users         map[int64]*model.User
	follows       map[pair]time.Time // follower, followee
	posts         map[int64]*model.Post
	likes         map[pair]time.Time // post, user
	bookmarks     map[pair]time.Time // user, post
	comments      []model.Comment
	notifications []model.Notification

	// failNotify makes NotificationRepository.Create fail
	failNotify error
	// failUpdate makes UserRepository.Update fail
	failUpdate error
	// beforeUserUpdate runs once inside UserRepository.Update, ahead of the
	// timestamp check
	beforeUserUpdate func()
}

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:     map[int64]*model.User{},
		follows:   map[pair]time.Time{},
		posts:     map[int64]*model.Post{},
		likes:     map[pair]time.Time{},
		bookmarks: map[pair]time.Time{},
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addUser(username string) *model.User {
	u := &model.User{
		ID:        s.id(),
		Username:  username,
		FullName:  username + " full",
		Email:     username + "@example.com",
		CreatedAt: s.tick(),
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addPost(authorID int64, text string) *model.Post {
	p := &model.Post{
		ID:        s.id(),
		UserID:    authorID,
		Kind:      model.PostKindOriginal,
		Text:      &text,
		CreatedAt: s.tick(),
	}
	s.posts[p.ID] = p
	return p
}

func (s *memStore) follow(followerID, followeeID int64) {
	s.follows[pair{followerID, followeeID}] = s.tick()
}

func (s *memStore) summary(userID int64) model.UserSummary {
	if u, ok := s.users[userID]; ok {
		return u.Summary()
	}
	return model.UserSummary{}
}

func (s *memStore) joined(p *model.Post) model.Post {
	out := *p
	out.Author = s.summary(p.UserID)
	return out
}

func (s *memStore) notificationsTo(userID int64) []model.Notification {
	var out []model.Notification
	for _, n := range s.notifications {
		if n.ToUserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func sortNewest(posts []model.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}

// =============================================================================
// REPOSITORY VIEWS
// =============================================================================

type memUserRepo struct{ *memStore }

func (r memUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r memUserRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := r.users[id]
	return ok, nil
}

func (r memUserRepo) GetSummariesByIDs(_ context.Context, ids []int64) ([]model.UserSummary, error) {
	out := []model.UserSummary{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u.Summary())
		}
	}
	return out, nil
}

func (r memUserRepo) ListIDsExcept(_ context.Context, excludeID int64) ([]int64, error) {
	ids := []int64{}
	for id := range r.users {
		if id != excludeID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memUserRepo) Update(_ context.Context, u *model.User) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	if hook := r.beforeUserUpdate; hook != nil {
		r.beforeUserUpdate = nil
		hook()
	}
	stored, ok := r.users[u.ID]
	if !ok {
		return model.ErrUserNotFound
	}
	if !stored.UpdatedAt.Equal(u.UpdatedAt) {
		return model.ErrProfileModified
	}
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username {
			return model.ErrUsernameExists
		}
		if other.Email == u.Email {
			return model.ErrEmailExists
		}
	}
	cp := *u
	cp.UpdatedAt = r.tick()
	r.users[u.ID] = &cp
	u.UpdatedAt = cp.UpdatedAt
	return nil
}

type memFollowRepo struct{ *memStore }

func (r memFollowRepo) Create(_ context.Context, _ *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if _, ok := r.follows[pair{followerID, followeeID}]; ok {
		return false, nil
	}
	r.follow(followerID, followeeID)
	return true, nil
}

func (r memFollowRepo) Delete(_ context.Context, _ *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if _, ok := r.follows[pair{followerID, followeeID}]; !ok {
		return false, nil
	}
	delete(r.follows, pair{followerID, followeeID})
	return true, nil
}

func (r memFollowRepo) Exists(_ context.Context, followerID, followeeID int64) (bool, error) {
	_, ok := r.follows[pair{followerID, followeeID}]
	return ok, nil
}

func (r memFollowRepo) GetFollowerIDs(_ context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	for p := range r.follows {
		if p.b == userID {
			ids = append(ids, p.a)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memFollowRepo) GetFolloweeIDs(_ context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	for p := range r.follows {
		if p.a == userID {
			ids = append(ids, p.b)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memPostRepo struct{ *memStore }

func (r memPostRepo) Create(_ context.Context, _ *sqlx.Tx, post *model.Post) error {
	post.ID = r.id()
	post.Kind = model.PostKindOriginal
	post.CreatedAt = r.tick()
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r memPostRepo) GetByID(_ context.Context, postID int64) (*model.Post, error) {
	p, ok := r.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	out := r.joined(p)
	return &out, nil
}

func (r memPostRepo) GetByIDs(_ context.Context, postIDs []int64) ([]model.Post, error) {
	out := []model.Post{}
	for _, id := range postIDs {
		if p, ok := r.posts[id]; ok {
			out = append(out, r.joined(p))
		}
	}
	sortNewest(out)
	return out, nil
}

func (r memPostRepo) Delete(_ context.Context, _ *sqlx.Tx, postID int64) error {
	if _, ok := r.posts[postID]; !ok {
		return model.ErrPostNotFound
	}
	delete(r.posts, postID)
	for k := range r.likes {
		if k.a == postID {
			delete(r.likes, k)
		}
	}
	for k := range r.bookmarks {
		if k.b == postID {
			delete(r.bookmarks, k)
		}
	}
	kept := r.comments[:0]
	for _, c := range r.comments {
		if c.PostID != postID {
			kept = append(kept, c)
		}
	}
	r.comments = kept
	for i := range r.notifications {
		if p := r.notifications[i].PostID; p != nil && *p == postID {
			r.notifications[i].PostID = nil
		}
	}
	return nil
}

func (r memPostRepo) findRetweet(userID, originalPostID int64) *model.Post {
	for _, p := range r.posts {
		if p.IsRetweet() && p.UserID == userID && *p.OriginalPostID == originalPostID {
			return p
		}
	}
	return nil
}

func (r memPostRepo) CreateRetweet(_ context.Context, _ *sqlx.Tx, userID, originalPostID int64) (int64, bool, error) {
	if r.findRetweet(userID, originalPostID) != nil {
		return 0, false, nil
	}
	orig := originalPostID
	p := &model.Post{
		ID:             r.id(),
		UserID:         userID,
		Kind:           model.PostKindRetweet,
		OriginalPostID: &orig,
		CreatedAt:      r.tick(),
	}
	r.posts[p.ID] = p
	return p.ID, true, nil
}

func (r memPostRepo) DeleteRetweet(_ context.Context, _ *sqlx.Tx, userID, originalPostID int64) (int64, bool, error) {
	p := r.findRetweet(userID, originalPostID)
	if p == nil {
		return 0, false, nil
	}
	delete(r.posts, p.ID)
	return p.ID, true, nil
}

func (r memPostRepo) GetRetweeterIDs(_ context.Context, postIDs []int64) (map[int64][]int64, error) {
	out := map[int64][]int64{}
	var retweets []model.Post
	for _, p := range r.posts {
		if p.IsRetweet() {
			retweets = append(retweets, *p)
		}
	}
	sort.Slice(retweets, func(i, j int) bool { return retweets[i].ID < retweets[j].ID })
	for _, id := range postIDs {
		for _, rt := range retweets {
			if *rt.OriginalPostID == id {
				out[id] = append(out[id], rt.UserID)
			}
		}
	}
	return out, nil
}

func (r memPostRepo) filter(keep func(p *model.Post) bool) []model.Post {
	out := []model.Post{}
	for _, p := range r.posts {
		if keep(p) {
			out = append(out, r.joined(p))
		}
	}
	sortNewest(out)
	return out
}

func (r memPostRepo) ListAll(context.Context) ([]model.Post, error) {
	return r.filter(func(*model.Post) bool { return true }), nil
}

func (r memPostRepo) ListByAuthor(_ context.Context, authorID int64) ([]model.Post, error) {
	return r.filter(func(p *model.Post) bool { return p.UserID == authorID }), nil
}

func (r memPostRepo) ListByFollower(_ context.Context, followerID int64) ([]model.Post, error) {
	return r.filter(func(p *model.Post) bool {
		_, ok := r.follows[pair{followerID, p.UserID}]
		return ok
	}), nil
}

func (r memPostRepo) byTime(times map[int64]time.Time) []model.Post {
	out := []model.Post{}
	for id := range times {
		if p, ok := r.posts[id]; ok {
			out = append(out, r.joined(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !times[out[i].ID].Equal(times[out[j].ID]) {
			return times[out[i].ID].After(times[out[j].ID])
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r memPostRepo) ListLikedBy(_ context.Context, userID int64) ([]model.Post, error) {
	times := map[int64]time.Time{}
	for k, at := range r.likes {
		if k.b == userID {
			times[k.a] = at
		}
	}
	return r.byTime(times), nil
}

func (r memPostRepo) ListBookmarkedBy(_ context.Context, userID int64) ([]model.Post, error) {
	times := map[int64]time.Time{}
	for k, at := range r.bookmarks {
		if k.a == userID {
			times[k.b] = at
		}
	}
	return r.byTime(times), nil
}

func scoresOf(posts []model.Post, limit int) []cache.PostScore {
	out := []cache.PostScore{}
	for _, p := range posts {
		if len(out) == limit {
			break
		}
		out = append(out, cache.PostScore{PostID: p.ID, Timestamp: p.CreatedAt.UnixMicro()})
	}
	return out
}

func (r memPostRepo) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	posts, _ := r.ListByAuthor(ctx, userID)
	return scoresOf(posts, limit), nil
}

func (r memPostRepo) GetFeedPostScores(ctx context.Context, followerID int64, limit int) ([]cache.PostScore, error) {
	posts, _ := r.ListByFollower(ctx, followerID)
	return scoresOf(posts, limit), nil
}

type memEngagementRepo struct{ *memStore }

func (r memEngagementRepo) AddLike(_ context.Context, _ *sqlx.Tx, postID, userID int64) (bool, error) {
	if _, ok := r.posts[postID]; !ok {
		return false, model.ErrPostNotFound
	}
	if _, ok := r.likes[pair{postID, userID}]; ok {
		return false, nil
	}
	r.likes[pair{postID, userID}] = r.tick()
	return true, nil
}

func (r memEngagementRepo) RemoveLike(_ context.Context, _ *sqlx.Tx, postID, userID int64) (bool, error) {
	if _, ok := r.likes[pair{postID, userID}]; !ok {
		return false, nil
	}
	delete(r.likes, pair{postID, userID})
	return true, nil
}

func (r memEngagementRepo) GetLikerIDs(_ context.Context, postIDs []int64) (map[int64][]int64, error) {
	out := map[int64][]int64{}
	for _, id := range postIDs {
		for k := range r.likes {
			if k.a == id {
				out[id] = append(out[id], k.b)
			}
		}
		sort.Slice(out[id], func(i, j int) bool { return out[id][i] < out[id][j] })
	}
	return out, nil
}

func (r memEngagementRepo) AddBookmark(_ context.Context, _ *sqlx.Tx, userID, postID int64) (bool, error) {
	if _, ok := r.posts[postID]; !ok {
		return false, model.ErrPostNotFound
	}
	if _, ok := r.bookmarks[pair{userID, postID}]; ok {
		return false, nil
	}
	r.bookmarks[pair{userID, postID}] = r.tick()
	return true, nil
}

func (r memEngagementRepo) RemoveBookmark(_ context.Context, _ *sqlx.Tx, userID, postID int64) (bool, error) {
	if _, ok := r.bookmarks[pair{userID, postID}]; !ok {
		return false, nil
	}
	delete(r.bookmarks, pair{userID, postID})
	return true, nil
}

func (r memEngagementRepo) GetBookmarkIDs(_ context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for k := range r.bookmarks {
		if k.a == userID {
			ids = append(ids, k.b)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memCommentRepo struct{ *memStore }

func (r memCommentRepo) Create(_ context.Context, postID, userID int64, text string) (*model.Comment, error) {
	if _, ok := r.posts[postID]; !ok {
		return nil, model.ErrPostNotFound
	}
	c := model.Comment{ID: r.id(), PostID: postID, UserID: userID, Text: text, CreatedAt: r.tick()}
	r.comments = append(r.comments, c)
	return &c, nil
}

func (r memCommentRepo) GetByPostIDs(_ context.Context, postIDs []int64) (map[int64][]model.Comment, error) {
	out := map[int64][]model.Comment{}
	for _, id := range postIDs {
		for _, c := range r.comments {
			if c.PostID == id {
				c.Author = r.summary(c.UserID)
				out[id] = append(out[id], c)
			}
		}
	}
	return out, nil
}

type memNotificationRepo struct{ *memStore }

func (r memNotificationRepo) Create(_ context.Context, _ *sqlx.Tx, n *model.Notification) error {
	if r.failNotify != nil {
		return r.failNotify
	}
	n.ID = r.id()
	n.CreatedAt = r.tick()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r memNotificationRepo) ListForUser(_ context.Context, userID int64) ([]model.Notification, error) {
	var out []model.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.ToUserID == userID {
			n.From = r.summary(n.FromUserID)
			out = append(out, n)
		}
	}
	return out, nil
}

func (r memNotificationRepo) MarkAsRead(_ context.Context, userID, notificationID int64) error {
	for i := range r.notifications {
		if r.notifications[i].ID == notificationID && r.notifications[i].ToUserID == userID {
			r.notifications[i].IsRead = true
			return nil
		}
	}
	return model.ErrNotificationNotFound
}

func (r memNotificationRepo) MarkAllAsRead(_ context.Context, userID int64) error {
	for i := range r.notifications {
		if r.notifications[i].ToUserID == userID {
			r.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r memNotificationRepo) DeleteAll(_ context.Context, userID int64) (int64, error) {
	kept := r.notifications[:0]
	var deleted int64
	for _, n := range r.notifications {
		if n.ToUserID == userID {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	r.notifications = kept
	return deleted, nil
}

func (r memNotificationRepo) GetUnreadCount(_ context.Context, userID int64) (int, error) {
	count := 0
	for _, n := range r.notifications {
		if n.ToUserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// =============================================================================
// COLLABORATORS
// =============================================================================

type fakeImages struct {
	stored   []storage.Variant
	deleted  []string
	storeErr error
	n        int
}

func (f *fakeImages) StoreImage(_ context.Context, v storage.Variant, _ *model.ImageUpload) (*model.StoredImage, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	f.n++
	f.stored = append(f.stored, v)
	key := fmt.Sprintf("%s/img-%d.jpg", v.Folder, f.n)
	return &model.StoredImage{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (f *fakeImages) DeleteImage(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type recordingPublisher struct {
	events []queue.FeedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event queue.FeedEvent) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return fmt.Sprintf("%d-0", len(p.events)), nil
}

func (p *recordingPublisher) types() []string {
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// memFeedCache is a FeedCache with the Redis semantics the feed service
// relies on. err, when set, fails every call.
// beforeWarm, when set, runs once inside Warm ahead of the merge, standing in
// for a fan-out that lands after the snapshot query.
type memFeedCache struct {
	feeds       map[int64][]cache.PostScore
	warming     map[int64]string
	err         error
	invalidated []int64
	warmed      []int64
	beforeWarm  func()
}

func newMemFeedCache() *memFeedCache {
	return &memFeedCache{feeds: map[int64][]cache.PostScore{}, warming: map[int64]string{}}
}

func (c *memFeedCache) AddPost(_ context.Context, userID, postID, ts int64) error {
	if c.err != nil {
		return c.err
	}
	if feed, ok := c.feeds[userID]; ok {
		c.feeds[userID] = append(feed, cache.PostScore{PostID: postID, Timestamp: ts})
	}
	return nil
}

func (c *memFeedCache) RemovePosts(_ context.Context, userID int64, postIDs ...int64) error {
	if c.err != nil {
		return c.err
	}
	var kept []cache.PostScore
	for _, p := range c.feeds[userID] {
		removed := false
		for _, id := range postIDs {
			removed = removed || p.PostID == id
		}
		if !removed {
			kept = append(kept, p)
		}
	}
	c.feeds[userID] = kept
	return nil
}

func (c *memFeedCache) GetFeed(_ context.Context, userID int64, limit int) ([]int64, error) {
	if c.err != nil {
		return nil, c.err
	}
	feed := append([]cache.PostScore(nil), c.feeds[userID]...)
	sort.Slice(feed, func(i, j int) bool { return feed[i].Timestamp > feed[j].Timestamp })
	var ids []int64
	for _, p := range feed {
		if len(ids) == limit {
			break
		}
		ids = append(ids, p.PostID)
	}
	return ids, nil
}

func (c *memFeedCache) BeginWarm(_ context.Context, userID int64) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if _, ok := c.feeds[userID]; ok {
		return "", nil
	}
	token := fmt.Sprintf("warming:%d", len(c.warmed)+1)
	c.feeds[userID] = nil
	c.warming[userID] = token
	return token, nil
}

func (c *memFeedCache) Warm(_ context.Context, userID int64, token string, posts []cache.PostScore) error {
	if c.err != nil {
		return c.err
	}
	if hook := c.beforeWarm; hook != nil {
		c.beforeWarm = nil
		hook()
	}
	if c.warming[userID] != token {
		return nil
	}
	delete(c.warming, userID)
	c.warmed = append(c.warmed, userID)

	feed := c.feeds[userID]
	for _, p := range posts {
		if !slices.ContainsFunc(feed, func(q cache.PostScore) bool { return q.PostID == p.PostID }) {
			feed = append(feed, p)
		}
	}
	if len(feed) == 0 {
		delete(c.feeds, userID)
		return nil
	}
	c.feeds[userID] = feed
	return nil
}

func (c *memFeedCache) Ready(_ context.Context, userID int64) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	_, ok := c.feeds[userID]
	_, warming := c.warming[userID]
	return ok && !warming, nil
}

func (c *memFeedCache) Invalidate(_ context.Context, userID int64) error {
	if c.err != nil {
		return c.err
	}
	c.invalidated = append(c.invalidated, userID)
	delete(c.feeds, userID)
	delete(c.warming, userID)
	return nil
}

// =============================================================================
// FIXTURE
// =============================================================================

type fixture struct {
	store     *memStore
	mock      sqlmock.Sqlmock
	images    *fakeImages
	publisher *recordingPublisher
	feeds     *memFeedCache

	notifications *NotificationService
	feed          *FeedService
	engagement    *EngagementService
	posts         *PostService
	graph         *GraphService
	users         *UserService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	withCache bool
	suggest   SuggestionConfig
}

func withFeedCache() fixtureOption {
	return func(c *fixtureConfig) { c.withCache = true }
}

func withSuggestions(sc SuggestionConfig) fixtureOption {
	return func(c *fixtureConfig) { c.suggest = sc }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	var cfg fixtureConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(sqlDB, "sqlmock")
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	f := &fixture{
		store:     newMemStore(),
		mock:      mock,
		images:    &fakeImages{},
		publisher: &recordingPublisher{},
	}

	var feeds cache.FeedCache
	if cfg.withCache {
		f.feeds = newMemFeedCache()
		feeds = f.feeds
	}

	st := f.store
	f.notifications = NewNotificationService(memNotificationRepo{st})
	f.feed = NewFeedService(memPostRepo{st}, memEngagementRepo{st}, memCommentRepo{st}, memUserRepo{st}, feeds)
	f.engagement = NewEngagementService(db, memPostRepo{st}, memEngagementRepo{st}, memCommentRepo{st},
		f.notifications, f.feed, f.publisher)
	f.posts = NewPostService(db, memPostRepo{st}, f.images, f.feed, f.publisher)
	f.graph = NewGraphService(db, memUserRepo{st}, memFollowRepo{st}, f.notifications, feeds, f.publisher, cfg.suggest)
	f.users = NewUserService(memUserRepo{st}, memFollowRepo{st}, f.feed, f.images)
	return f
}

// expectTx expects n committed transactions.
func (f *fixture) expectTx(n int) {
	for i := 0; i < n; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
	}
}

func (f *fixture) expectRollback() {
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
}

var errBoom = errors.New("boom")
