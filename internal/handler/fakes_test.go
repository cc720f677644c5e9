package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"chirpfeed/internal/model"
	"chirpfeed/internal/transport/http/middleware"
)

var errStore = errors.New("connection reset")

const testUserID int64 = 7

type fakeFeed struct {
	global    func(ctx context.Context) ([]model.Post, error)
	following func(ctx context.Context, userID int64) ([]model.Post, error)
	user      func(ctx context.Context, username string) ([]model.Post, error)
	liked     func(ctx context.Context, userID int64) ([]model.Post, error)
	bookmarks func(ctx context.Context, userID int64) ([]model.Post, error)
	post      func(ctx context.Context, postID int64) (*model.Post, error)
}

func (f *fakeFeed) Global(ctx context.Context) ([]model.Post, error) { return f.global(ctx) }
func (f *fakeFeed) Following(ctx context.Context, userID int64) ([]model.Post, error) {
	return f.following(ctx, userID)
}
func (f *fakeFeed) User(ctx context.Context, username string) ([]model.Post, error) {
	return f.user(ctx, username)
}
func (f *fakeFeed) Liked(ctx context.Context, userID int64) ([]model.Post, error) {
	return f.liked(ctx, userID)
}
func (f *fakeFeed) Bookmarks(ctx context.Context, userID int64) ([]model.Post, error) {
	return f.bookmarks(ctx, userID)
}
func (f *fakeFeed) Post(ctx context.Context, postID int64) (*model.Post, error) {
	return f.post(ctx, postID)
}

type fakePosts struct {
	create func(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error)
	delete func(ctx context.Context, requesterID, postID int64) error
}

func (f *fakePosts) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error) {
	return f.create(ctx, userID, req)
}
func (f *fakePosts) Delete(ctx context.Context, requesterID, postID int64) error {
	return f.delete(ctx, requesterID, postID)
}

type fakeEngagement struct {
	like     func(ctx context.Context, userID, postID int64) (*model.LikeResult, error)
	retweet  func(ctx context.Context, userID, postID int64) (*model.RetweetResult, error)
	bookmark func(ctx context.Context, userID, postID int64) (*model.BookmarkResult, error)
	comment  func(ctx context.Context, userID, postID int64, text string) (*model.Post, error)
}

func (f *fakeEngagement) ToggleLike(ctx context.Context, userID, postID int64) (*model.LikeResult, error) {
	return f.like(ctx, userID, postID)
}
func (f *fakeEngagement) ToggleRetweet(ctx context.Context, userID, postID int64) (*model.RetweetResult, error) {
	return f.retweet(ctx, userID, postID)
}
func (f *fakeEngagement) ToggleBookmark(ctx context.Context, userID, postID int64) (*model.BookmarkResult, error) {
	return f.bookmark(ctx, userID, postID)
}
func (f *fakeEngagement) AddComment(ctx context.Context, userID, postID int64, text string) (*model.Post, error) {
	return f.comment(ctx, userID, postID, text)
}

type fakeGraph struct {
	follow  func(ctx context.Context, requesterID, targetID int64) (*model.FollowResult, error)
	suggest func(ctx context.Context, requesterID int64) ([]model.UserSummary, error)
}

func (f *fakeGraph) FollowUnfollow(ctx context.Context, requesterID, targetID int64) (*model.FollowResult, error) {
	return f.follow(ctx, requesterID, targetID)
}
func (f *fakeGraph) SuggestUsers(ctx context.Context, requesterID int64) ([]model.UserSummary, error) {
	return f.suggest(ctx, requesterID)
}

type fakeProfiles struct {
	get    func(ctx context.Context, viewerID int64, username string) (*model.Profile, error)
	update func(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error)
}

func (f *fakeProfiles) GetProfile(ctx context.Context, viewerID int64, username string) (*model.Profile, error) {
	return f.get(ctx, viewerID, username)
}
func (f *fakeProfiles) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	return f.update(ctx, userID, req)
}

type fakeNotifications struct {
	list        func(ctx context.Context, userID int64) ([]model.Notification, error)
	unread      func(ctx context.Context, userID int64) (int, error)
	markRead    func(ctx context.Context, userID, notificationID int64) error
	markAllRead func(ctx context.Context, userID int64) error
	deleteAll   func(ctx context.Context, userID int64) (int64, error)
}

func (f *fakeNotifications) List(ctx context.Context, userID int64) ([]model.Notification, error) {
	return f.list(ctx, userID)
}
func (f *fakeNotifications) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return f.unread(ctx, userID)
}
func (f *fakeNotifications) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return f.markRead(ctx, userID, notificationID)
}
func (f *fakeNotifications) MarkAllRead(ctx context.Context, userID int64) error {
	return f.markAllRead(ctx, userID)
}
func (f *fakeNotifications) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	return f.deleteAll(ctx, userID)
}

// serve routes req through a chi router holding a single pattern, as the
// authenticated testUserID unless anonymous is set.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request, anonymous bool) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	if !anonymous {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, testUserID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type filePart struct {
	field       string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="upload.bin"`)
		header.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}
