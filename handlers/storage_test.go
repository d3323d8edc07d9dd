package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kova98/yars/data"
)

type fakeStore struct {
	target string
	limit  int
	offset int

	posts []data.StoredPost
	post  *data.StoredPost
	runs  []data.ScrapeRun
	err   error
}

func (f *fakeStore) GetPosts(target string, limit, offset int) ([]data.StoredPost, int, error) {
	f.target, f.limit, f.offset = target, limit, offset
	return f.posts, 42, f.err
}

func (f *fakeStore) GetPostByPermalink(permalink string) (*data.StoredPost, error) {
	return f.post, f.err
}

func (f *fakeStore) GetRuns(limit int) ([]data.ScrapeRun, error) {
	f.limit = limit
	return f.runs, f.err
}

func TestGetStoredPosts(t *testing.T) {
	store := &fakeStore{posts: []data.StoredPost{{Title: "a"}}}
	h := NewStorageHandler(store, store)

	res := h.GetStoredPosts(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stored/posts?target=golang&page=3&limit=10", nil))

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.(GetStoredPostsResponse)
	assert.Equal(t, 42, body.Total)
	assert.Equal(t, 3, body.Page)
	assert.Equal(t, 10, body.PerPage)
	assert.Equal(t, "golang", store.target)
	assert.Equal(t, 20, store.offset)
}

func TestGetStoredPosts_Error(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	h := NewStorageHandler(store, store)

	res := h.GetStoredPosts(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stored/posts", nil))

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Error(t, res.Error)
}

func TestGetStoredPost(t *testing.T) {
	post := &data.StoredPost{Title: "a", CommentsRaw: `[{"author":"x","body":"y","score":1,"replies":[]}]`}
	store := &fakeStore{post: post}
	h := NewStorageHandler(store, store)

	res := h.GetStoredPost(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stored/post?permalink=/r/a/", nil))

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.(GetStoredPostResponse)
	assert.Equal(t, "a", body.Title)
	require.Len(t, body.Comments, 1)
	assert.Equal(t, "x", body.Comments[0].Author)
}

func TestGetStoredPost_NotFoundAndBadRequest(t *testing.T) {
	store := &fakeStore{}
	h := NewStorageHandler(store, store)

	res := h.GetStoredPost(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stored/post?permalink=/r/a/", nil))
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = h.GetStoredPost(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stored/post", nil))
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestGetRuns(t *testing.T) {
	store := &fakeStore{runs: []data.ScrapeRun{{Target: "golang"}}}
	h := NewStorageHandler(store, store)

	res := h.GetRuns(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/runs?limit=5", nil))

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, 5, store.limit)
	assert.Len(t, res.Body.([]data.ScrapeRun), 1)
}
