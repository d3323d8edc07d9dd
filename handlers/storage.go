package handlers

import (
	"net/http"
	"strings"

	"github.com/kova98/yars/data"
	"github.com/kova98/yars/models"
)

type PostReader interface {
	GetPosts(target string, limit, offset int) ([]data.StoredPost, int, error)
	GetPostByPermalink(permalink string) (*data.StoredPost, error)
}

type RunReader interface {
	GetRuns(limit int) ([]data.ScrapeRun, error)
}

type StorageHandler struct {
	posts PostReader
	runs  RunReader
}

func NewStorageHandler(posts PostReader, runs RunReader) *StorageHandler {
	return &StorageHandler{posts: posts, runs: runs}
}

type GetStoredPostsResponse struct {
	Posts   []data.StoredPost `json:"posts"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

type GetStoredPostResponse struct {
	data.StoredPost
	Comments []models.Comment `json:"comments"`
}

func (h *StorageHandler) GetStoredPosts(w http.ResponseWriter, r *http.Request) Result {
	target := strings.TrimSpace(r.URL.Query().Get("target"))
	page := queryPage(r)
	perPage := queryLimit(r)
	offset := (page - 1) * perPage

	posts, total, err := h.posts.GetPosts(target, perPage, offset)
	if err != nil {
		return InternalError(err, "get stored posts")
	}

	return Ok(GetStoredPostsResponse{
		Posts:   posts,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

func (h *StorageHandler) GetStoredPost(w http.ResponseWriter, r *http.Request) Result {
	permalink := strings.TrimSpace(r.URL.Query().Get("permalink"))
	if permalink == "" {
		return BadRequest("Permalink is required.")
	}

	post, err := h.posts.GetPostByPermalink(permalink)
	if err != nil {
		return InternalError(err, "get stored post")
	}
	if post == nil {
		return NotFound("Post not found.")
	}

	comments, err := post.Comments()
	if err != nil {
		return InternalError(err, "decode stored comments")
	}

	return Ok(GetStoredPostResponse{StoredPost: *post, Comments: comments})
}

func (h *StorageHandler) GetRuns(w http.ResponseWriter, r *http.Request) Result {
	runs, err := h.runs.GetRuns(queryLimit(r))
	if err != nil {
		return InternalError(err, "get runs")
	}

	return Ok(runs)
}
