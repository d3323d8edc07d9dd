package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kova98/yars/enums"
	"github.com/kova98/yars/models"
	"github.com/kova98/yars/sources"
)

// Scraper is implemented by *sources.Client.
type Scraper interface {
	FetchSubredditPosts(ctx context.Context, target string, category enums.Category, limit int, timeFilter enums.TimeFilter, flairs []string) ([]models.Post, error)
	ScrapeUserData(ctx context.Context, username string, limit int) []models.UserItem
	SearchReddit(ctx context.Context, query string, opts sources.SearchOptions) ([]models.SearchResult, error)
	SearchSubreddit(ctx context.Context, subreddit, query string, opts sources.SearchOptions) ([]models.SearchResult, error)
	ScrapePostDetails(ctx context.Context, permalink string) (*models.PostDetails, error)
}

type RedditHandler struct {
	scraper Scraper
}

func NewRedditHandler(scraper Scraper) *RedditHandler {
	return &RedditHandler{scraper}
}

func (h *RedditHandler) GetSubredditPosts(w http.ResponseWriter, r *http.Request) Result {
	name := chi.URLParam(r, "name")
	q := r.URL.Query()

	category := enums.Category(q.Get("category"))
	if category == "" {
		category = enums.CategoryHot
	}
	timeFilter := enums.TimeFilter(q.Get("t"))

	posts, err := h.scraper.FetchSubredditPosts(r.Context(), name, category, queryLimit(r), timeFilter, queryList(r, "flair"))
	if err != nil {
		if isValidationError(err) {
			return BadRequest(err.Error())
		}
		return InternalError(err, "fetch subreddit posts")
	}

	return Ok(models.GetPostsResponse{
		Target:   name,
		Category: string(category),
		Posts:    posts,
	})
}

func (h *RedditHandler) GetUserItems(w http.ResponseWriter, r *http.Request) Result {
	name := chi.URLParam(r, "name")

	items := h.scraper.ScrapeUserData(r.Context(), name, queryLimit(r))

	return Ok(models.GetUserItemsResponse{Username: name, Items: items})
}

func (h *RedditHandler) Search(w http.ResponseWriter, r *http.Request) Result {
	q := r.URL.Query()

	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		return BadRequest("Query is required.")
	}

	opts := sources.SearchOptions{
		Limit:      queryLimit(r),
		Sort:       enums.SearchSort(q.Get("sort")),
		TimeFilter: enums.TimeFilter(q.Get("t")),
		After:      q.Get("after"),
		Before:     q.Get("before"),
	}

	subreddit := q.Get("subreddit")
	var results []models.SearchResult
	var err error
	if subreddit != "" {
		results, err = h.scraper.SearchSubreddit(r.Context(), subreddit, query, opts)
	} else {
		results, err = h.scraper.SearchReddit(r.Context(), query, opts)
	}
	if err != nil {
		if isValidationError(err) {
			return BadRequest(err.Error())
		}
		return InternalError(err, "search")
	}

	return Ok(models.SearchResponse{Query: query, Subreddit: subreddit, Results: results})
}

func (h *RedditHandler) GetPostDetails(w http.ResponseWriter, r *http.Request) Result {
	permalink := strings.TrimSpace(r.URL.Query().Get("permalink"))
	if permalink == "" {
		return BadRequest("Permalink is required.")
	}

	details, err := h.scraper.ScrapePostDetails(r.Context(), permalink)
	if err != nil {
		var statusErr *sources.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return NotFound("Post not found.")
		}
		return BadGateway(err, "Failed to fetch post details.")
	}
	if details == nil {
		return NotFound("Post not found.")
	}

	return Ok(details)
}

func isValidationError(err error) bool {
	return errors.Is(err, sources.ErrInvalidCategory) ||
		errors.Is(err, sources.ErrInvalidTimeFilter) ||
		errors.Is(err, sources.ErrInvalidSort)
}
