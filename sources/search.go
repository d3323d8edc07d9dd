package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kova98/yars/enums"
	"github.com/kova98/yars/models"
)

const descriptionLength = 269

type SearchOptions struct {
	Limit      int
	Sort       enums.SearchSort // defaults to relevance
	TimeFilter enums.TimeFilter // optional
	After      string
	Before     string
}

// SearchReddit searches link posts across all of Reddit.
func (c *Client) SearchReddit(ctx context.Context, query string, opts SearchOptions) ([]models.SearchResult, error) {
	return c.search(ctx, c.baseURL+"/search.json", "reddit", query, opts, false)
}

// SearchSubreddit searches link posts within one subreddit.
func (c *Client) SearchSubreddit(ctx context.Context, subreddit, query string, opts SearchOptions) ([]models.SearchResult, error) {
	return c.search(ctx, c.resolveTarget(subreddit, false)+"/search.json", subreddit, query, opts, true)
}

func (c *Client) search(ctx context.Context, searchURL, scope, query string, opts SearchOptions, restrict bool) ([]models.SearchResult, error) {
	c.logger.Info("searching", "scope", scope, "query", query, "limit", opts.Limit, "sort", opts.Sort)

	if opts.Sort == "" {
		opts.Sort = enums.SearchSortRelevance
	}
	if !opts.Sort.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, opts.Sort)
	}
	if opts.TimeFilter != "" && !opts.TimeFilter.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeFilter, opts.TimeFilter)
	}

	results := make([]models.SearchResult, 0, min(max(opts.Limit, 0), maxPageSize))
	first := true

	page := func(after string, size int) (string, url.Values) {
		params := url.Values{}
		params.Set("q", query)
		params.Set("limit", strconv.Itoa(size))
		params.Set("sort", string(opts.Sort))
		params.Set("type", "link")
		if restrict {
			params.Set("restrict_sr", "on")
		}
		if opts.TimeFilter != "" {
			params.Set("t", string(opts.TimeFilter))
		}
		if after != "" {
			params.Set("after", after)
		}
		if first && opts.Before != "" {
			params.Set("before", opts.Before)
		}
		first = false
		return searchURL, params
	}

	consume := func(child models.Thing) bool {
		var data models.LinkData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			c.logger.Warn("skipping malformed search result", "scope", scope, "error", err)
			return false
		}
		results = append(results, models.SearchResult{
			Title:       data.Title,
			Link:        c.permalinkURL(data.Permalink),
			Description: truncateRunes(data.Selftext, descriptionLength),
		})
		return true
	}

	c.paginate(ctx, "search", "search "+scope, opts.Limit, opts.After, page, consume)

	c.logger.Info("search results returned", "scope", scope, "count", len(results))
	return results, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
