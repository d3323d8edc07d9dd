package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kova98/yars/enums"
	"github.com/kova98/yars/matchers"
	"github.com/kova98/yars/models"
)

const (
	DefaultBaseURL = "https://www.reddit.com"
	maxPageSize    = 100
)

// Client reads Reddit's public JSON endpoints. Listing fetches walk the
// "after" cursor sequentially and sleep between pages.
type Client struct {
	logger    *slog.Logger
	session   Getter
	baseURL   string
	pageDelay func() time.Duration
	diag      io.Writer
	metrics   *Metrics
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithPageDelay replaces the random 1-2s pause between listing pages.
func WithPageDelay(delay func() time.Duration) Option {
	return func(c *Client) {
		c.pageDelay = delay
	}
}

// WithDiagnostics sets where user facing failure messages are printed.
func WithDiagnostics(w io.Writer) Option {
	return func(c *Client) {
		c.diag = w
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(logger *slog.Logger, session Getter, opts ...Option) *Client {
	c := &Client{
		logger:    logger,
		session:   session,
		baseURL:   DefaultBaseURL,
		pageDelay: randomPageDelay,
		diag:      io.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func randomPageDelay() time.Duration {
	return time.Second + time.Duration(rand.Int63n(int64(time.Second+1)))
}

// FetchSubredditPosts returns up to limit posts from a subreddit listing, or
// from a user's submissions for the user* categories. target is a full URL
// or a bare subreddit/user name. When flairs is not empty only posts whose
// flair is in the list are kept.
//
// An invalid category or time filter is returned as an error before any
// request is made. A failed page ends the walk and the posts gathered so far
// are returned without an error.
func (c *Client) FetchSubredditPosts(ctx context.Context, target string, category enums.Category, limit int, timeFilter enums.TimeFilter, flairs []string) ([]models.Post, error) {
	c.logger.Info("fetching subreddit/user posts",
		"target", target, "limit", limit, "category", category, "time_filter", timeFilter, "filter", flairs)

	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if timeFilter == "" {
		timeFilter = enums.TimeFilterAll
	}
	if !timeFilter.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeFilter, timeFilter)
	}

	listingURL := c.resolveTarget(target, category.IsUser()) + "/" + category.Path()
	posts := make([]models.Post, 0, min(max(limit, 0), maxPageSize))

	page := func(after string, size int) (string, url.Values) {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(size))
		if after != "" {
			params.Set("after", after)
		}
		params.Set("raw_json", "1")
		params.Set("t", string(timeFilter))
		return listingURL, params
	}

	consume := func(child models.Thing) bool {
		var data models.LinkData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			c.logger.Warn("skipping malformed post", "target", target, "error", err)
			return false
		}
		if !matchers.MatchesFlair(flairs, data.LinkFlairText) {
			return false
		}
		posts = append(posts, models.Post{
			Title:         data.Title,
			Author:        data.Author,
			Permalink:     data.Permalink,
			Date:          FormatTimestamp(data.CreatedUTC),
			Body:          data.Selftext,
			LinkFlairText: deref(data.LinkFlairText),
		})
		return true
	}

	c.paginate(ctx, "posts", "subreddit/user "+target, limit, "", page, consume)

	c.logger.Info("fetched subreddit/user posts", "target", target, "count", len(posts))
	return posts, nil
}

// pageRequest builds the URL and query for the page after cursor.
type pageRequest func(after string, size int) (string, url.Values)

// paginate walks a listing until limit items were consumed, a page comes
// back empty, or the server stops returning a cursor. consume reports whether
// an item counts towards the limit.
func (c *Client) paginate(ctx context.Context, endpoint, label string, limit int, after string, request pageRequest, consume func(models.Thing) bool) int {
	count := 0
	for count < limit {
		pageURL, params := request(after, min(maxPageSize, limit-count))

		var listing models.Listing
		if err := c.getListing(ctx, pageURL, params, &listing); err != nil {
			c.logger.Info("listing request unsuccessful", "endpoint", endpoint, "target", label, "error", err)
			c.report("Failed to fetch %s for %s: %v", endpoint, label, err)
			break
		}

		children := listing.Data.Children
		if len(children) == 0 {
			c.logger.Info("no more items", "endpoint", endpoint, "target", label)
			break
		}

		consumed := 0
		for _, child := range children {
			if !consume(child) {
				continue
			}
			consumed++
			count++
			if count >= limit {
				break
			}
		}
		c.metrics.observePage(endpoint, consumed)

		after = listing.Data.After
		if after == "" || count >= limit {
			break
		}

		if err := c.sleep(ctx); err != nil {
			c.logger.Info("pagination cancelled", "endpoint", endpoint, "target", label, "error", err)
			break
		}
	}
	return count
}

func (c *Client) getListing(ctx context.Context, pageURL string, params url.Values, listing *models.Listing) error {
	if err := c.session.GetJSON(ctx, pageURL, params, listing); err != nil {
		return err
	}
	if listing.Data.Children == nil {
		return &DecodeError{URL: pageURL, Err: ErrMissingChildren}
	}
	return nil
}

func (c *Client) sleep(ctx context.Context) error {
	d := c.pageDelay()
	c.logger.Debug("sleeping between pages", "duration_ms", d.Milliseconds())
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) report(format string, args ...any) {
	fmt.Fprintf(c.diag, format+"\n", args...)
}

// resolveTarget turns a bare name into a subreddit or user URL. Full URLs
// are used as given.
func (c *Client) resolveTarget(target string, user bool) string {
	target = strings.TrimRight(strings.TrimSpace(target), "/")
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}

	name := strings.TrimPrefix(target, "/")
	if user {
		for _, prefix := range []string{"user/", "u/"} {
			name = strings.TrimPrefix(name, prefix)
		}
		return c.baseURL + "/user/" + name
	}
	return c.baseURL + "/r/" + strings.TrimPrefix(name, "r/")
}

// permalinkURL resolves a Reddit permalink against the base URL.
func (c *Client) permalinkURL(permalink string) string {
	if strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://") {
		return permalink
	}
	if !strings.HasPrefix(permalink, "/") {
		permalink = "/" + permalink
	}
	return c.baseURL + permalink
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
