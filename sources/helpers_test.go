package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetryPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	p.BackoffFactor = time.Millisecond
	p.MaxBackoff = 5 * time.Millisecond
	return p
}

func newTestSession(t *testing.T, metrics *Metrics) *Session {
	t.Helper()
	s, err := NewSession(testLogger(), SessionConfig{
		Timeout: 5 * time.Second,
		Retry:   fastRetryPolicy(),
		Metrics: metrics,
	})
	require.NoError(t, err)
	return s
}

func noDelay() time.Duration { return 0 }

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(baseURL), WithPageDelay(noDelay)}, opts...)
	return NewClient(testLogger(), newTestSession(t, nil), opts...)
}

type thing = map[string]any

func linkThing(id string, flair any, created float64) thing {
	return thing{
		"kind": "t3",
		"data": thing{
			"id":              id,
			"title":           "Title " + id,
			"author":          "author_" + id,
			"subreddit":       "smallbusiness",
			"permalink":       "/r/smallbusiness/comments/" + id + "/title/",
			"selftext":        "body " + id,
			"link_flair_text": flair,
			"created_utc":     created,
		},
	}
}

func commentThing(author, body string, score int, replies any) thing {
	return thing{
		"kind": "t1",
		"data": thing{
			"author":  author,
			"body":    body,
			"score":   score,
			"replies": replies,
		},
	}
}

func listing(after string, children ...thing) thing {
	var cursor any
	if after != "" {
		cursor = after
	}
	if children == nil {
		children = []thing{}
	}
	return thing{
		"kind": "Listing",
		"data": thing{"children": children, "after": cursor},
	}
}

func linkPage(prefix string, n int, flair any) []thing {
	items := make([]thing, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, linkThing(fmt.Sprintf("%s%d", prefix, i), flair, 1700000000+float64(i)))
	}
	return items
}

// fakeReddit serves pages keyed by the "after" query parameter and records
// every request it receives.
type fakeReddit struct {
	t        *testing.T
	mu       sync.Mutex
	requests []*url.URL
	headers  []http.Header
	pages    map[string]any
	status   map[string]int
}

func newFakeReddit(t *testing.T) (*fakeReddit, *httptest.Server) {
	f := &fakeReddit{t: t, pages: map[string]any{}, status: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeReddit) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL)
	f.headers = append(f.headers, r.Header.Clone())
	f.mu.Unlock()

	after := r.URL.Query().Get("after")
	if code, ok := f.status[after]; ok {
		w.WriteHeader(code)
		return
	}
	body, ok := f.pages[after]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// chain registers pages so that page i is served for cursor "c{i}" and
// points at "c{i+1}", except the last page which has no cursor.
func (f *fakeReddit) chain(pages ...[]thing) {
	for i, children := range pages {
		key := ""
		if i > 0 {
			key = "c" + strconv.Itoa(i)
		}
		next := ""
		if i < len(pages)-1 {
			next = "c" + strconv.Itoa(i+1)
		}
		f.pages[key] = listing(next, children...)
	}
}

func (f *fakeReddit) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeReddit) request(i int) *url.URL {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

// recordingGetter counts invocations without touching the network.
type recordingGetter struct {
	calls int
}

func (g *recordingGetter) GetJSON(ctx context.Context, rawURL string, params url.Values, dest any) error {
	g.calls++
	return &RequestError{URL: rawURL, Err: fmt.Errorf("unexpected call")}
}
