package sources

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/kova98/yars/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSubredditPosts_StopsAtLimitMidPage(t *testing.T) {
	fake, srv := newFakeReddit(t)
	fake.chain(linkPage("a", 5, nil), linkPage("b", 5, nil), linkPage("c", 5, nil))
	client := newTestClient(t, srv.URL)

	posts, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryNew, 7, enums.TimeFilterAll, nil)

	require.NoError(t, err)
	assert.Len(t, posts, 7)
	assert.Equal(t, 2, fake.count())
	assert.Equal(t, "7", fake.request(0).Query().Get("limit"))
	assert.Equal(t, "2", fake.request(1).Query().Get("limit"))
	assert.Equal(t, "c1", fake.request(1).Query().Get("after"))
	assert.Equal(t, "Title b1", posts[6].Title)
}

func TestFetchSubredditPosts_StopsWhenCursorMissing(t *testing.T) {
	fake, srv := newFakeReddit(t)
	fake.chain(linkPage("a", 4, nil), linkPage("b", 3, nil))
	client := newTestClient(t, srv.URL)

	posts, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryHot, 100, enums.TimeFilterAll, nil)

	require.NoError(t, err)
	assert.Len(t, posts, 7)
	assert.Equal(t, 2, fake.count())
}

func TestFetchSubredditPosts_StopsOnEmptyPage(t *testing.T) {
	fake, srv := newFakeReddit(t)
	fake.chain(linkPage("a", 2, nil), nil)
	fake.pages["c1"] = listing("c2")
	client := newTestClient(t, srv.URL)

	posts, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryTop, 50, enums.TimeFilterWeek, nil)

	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, 2, fake.count())
}

func TestFetchSubredditPosts_NeverExceedsLimit(t *testing.T) {
	for limit := 0; limit <= 16; limit++ {
		fake, srv := newFakeReddit(t)
		fake.chain(linkPage("a", 5, nil), linkPage("b", 5, nil), linkPage("c", 5, nil))
		client := newTestClient(t, srv.URL)

		posts, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryNew, limit, "", nil)

		require.NoError(t, err)
		assert.LessOrEqual(t, len(posts), limit)
		assert.Equal(t, min(limit, 15), len(posts), "limit %d", limit)
		if limit == 0 {
			assert.Equal(t, 0, fake.count())
		}
	}
}

func TestFetchSubredditPosts_FlairFilter(t *testing.T) {
	fake, srv := newFakeReddit(t)
	fake.chain([]thing{
		linkThing("q", "Question", 1700000000),
		linkThing("m", "Meta", 1700000001),
		linkThing("n", nil, 1700000002),
		linkThing("h", "Help", 1700000003),
	})
	client := newTestClient(t, srv.URL)
	allow := []string{"Question", "Help"}

	filtered, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryNew, 10, enums.TimeFilterAll, allow)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, p := range filtered {
		assert.Contains(t, allow, p.LinkFlairText)
	}

	all, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryNew, 10, enums.TimeFilterAll, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "", all[2].LinkFlairText)
}

func TestFetchSubredditPosts_FilteredItemsDoNotCount(t *testing.T) {
	fake, srv := newFakeReddit(t)
	fake.chain(linkPage("meta", 3, "Meta"), linkPage("q", 3, "Question"))
	client := newTestClient(t, srv.URL)

	posts, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryNew, 2, enums.TimeFilterAll, []string{"Question"})

	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, 2, fake.count())
}

func TestFetchSubredditPosts_InvalidCategoryMakesNoRequest(t *testing.T) {
	getter := &recordingGetter{}
	client := NewClient(testLogger(), getter, WithPageDelay(noDelay))

	posts, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.Category("bogus"), 10, enums.TimeFilterAll, nil)

	assert.Nil(t, posts)
	assert.True(t, errors.Is(err, ErrInvalidCategory))
	assert.Equal(t, 0, getter.calls)
}

func TestFetchSubredditPosts_InvalidTimeFilterMakesNoRequest(t *testing.T) {
	getter := &recordingGetter{}
	client := NewClient(testLogger(), getter)

	_, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryTop, 10, enums.TimeFilter("decade"), nil)

	assert.ErrorIs(t, err, ErrInvalidTimeFilter)
	assert.Equal(t, 0, getter.calls)
}

func TestFetchSubredditPosts_PartialResultsOnFailedPage(t *testing.T) {
	fake, srv := newFakeReddit(t)
	fake.chain(linkPage("a", 3, nil), linkPage("b", 3, nil))
	fake.status["c1"] = http.StatusForbidden
	var diag bytes.Buffer
	client := newTestClient(t, srv.URL, WithDiagnostics(&diag))

	posts, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryNew, 10, enums.TimeFilterAll, nil)

	require.NoError(t, err)
	assert.Len(t, posts, 3)
	assert.Equal(t, 2, fake.count(), "403 is not retried")
	assert.Contains(t, diag.String(), "Failed to fetch posts")
}

func TestFetchSubredditPosts_RequestShape(t *testing.T) {
	fake, srv := newFakeReddit(t)
	fake.chain(linkPage("a", 1, nil))
	client := newTestClient(t, srv.URL)

	_, err := client.FetchSubredditPosts(context.Background(), "golang", enums.CategoryNew, 5, enums.TimeFilterDay, nil)
	require.NoError(t, err)
	_, err = client.FetchSubredditPosts(context.Background(), "u/spez", enums.CategoryUserTop, 5, "", nil)
	require.NoError(t, err)
	_, err = client.FetchSubredditPosts(context.Background(), srv.URL+"/r/smallbusiness/", enums.CategoryHot, 5, "", nil)
	require.NoError(t, err)

	first := fake.request(0)
	assert.Equal(t, "/r/golang/new.json", first.Path)
	assert.Equal(t, "1", first.Query().Get("raw_json"))
	assert.Equal(t, "day", first.Query().Get("t"))
	assert.False(t, first.Query().Has("after"))

	assert.Equal(t, "/user/spez/submitted/top.json", fake.request(1).Path)
	assert.Equal(t, "all", fake.request(1).Query().Get("t"))
	assert.Equal(t, "/r/smallbusiness/hot.json", fake.request(2).Path)
}

func TestFetchSubredditPosts_RecordShape(t *testing.T) {
	fake, srv := newFakeReddit(t)
	fake.chain([]thing{linkThing("x", "Question", 1700000000)})
	client := newTestClient(t, srv.URL)

	posts, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryNew, 1, enums.TimeFilterAll, nil)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	p := posts[0]
	assert.Equal(t, "Title x", p.Title)
	assert.Equal(t, "author_x", p.Author)
	assert.Equal(t, "/r/smallbusiness/comments/x/title/", p.Permalink)
	assert.Equal(t, "body x", p.Body)
	assert.Equal(t, "Question", p.LinkFlairText)
	assert.Equal(t, FormatTimestamp(1700000000), p.Date)
}

func TestFetchSubredditPosts_SleepsOnlyBetweenPages(t *testing.T) {
	fake, srv := newFakeReddit(t)
	fake.chain(linkPage("a", 2, nil), linkPage("b", 2, nil), linkPage("c", 2, nil))
	delays := 0
	client := newTestClient(t, srv.URL, WithPageDelay(func() time.Duration {
		delays++
		return 0
	}))

	posts, err := client.FetchSubredditPosts(context.Background(), "smallbusiness", enums.CategoryNew, 100, enums.TimeFilterAll, nil)

	require.NoError(t, err)
	assert.Len(t, posts, 6)
	assert.Equal(t, 3, fake.count())
	assert.Equal(t, 2, delays)
}

func TestFetchSubredditPosts_CancelledDuringSleep(t *testing.T) {
	fake, srv := newFakeReddit(t)
	fake.chain(linkPage("a", 2, nil), linkPage("b", 2, nil))
	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(t, srv.URL, WithPageDelay(func() time.Duration {
		cancel()
		return time.Hour
	}))

	posts, err := client.FetchSubredditPosts(ctx, "smallbusiness", enums.CategoryNew, 100, enums.TimeFilterAll, nil)

	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, 1, fake.count())
}

func TestRandomPageDelay_Range(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := randomPageDelay()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}

func TestResolveTarget(t *testing.T) {
	c := NewClient(testLogger(), &recordingGetter{})

	assert.Equal(t, "https://www.reddit.com/r/golang", c.resolveTarget("golang", false))
	assert.Equal(t, "https://www.reddit.com/r/golang", c.resolveTarget("/r/golang/", false))
	assert.Equal(t, "https://www.reddit.com/user/spez", c.resolveTarget("u/spez", true))
	assert.Equal(t, "https://www.reddit.com/user/spez", c.resolveTarget("user/spez", true))
	assert.Equal(t, "https://www.reddit.com/r/smallbusiness", c.resolveTarget("https://www.reddit.com/r/smallbusiness/", false))
}
