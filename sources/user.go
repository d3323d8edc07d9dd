package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/kova98/yars/enums"
	"github.com/kova98/yars/models"
)

// ScrapeUserData returns up to limit items from a user's overview feed.
// Posts and comments are told apart by the thing kind; other kinds are
// skipped and do not count towards limit.
func (c *Client) ScrapeUserData(ctx context.Context, username string, limit int) []models.UserItem {
	c.logger.Info("scraping user data", "username", username, "limit", limit)

	feedURL := c.resolveTarget(username, true) + "/.json"
	items := make([]models.UserItem, 0, min(max(limit, 0), maxPageSize))

	page := func(after string, size int) (string, url.Values) {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(size))
		if after != "" {
			params.Set("after", after)
		}
		return feedURL, params
	}

	consume := func(child models.Thing) bool {
		switch child.Kind {
		case enums.KindLink:
			var data models.LinkData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				c.logger.Warn("skipping malformed user post", "username", username, "error", err)
				return false
			}
			items = append(items, models.UserPost{
				Type:        models.UserItemPost,
				Title:       data.Title,
				Subreddit:   data.Subreddit,
				URL:         c.permalinkURL(data.Permalink),
				CreatedUTC:  data.CreatedUTC,
				CreatedDate: FormatTimestamp(data.CreatedUTC),
			})
			return true
		case enums.KindComment:
			var data models.CommentData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				c.logger.Warn("skipping malformed user comment", "username", username, "error", err)
				return false
			}
			items = append(items, models.UserComment{
				Type:          models.UserItemComment,
				Subreddit:     data.Subreddit,
				Body:          data.Body,
				CreatedUTC:    data.CreatedUTC,
				CreatedDate:   FormatTimestamp(data.CreatedUTC),
				URL:           c.permalinkURL(data.Permalink),
				LinkFlairText: deref(data.LinkFlairText),
			})
			return true
		default:
			return false
		}
	}

	c.paginate(ctx, "user", "user "+username, limit, "", page, consume)

	c.logger.Info("scraped user data", "username", username, "count", len(items))
	return items
}
