package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kova98/yars/models"
)

// ScrapePostDetails fetches a post's comment page and returns its title, body
// and comment tree. On any failure the result is nil and the error is one of
// *RequestError, *StatusError, *DecodeError or wraps ErrUnexpectedShape.
func (c *Client) ScrapePostDetails(ctx context.Context, permalink string) (*models.PostDetails, error) {
	detailURL := strings.TrimRight(c.permalinkURL(permalink), "/") + ".json"

	var raw json.RawMessage
	if err := c.session.GetJSON(ctx, detailURL, nil, &raw); err != nil {
		c.logger.Info("post details request unsuccessful", "url", detailURL, "error", err)
		c.report("Failed to fetch post data: %v", err)
		return nil, err
	}

	details, err := parsePostDetails(raw)
	if err != nil {
		c.logger.Info("unexpected post data structure", "url", detailURL, "error", err)
		c.report("Unexpected post data structure")
		return nil, err
	}

	c.logger.Info("scraped post", "title", details.Title, "comments", CountComments(details.Comments))
	return details, nil
}

// parsePostDetails expects [postListing, commentListing].
func parsePostDetails(raw json.RawMessage) (*models.PostDetails, error) {
	var parts []models.Listing
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: expected 2 listings, got %d", ErrUnexpectedShape, len(parts))
	}
	if len(parts[0].Data.Children) == 0 {
		return nil, fmt.Errorf("%w: post listing is empty", ErrUnexpectedShape)
	}

	var post models.LinkData
	if err := json.Unmarshal(parts[0].Data.Children[0].Data, &post); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}

	return &models.PostDetails{
		Title:    post.Title,
		Body:     post.Selftext,
		Comments: ExtractComments(parts[1].Data.Children),
	}, nil
}
