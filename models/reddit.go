package models

import (
	"bytes"
	"encoding/json"

	"github.com/kova98/yars/enums"
)

// Raw Reddit JSON schema.

type Thing struct {
	Kind enums.Kind      `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type Listing struct {
	Kind enums.Kind  `json:"kind"`
	Data ListingData `json:"data"`
}

type ListingData struct {
	Children []Thing `json:"children"`
	After    string  `json:"after"`
	Before   string  `json:"before"`
}

type LinkData struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Subreddit     string  `json:"subreddit"`
	Permalink     string  `json:"permalink"`
	Selftext      string  `json:"selftext"`
	LinkFlairText *string `json:"link_flair_text"`
	Score         int     `json:"score"`
	NumComments   int     `json:"num_comments"`
	CreatedUTC    float64 `json:"created_utc"`
}

type CommentData struct {
	ID            string  `json:"id"`
	Author        string  `json:"author"`
	Body          string  `json:"body"`
	Subreddit     string  `json:"subreddit"`
	Permalink     string  `json:"permalink"`
	LinkFlairText *string `json:"link_flair_text"`
	Score         int     `json:"score"`
	CreatedUTC    float64 `json:"created_utc"`
	Replies       Replies `json:"replies"`
}

// Replies holds a comment's nested listing. Reddit sends an empty string
// instead of an object when a comment has no replies.
type Replies struct {
	Listing *Listing
}

func (r *Replies) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		r.Listing = nil
		return nil
	}

	var listing Listing
	if err := json.Unmarshal(b, &listing); err != nil {
		return err
	}
	r.Listing = &listing
	return nil
}

func (r Replies) MarshalJSON() ([]byte, error) {
	if r.Listing == nil {
		return []byte(`""`), nil
	}
	return json.Marshal(r.Listing)
}

// Normalized records.

type Post struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Permalink     string `json:"permalink"`
	Date          string `json:"date"`
	Body          string `json:"body"`
	LinkFlairText string `json:"link_flair_text"`
}

type PostDetails struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Comments []Comment `json:"comments"`
}

type Comment struct {
	Author  string    `json:"author"`
	Body    string    `json:"body"`
	Score   int       `json:"score"`
	Replies []Comment `json:"replies"`
}

// UserItem is either a UserPost or a UserComment.
type UserItem interface {
	ItemType() string
}

const (
	UserItemPost    = "post"
	UserItemComment = "comment"
)

type UserPost struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Subreddit   string  `json:"subreddit"`
	URL         string  `json:"url"`
	CreatedUTC  float64 `json:"created_utc"`
	CreatedDate string  `json:"created_date"`
}

func (UserPost) ItemType() string { return UserItemPost }

type UserComment struct {
	Type          string  `json:"type"`
	Subreddit     string  `json:"subreddit"`
	Body          string  `json:"body"`
	CreatedUTC    float64 `json:"created_utc"`
	CreatedDate   string  `json:"created_date"`
	URL           string  `json:"url"`
	LinkFlairText string  `json:"link_flair_text"`
}

func (UserComment) ItemType() string { return UserItemComment }

type SearchResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// ScrapedPost is the record the scrape command appends to its output file.
// CreatedUTC holds the formatted date, matching the files earlier runs wrote.
type ScrapedPost struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	CreatedUTC    string `json:"created_utc"`
	Body          string `json:"body"`
	LinkFlairText string `json:"link_flair_text"`
}
