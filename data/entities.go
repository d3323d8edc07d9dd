package data

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kova98/yars/models"
)

type ScrapeRun struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Target     string     `db:"target" json:"target"`
	Category   string     `db:"category" json:"category"`
	Requested  int        `db:"requested" json:"requested"`
	Fetched    int        `db:"fetched" json:"fetched"`
	Stored     int        `db:"stored" json:"stored"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}

// StoredPost is a scraped post together with its comment tree, kept as JSON.
type StoredPost struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	RunID         uuid.UUID  `db:"run_id" json:"run_id"`
	Target        string     `db:"target" json:"target"`
	Title         string     `db:"title" json:"title"`
	Author        string     `db:"author" json:"author"`
	Permalink     string     `db:"permalink" json:"permalink"`
	Body          string     `db:"body" json:"body"`
	LinkFlairText string     `db:"link_flair_text" json:"link_flair_text"`
	Language      string     `db:"language" json:"language"`
	PostedAt      *time.Time `db:"posted_at" json:"posted_at,omitempty"`
	CommentCount  int        `db:"comment_count" json:"comment_count"`
	CommentsRaw   string     `db:"comments" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

func (p *StoredPost) SetComments(comments []models.Comment) error {
	if comments == nil {
		comments = []models.Comment{}
	}
	b, err := json.Marshal(comments)
	if err != nil {
		return err
	}
	p.CommentsRaw = string(b)
	return nil
}

func (p StoredPost) Comments() ([]models.Comment, error) {
	comments := []models.Comment{}
	if p.CommentsRaw == "" {
		return comments, nil
	}
	if err := json.Unmarshal([]byte(p.CommentsRaw), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
