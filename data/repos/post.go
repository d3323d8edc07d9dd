package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kova98/yars/data"
)

const postColumns = `id, run_id, target, title, author, permalink, body, link_flair_text,
	language, posted_at, comment_count, comments, created_at`

type PostRepo struct {
	db *sqlx.DB
}

func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db}
}

// CreatePosts stores posts that are not stored yet and returns the permalinks
// of the ones it inserted. Posts are matched by permalink.
func (r *PostRepo) CreatePosts(posts []data.StoredPost) ([]string, error) {
	inserted := []string{}
	if len(posts) == 0 {
		return inserted, nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("create posts: begin: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES (:id, :run_id, :target, :title, :author, :permalink, :body, :link_flair_text,
			:language, :posted_at, :comment_count, :comments, :created_at)
		ON CONFLICT (permalink) DO NOTHING
		RETURNING permalink`

	now := time.Now().UTC()
	for _, post := range posts {
		if post.ID == uuid.Nil {
			post.ID = uuid.New()
		}
		if post.CreatedAt.IsZero() {
			post.CreatedAt = now
		}
		if post.CommentsRaw == "" {
			post.CommentsRaw = "[]"
		}

		permalink, err := insertReturning(tx, query, post)
		if err != nil {
			return nil, fmt.Errorf("create posts: %w", err)
		}
		if permalink != "" {
			inserted = append(inserted, permalink)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create posts: commit: %w", err)
	}

	return inserted, nil
}

func insertReturning(tx *sqlx.Tx, query string, post data.StoredPost) (string, error) {
	rows, err := tx.NamedQuery(query, post)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var permalink string
	if rows.Next() {
		if err := rows.Scan(&permalink); err != nil {
			return "", fmt.Errorf("scan returned permalink: %w", err)
		}
	}

	return permalink, rows.Err()
}

// GetPosts pages stored posts newest first. An empty target returns posts of
// every target. total is the number of matching posts.
func (r *PostRepo) GetPosts(target string, limit, offset int) (posts []data.StoredPost, total int, err error) {
	posts = []data.StoredPost{}

	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM posts WHERE (? = '' OR target = ?)`)
	if err := r.db.Get(&total, countQuery, target, target); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := r.db.Rebind(`
		SELECT ` + postColumns + `
		FROM posts
		WHERE (? = '' OR target = ?)
		ORDER BY created_at DESC, permalink
		LIMIT ? OFFSET ?`)

	if err := r.db.Select(&posts, query, target, target, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("get posts: %w", err)
	}

	return posts, total, nil
}

func (r *PostRepo) GetPostByPermalink(permalink string) (*data.StoredPost, error) {
	var post data.StoredPost
	query := r.db.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE permalink = ?`)

	err := r.db.Get(&post, query, permalink)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post by permalink: %w", err)
	}

	return &post, nil
}

// GetPermalinks returns which of permalinks are already stored.
func (r *PostRepo) GetPermalinks(permalinks []string) (map[string]bool, error) {
	stored := make(map[string]bool, len(permalinks))
	if len(permalinks) == 0 {
		return stored, nil
	}

	query, args, err := sqlx.In(`SELECT permalink FROM posts WHERE permalink IN (?)`, permalinks)
	if err != nil {
		return nil, fmt.Errorf("build get permalinks: %w", err)
	}
	query = r.db.Rebind(query)

	var found []string
	if err := r.db.Select(&found, query, args...); err != nil {
		return nil, fmt.Errorf("get permalinks: %w", err)
	}
	for _, p := range found {
		stored[p] = true
	}

	return stored, nil
}
