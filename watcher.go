package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kova98/yars/data"
	"github.com/kova98/yars/enums"
	"github.com/kova98/yars/matchers"
	"github.com/kova98/yars/models"
	"github.com/kova98/yars/sources"
)

type postFetcher interface {
	FetchSubredditPosts(ctx context.Context, target string, category enums.Category, limit int, timeFilter enums.TimeFilter, flairs []string) ([]models.Post, error)
	ScrapePostDetails(ctx context.Context, permalink string) (*models.PostDetails, error)
}

type postStore interface {
	GetPermalinks(permalinks []string) (map[string]bool, error)
	CreatePosts(posts []data.StoredPost) ([]string, error)
}

type runStore interface {
	CreateRun(target, category string, requested int) (data.ScrapeRun, error)
	FinishRun(id uuid.UUID, fetched, stored int) error
}

type languageDetector interface {
	Detect(text string) string
}

type digestMailer interface {
	NewPostsDigestEmail(email, target string, posts []models.DigestItem) (models.Email, error)
	Send(mail models.Email) error
}

type postPublisher interface {
	PublishPosts(ctx context.Context, posts []data.StoredPost) error
}

type WatchConfig struct {
	Targets     []string
	Category    enums.Category
	Limit       int
	Flairs      []string
	Keywords    []string
	MatchMode   enums.MatchMode
	Languages   []string
	Interval    time.Duration
	NotifyEmail string
	BaseURL     string
}

// Watcher periodically scrapes the configured targets and stores posts it
// has not seen before, together with their comment trees.
type Watcher struct {
	logger    *slog.Logger
	cfg       WatchConfig
	scraper   postFetcher
	posts     postStore
	runs      runStore
	detector  languageDetector
	mailer    digestMailer
	publisher postPublisher
}

func NewWatcher(logger *slog.Logger, cfg WatchConfig, scraper postFetcher, posts postStore, runs runStore, detector languageDetector) *Watcher {
	return &Watcher{
		logger:   logger,
		cfg:      cfg,
		scraper:  scraper,
		posts:    posts,
		runs:     runs,
		detector: detector,
	}
}

func (w *Watcher) WithMailer(mailer digestMailer) *Watcher {
	w.mailer = mailer
	return w
}

func (w *Watcher) WithPublisher(publisher postPublisher) *Watcher {
	w.publisher = publisher
	return w
}

func (w *Watcher) Start(ctx context.Context) {
	w.watchAll(ctx)

	go func() {
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.watchAll(ctx)
			}
		}
	}()
}

func (w *Watcher) watchAll(ctx context.Context) {
	for _, target := range w.cfg.Targets {
		if ctx.Err() != nil {
			return
		}
		if err := w.watchTarget(ctx, target); err != nil {
			w.logger.Error("watch target:", "target", target, "error", err)
		}
	}
}

func (w *Watcher) watchTarget(ctx context.Context, target string) error {
	run, err := w.runs.CreateRun(target, string(w.cfg.Category), w.cfg.Limit)
	if err != nil {
		return errors.Wrap(err, "watch target: create run")
	}

	fetched, err := w.scraper.FetchSubredditPosts(ctx, target, w.cfg.Category, w.cfg.Limit, "", w.cfg.Flairs)
	if err != nil {
		w.finishRun(run.ID, 0, 0)
		return errors.Wrap(err, "watch target: fetch posts")
	}

	candidates := w.filter(fetched)
	if len(candidates) == 0 {
		w.finishRun(run.ID, len(fetched), 0)
		return nil
	}

	permalinks := make([]string, 0, len(candidates))
	for _, c := range candidates {
		permalinks = append(permalinks, c.post.Permalink)
	}
	existing, err := w.posts.GetPermalinks(permalinks)
	if err != nil {
		w.finishRun(run.ID, len(fetched), 0)
		return errors.Wrap(err, "watch target: get stored permalinks")
	}

	stored := make([]data.StoredPost, 0, len(candidates))
	for _, c := range candidates {
		if existing[c.post.Permalink] {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		stored = append(stored, w.storedPost(ctx, run.ID, target, c))
	}

	inserted, err := w.posts.CreatePosts(stored)
	if err != nil {
		w.finishRun(run.ID, len(fetched), 0)
		return errors.Wrap(err, "watch target: create posts")
	}
	w.finishRun(run.ID, len(fetched), len(inserted))

	w.logger.Info("watched target", "target", target, "fetched", len(fetched), "new", len(inserted))

	if len(inserted) == 0 {
		return nil
	}
	insertedSet := make(map[string]bool, len(inserted))
	for _, permalink := range inserted {
		insertedSet[permalink] = true
	}
	newPosts := make([]data.StoredPost, 0, len(inserted))
	for _, post := range stored {
		if insertedSet[post.Permalink] {
			newPosts = append(newPosts, post)
		}
	}

	w.notify(ctx, target, newPosts)
	return nil
}

type candidate struct {
	post     models.Post
	language string
}

func (w *Watcher) filter(posts []models.Post) []candidate {
	var kept []candidate
	for _, post := range posts {
		text := post.Title + "\n" + post.Body
		if !matchers.MatchesAnyKeyword(text, w.cfg.Keywords, w.cfg.MatchMode) {
			continue
		}
		language := w.detector.Detect(text)
		if !matchers.MatchesLanguage(w.cfg.Languages, language) {
			continue
		}
		kept = append(kept, candidate{post: post, language: language})
	}
	return kept
}

// storedPost fetches the comment tree of c. A failed detail fetch still
// stores the post, with no comments.
func (w *Watcher) storedPost(ctx context.Context, runID uuid.UUID, target string, c candidate) data.StoredPost {
	post := data.StoredPost{
		ID:            uuid.New(),
		RunID:         runID,
		Target:        target,
		Title:         c.post.Title,
		Author:        c.post.Author,
		Permalink:     c.post.Permalink,
		Body:          c.post.Body,
		LinkFlairText: c.post.LinkFlairText,
		Language:      c.language,
		CreatedAt:     time.Now().UTC(),
	}
	if postedAt, ok := sources.ParseTimestamp(c.post.Date); ok {
		post.PostedAt = &postedAt
	}

	var comments []models.Comment
	details, err := w.scraper.ScrapePostDetails(ctx, c.post.Permalink)
	if err != nil {
		w.logger.Warn("watch target: fetch post details", "permalink", c.post.Permalink, "error", err)
	} else if details != nil {
		comments = details.Comments
	}

	post.CommentCount = sources.CountComments(comments)
	if err := post.SetComments(comments); err != nil {
		w.logger.Error("watch target: encode comments", "permalink", c.post.Permalink, "error", err)
	}
	return post
}

func (w *Watcher) finishRun(id uuid.UUID, fetched, stored int) {
	if err := w.runs.FinishRun(id, fetched, stored); err != nil {
		w.logger.Error("watch target: finish run", "run", id, "error", err)
	}
}

func (w *Watcher) notify(ctx context.Context, target string, posts []data.StoredPost) {
	if w.publisher != nil {
		if err := w.publisher.PublishPosts(ctx, posts); err != nil {
			w.logger.Error("watch target: publish posts", "target", target, "error", err)
		}
	}

	if w.mailer == nil || w.cfg.NotifyEmail == "" {
		return
	}

	items := make([]models.DigestItem, 0, len(posts))
	for _, post := range posts {
		items = append(items, models.DigestItem{
			Title:    post.Title,
			Author:   post.Author,
			Flair:    post.LinkFlairText,
			Language: post.Language,
			Body:     post.Body,
			URL:      w.postURL(post.Permalink),
			Comments: post.CommentCount,
		})
	}

	mail, err := w.mailer.NewPostsDigestEmail(w.cfg.NotifyEmail, target, items)
	if err != nil {
		w.logger.Error("watch target: create digest email", "target", target, "error", err)
		return
	}
	if err = w.mailer.Send(mail); err != nil {
		w.logger.Error("watch target: send digest", "target", target, "error", err)
	}
}

func (w *Watcher) postURL(permalink string) string {
	if strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://") {
		return permalink
	}
	return strings.TrimRight(w.cfg.BaseURL, "/") + permalink
}
