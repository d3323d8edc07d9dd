package repos

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kova98/yars/data"
)

type RunRepo struct {
	db *sqlx.DB
}

func NewRunRepo(db *sqlx.DB) *RunRepo {
	return &RunRepo{db}
}

func (r *RunRepo) CreateRun(target, category string, requested int) (data.ScrapeRun, error) {
	run := data.ScrapeRun{
		ID:        uuid.New(),
		Target:    target,
		Category:  category,
		Requested: requested,
		StartedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO scrape_runs (id, target, category, requested, started_at)
		VALUES (:id, :target, :category, :requested, :started_at)`

	if _, err := r.db.NamedExec(query, run); err != nil {
		return data.ScrapeRun{}, fmt.Errorf("create run: %w", err)
	}

	return run, nil
}

func (r *RunRepo) FinishRun(id uuid.UUID, fetched, stored int) error {
	query := r.db.Rebind(`UPDATE scrape_runs SET fetched = ?, stored = ?, finished_at = ? WHERE id = ?`)

	res, err := r.db.Exec(query, fetched, stored, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: run %s not found", id)
	}

	return nil
}

func (r *RunRepo) GetRuns(limit int) ([]data.ScrapeRun, error) {
	runs := []data.ScrapeRun{}
	query := r.db.Rebind(`
		SELECT id, target, category, requested, fetched, stored, started_at, finished_at
		FROM scrape_runs
		ORDER BY started_at DESC
		LIMIT ?`)

	if err := r.db.Select(&runs, query, limit); err != nil {
		return nil, fmt.Errorf("get runs: %w", err)
	}

	return runs, nil
}
