// Package postgres stores videos in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrSnakeDoc/videostream/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id          BIGSERIAL PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_videos_created_at ON videos (created_at DESC, id DESC);
`

const selectColumns = `SELECT id, title, description, url, created_at FROM videos`

// Store is a domain.Repository backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New creates the schema if needed and returns a store using pool.
// The store owns pool and closes it in Close.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create videos schema: %w", err)
	}
	return &Store{pool: pool, now: time.Now}, nil
}

func (s *Store) FindAll(ctx context.Context) ([]domain.Video, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	return collect(rows)
}

func (s *Store) FindByID(ctx context.Context, id int64) (domain.Video, bool, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` WHERE id = $1`, id)
	if err != nil {
		return domain.Video{}, false, fmt.Errorf("failed to query video %d: %w", id, err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanVideo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Video{}, false, nil
		}
		return domain.Video{}, false, fmt.Errorf("failed to read video %d: %w", id, err)
	}
	return v, true, nil
}

func (s *Store) FindByTitleContaining(ctx context.Context, query string) ([]domain.Video, error) {
	rows, err := s.pool.Query(ctx,
		selectColumns+` WHERE strpos(lower(title), lower($1)) > 0 ORDER BY created_at DESC, id DESC`,
		query,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}
	return collect(rows)
}

func (s *Store) Save(ctx context.Context, v domain.Video) (domain.Video, error) {
	if !v.IsNew() {
		err := s.pool.QueryRow(ctx,
			`UPDATE videos SET title = $1, description = $2, url = $3 WHERE id = $4 RETURNING created_at`,
			v.Title, v.Description, v.URL, v.ID,
		).Scan(&v.CreatedAt)
		switch {
		case err == nil:
			v.CreatedAt = v.CreatedAt.UTC()
			return v, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return domain.Video{}, fmt.Errorf("failed to update video %d: %w", v.ID, err)
		}
	}

	// TIMESTAMPTZ keeps microseconds; truncate so the returned record
	// matches what a later read yields.
	v.CreatedAt = s.now().UTC().Truncate(time.Microsecond)
	if err := s.pool.QueryRow(ctx,
		`INSERT INTO videos (title, description, url, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		v.Title, v.Description, v.URL, v.CreatedAt,
	).Scan(&v.ID); err != nil {
		return domain.Video{}, fmt.Errorf("failed to insert video: %w", err)
	}
	return v, nil
}

func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete video %d: %w", id, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanVideo(row pgx.CollectableRow) (domain.Video, error) {
	var v domain.Video
	if err := row.Scan(&v.ID, &v.Title, &v.Description, &v.URL, &v.CreatedAt); err != nil {
		return domain.Video{}, err
	}
	v.CreatedAt = v.CreatedAt.UTC()
	return v, nil
}

func collect(rows pgx.Rows) ([]domain.Video, error) {
	videos, err := pgx.CollectRows(rows, scanVideo)
	if err != nil {
		return nil, fmt.Errorf("failed to read videos: %w", err)
	}
	if videos == nil {
		videos = []domain.Video{}
	}
	return videos, nil
}

var _ domain.Repository = (*Store)(nil)
