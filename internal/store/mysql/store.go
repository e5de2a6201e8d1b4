// Package mysql stores videos in MySQL or MariaDB.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/MrSnakeDoc/videostream/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id          BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	url         TEXT NOT NULL,
	created_at  DATETIME(6) NOT NULL,
	INDEX idx_videos_created_at (created_at, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const selectColumns = `SELECT id, title, description, url, created_at FROM videos`

// OpenDB builds a *sql.DB for dsn with the options the store relies on:
// DATETIME columns scanned into time.Time, in UTC, over a utf8mb4 connection.
// No connection is made yet.
func OpenDB(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// Search parameters must be utf8mb4 to compare against title COLLATE utf8mb4_bin.
	cfg.Collation = "utf8mb4_general_ci"

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxIdleConns(10)
	return db, nil
}

// Store is a domain.Repository backed by MySQL.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates the schema if needed and returns a store using db.
// The store owns db and closes it in Close.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create videos schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) FindAll(ctx context.Context) ([]domain.Video, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	return collect(rows)
}

func (s *Store) FindByID(ctx context.Context, id int64) (domain.Video, bool, error) {
	v, err := scanVideo(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Video{}, false, nil
		}
		return domain.Video{}, false, fmt.Errorf("failed to read video %d: %w", id, err)
	}
	return v, true, nil
}

// FindByTitleContaining compares lowered text under a binary collation so
// accents stay significant whatever the column collation is.
func (s *Store) FindByTitleContaining(ctx context.Context, query string) ([]domain.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE LOCATE(LOWER(?), LOWER(title) COLLATE utf8mb4_bin) > 0 ORDER BY created_at DESC, id DESC`,
		query,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}
	return collect(rows)
}

func (s *Store) Save(ctx context.Context, v domain.Video) (domain.Video, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Video{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if !v.IsNew() {
		var createdAt time.Time
		err := tx.QueryRowContext(ctx,
			`SELECT created_at FROM videos WHERE id = ? FOR UPDATE`, v.ID,
		).Scan(&createdAt)

		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE videos SET title = ?, description = ?, url = ? WHERE id = ?`,
				v.Title, v.Description, v.URL, v.ID,
			); err != nil {
				return domain.Video{}, fmt.Errorf("failed to update video %d: %w", v.ID, err)
			}
			if err := tx.Commit(); err != nil {
				return domain.Video{}, fmt.Errorf("failed to commit video %d: %w", v.ID, err)
			}
			v.CreatedAt = createdAt.UTC()
			return v, nil
		case !errors.Is(err, sql.ErrNoRows):
			return domain.Video{}, fmt.Errorf("failed to lock video %d: %w", v.ID, err)
		}
	}

	// DATETIME(6) keeps microseconds.
	v.CreatedAt = s.now().UTC().Truncate(time.Microsecond)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO videos (title, description, url, created_at) VALUES (?, ?, ?, ?)`,
		v.Title, v.Description, v.URL, v.CreatedAt,
	)
	if err != nil {
		return domain.Video{}, fmt.Errorf("failed to insert video: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Video{}, fmt.Errorf("failed to read inserted id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Video{}, fmt.Errorf("failed to commit video: %w", err)
	}

	v.ID = id
	return v, nil
}

func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete video %d: %w", id, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func scanVideo(row interface{ Scan(...any) error }) (domain.Video, error) {
	var v domain.Video
	if err := row.Scan(&v.ID, &v.Title, &v.Description, &v.URL, &v.CreatedAt); err != nil {
		return domain.Video{}, err
	}
	v.CreatedAt = v.CreatedAt.UTC()
	return v, nil
}

func collect(rows *sql.Rows) ([]domain.Video, error) {
	defer func() { _ = rows.Close() }()

	videos := make([]domain.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read videos: %w", err)
	}
	return videos, nil
}

var _ domain.Repository = (*Store)(nil)
