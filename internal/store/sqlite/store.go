// Package sqlite stores videos in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/videostream/internal/domain"
)

// DriverName is the database/sql driver registered by this package. It is
// the stock sqlite3 driver plus a unicode-aware lower() named go_lower,
// which SQLite lacks without ICU.
const DriverName = "sqlite3_videostream"

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(DriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("go_lower", strings.ToLower, true)
			},
		})
	})
}

// created_at holds unix nanoseconds so ordering is numeric and exact.
const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_videos_created_at ON videos (created_at DESC, id DESC);
`

const selectColumns = `SELECT id, title, description, url, created_at FROM videos`

// Store is a domain.Repository backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at dsn, e.g.
// "file:/var/lib/videostream/videos.db?_busy_timeout=5000".
func Open(ctx context.Context, dsn string) (*Store, error) {
	registerDriver()

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single writer avoids "database is locked" under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
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
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)

	v, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Video{}, false, nil
		}
		return domain.Video{}, false, fmt.Errorf("failed to read video %d: %w", id, err)
	}
	return v, true, nil
}

func (s *Store) FindByTitleContaining(ctx context.Context, query string) ([]domain.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE instr(go_lower(title), ?) > 0 ORDER BY created_at DESC, id DESC`,
		strings.ToLower(query),
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

	saved, err := s.save(ctx, tx, v)
	if err != nil {
		return domain.Video{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Video{}, fmt.Errorf("failed to commit video: %w", err)
	}
	return saved, nil
}

func (s *Store) save(ctx context.Context, tx *sql.Tx, v domain.Video) (domain.Video, error) {
	if !v.IsNew() {
		var createdAt int64
		err := tx.QueryRowContext(ctx, `SELECT created_at FROM videos WHERE id = ?`, v.ID).Scan(&createdAt)
		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE videos SET title = ?, description = ?, url = ? WHERE id = ?`,
				v.Title, v.Description, v.URL, v.ID,
			); err != nil {
				return domain.Video{}, fmt.Errorf("failed to update video %d: %w", v.ID, err)
			}
			v.CreatedAt = fromNanos(createdAt)
			return v, nil
		case !errors.Is(err, sql.ErrNoRows):
			return domain.Video{}, fmt.Errorf("failed to read video %d: %w", v.ID, err)
		}
	}

	v.CreatedAt = s.now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO videos (title, description, url, created_at) VALUES (?, ?, ?, ?)`,
		v.Title, v.Description, v.URL, v.CreatedAt.UnixNano(),
	)
	if err != nil {
		return domain.Video{}, fmt.Errorf("failed to insert video: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Video{}, fmt.Errorf("failed to read inserted id: %w", err)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (domain.Video, error) {
	var (
		v         domain.Video
		createdAt int64
	)
	if err := row.Scan(&v.ID, &v.Title, &v.Description, &v.URL, &createdAt); err != nil {
		return domain.Video{}, err
	}
	v.CreatedAt = fromNanos(createdAt)
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

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

var _ domain.Repository = (*Store)(nil)
