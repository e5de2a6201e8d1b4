// Package memory provides an in-process video repository. It is the default
// driver and the one used by most tests; nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/videostream/internal/domain"
)

// Store keeps videos in a map guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	videos map[int64]domain.Video
	lastID int64
	now    func() time.Time
}

// New creates an empty store using the wall clock.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty store that stamps CreatedAt with now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		videos: make(map[int64]domain.Video),
		now:    now,
	}
}

func (s *Store) FindAll(ctx context.Context) ([]domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]domain.Video, 0, len(s.videos))
	for _, v := range s.videos {
		videos = append(videos, v)
	}
	domain.SortNewestFirst(videos)
	return videos, nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (domain.Video, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.videos[id]
	return v, ok, nil
}

func (s *Store) FindByTitleContaining(ctx context.Context, query string) ([]domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]domain.Video, 0)
	for _, v := range s.videos {
		if domain.TitleContains(v.Title, query) {
			videos = append(videos, v)
		}
	}
	domain.SortNewestFirst(videos)
	return videos, nil
}

func (s *Store) Save(ctx context.Context, v domain.Video) (domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.videos[v.ID]; ok && !v.IsNew() {
		v.CreatedAt = existing.CreatedAt
		s.videos[v.ID] = v
		return v, nil
	}

	s.lastID++
	v.ID = s.lastID
	v.CreatedAt = s.now().UTC()
	s.videos[v.ID] = v
	return v, nil
}

func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.videos, id)
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

var _ domain.Repository = (*Store)(nil)
