package domain

import "context"

// Repository is the persistence contract the catalog relies on.
//
// Implementations must keep FindAll ordered newest first (see
// SortNewestFirst), treat a missing id as found == false rather than an
// error, and make DeleteByID a no-op for unknown ids.
type Repository interface {
	// FindAll returns every video, newest first. An empty store yields an
	// empty, non-nil slice.
	FindAll(ctx context.Context) ([]Video, error)

	// FindByID returns the video with the given id. found is false when no
	// record carries that id.
	FindByID(ctx context.Context, id int64) (video Video, found bool, err error)

	// FindByTitleContaining returns the videos whose title contains query,
	// ignoring case.
	FindByTitleContaining(ctx context.Context, query string) ([]Video, error)

	// Save creates v when it has no id (or an id no record carries) and
	// overwrites title, description and url of the existing record
	// otherwise. It returns the record as persisted.
	Save(ctx context.Context, v Video) (Video, error)

	// DeleteByID removes the record if present.
	DeleteByID(ctx context.Context, id int64) error

	// Ping checks that the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases resources owned by the repository.
	Close() error
}

// Catalog exposes the video operations used by the HTTP layer.
// It holds no state of its own and delegates every call to the Repository.
type Catalog struct {
	repo Repository
}

// NewCatalog creates a catalog backed by repo.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

// GetAllVideos lists every video, newest first.
func (c *Catalog) GetAllVideos(ctx context.Context) ([]Video, error) {
	return c.repo.FindAll(ctx)
}

// GetVideoByID looks a video up by id. Callers must check found.
func (c *Catalog) GetVideoByID(ctx context.Context, id int64) (Video, bool, error) {
	return c.repo.FindByID(ctx, id)
}

// SearchVideos returns the videos whose title contains query, ignoring case.
func (c *Catalog) SearchVideos(ctx context.Context, query string) ([]Video, error) {
	return c.repo.FindByTitleContaining(ctx, query)
}

// SaveVideo creates or overwrites a video depending on whether v carries an id.
func (c *Catalog) SaveVideo(ctx context.Context, v Video) (Video, error) {
	return c.repo.Save(ctx, v)
}

// DeleteVideo removes a video. Deleting an unknown id succeeds.
func (c *Catalog) DeleteVideo(ctx context.Context, id int64) error {
	return c.repo.DeleteByID(ctx, id)
}
