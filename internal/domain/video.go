package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Video is the catalog record for one video.
//
// A zero ID marks a record that has not been persisted yet. ID and
// CreatedAt are owned by the Repository: it assigns both on creation and
// never changes them afterwards.
type Video struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsNew reports whether v has not been assigned an ID yet.
func (v Video) IsNew() bool {
	return v.ID == 0
}

// TitleContains reports whether title contains query, ignoring case.
// An empty query matches every title.
func TitleContains(title, query string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(query))
}

// SortNewestFirst orders videos by CreatedAt descending, newest first.
// Records created at the same instant are ordered by ID descending.
func SortNewestFirst(videos []Video) {
	slices.SortFunc(videos, func(a, b Video) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
