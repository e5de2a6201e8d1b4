package domain

import (
	"testing"
	"time"
)

func TestTitleContains(t *testing.T) {
	tests := []struct {
		name  string
		title string
		query string
		want  bool
	}{
		{name: "exact", title: "Intro to Rust", query: "Intro to Rust", want: true},
		{name: "lower query", title: "Intro to Rust", query: "rust", want: true},
		{name: "upper query", title: "Intro to Rust", query: "INTRO", want: true},
		{name: "middle", title: "Advanced Go Patterns", query: "go pat", want: true},
		{name: "empty query matches", title: "anything", query: "", want: true},
		{name: "empty title", title: "", query: "x", want: false},
		{name: "no match", title: "Intro to Rust", query: "python", want: false},
		{name: "unicode", title: "Ÿoga Basics", query: "ÿoga", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleContains(tt.title, tt.query); got != tt.want {
				t.Errorf("TitleContains(%q, %q) = %v, want %v", tt.title, tt.query, got, tt.want)
			}
		})
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	videos := []Video{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(time.Hour)},
		{ID: 3, CreatedAt: base},
		{ID: 4, CreatedAt: base.Add(-time.Hour)},
	}

	SortNewestFirst(videos)

	wantIDs := []int64{2, 3, 1, 4}
	for i, v := range videos {
		if v.ID != wantIDs[i] {
			t.Fatalf("position %d: got id %d, want %d (full order %v)", i, v.ID, wantIDs[i], ids(videos))
		}
	}
}

func TestSortNewestFirstEmpty(t *testing.T) {
	var videos []Video
	SortNewestFirst(videos) // must not panic
	if len(videos) != 0 {
		t.Errorf("expected empty slice, got %d", len(videos))
	}
}

func TestVideoIsNew(t *testing.T) {
	if !(Video{}).IsNew() {
		t.Error("zero video should be new")
	}
	if (Video{ID: 7}).IsNew() {
		t.Error("video with id should not be new")
	}
}

func ids(videos []Video) []int64 {
	out := make([]int64, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}
