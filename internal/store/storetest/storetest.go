// Package storetest holds the behavioural checks every domain.Repository
// implementation must pass. Provider packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/MrSnakeDoc/videostream/internal/domain"
)

// Factory returns an empty repository. Cleanup is the factory's job
// (t.Cleanup).
type Factory func(t *testing.T) domain.Repository

// Run executes the full contract suite against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, repo domain.Repository)
	}{
		{"EmptyStoreListsNothing", testEmptyStore},
		{"CreateAssignsIdentity", testCreateAssignsIdentity},
		{"FindByIDRoundTrip", testFindByIDRoundTrip},
		{"FindByIDMissing", testFindByIDMissing},
		{"SaveOverwritesInPlace", testSaveOverwrites},
		{"SaveWithUnknownIDCreates", testSaveUnknownID},
		{"FindAllNewestFirst", testFindAllOrdering},
		{"SearchIgnoresCase", testSearch},
		{"SearchEmptyQueryMatchesAll", testSearchEmptyQuery},
		{"DeleteIsIdempotent", testDeleteIdempotent},
		{"Ping", testPing},
		{"CreateSearchDeleteScenario", testScenario},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepo(t))
		})
	}
}

func testEmptyStore(t *testing.T, repo domain.Repository) {
	ctx := context.Background()

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if all == nil {
		t.Error("FindAll() on empty store returned nil, want empty slice")
	}
	if len(all) != 0 {
		t.Errorf("FindAll() on empty store returned %d videos", len(all))
	}

	found, err := repo.FindByTitleContaining(ctx, "anything")
	if err != nil {
		t.Fatalf("FindByTitleContaining() error = %v", err)
	}
	if found == nil || len(found) != 0 {
		t.Errorf("FindByTitleContaining() on empty store = %v, want empty slice", found)
	}
}

func testCreateAssignsIdentity(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	seen := make(map[int64]bool)

	for _, title := range []string{"one", "two", "three"} {
		v := mustSave(t, repo, domain.Video{Title: title, URL: "http://x/" + title})
		if v.ID == 0 {
			t.Fatalf("Save(%q) returned zero id", title)
		}
		if v.CreatedAt.IsZero() {
			t.Fatalf("Save(%q) returned zero createdAt", title)
		}
		if seen[v.ID] {
			t.Fatalf("Save(%q) reused id %d", title, v.ID)
		}
		seen[v.ID] = true
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("FindAll() returned %d videos, want 3", len(all))
	}
}

func testFindByIDRoundTrip(t *testing.T, repo domain.Repository) {
	saved := mustSave(t, repo, domain.Video{
		Title:       "Intro to Rust",
		Description: "ownership and borrowing",
		URL:         "http://x/1",
	})

	got, found, err := repo.FindByID(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if !found {
		t.Fatalf("FindByID(%d) found = false", saved.ID)
	}
	assertSameVideo(t, got, saved)
}

func testFindByIDMissing(t *testing.T, repo domain.Repository) {
	_, found, err := repo.FindByID(context.Background(), 424242)
	if err != nil {
		t.Fatalf("FindByID() on missing id error = %v, want nil", err)
	}
	if found {
		t.Error("FindByID() on missing id found = true")
	}
}

func testSaveOverwrites(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	original := mustSave(t, repo, domain.Video{Title: "draft", Description: "d", URL: "http://x/old"})

	update := domain.Video{ID: original.ID, Title: "final", URL: "http://x/new"}
	updated := mustSave(t, repo, update)

	if updated.ID != original.ID {
		t.Fatalf("overwrite changed id from %d to %d", original.ID, updated.ID)
	}
	if !updated.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("overwrite changed createdAt from %v to %v", original.CreatedAt, updated.CreatedAt)
	}

	got, found, err := repo.FindByID(ctx, original.ID)
	if err != nil || !found {
		t.Fatalf("FindByID() = found %v, err %v", found, err)
	}
	if got.Title != "final" || got.URL != "http://x/new" {
		t.Errorf("FindByID() after overwrite = %+v", got)
	}
	if got.Description != "" {
		t.Errorf("overwrite must replace every field, description = %q", got.Description)
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("overwrite created a new record, FindAll() returned %d", len(all))
	}
}

func testSaveUnknownID(t *testing.T, repo domain.Repository) {
	ctx := context.Background()

	saved := mustSave(t, repo, domain.Video{ID: 987654, Title: "orphan"})
	if saved.ID == 0 || saved.CreatedAt.IsZero() {
		t.Fatalf("Save() with unknown id returned %+v", saved)
	}

	got, found, err := repo.FindByID(ctx, saved.ID)
	if err != nil || !found {
		t.Fatalf("FindByID(%d) = found %v, err %v", saved.ID, found, err)
	}
	if got.Title != "orphan" {
		t.Errorf("FindByID() title = %q, want orphan", got.Title)
	}
}

func testFindAllOrdering(t *testing.T, repo domain.Repository) {
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		mustSave(t, repo, domain.Video{Title: title})
	}

	all, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("FindAll() returned %d videos, want 5", len(all))
	}

	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if prev.CreatedAt.Before(cur.CreatedAt) {
			t.Fatalf("position %d (%v) is older than position %d (%v)", i-1, prev.CreatedAt, i, cur.CreatedAt)
		}
		if prev.CreatedAt.Equal(cur.CreatedAt) && prev.ID < cur.ID {
			t.Fatalf("tie at %v not broken by id descending: %d before %d", cur.CreatedAt, prev.ID, cur.ID)
		}
	}
}

func testSearch(t *testing.T, repo domain.Repository) {
	titles := []string{"Intro to Rust", "RUST in production", "Go concurrency", "Trusty tools", "Python basics"}
	for _, title := range titles {
		mustSave(t, repo, domain.Video{Title: title})
	}

	got, err := repo.FindByTitleContaining(context.Background(), "rUsT")
	if err != nil {
		t.Fatalf("FindByTitleContaining() error = %v", err)
	}

	want := map[string]bool{"Intro to Rust": true, "RUST in production": true, "Trusty tools": true}
	if len(got) != len(want) {
		t.Fatalf("FindByTitleContaining() returned %v, want titles %v", titlesOf(got), want)
	}
	for _, v := range got {
		if !want[v.Title] {
			t.Errorf("unexpected match %q", v.Title)
		}
	}

	none, err := repo.FindByTitleContaining(context.Background(), "haskell")
	if err != nil {
		t.Fatalf("FindByTitleContaining() error = %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("FindByTitleContaining(haskell) = %v, want empty slice", titlesOf(none))
	}
}

func testSearchEmptyQuery(t *testing.T, repo domain.Repository) {
	for _, title := range []string{"a", "b", ""} {
		mustSave(t, repo, domain.Video{Title: title})
	}

	got, err := repo.FindByTitleContaining(context.Background(), "")
	if err != nil {
		t.Fatalf("FindByTitleContaining() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("empty query matched %d videos, want 3", len(got))
	}
}

func testDeleteIdempotent(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	keep := mustSave(t, repo, domain.Video{Title: "keep"})
	gone := mustSave(t, repo, domain.Video{Title: "gone"})

	if err := repo.DeleteByID(ctx, gone.ID); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	if err := repo.DeleteByID(ctx, gone.ID); err != nil {
		t.Fatalf("second DeleteByID() error = %v", err)
	}
	if err := repo.DeleteByID(ctx, 31337); err != nil {
		t.Fatalf("DeleteByID() on never-created id error = %v", err)
	}

	if _, found, err := repo.FindByID(ctx, gone.ID); err != nil || found {
		t.Errorf("FindByID() after delete = found %v, err %v", found, err)
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(all) != 1 || all[0].ID != keep.ID {
		t.Errorf("FindAll() after delete = %v, want only %d", all, keep.ID)
	}
}

func testPing(t *testing.T, repo domain.Repository) {
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func testScenario(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	catalog := domain.NewCatalog(repo)

	created, err := catalog.SaveVideo(ctx, domain.Video{Title: "Intro to Rust", URL: "http://x/1"})
	if err != nil {
		t.Fatalf("SaveVideo() error = %v", err)
	}

	hits, err := catalog.SearchVideos(ctx, "rust")
	if err != nil {
		t.Fatalf("SearchVideos() error = %v", err)
	}
	if len(hits) != 1 || hits[0].ID != created.ID {
		t.Fatalf("SearchVideos(rust) = %v, want [%d]", hits, created.ID)
	}

	if err := catalog.DeleteVideo(ctx, created.ID); err != nil {
		t.Fatalf("DeleteVideo() error = %v", err)
	}
	if _, found, err := catalog.GetVideoByID(ctx, created.ID); err != nil || found {
		t.Errorf("GetVideoByID() after delete = found %v, err %v", found, err)
	}
}

func mustSave(t *testing.T, repo domain.Repository, v domain.Video) domain.Video {
	t.Helper()
	saved, err := repo.Save(context.Background(), v)
	if err != nil {
		t.Fatalf("Save(%+v) error = %v", v, err)
	}
	return saved
}

func assertSameVideo(t *testing.T, got, want domain.Video) {
	t.Helper()
	if got.ID != want.ID ||
		got.Title != want.Title ||
		got.Description != want.Description ||
		got.URL != want.URL ||
		!got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("video mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func titlesOf(videos []domain.Video) []string {
	out := make([]string, len(videos))
	for i, v := range videos {
		out[i] = v.Title
	}
	return out
}
