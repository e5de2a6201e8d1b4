package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrSnakeDoc/videostream/internal/domain"
	"github.com/MrSnakeDoc/videostream/internal/store/storetest"
)

// Runs against a real server only: set VIDEOSTREAM_TEST_POSTGRES_DSN to a
// disposable database, the videos table is truncated before each case.
func TestStoreContract(t *testing.T) {
	dsn := os.Getenv("VIDEOSTREAM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("VIDEOSTREAM_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) domain.Repository {
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			t.Fatalf("pgxpool.New() error = %v", err)
		}

		s, err := New(ctx, pool)
		if err != nil {
			pool.Close()
			t.Fatalf("New() error = %v", err)
		}
		if _, err := pool.Exec(ctx, `TRUNCATE videos RESTART IDENTITY`); err != nil {
			t.Fatalf("truncate error = %v", err)
		}

		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
