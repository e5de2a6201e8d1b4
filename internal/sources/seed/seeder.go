package seed

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/videostream/internal/domain"
	"github.com/MrSnakeDoc/videostream/internal/logger"
)

// Apply saves every entry of file through catalog, in file order, unless
// the catalog already holds videos. It returns the number of videos created.
func Apply(ctx context.Context, catalog *domain.Catalog, file File, log logger.Logger) (int, error) {
	if len(file.Videos) == 0 {
		log.Info("seed file has no videos")
		return 0, nil
	}

	existing, err := catalog.GetAllVideos(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect catalog: %w", err)
	}
	if len(existing) > 0 {
		log.Info("catalog not empty, skipping seed",
			logger.Int("existing", len(existing)))
		return 0, nil
	}

	created := 0
	for _, entry := range file.Videos {
		v, err := catalog.SaveVideo(ctx, domain.Video{
			Title:       entry.Title,
			Description: entry.Description,
			URL:         entry.URL,
		})
		if err != nil {
			return created, fmt.Errorf("failed to seed video %q: %w", entry.Title, err)
		}
		log.Debug("seeded video",
			logger.Int64("id", v.ID),
			logger.String("title", v.Title))
		created++
	}

	log.Info("catalog seeded", logger.Int("count", created))
	return created, nil
}
