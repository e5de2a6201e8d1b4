package deps

import (
	"time"

	"github.com/MrSnakeDoc/videostream/internal/domain"
	"github.com/MrSnakeDoc/videostream/internal/logger"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	Catalog         *domain.Catalog   // video operations served under /api/videos
	Repository      domain.Repository // pinged by /readyz
	StoreDriver     string            // active persistence provider, reported by /healthz
	AllowedCIDRS    []string          // IPs allowed to access healthz/readyz endpoints
	TrustProxy      bool              // true if running behind a trusted reverse proxy
	RateLimitBurst  int               // per-IP burst on /api, 0 disables rate limiting
	RateLimitPerMin int               // per-IP refill rate on /api
}
