package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/videostream/internal/httpserver/deps"
	"github.com/MrSnakeDoc/videostream/internal/logger"
)

const readyzPingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready bool `json:"ready"`
}

func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		ctx, cancel := context.WithTimeout(r.Context(), readyzPingTimeout)
		defer cancel()

		if err := d.Repository.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed",
				logger.String("store", d.StoreDriver),
				logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}

		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
