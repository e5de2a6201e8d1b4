package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/videostream/internal/domain"
	"github.com/MrSnakeDoc/videostream/internal/httpserver/deps"
	"github.com/MrSnakeDoc/videostream/internal/logger"
)

// maxVideoBody caps POST /api/videos payloads.
const maxVideoBody = 1 << 20

// videoPayload is the wire shape of a video. id and createdAt are null
// for records that have not been persisted yet.
type videoPayload struct {
	ID          *int64     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	CreatedAt   *time.Time `json:"createdAt"`
}

func toPayload(v domain.Video) videoPayload {
	p := videoPayload{
		Title:       v.Title,
		Description: v.Description,
		URL:         v.URL,
	}
	if !v.IsNew() {
		id := v.ID
		p.ID = &id
	}
	if !v.CreatedAt.IsZero() {
		createdAt := v.CreatedAt
		p.CreatedAt = &createdAt
	}
	return p
}

func toPayloads(videos []domain.Video) []videoPayload {
	out := make([]videoPayload, 0, len(videos))
	for _, v := range videos {
		out = append(out, toPayload(v))
	}
	return out
}

func (p videoPayload) toVideo() domain.Video {
	v := domain.Video{
		Title:       p.Title,
		Description: p.Description,
		URL:         p.URL,
	}
	if p.ID != nil {
		v.ID = *p.ID
	}
	// createdAt is assigned by the store and never taken from the client.
	return v
}

// videoID parses the {id} URL parameter.
func videoID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func logFailure(d deps.Deps, r *http.Request, op string, err error) {
	d.Logger.Error("video operation failed",
		logger.String("op", op),
		logger.String("request_id", middleware.GetReqID(r.Context())),
		logger.Error(err))
}

// ListVideos returns every video, newest first.
func ListVideos(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := d.Catalog.GetAllVideos(r.Context())
		if err != nil {
			logFailure(d, r, "list", err)
			internalError(w)
			return
		}
		writeJSON(w, http.StatusOK, toPayloads(videos))
	}
}

// GetVideo returns one video or 404 with an empty body.
func GetVideo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := videoID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid video id")
			return
		}

		v, found, err := d.Catalog.GetVideoByID(r.Context(), id)
		if err != nil {
			logFailure(d, r, "get", err)
			internalError(w)
			return
		}
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toPayload(v))
	}
}

// SearchVideos matches titles against the query parameter, ignoring case.
func SearchVideos(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		if !values.Has("query") {
			writeError(w, http.StatusBadRequest, "missing query parameter")
			return
		}

		videos, err := d.Catalog.SearchVideos(r.Context(), values.Get("query"))
		if err != nil {
			logFailure(d, r, "search", err)
			internalError(w)
			return
		}
		writeJSON(w, http.StatusOK, toPayloads(videos))
	}
}

// CreateVideo saves the posted video. A payload carrying an existing id
// overwrites that record.
func CreateVideo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p videoPayload
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxVideoBody))
		if err := dec.Decode(&p); err != nil {
			d.Logger.Debug("rejected video payload", logger.Error(err))
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		saved, err := d.Catalog.SaveVideo(r.Context(), p.toVideo())
		if err != nil {
			logFailure(d, r, "save", err)
			internalError(w)
			return
		}

		d.Logger.Info("video saved",
			logger.Int64("id", saved.ID),
			logger.String("title", saved.Title))
		writeJSON(w, http.StatusOK, toPayload(saved))
	}
}

// DeleteVideo removes a video. Unknown ids still answer 200.
func DeleteVideo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := videoID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid video id")
			return
		}

		if err := d.Catalog.DeleteVideo(r.Context(), id); err != nil {
			logFailure(d, r, "delete", err)
			internalError(w)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
