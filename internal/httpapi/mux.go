// Package httpapi exposes the dashboard over HTTP: the viewer socket, a
// health check, read-only JSON views of the vessel and the static UI.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/geo"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/core"
)

// ViewerHub serves the WebSocket endpoint and reports how many viewers are
// connected.
type ViewerHub interface {
	http.Handler
	Count() int
}

// SnapshotSource provides the current vessel state.
type SnapshotSource interface {
	Snapshot() core.Snapshot
}

// Dependencies holds all dependencies for the HTTP surface
type Dependencies struct {
	Hub       ViewerHub
	Vessel    SnapshotSource
	Track     *geo.Track
	StaticDir string // empty disables the file server
	Logger    *slog.Logger
}

type handlers struct {
	deps Dependencies
}

// NewMux builds the router.
func NewMux(deps Dependencies) *http.ServeMux {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &handlers{deps: deps}

	mux := http.NewServeMux()
	mux.Handle("GET /socket", deps.Hub)
	mux.Handle("GET /ws", deps.Hub)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /api/boat", h.handleBoat)
	mux.HandleFunc("GET /api/track", h.handleTrack)

	if deps.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(deps.StaticDir)))
	}
	return mux
}

func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"viewers": h.deps.Hub.Count(),
	}
	if h.deps.Track != nil {
		body["trackPoints"] = h.deps.Track.Len()
	}
	writeJSON(w, h.deps.Logger, http.StatusOK, body)
}

func (h *handlers) handleBoat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.deps.Logger, http.StatusOK, h.deps.Vessel.Snapshot())
}

// handleTrack renders the recent track as a GeoJSON feature. The optional
// srid query parameter selects 4326 (default) or 3857.
func (h *handlers) handleTrack(w http.ResponseWriter, r *http.Request) {
	if h.deps.Track == nil {
		writeError(w, h.deps.Logger, http.StatusNotFound, "track recording is disabled")
		return
	}

	srid := geo.SRIDWGS84
	if raw := r.URL.Query().Get("srid"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, h.deps.Logger, http.StatusBadRequest, "srid must be an integer")
			return
		}
		srid = n
	}

	feature, err := h.deps.Track.Feature(srid)
	if err != nil {
		writeError(w, h.deps.Logger, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, h.deps.Logger, http.StatusOK, feature)
}
