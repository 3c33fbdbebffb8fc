package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/geo"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/core"
)

type fakeHub struct {
	viewers int
}

func (f *fakeHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
	_, _ = io.WriteString(w, "hub "+r.URL.Path)
}

func (f *fakeHub) Count() int { return f.viewers }

type fixedSource struct {
	snap core.Snapshot
}

func (f fixedSource) Snapshot() core.Snapshot { return f.snap }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMux(t *testing.T) (*http.ServeMux, *geo.Track) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>SERENA</h1>"), 0o644))

	snap := core.Snapshot{Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	snap.Navigation.Speed = 8
	snap.Status.EngineRunning = true

	track := geo.NewTrack(10)
	mux := NewMux(Dependencies{
		Hub:       &fakeHub{viewers: 2},
		Vessel:    fixedSource{snap: snap},
		Track:     track,
		StaticDir: dir,
		Logger:    discardLogger(),
	})
	return mux, track
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealthz(t *testing.T) {
	mux, track := newTestMux(t)

	w := get(t, mux, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","viewers":2,"trackPoints":0}`, w.Body.String())

	track.Record(geo.Fix{Latitude: 40, Longitude: -74})
	track.Record(geo.Fix{Latitude: 40.1, Longitude: -74})

	w = get(t, mux, "/healthz")
	assert.JSONEq(t, `{"status":"ok","viewers":2,"trackPoints":2}`, w.Body.String())
}

func TestSocketRoutesReachHub(t *testing.T) {
	mux, _ := newTestMux(t)

	for _, path := range []string{"/socket", "/ws"} {
		w := get(t, mux, path)
		assert.Equal(t, http.StatusTeapot, w.Code, path)
		assert.Equal(t, "hub "+path, w.Body.String())
	}
}

func TestBoat(t *testing.T) {
	mux, _ := newTestMux(t)

	w := get(t, mux, "/api/boat")
	require.Equal(t, http.StatusOK, w.Code)

	var snap core.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 8.0, snap.Navigation.Speed)
	assert.True(t, snap.Status.EngineRunning)
}

func TestTrack(t *testing.T) {
	mux, track := newTestMux(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	track.Record(geo.Fix{Time: start, Latitude: 40.7, Longitude: -74.0})
	track.Record(geo.Fix{Time: start.Add(time.Second), Latitude: 40.8, Longitude: -74.1})

	t.Run("wgs84 by default", func(t *testing.T) {
		w := get(t, mux, "/api/track")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Feature", body.Type)
		assert.Equal(t, "LineString", body.Geometry.Type)
		require.Len(t, body.Geometry.Coordinates, 2)
		assert.Equal(t, []float64{-74.0, 40.7}, body.Geometry.Coordinates[0])
		assert.Equal(t, float64(geo.SRIDWGS84), body.Properties["srid"])
	})

	t.Run("web mercator", func(t *testing.T) {
		w := get(t, mux, "/api/track?srid=3857")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"srid":3857`)
		assert.NotContains(t, w.Body.String(), "40.7,")
	})

	t.Run("unsupported srid", func(t *testing.T) {
		w := get(t, mux, "/api/track?srid=27700")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unsupported srid")
	})

	t.Run("non-numeric srid", func(t *testing.T) {
		w := get(t, mux, "/api/track?srid=mercator")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTrackDisabled(t *testing.T) {
	mux := NewMux(Dependencies{Hub: &fakeHub{}, Vessel: fixedSource{}, Logger: discardLogger()})

	w := get(t, mux, "/api/track")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(t, mux, "/healthz")
	assert.JSONEq(t, `{"status":"ok","viewers":0}`, w.Body.String())
}

func TestStaticFiles(t *testing.T) {
	mux, _ := newTestMux(t)

	w := get(t, mux, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SERENA")

	w = get(t, mux, "/missing.css")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := newTestMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServerLogsRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mux, _ := newTestMux(t)

	srv := NewServer(mux, logger)
	w := get(t, srv.Handler, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "http request")
	assert.Contains(t, buf.String(), "path=/healthz")
	assert.Contains(t, buf.String(), "status=200")
}

func TestServerAllowsWebSocketUpgrade(t *testing.T) {
	upgrader := ws.Upgrader{}
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		mt, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		_ = c.WriteMessage(mt, msg)
	})

	ts := httptest.NewServer(NewServer(echo, discardLogger()).Handler)
	defer ts.Close()

	c, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WriteMessage(ws.TextMessage, []byte("ping")))
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, got, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "ping", string(got))
}
