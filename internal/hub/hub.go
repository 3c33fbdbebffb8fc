// Package hub fans boatData snapshots out to WebSocket viewers and feeds
// their commands into the dispatcher.
package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/metric"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/dispatcher"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/core"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/streaming"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("hub closed")

// Config holds viewer connection settings.
type Config struct {
	SendBuffer int           // queued messages per viewer before drops start
	WriteWait  time.Duration // deadline for a single socket write
	PongWait   time.Duration // silence tolerated before a viewer is considered gone
	ReadLimit  int64         // largest inbound message in bytes
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		SendBuffer: 16,
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
		ReadLimit:  4096,
	}
}

// SnapshotSource provides the state sent to a viewer when it connects.
type SnapshotSource interface {
	Snapshot() core.Snapshot
}

// CommandDispatcher routes decoded viewer commands.
type CommandDispatcher interface {
	Dispatch(dispatcher.Event) (any, error)
}

// Dependencies holds all dependencies for the hub
type Dependencies struct {
	Vessel     SnapshotSource
	Dispatcher CommandDispatcher
	Logger     *slog.Logger
}

// Hub tracks connected viewers. It implements http.Handler for the socket
// endpoint.
type Hub struct {
	cfg      Config
	deps     Dependencies
	upgrader ws.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	viewers map[string]*viewer
	closed  bool
	count   atomic.Int64 // len(viewers), readable without mu

	// OTEL metrics
	viewerGauge metric.Int64ObservableGauge
	sent        metric.Int64Counter
	dropped     metric.Int64Counter
}

// New creates a hub. Zero fields in cfg fall back to DefaultConfig.
func New(cfg Config, deps Dependencies) (*Hub, error) {
	def := DefaultConfig()
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = def.ReadLimit
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	h := &Hub{
		cfg:  cfg,
		deps: deps,
		upgrader: ws.Upgrader{
			// Any page may open the dashboard socket; there is no access control.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  deps.Logger,
		viewers: make(map[string]*viewer),
	}

	m := meter()

	var err error

	h.viewerGauge, err = m.Int64ObservableGauge(
		"hub.viewers",
		metric.WithDescription("Currently connected viewers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating viewers gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(h.viewerGauge, int64(h.Count()))
			return nil
		},
		h.viewerGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("registering viewers callback: %w", err)
	}

	h.sent, err = m.Int64Counter(
		"hub.messages.sent",
		metric.WithDescription("Total messages queued to viewers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sent counter: %w", err)
	}

	h.dropped, err = m.Int64Counter(
		"hub.messages.dropped",
		metric.WithDescription("Total messages dropped for slow viewers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return h, nil
}

// ServeHTTP upgrades the request and serves the viewer until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		h.logger.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	v := newViewer(uuid.NewString(), conn, h.cfg, h.logger)
	if !h.register(v) {
		_ = conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	go v.writeLoop()
	h.readLoop(v)
	h.unregister(v)
}

// register queues the viewer's initial snapshot and only then makes it
// visible to Publish, so the snapshot is always the first message it gets.
func (h *Hub) register(v *viewer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	data, err := streaming.EncodeSnapshot(h.deps.Vessel.Snapshot())
	if err != nil {
		h.logger.Error("Failed to encode initial snapshot", "viewer", v.id, "error", err)
	} else if v.send(data) {
		h.sent.Add(context.Background(), 1)
	}

	h.viewers[v.id] = v
	h.count.Store(int64(len(h.viewers)))
	h.logger.Info("Viewer connected", "viewer", v.id, "remote", v.remote)
	return true
}

func (h *Hub) unregister(v *viewer) {
	h.mu.Lock()
	_, ok := h.viewers[v.id]
	delete(h.viewers, v.id)
	remaining := len(h.viewers)
	h.count.Store(int64(remaining))
	h.mu.Unlock()

	v.close()
	if ok {
		h.logger.Info("Viewer disconnected", "viewer", v.id, "remote", v.remote)
	}
}

// readLoop decodes viewer messages and dispatches them as commands. Bad
// messages are logged and skipped; only a socket error ends the loop.
func (h *Hub) readLoop(v *viewer) {
	v.conn.SetReadLimit(h.cfg.ReadLimit)
	_ = v.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, message, err := v.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway, ws.CloseNoStatusReceived) {
				v.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
		_ = v.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))

		env, err := streaming.Decode(message)
		if err != nil {
			v.logger.Warn("Ignoring malformed message", "error", err, "size", len(message))
			continue
		}

		_, err = h.deps.Dispatcher.Dispatch(dispatcher.Event{
			Command:   env.Type,
			Payload:   env.Payload,
			Source:    v.id,
			Timestamp: time.Now(),
		})
		if err != nil {
			v.logger.Warn("Command ignored", "command", env.Type, "error", err)
		}
	}
}

// Publish queues a pre-encoded message for every connected viewer. Viewers
// whose outbox is full miss this message.
func (h *Hub) Publish(data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrClosed
	}

	var sent, dropped int64
	for _, v := range h.viewers {
		if v.send(data) {
			sent++
			continue
		}
		dropped++
		v.logger.Debug("Viewer outbox full, dropping message")
	}

	if sent > 0 {
		h.sent.Add(context.Background(), sent)
	}
	if dropped > 0 {
		h.dropped.Add(context.Background(), dropped)
	}
	return nil
}

// Count returns the number of connected viewers. It does not take the hub
// lock, so log handlers may call it while the hub is logging.
func (h *Hub) Count() int {
	return int(h.count.Load())
}

// Close disconnects every viewer and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	viewers := h.viewers
	h.viewers = make(map[string]*viewer)
	h.count.Store(0)
	h.mu.Unlock()

	for _, v := range viewers {
		v.close()
	}
	h.logger.Info("Hub closed", "disconnected", len(viewers))
	return nil
}
