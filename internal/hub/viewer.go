package hub

import (
	"log/slog"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/channel"
)

// viewer is one connected browser. Only writeLoop writes to conn; only the
// hub's read loop reads from it.
type viewer struct {
	id     string
	remote string
	conn   *ws.Conn
	outbox channel.Channel[[]byte]

	writeWait  time.Duration
	pingPeriod time.Duration

	logger *slog.Logger
}

func newViewer(id string, conn *ws.Conn, cfg Config, logger *slog.Logger) *viewer {
	return &viewer{
		id:         id,
		remote:     conn.RemoteAddr().String(),
		conn:       conn,
		outbox:     channel.NewBuffered[[]byte](cfg.SendBuffer),
		writeWait:  cfg.WriteWait,
		pingPeriod: cfg.PongWait * 9 / 10,
		logger:     logger.With("viewer", id),
	}
}

// send pushes data to the write loop. Non-blocking; reports false if the
// outbox is full or closed.
func (v *viewer) send(data []byte) bool {
	return v.outbox.TrySend(data)
}

// writeLoop drains the outbox onto the socket and keeps the connection alive
// with pings. It returns once the outbox is closed or a write fails, closing
// the socket either way so the read loop unblocks.
func (v *viewer) writeLoop() {
	ticker := time.NewTicker(v.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = v.conn.Close()
	}()

	for {
		select {
		case data, ok := <-v.outbox.Receive():
			if err := v.conn.SetWriteDeadline(time.Now().Add(v.writeWait)); err != nil {
				v.logger.Debug("SetWriteDeadline error", "error", err)
				return
			}
			if !ok {
				_ = v.conn.WriteMessage(
					ws.CloseMessage,
					ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
				)
				return
			}
			if err := v.conn.WriteMessage(ws.TextMessage, data); err != nil {
				v.logger.Debug("Viewer write error", "error", err)
				return
			}
		case <-ticker.C:
			if err := v.conn.SetWriteDeadline(time.Now().Add(v.writeWait)); err != nil {
				return
			}
			if err := v.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				v.logger.Debug("Viewer ping error", "error", err)
				return
			}
		}
	}
}

// close stops the write loop, which sends a close frame on its way out.
func (v *viewer) close() {
	v.outbox.Close()
}
