package mqtt

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/dispatcher"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []dispatcher.Event
}

func (r *recordingDispatcher) Dispatch(e dispatcher.Event) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil, nil
}

func (r *recordingDispatcher) all() []dispatcher.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]dispatcher.Event, len(r.events))
	copy(cp, r.events)
	return cp
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommandFromTopic(t *testing.T) {
	tests := []struct {
		prefix string
		topic  string
		want   string
		ok     bool
	}{
		{"serena", "serena/cmd/setSpeed", "setSpeed", true},
		{"serena/", "serena/cmd/setEngine", "setEngine", true},
		{"fleet/serena", "fleet/serena/cmd/emergencyStop", "emergencyStop", true},
		{"serena", "serena/cmd/", "", false},
		{"serena", "serena/cmd/a/b", "", false},
		{"serena", "serena/boatData", "", false},
		{"serena", "other/cmd/setSpeed", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, ok := CommandFromTopic(tt.prefix, tt.topic)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTopics(t *testing.T) {
	b := New(Config{Broker: "tcp://127.0.0.1:1", ClientID: "t", TopicPrefix: "/serena/"}, &recordingDispatcher{}, discardLogger())

	assert.Equal(t, "serena/boatData", b.StateTopic())
	assert.Equal(t, "serena/cmd/+", b.CommandTopic())
}

func TestBridge_UsesCallerLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil)).With("component", "mqtt")
	b := New(Config{Broker: "tcp://127.0.0.1:1", ClientID: "t", TopicPrefix: "serena"}, &recordingDispatcher{}, logger)

	b.handleMessage("serena/telemetry", []byte(`1`))

	line := buf.String()
	require.Contains(t, line, "Ignoring message on unexpected topic")
	assert.Equal(t, 1, strings.Count(line, "component=mqtt"), line)
}

func TestHandleMessage(t *testing.T) {
	rd := &recordingDispatcher{}
	b := New(Config{Broker: "tcp://127.0.0.1:1", ClientID: "t", TopicPrefix: "serena"}, rd, discardLogger())

	b.handleMessage("serena/cmd/setHeading", []byte(`270`))
	b.handleMessage("serena/telemetry", []byte(`1`))

	events := rd.all()
	require.Len(t, events, 1)
	assert.Equal(t, "setHeading", events[0].Command)
	assert.Equal(t, `270`, string(events[0].Payload))
	assert.Equal(t, Source, events[0].Source)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublishWhileDisconnectedIsDropped(t *testing.T) {
	b := New(Config{Broker: "tcp://127.0.0.1:1", ClientID: "t", TopicPrefix: "serena"}, &recordingDispatcher{}, discardLogger())

	assert.False(t, b.IsConnected())
	assert.NoError(t, b.Publish([]byte(`{"type":"boatData","payload":{}}`)))
}

func TestConnectHonoursContext(t *testing.T) {
	// Nothing listens on port 1; with retry enabled Connect only returns on
	// cancellation.
	b := New(Config{Broker: "tcp://127.0.0.1:1", ClientID: "t", TopicPrefix: "serena"}, &recordingDispatcher{}, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := b.Connect(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	b.Disconnect()
	b.Disconnect()
	require.ErrorIs(t, b.Connect(context.Background()), errStopped)
}
