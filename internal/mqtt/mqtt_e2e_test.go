//go:build e2e

package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startMosquitto(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2",
		ExposedPorts: []string{"1883/tcp"},
		// The stock config only listens on localhost.
		Cmd:        []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor: wait.ForListeningPort("1883/tcp").WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mosquitto container: %v", err)
	}

	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	endpoint, err := c.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		t.Fatalf("mosquitto endpoint: %v", err)
	}
	return endpoint
}

func TestBridge_RoundTrip(t *testing.T) {
	broker := startMosquitto(t)

	rd := &recordingDispatcher{}
	b := New(Config{Broker: broker, ClientID: "serena-e2e", TopicPrefix: "serena"}, rd, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, b.Connect(ctx))
	defer b.Disconnect()
	require.Eventually(t, b.IsConnected, 5*time.Second, 50*time.Millisecond)

	// Observer client standing in for a remote dashboard.
	var (
		mu       sync.Mutex
		received [][]byte
	)
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("observer")
	observer := paho.NewClient(opts)
	tok := observer.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	defer observer.Disconnect(100)

	tok = observer.Subscribe(b.StateTopic(), 0, func(_ paho.Client, m paho.Message) {
		mu.Lock()
		received = append(received, m.Payload())
		mu.Unlock()
	})
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	// Commands published by the observer reach the dispatcher once the
	// bridge's own subscription is in place.
	require.Eventually(t, func() bool {
		observer.Publish("serena/cmd/setSpeed", 1, false, []byte(`12`)).WaitTimeout(time.Second)
		return len(rd.all()) > 0
	}, 10*time.Second, 200*time.Millisecond)

	e := rd.all()[0]
	assert.Equal(t, "setSpeed", e.Command)
	assert.Equal(t, `12`, string(e.Payload))
	assert.Equal(t, Source, e.Source)

	require.Eventually(t, func() bool {
		_ = b.Publish([]byte(`{"type":"boatData","payload":{"navigation":{"speed":12}}}`))
		mu.Lock()
		defer mu.Unlock()
		return len(received) > 0
	}, 10*time.Second, 200*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(received[0], &payload))
	assert.Contains(t, payload, "navigation")
}
