// Package broadcast runs the periodic loop that advances the vessel and
// pushes the new state to every publisher.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/geo"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/core"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/streaming"
)

// DefaultInterval is the time between two broadcasts.
const DefaultInterval = time.Second

// Publisher receives every encoded boatData message.
type Publisher interface {
	Publish(data []byte) error
}

// Ticker advances the simulated vessel to a point in time.
type Ticker interface {
	Tick(now time.Time) core.Snapshot
}

// Dependencies holds all dependencies for the broadcast service
type Dependencies struct {
	Vessel     Ticker
	Publishers []Publisher
	Track      *geo.Track // optional
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Service owns the broadcast goroutine.
type Service struct {
	deps     Dependencies
	interval time.Duration

	isRunning  bool
	mu         sync.RWMutex
	publishers []Publisher
	stopChan   chan struct{}
	done       chan struct{}

	ticks    metric.Int64Counter
	failures metric.Int64Counter
}

// NewService creates a broadcast service. A non-positive interval falls back
// to DefaultInterval.
func NewService(deps Dependencies, interval time.Duration) (*Service, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	s := &Service{
		deps:       deps,
		interval:   interval,
		publishers: append([]Publisher(nil), deps.Publishers...),
	}

	m := meter()

	var err error
	s.ticks, err = m.Int64Counter(
		"broadcast.ticks",
		metric.WithDescription("Total broadcast ticks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	s.failures, err = m.Int64Counter(
		"broadcast.publish.failed",
		metric.WithDescription("Total publisher errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	return s, nil
}

// AddPublisher registers p for subsequent ticks.
func (s *Service) AddPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishers = append(s.publishers, p)
}

// IsRunning returns whether the broadcast loop is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start launches the broadcast goroutine. Calling Start on a running service
// is a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		s.deps.Logger.Debug("Starting broadcast loop", "interval", s.interval)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Broadcast()
			}
		}
	}()

	return nil
}

// Stop stops the broadcast loop and waits for the current tick to finish.
// Concurrent and repeated calls are safe; only the first one signals the loop.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	s.stopChan = nil
	done := s.done
	s.mu.Unlock()

	<-done
	s.deps.Logger.Debug("Broadcast loop stopped")
}

// Broadcast performs one tick: advance the vessel, record the position and
// hand one encoded message to every publisher. A failing publisher is logged
// and skipped.
func (s *Service) Broadcast() core.Snapshot {
	ctx := context.Background()

	snap := s.deps.Vessel.Tick(s.deps.Clock())
	s.ticks.Add(ctx, 1)

	if s.deps.Track != nil {
		s.deps.Track.Record(geo.Fix{
			Time:      snap.Timestamp,
			Latitude:  snap.GPS.Latitude,
			Longitude: snap.GPS.Longitude,
		})
	}

	data, err := streaming.EncodeSnapshot(snap)
	if err != nil {
		s.deps.Logger.Error("Failed to encode snapshot", "error", err)
		return snap
	}

	s.mu.RLock()
	publishers := s.publishers
	s.mu.RUnlock()

	for _, p := range publishers {
		if err := p.Publish(data); err != nil {
			s.failures.Add(ctx, 1)
			s.deps.Logger.Warn("Publish failed", "publisher", fmt.Sprintf("%T", p), "error", err)
		}
	}
	return snap
}
