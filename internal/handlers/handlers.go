// Package handlers maps viewer commands onto the simulated vessel.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/dispatcher"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/simulator"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/util"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/vessel"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/core"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/streaming"
)

// ErrMalformed marks a command whose payload could not be interpreted. The
// vessel is left untouched.
var ErrMalformed = errors.New("malformed payload")

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Vessel *vessel.Vessel
	Logger *slog.Logger
}

// Service provides handler methods for operator commands
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// RegisterHandlers registers every viewer command with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(streaming.TypeSetEngine, s.handleSetEngine, dispatcher.Logged())
	d.Register(streaming.TypeSetSpeed, s.handleSetSpeed, dispatcher.Logged())
	d.Register(streaming.TypeSetHeading, s.handleSetHeading, dispatcher.Logged())

	d.Register(streaming.TypeSetAutopilot, s.handleSetAutopilot, dispatcher.Logged())
	d.Register(streaming.TypeSetAnchor, s.handleSetAnchor, dispatcher.Logged())
	d.Register(streaming.TypeSetBilgePump, s.handleSetBilgePump, dispatcher.Logged())
	d.Register(streaming.TypeEmergencyStop, s.handleEmergencyStop, dispatcher.Logged())
}

func (s *Service) handleSetEngine(e dispatcher.Event) (any, error) {
	running, err := decodeBool(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Command, err)
	}

	snap := s.deps.Vessel.Apply(func(m *simulator.Model) { m.SetEngine(running) })

	if running {
		s.deps.Logger.Info("Engine started", "rpm", snap.Engine.RPM, "source", e.Source)
	} else {
		s.deps.Logger.Info("Engine stopped", "source", e.Source)
	}
	return snap, nil
}

func (s *Service) handleSetSpeed(e dispatcher.Event) (any, error) {
	knots, err := decodeNumber(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Command, err)
	}

	snap := s.deps.Vessel.Apply(func(m *simulator.Model) { m.SetSpeed(knots) })

	s.deps.Logger.Info("Speed set", "requested", knots, "knots", snap.Navigation.Speed, "rpm", snap.Engine.RPM, "source", e.Source)
	return snap, nil
}

func (s *Service) handleSetHeading(e dispatcher.Event) (any, error) {
	deg, err := decodeNumber(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Command, err)
	}

	snap := s.deps.Vessel.Apply(func(m *simulator.Model) { m.SetHeading(deg) })

	s.deps.Logger.Info("Heading set", "requested", deg, "heading", snap.Navigation.Heading, "source", e.Source)
	return snap, nil
}

func (s *Service) handleSetAutopilot(e dispatcher.Event) (any, error) {
	return s.toggle(e, "autopilot", func(m *simulator.Model, on bool) { m.SetAutopilot(on) })
}

func (s *Service) handleSetAnchor(e dispatcher.Event) (any, error) {
	return s.toggle(e, "anchor", func(m *simulator.Model, on bool) { m.SetAnchor(on) })
}

func (s *Service) handleSetBilgePump(e dispatcher.Event) (any, error) {
	return s.toggle(e, "bilgePump", func(m *simulator.Model, on bool) { m.SetBilgePump(on) })
}

func (s *Service) toggle(e dispatcher.Event, flag string, apply func(*simulator.Model, bool)) (core.Snapshot, error) {
	on, err := decodeBool(e.Payload)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("%s: %w", e.Command, err)
	}

	snap := s.deps.Vessel.Apply(func(m *simulator.Model) { apply(m, on) })

	s.deps.Logger.Info("Status flag set", "flag", flag, "value", on, "source", e.Source)
	return snap, nil
}

func (s *Service) handleEmergencyStop(e dispatcher.Event) (any, error) {
	snap := s.deps.Vessel.Apply(func(m *simulator.Model) { m.EmergencyStop() })

	s.deps.Logger.Warn("Emergency stop", "source", e.Source)
	return snap, nil
}

// decodeBool reads a boolean payload. Numbers are true when non-zero and
// strings go through strconv.ParseBool. A missing or null payload is
// malformed rather than false, so an empty command never stops the engine.
func decodeBool(raw json.RawMessage) (bool, error) {
	v, err := decodeScalar(raw)
	if err != nil {
		return false, err
	}

	switch x := v.(type) {
	case bool:
		return x, nil
	case float64:
		return x != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a boolean", ErrMalformed, x)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: expected boolean, got %T", ErrMalformed, v)
	}
}

// decodeNumber reads a numeric payload given either as a JSON number or as a
// numeric string.
func decodeNumber(raw json.RawMessage) (float64, error) {
	v, err := decodeScalar(raw)
	if err != nil {
		return 0, err
	}

	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		n, ok := util.ParseNumber(x)
		if !ok {
			return 0, fmt.Errorf("%w: %q is not a number", ErrMalformed, x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrMalformed, v)
	}
}

func decodeScalar(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: missing", ErrMalformed)
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}
