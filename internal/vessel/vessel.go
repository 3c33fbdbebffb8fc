// Package vessel owns the single simulated boat shared by the broadcast loop
// and the command handlers.
package vessel

import (
	"sync"
	"time"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/simulator"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/core"
)

// Vessel guards a simulator.Model with one mutex so every tick and every
// command runs to completion before the next one starts.
type Vessel struct {
	mu       sync.Mutex
	model    *simulator.Model
	lastTick time.Time
}

// New wraps model. start is the reference time for the first tick.
func New(model *simulator.Model, start time.Time) *Vessel {
	return &Vessel{
		model:    model,
		lastTick: start,
	}
}

// Tick advances the model by the wall-clock time elapsed since the previous
// tick and returns the new snapshot. A clock that steps backwards yields a
// zero-length tick.
func (v *Vessel) Tick(now time.Time) core.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	dt := now.Sub(v.lastTick).Seconds()
	if dt < 0 {
		dt = 0
	}
	v.lastTick = now
	return v.model.Update(dt)
}

// Snapshot returns the current state without advancing time.
func (v *Vessel) Snapshot() core.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.model.Snapshot()
}

// Apply runs fn against the model under the lock and returns the state it
// left behind.
func (v *Vessel) Apply(fn func(m *simulator.Model)) core.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.model)
	return v.model.Snapshot()
}
