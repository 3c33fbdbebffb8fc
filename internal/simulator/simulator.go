// Package simulator evolves the simulated vessel telemetry over time and
// applies operator commands to it.
//
// A Model is not safe for concurrent use. Callers serialize access; see the
// vessel package for the owner used by the server.
package simulator

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/geo"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/util"
	"github.com/RiveroDeveloper/boat-ui-interface/pkg/core"
)

// Noise yields uniformly distributed values in [0, 1). *rand.Rand from
// math/rand/v2 satisfies it.
type Noise interface {
	Float64() float64
}

type globalNoise struct{}

func (globalNoise) Float64() float64 { return rand.Float64() }

// Option configures a Model.
type Option func(*Model)

// WithNoise sets the noise source used for randomized readings.
func WithNoise(n Noise) Option {
	return func(m *Model) {
		m.noise = n
	}
}

// WithClock sets the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// WithState starts the model from the given state instead of a randomized
// harbor state.
func WithState(s core.VesselState) Option {
	return func(m *Model) {
		m.state = s
		m.seeded = true
	}
}

// Model owns one VesselState.
type Model struct {
	state  core.VesselState
	noise  Noise
	now    func() time.Time
	seeded bool
}

// New creates a model. Unless WithState is given, the vessel starts moored
// near the home harbor with randomized sensor readings and the engine off.
func New(opts ...Option) *Model {
	m := &Model{
		noise: globalNoise{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.seeded {
		m.state = m.initialState()
	}
	return m
}

// between returns a noise sample scaled into [lo, hi).
func (m *Model) between(lo, hi float64) float64 {
	return lo + m.noise.Float64()*(hi-lo)
}

// drift returns a symmetric noise sample in [-limit, limit).
func (m *Model) drift(limit float64) float64 {
	return (m.noise.Float64() - 0.5) * 2 * limit
}

// initialState builds the moored starting state. The engine is off, so the
// electrical readings start from the drain current.
func (m *Model) initialState() core.VesselState {
	s := core.VesselState{
		GPS: core.GPS{
			Latitude:  HomeLatitude + m.drift(HomeJitter/2),
			Longitude: HomeLongitude + m.drift(HomeJitter/2),
		},
		Navigation: core.Navigation{
			Heading: m.between(0, 360),
			Course:  m.between(0, 360),
			Depth:   m.between(15, 100),
		},
		Engine: core.Engine{
			Temperature: m.between(75, 90),
			OilPressure: m.between(30, 50),
			Hours:       m.between(1250, 1750),
		},
		Electrical: core.Electrical{
			BatteryLevel: m.between(85, 100),
			Current:      DrainCurrentBase + m.between(0, DrainCurrentNoise),
		},
		Environment: core.Environment{
			AirTemperature:     m.between(20, 35),
			WaterTemperature:   m.between(18, 26),
			Humidity:           m.between(60, 90),
			BarometricPressure: m.between(1013, 1033),
			WindSpeed:          m.between(0, 25),
			WindDirection:      m.between(0, 360),
		},
		Fuel: core.Fuel{
			Level: m.between(75, 95),
		},
		Status: core.Status{
			Navigation: true,
		},
	}
	s.Electrical.BatteryVoltage = batteryVoltage(s.Electrical.BatteryLevel, s.Electrical.Current)
	return s
}

// Snapshot returns the current state without advancing time.
func (m *Model) Snapshot() core.Snapshot {
	return core.Snapshot{
		Timestamp:   m.now().UTC(),
		VesselState: m.state,
	}
}

// Update advances the simulation by dt seconds and returns the resulting
// snapshot. A negative or non-finite dt is treated as zero.
func (m *Model) Update(dt float64) core.Snapshot {
	if !util.Finite(dt) || dt < 0 {
		dt = 0
	}
	s := &m.state

	if s.Navigation.Speed > 0 {
		nm := s.Navigation.Speed * dt / 3600
		s.GPS.Latitude, s.GPS.Longitude = geo.Advance(s.GPS.Latitude, s.GPS.Longitude, s.Navigation.Heading, nm)
	}

	if s.Status.EngineRunning {
		target := EngineTempBase + s.Engine.RPM*EngineTempPerRPM
		s.Engine.Temperature = approach(s.Engine.Temperature, target, dt*EngineTempRate)

		s.Engine.FuelFlow = s.Engine.RPM/1000*FuelFlowPer1000RPM + m.between(0, FuelFlowNoise)
		s.Fuel.Rate = s.Engine.FuelFlow

		s.Electrical.AlternatorVoltage = AlternatorBase + m.between(0, AlternatorNoise)
		s.Electrical.Current = ChargeCurrentBase + s.Engine.RPM*ChargeCurrentPerRPM
		if s.Electrical.BatteryLevel < MaxPercent {
			s.Electrical.BatteryLevel += dt * ChargeRate
		}
	} else {
		s.Engine.Temperature = approach(s.Engine.Temperature, AmbientEngineTemp, dt*CoolingRate)

		s.Engine.FuelFlow = 0
		s.Fuel.Rate = 0

		s.Electrical.AlternatorVoltage = 0
		s.Electrical.Current = DrainCurrentBase + m.between(0, DrainCurrentNoise)
		s.Electrical.BatteryLevel -= dt * DrainRate
	}

	s.Environment.WindSpeed += m.drift(WindSpeedDrift) * dt
	s.Environment.WindDirection += m.drift(WindDirectionDrift) * dt
	s.Environment.AirTemperature += m.drift(AirTempDrift) * dt

	m.enforceBounds()

	s.Electrical.BatteryVoltage = batteryVoltage(s.Electrical.BatteryLevel, s.Electrical.Current)
	s.Fuel.Range = fuelRange(s.Fuel.Level, s.Fuel.Rate, s.Navigation.Speed)

	return m.Snapshot()
}

func (m *Model) enforceBounds() {
	s := &m.state
	s.Navigation.Speed = util.Clamp(s.Navigation.Speed, 0, MaxSpeed)
	s.Navigation.Heading = util.NormalizeDegrees(s.Navigation.Heading)
	s.Engine.RPM = util.Clamp(s.Engine.RPM, 0, MaxRPM)
	s.Electrical.BatteryLevel = util.Clamp(s.Electrical.BatteryLevel, 0, MaxPercent)
	s.Fuel.Level = util.Clamp(s.Fuel.Level, 0, MaxPercent)
	s.Environment.WindSpeed = util.Clamp(s.Environment.WindSpeed, 0, MaxWindSpeed)
	s.Environment.WindDirection = util.NormalizeDegrees(s.Environment.WindDirection)
}

// SetEngine starts or stops the engine. Starting sets a random idle rpm and
// leaves speed alone; stopping zeroes rpm, speed and every reading that only
// exists while running.
func (m *Model) SetEngine(running bool) {
	s := &m.state
	s.Status.EngineRunning = running
	if running {
		rpm := m.between(IdleRPMMin, IdleRPMMax)
		// keep the idle range half-open when the sample rounds up
		if rpm >= IdleRPMMax {
			rpm = math.Nextafter(IdleRPMMax, IdleRPMMin)
		}
		s.Engine.RPM = rpm
		return
	}

	s.Engine.RPM = 0
	s.Navigation.Speed = 0
	s.Engine.FuelFlow = 0
	s.Fuel.Rate = 0
	s.Fuel.Range = 0
	s.Electrical.AlternatorVoltage = 0
}

// SetSpeed commands a speed in knots, clamped to [0, MaxSpeed]. A positive
// result also sets the matching cruise rpm. Non-finite targets are ignored
// and reported as not applied.
func (m *Model) SetSpeed(knots float64) bool {
	if !util.Finite(knots) {
		return false
	}
	s := &m.state
	s.Navigation.Speed = util.Clamp(knots, 0, MaxSpeed)
	if s.Navigation.Speed > 0 {
		s.Engine.RPM = CruiseRPMBase + (s.Navigation.Speed/MaxSpeed)*CruiseRPMSpan
	}
	return true
}

// SetHeading commands a heading in degrees, normalized into [0, 360).
func (m *Model) SetHeading(deg float64) bool {
	if !util.Finite(deg) {
		return false
	}
	m.state.Navigation.Heading = util.NormalizeDegrees(deg)
	return true
}

// SetAutopilot toggles the autopilot flag. It does not steer.
func (m *Model) SetAutopilot(on bool) {
	m.state.Status.Autopilot = on
}

// SetAnchor toggles the anchor flag.
func (m *Model) SetAnchor(down bool) {
	m.state.Status.Anchor = down
}

// SetBilgePump toggles the bilge pump flag.
func (m *Model) SetBilgePump(on bool) {
	m.state.Status.BilgePump = on
}

// EmergencyStop cuts the engine and commands zero speed.
func (m *Model) EmergencyStop() {
	m.SetEngine(false)
	m.SetSpeed(0)
}

// approach moves v toward target by factor, capped so large steps land on
// the target instead of overshooting it.
func approach(v, target, factor float64) float64 {
	if factor > 1 {
		factor = 1
	}
	return v + (target-v)*factor
}

func batteryVoltage(level, current float64) float64 {
	return VoltageEmpty + level/MaxPercent*VoltageSpan - current*VoltagePerAmp
}

// fuelRange estimates range in nautical miles. The formula is kept as the
// dashboard has always shown it, even though rate is per hour of engine time.
func fuelRange(level, rate, speed float64) float64 {
	if rate <= 0 {
		return 0
	}
	return (level / MaxPercent * FullTankRangeNM) / rate * speed
}
