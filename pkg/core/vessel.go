// Package core defines the vessel telemetry types shared by the simulator,
// the transports and external consumers of the boatData stream.
package core

import "time"

// GPS is the vessel position in decimal degrees.
type GPS struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Navigation holds speed over ground (knots), heading and course (degrees)
// and water depth (meters).
type Navigation struct {
	Speed   float64 `json:"speed"`
	Heading float64 `json:"heading"`
	Course  float64 `json:"course"`
	Depth   float64 `json:"depth"`
}

// Engine holds propulsion readings.
type Engine struct {
	RPM         float64 `json:"rpm"`
	Temperature float64 `json:"temperature"` // °C
	OilPressure float64 `json:"oilPressure"` // PSI
	FuelFlow    float64 `json:"fuelFlow"`    // L/h
	Hours       float64 `json:"hours"`
}

// Electrical holds the house battery bank readings. Current is negative while
// the alternator is charging.
type Electrical struct {
	BatteryVoltage    float64 `json:"batteryVoltage"`
	BatteryLevel      float64 `json:"batteryLevel"` // %
	Current           float64 `json:"current"`      // A
	AlternatorVoltage float64 `json:"alternatorVoltage"`
}

// Environment holds weather readings.
type Environment struct {
	AirTemperature     float64 `json:"airTemperature"`
	WaterTemperature   float64 `json:"waterTemperature"`
	Humidity           float64 `json:"humidity"`
	BarometricPressure float64 `json:"barometricPressure"` // mb
	WindSpeed          float64 `json:"windSpeed"`          // knots
	WindDirection      float64 `json:"windDirection"`      // degrees
}

// Fuel holds tank level (%), consumption rate (L/h) and estimated range (nm).
type Fuel struct {
	Level float64 `json:"level"`
	Rate  float64 `json:"rate"`
	Range float64 `json:"range"`
}

// Status holds the vessel's boolean flags.
type Status struct {
	EngineRunning bool `json:"engineRunning"`
	Autopilot     bool `json:"autopilot"`
	Anchor        bool `json:"anchor"`
	Navigation    bool `json:"navigation"`
	BilgePump     bool `json:"bilgePump"`
}

// VesselState is the complete simulated state of the boat.
type VesselState struct {
	GPS         GPS         `json:"gps"`
	Navigation  Navigation  `json:"navigation"`
	Engine      Engine      `json:"engine"`
	Electrical  Electrical  `json:"electrical"`
	Environment Environment `json:"environment"`
	Fuel        Fuel        `json:"fuel"`
	Status      Status      `json:"status"`
}

// Snapshot is a timestamped copy of VesselState as sent to viewers.
// It contains no references, so assigning a Snapshot copies it fully.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	VesselState
}
