package simulator

// Presentation tuning. None of these values model a real vessel; they only
// keep the dashboard lively and within the gauge ranges.
const (
	// Hard bounds
	MaxSpeed     = 35.0   // knots
	MaxRPM       = 4000.0 // red line
	MaxWindSpeed = 50.0   // knots
	MaxPercent   = 100.0

	// Engine
	IdleRPMMin         = 800.0
	IdleRPMMax         = 1000.0
	CruiseRPMBase      = 800.0  // rpm at the slowest commanded speed
	CruiseRPMSpan      = 3000.0 // added rpm at MaxSpeed
	EngineTempBase     = 85.0   // °C at zero rpm while running
	EngineTempPerRPM   = 1.0 / 100
	EngineTempRate     = 0.1 // per second, toward target while running
	AmbientEngineTemp  = 20.0
	CoolingRate        = 0.05 // per second, toward ambient while stopped
	FuelFlowPer1000RPM = 8.0  // L/h
	FuelFlowNoise      = 2.0

	// Electrical
	AlternatorBase      = 13.8
	AlternatorNoise     = 0.3
	ChargeCurrentBase   = -5.0
	ChargeCurrentPerRPM = -1.0 / 500
	DrainCurrentBase    = 2.0
	DrainCurrentNoise   = 1.0
	ChargeRate          = 0.5 // % per second
	DrainRate           = 0.1 // % per second
	VoltageEmpty        = 11.8
	VoltageSpan         = 1.2 // added volts at 100 %
	VoltagePerAmp       = 0.1

	// Environment random walk, maximum drift per second in each direction
	WindSpeedDrift     = 0.25
	WindDirectionDrift = 2.5
	AirTempDrift       = 0.05

	// Fuel
	FullTankRangeNM = 200.0

	// Harbor the simulation starts in
	HomeLatitude  = 40.7128
	HomeLongitude = -74.0060
	HomeJitter    = 0.01 // full width, degrees
)
