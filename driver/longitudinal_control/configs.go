package control

// PIDConfig holds the throttle PID parameters. The setpoint is supplied
// per update, since it follows the planned speed limit.
type PIDConfig struct {
	Kp            float64 `json:"kp"`
	Ki            float64 `json:"ki"`
	Kd            float64 `json:"kd"`
	MaxThrottle   float64 `json:"max_throttle"`
	IntegralLimit float64 `json:"integral_limit"`
}

// GasBrakeConfig holds the speed-difference thresholds of the gas/brake
// combiner (m/s).
type GasBrakeConfig struct {
	// MaxSpeedDiff is the speed difference that maps to full throttle or
	// full brake.
	MaxSpeedDiff float64 `json:"max_speed_diff"`
	// MinSpeedDiff is the overshoot tolerated before braking.
	MinSpeedDiff float64 `json:"min_speed_diff"`
	// SpeedMargin keeps the throttle target below the limit.
	SpeedMargin float64 `json:"speed_margin"`

	PID PIDConfig `json:"pid"`
}

// GearConfig holds the shifter thresholds.
type GearConfig struct {
	TopGear      int     `json:"top_gear"`
	UpshiftRPM   float64 `json:"upshift_rpm"`
	DownshiftRPM float64 `json:"downshift_rpm"`
	StallRPM     float64 `json:"stall_rpm"`
	ShiftTime    float64 `json:"shift_time_s"`
	// StopSpeed is the speed (m/s) below which the shifter drops to first.
	StopSpeed float64 `json:"stop_speed"`
}

func DefaultGasBrakeConfig() GasBrakeConfig {
	return GasBrakeConfig{
		MaxSpeedDiff: 6.0,
		MinSpeedDiff: 1.0,
		SpeedMargin:  0.5,
		PID: PIDConfig{
			Kp:            1.0 / 6.0,
			Ki:            0.05,
			Kd:            0,
			MaxThrottle:   1.0,
			IntegralLimit: 4.0,
		},
	}
}

func DefaultGearConfig() GearConfig {
	return GearConfig{
		TopGear:      6,
		UpshiftRPM:   6800,
		DownshiftRPM: 3000,
		StallRPM:     800,
		ShiftTime:    0.3,
		StopSpeed:    1.0,
	}
}
