package control

import "math"

// GasBrakeInput is everything the combiner needs for one tick.
type GasBrakeInput struct {
	SpeedLimit   float64 // planned limit for the current road (m/s)
	CurrentSpeed float64 // forward speed (m/s)
	// BrakeAhead is set when a slower section ahead is within braking
	// distance.
	BrakeAhead bool
	// OthersBrake is the extra brake requested by the other-vehicle analyzer.
	OthersBrake float64
	DT          float64
}

// GasBrake combines speed-limit overshoot, braking lookahead and traffic
// into a throttle or brake command.
type GasBrake struct {
	cfg GasBrakeConfig
	pid *PIDController
}

func NewGasBrake(cfg GasBrakeConfig) *GasBrake {
	if cfg.MaxSpeedDiff <= 0 {
		cfg.MaxSpeedDiff = DefaultGasBrakeConfig().MaxSpeedDiff
	}
	return &GasBrake{cfg: cfg, pid: NewPIDController(cfg.PID)}
}

// Update returns the command for this tick. Throttle and brake are never
// both nonzero.
func (gb *GasBrake) Update(in GasBrakeInput) ControlOutput {
	var throttle, brake float64

	speedDiff := in.SpeedLimit - in.CurrentSpeed
	switch {
	case math.IsNaN(speedDiff):
		// no usable limit; coast
	case speedDiff < 0:
		if -speedDiff >= gb.cfg.MinSpeedDiff {
			brake = -speedDiff / gb.cfg.MaxSpeedDiff
		}
	default:
		target := in.SpeedLimit - gb.cfg.SpeedMargin
		throttle = gb.pid.Update(target, in.CurrentSpeed, in.DT)
	}

	if in.BrakeAhead {
		brake = 1.0
	}
	if in.OthersBrake > 0 && !math.IsNaN(in.OthersBrake) {
		brake += in.OthersBrake
	}

	var out ControlOutput
	if brake > 0 {
		gb.pid.Reset()
		out.Brake = ClampFloat(brake, 0, 1)
		out.IsBrake = true
		return out
	}
	out.Throttle = ClampFloat(throttle, 0, 1)
	out.IsAccel = out.Throttle > 0
	return out
}

// Reset clears the throttle PID.
func (gb *GasBrake) Reset() { gb.pid.Reset() }

// PID exposes the throttle PID for diagnostics.
func (gb *GasBrake) PID() *PIDController { return gb.pid }
