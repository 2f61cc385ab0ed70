package control

import "github.com/samber/lo"

// ControlOutput contains both throttle and brake commands.
// At most one of Throttle and Brake is nonzero.
type ControlOutput struct {
	Throttle float64 // 0..1
	Brake    float64 // 0..1
	IsAccel  bool
	IsBrake  bool
}

// ClampFloat clamps value between min and max
func ClampFloat(value, min, max float64) float64 {
	return lo.Clamp(value, min, max)
}

// RateLimit moves old toward new by at most risePerTick upward and
// fallPerTick downward.
func RateLimit(old, new, risePerTick, fallPerTick float64) float64 {
	if new > old+risePerTick {
		return old + risePerTick
	}
	if new < old-fallPerTick {
		return old - fallPerTick
	}
	return new
}

// RampBetween maps val linearly from [startAt, endAt] onto [0, 1], clamped.
// A zero-width ramp is a step at startAt.
func RampBetween(val, startAt, endAt float64) float64 {
	if startAt == endAt {
		if val < startAt {
			return 0
		}
		return 1
	}
	return ClampFloat((val-startAt)/(endAt-startAt), 0, 1)
}

// BoolToFloat converts bool to float64 (for CAN encoding and input slots)
func BoolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// BoolToInt converts bool to int (for CSV logging)
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetControlModeStr returns a string describing the control mode
func GetControlModeStr(output ControlOutput) string {
	if output.IsAccel {
		return "[ACCEL]"
	} else if output.IsBrake {
		return "[BRAKE]"
	}
	return "[COAST]"
}
