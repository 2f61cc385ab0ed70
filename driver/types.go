package driver

import (
	"math"

	"racer-ai-core/track"
)

// VehicleID is the slot a vehicle was given at registration. Other-vehicle
// records are indexed by it.
type VehicleID int

// MaxVehicles bounds the slots one grid hands out. It matches the 8-bit
// vehicle_slot signal; ids at or above it are ignored as other cars.
const MaxVehicles = 256

// TireState is what the tire model reports for one wheel.
type TireState struct {
	Contact      bool
	Load         float64 // normal load (N)
	MaxLongForce float64 // peak longitudinal force at this load (N)
	MaxLatForce  float64 // peak lateral force at this load (N)
	Slip         float64 // longitudinal slip ratio
	Slide        float64 // 0..1, how much of the contact patch is sliding
}

// VehicleSnapshot is the read-only physics state of one vehicle for one tick.
type VehicleSnapshot struct {
	ID       VehicleID
	Position track.Vec3
	Yaw      float64 // radians, counter-clockwise from +X
	Velocity track.Vec3
	Tires    [4]TireState
	Gear     int // 0 neutral, negative reverse
	RPM      float64

	// Driver aid state as the physics layer reports it.
	ABS bool
	TCS bool
}

// Forward is the unit heading in the ground plane.
func (s VehicleSnapshot) Forward() track.Vec3 { return track.Heading(s.Yaw) }

// ForwardSpeed is the velocity component along the heading (m/s).
func (s VehicleSnapshot) ForwardSpeed() float64 { return s.Velocity.Dot(s.Forward()) }

// IsFinite reports whether every value the controller reads is finite.
func (s VehicleSnapshot) IsFinite() bool {
	if !s.Position.IsFinite() || !s.Velocity.IsFinite() || !finite(s.Yaw) || !finite(s.RPM) {
		return false
	}
	for _, t := range s.Tires {
		if !finite(t.Load) || !finite(t.MaxLongForce) || !finite(t.MaxLatForce) || !finite(t.Slip) || !finite(t.Slide) {
			return false
		}
	}
	return true
}

// VehicleSpec holds the static properties the controller needs.
type VehicleSpec struct {
	MaxSteeringAngle     float64 `json:"max_steering_angle_deg"`
	OptimumSteeringAngle float64 `json:"optimum_steering_angle_deg"`
	Length               float64 `json:"length"`
	Width                float64 `json:"width"`
	TopGear              int     `json:"top_gear"`
	UpshiftRPM           float64 `json:"upshift_rpm"`
	DownshiftRPM         float64 `json:"downshift_rpm"`
	StallRPM             float64 `json:"stall_rpm"`
}

func DefaultVehicleSpec() VehicleSpec {
	return VehicleSpec{
		MaxSteeringAngle:     30,
		OptimumSteeringAngle: 12,
		Length:               4.5,
		Width:                1.9,
		TopGear:              6,
		UpshiftRPM:           6800,
		DownshiftRPM:         3000,
		StallRPM:             800,
	}
}

// Input names a slot of the control-input vector.
type Input int

const (
	Steer       Input = iota // -1 full left .. +1 full right
	Throttle                 // 0..1
	Brake                    // 0..1
	Clutch                   // 0..1, 1 = pedal pressed
	Handbrake                // 0..1, never used by the AI
	ShiftUp                  // 0/1 request
	ShiftDown                // 0/1 request
	ABS                      // 0/1 toggle: nonzero flips the aid
	TCS                      // 0/1 toggle: nonzero flips the aid
	StartEngine              // 0/1 request
	NumInputs
)

var inputNames = [NumInputs]string{
	"steer", "throttle", "brake", "clutch", "handbrake",
	"shift_up", "shift_down", "abs", "tcs", "start_engine",
}

func (i Input) String() string {
	if i < 0 || i >= NumInputs {
		return "invalid"
	}
	return inputNames[i]
}

// ControlInputs is the fixed-order vector handed to the physics layer.
type ControlInputs [NumInputs]float64

// Map returns the inputs keyed by slot name, the form the CAN codec takes.
func (c ControlInputs) Map() map[string]float64 {
	out := make(map[string]float64, NumInputs)
	for i, v := range c {
		out[Input(i).String()] = v
	}
	return out
}

// Tick carries the simulation clock.
type Tick struct {
	DT   float64 // seconds since the previous tick
	Time float64 // simulation time in seconds
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
