package driver

import (
	control "racer-ai-core/driver/longitudinal_control"
	"racer-ai-core/track"
)

// DebugFrame is what one controller tick saw and decided. It is handed to
// the observer after every successful update.
type DebugFrame struct {
	Vehicle VehicleID
	Time    float64
	State   RecoveryState

	// Patch is the patch under the car, nil when off-track.
	Patch *track.Patch
	Plan  SpeedPlan

	SteerLook []*track.Patch
	SteerDest track.Vec3

	// Rays is the fan cast against other cars' footprints.
	Rays []Ray

	SteerBias float64
	BrakeBias float64
	LongMu    float64
	LatMu     float64

	// ThrottlePID is the speed PID after this tick; zero while braking.
	ThrottlePID control.PIDDiagnostics

	Inputs ControlInputs
}

// Observer receives a DebugFrame per tick. It runs on the goroutine calling
// Update and must not retain the Look slices past the call.
type Observer func(DebugFrame)
