package driver

import (
	"math"

	control "racer-ai-core/driver/longitudinal_control"
	"racer-ai-core/track"
)

// RecoveryState is the state of the off-track recovery state machine.
type RecoveryState int

const (
	Normal RecoveryState = iota
	Recovering
)

func (s RecoveryState) String() string {
	switch s {
	case Normal:
		return "normal"
	case Recovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// recovery decides when the car has lost the road and when it has found it
// again. Times are simulation seconds.
type recovery struct {
	cfg           Config
	state         RecoveryState
	offTrack      bool
	offTrackSince float64
	startTime     float64
}

// update advances the state machine. onPatch is the patch under the car (nil
// when off-track); nearest and nearestDist come from the nearest-patch search
// and are only read while off-track or recovering.
func (r *recovery) update(now float64, onPatch, nearest *track.Patch, nearestDist float64, self VehicleSnapshot, speed float64) {
	switch r.state {
	case Normal:
		if onPatch != nil {
			r.offTrack = false
			return
		}
		if !r.offTrack {
			r.offTrack = true
			r.offTrackSince = now
		}
		off := now - r.offTrackSince
		stalled := math.Abs(speed) < r.cfg.StallSpeed && off >= r.cfg.StallTime
		if off > r.cfg.RecoveryGrace || stalled {
			r.state = Recovering
			r.startTime = now
		}

	case Recovering:
		if now-r.startTime >= r.cfg.MaxRecoverTime {
			r.leave()
			return
		}
		if nearest != nil && nearestDist <= r.cfg.RecoverTolerance && r.aligned(self, nearest) {
			r.leave()
		}
	}
}

func (r *recovery) leave() {
	r.state = Normal
	r.offTrack = false
}

// aligned reports whether the car points along the patch and is not moving
// against it.
func (r *recovery) aligned(self VehicleSnapshot, p *track.Patch) bool {
	dir := track.Direction(p).Flat()
	if dir.Len() == 0 {
		return true
	}
	heading := math.Abs(degrees(track.SignedAngle(self.Forward(), dir)))
	return heading <= r.cfg.RecoverHeadingTolerance && self.Velocity.Dot(dir) >= 0
}

// elapsed is the time spent in the current recovery.
func (r *recovery) elapsed(now float64) float64 {
	if r.state != Recovering {
		return 0
	}
	return now - r.startTime
}

func (r *recovery) reset() {
	*r = recovery{cfg: r.cfg}
}

// recoverInputs drives toward a point ahead on the nearest patch's
// centerline, ignoring other cars and never selecting a gear.
func (c *Controller) recoverInputs(self VehicleSnapshot, nearest *track.Patch, speed, dt float64) (ControlInputs, track.Vec3) {
	var in ControlInputs
	c.driverAids(self, &in)
	in[StartEngine] = control.BoolToFloat(self.RPM < c.spec.StallRPM)

	if nearest == nil {
		in[Steer] = c.limitSteer(0, dt)
		in[Throttle] = c.cfg.RecoverThrottle / 2
		return in, self.Position
	}

	proj, _ := track.ClosestCenterPoint(nearest, self.Position)
	dir := track.Direction(nearest).Flat().Normalize()
	target := proj.Add(dir.Scale(c.cfg.RecoverLookahead))

	rad := track.SignedAngle(self.Forward(), target.Sub(self.Position))
	angle := -degrees(rad)
	in[Steer] = c.limitSteer(control.ClampFloat(angle/c.spec.MaxSteeringAngle, -1, 1), dt)

	if speed > c.cfg.RecoverMaxSpeed {
		in[Brake] = control.ClampFloat((speed-c.cfg.RecoverMaxSpeed)/c.cfg.GasBrake.MaxSpeedDiff, 0.2, 1)
	} else {
		align := control.ClampFloat(math.Cos(rad), 0.25, 1)
		in[Throttle] = c.cfg.RecoverThrottle * align
	}
	return in, target
}
