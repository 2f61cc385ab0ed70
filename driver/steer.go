package driver

import (
	"math"

	control "racer-ai-core/driver/longitudinal_control"
	"racer-ai-core/track"
)

type steerResult struct {
	value float64
	dest  track.Vec3
	look  []*track.Patch
}

// steer aims at the front center of the patch one lookahead distance ahead,
// corrects the lateral offset from the current lane center, adds the
// avoidance bias and rate-limits the result. Positive steers right.
func (c *Controller) steer(self VehicleSnapshot, ref *track.Patch, speed, dt, avoid float64) steerResult {
	pos := self.Position
	halfWidth := c.spec.Width / 2
	cur := track.RevisePatch(ref, c.useRacingLine, halfWidth)

	lookahead := c.cfg.LookaheadMin + math.Max(speed, 0)*c.cfg.LookaheadTime
	_, frac := track.ClosestCenterPoint(&cur, pos)
	dist := (1 - frac) * track.Length(&cur)

	res := steerResult{}
	dest := cur
	for i := 0; dist < lookahead && i < c.cfg.MaxLookaheadPatches; i++ {
		next := dest.Next
		if next == nil || next == ref {
			break
		}
		dest = track.RevisePatch(next, c.useRacingLine, halfWidth)
		res.look = append(res.look, next)
		dist += track.Length(&dest)
	}
	res.dest = track.FrontCenter(&dest)

	// positive angles steer right
	angle := -degrees(track.SignedAngle(self.Forward(), res.dest.Sub(pos)))

	// positive offset: the car sits right of the lane center
	offset := track.HorizontalDistance(&cur, pos) - track.Width(&cur)/2
	angle -= degrees(math.Atan2(c.cfg.CrossTrackGain*offset, math.Max(speed, 1)))

	opt := c.spec.OptimumSteeringAngle
	angle = control.ClampFloat(angle, -opt, opt)

	value := control.ClampFloat(angle/c.spec.MaxSteeringAngle, -1, 1)
	value = control.ClampFloat(value+avoid, -1, 1)
	res.value = c.limitSteer(value, dt)
	return res
}

// limitSteer bounds the change from the previous steering command to
// MaxSteerRate per second.
func (c *Controller) limitSteer(value, dt float64) float64 {
	step := c.cfg.MaxSteerRate * math.Max(dt, 0)
	return control.ClampFloat(control.RateLimit(c.inputs[Steer], value, step, step), -1, 1)
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
