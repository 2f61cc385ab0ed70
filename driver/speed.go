package driver

import (
	"math"

	"racer-ai-core/track"
)

// MinFriction floors every friction coefficient before it is divided by.
const MinFriction = 0.01

// SpeedForRadius is the highest speed (m/s) at which a corner of the given
// radius can be held: v = sqrt(mu g r). Non-finite or oversized radii count
// as straight.
func SpeedForRadius(radius, friction float64) float64 {
	if !finite(radius) || radius > track.RadiusSentinel {
		radius = track.RadiusSentinel
	}
	radius = math.Max(radius, 0)
	return math.Sqrt(floorFriction(friction) * Gravity * radius)
}

// ComputeSpeedLimit returns the cornering speed limit for patch given the
// patch that follows it. The tighter of the two radii wins. When the next
// patch is straighter (a corner exit) the radius is widened by up to
// extraRadius, never beyond the next patch's radius. A nil next patch is a
// straight.
func ComputeSpeedLimit(patch, next *track.Patch, friction, extraRadius float64) float64 {
	radius := track.RadiusSentinel
	if patch != nil {
		radius = track.Radius(patch)
	}
	nextRadius := track.RadiusSentinel
	if next != nil {
		nextRadius = track.Radius(next)
	}

	if nextRadius < radius {
		radius = nextRadius
	} else if extraRadius > 0 && finite(extraRadius) {
		radius = math.Min(radius+extraRadius, nextRadius)
	}
	return SpeedForRadius(radius, friction)
}

// ComputeBrakeDistance returns the distance needed to slow from currentSpeed
// to targetSpeed: d = (v1² - v2²) / (2 mu g). Zero when no slowing is needed.
func ComputeBrakeDistance(currentSpeed, targetSpeed, friction float64) float64 {
	if !finite(currentSpeed) || math.IsNaN(targetSpeed) {
		return 0
	}
	v1 := math.Max(currentSpeed, 0)
	v2 := math.Max(targetSpeed, 0)
	if v2 >= v1 {
		return 0
	}
	return (v1*v1 - v2*v2) / (2 * floorFriction(friction) * Gravity)
}

func floorFriction(f float64) float64 {
	if !finite(f) || f < MinFriction {
		return MinFriction
	}
	return f
}

// SpeedPlan is the speed planner's result for one tick.
type SpeedPlan struct {
	// Limit is the speed limit of the current patch.
	Limit float64
	// BrakeAhead is set when a patch ahead needs a lower speed and the
	// distance to it is no more than the braking distance.
	BrakeAhead bool
	// Tightest is the lowest limit seen ahead and Distance the distance to
	// the start of that patch.
	Tightest float64
	Distance float64
	// BrakeDistance is the distance needed to slow to Tightest.
	BrakeDistance float64
	// Look holds the patches examined ahead of the current one.
	Look []*track.Patch
}

// PlanSpeed computes the current limit and walks the patches ahead, as far as
// the car needs to stop, looking for one it must start braking for now.
// Limits are multiplied by scale.
func PlanSpeed(patch *track.Patch, pos track.Vec3, speed, lateralMu, longMu, scale float64, maxPatches int) SpeedPlan {
	if patch == nil {
		lim := SpeedForRadius(track.RadiusSentinel, lateralMu) * scale
		return SpeedPlan{Limit: lim, Tightest: lim}
	}

	limit := ComputeSpeedLimit(patch, patch.Next, lateralMu, track.Width(patch)) * scale
	plan := SpeedPlan{Limit: limit, Tightest: limit}

	_, frac := track.ClosestCenterPoint(patch, pos)
	dist := (1 - frac) * track.Length(patch)
	stopDist := ComputeBrakeDistance(speed, 0, longMu)

	cur := patch
	for i := 0; i < maxPatches && dist <= stopDist; i++ {
		next := cur.Next
		if next == nil || next == patch {
			break
		}
		plan.Look = append(plan.Look, next)

		lim := ComputeSpeedLimit(next, next.Next, lateralMu, track.Width(next)) * scale
		need := ComputeBrakeDistance(speed, lim, longMu)
		if lim < plan.Tightest {
			plan.Tightest, plan.Distance, plan.BrakeDistance = lim, dist, need
		}
		if need > 0 && need >= dist {
			plan.BrakeAhead = true
			plan.Tightest, plan.Distance, plan.BrakeDistance = lim, dist, need
			break
		}
		dist += track.Length(next)
		cur = next
	}
	return plan
}
