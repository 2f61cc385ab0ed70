package driver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racer-ai-core/track"
)

func TestSpeedForRadius(t *testing.T) {
	assert.InDelta(t, 17.146, SpeedForRadius(30, 1), 1e-3)
	assert.InDelta(t, math.Sqrt(Gravity*track.RadiusSentinel), SpeedForRadius(math.Inf(1), 1), 1e-9)
	assert.InDelta(t, math.Sqrt(MinFriction*Gravity*30), SpeedForRadius(30, 0), 1e-9)
	assert.Equal(t, 0.0, SpeedForRadius(-3, 1))
}

func TestSpeedLimitMonotoneInFriction(t *testing.T) {
	tr := buildTrack(t, false, track.Section{Length: 60, Radius: 30, Turn: "left"})
	p := tr.Patches[3]
	prev := 0.0
	for _, mu := range []float64{0, 0.2, 0.5, 0.9, 1.2} {
		lim := ComputeSpeedLimit(p, p.Next, mu, 0)
		assert.GreaterOrEqual(t, lim, prev, "mu=%v", mu)
		prev = lim
	}
}

func TestSpeedLimitTighterRadiusWins(t *testing.T) {
	tr := buildTrack(t, false,
		track.Section{Length: 50},
		track.Section{Length: 60, Radius: 30, Turn: "right"},
	)
	straight := tr.Patches[5]
	arc := tr.Patches[12]

	assert.InDelta(t, 17.146, ComputeSpeedLimit(arc, arc.Next, 1, 0), 0.05)
	// the last straight patch already takes the arc's limit
	last := tr.Patches[9]
	assert.InDelta(t, 17.146, ComputeSpeedLimit(last, last.Next, 1, 10), 0.05)
	assert.Greater(t, ComputeSpeedLimit(straight, straight.Next, 1, 0), 300.0)

	// exit widening never exceeds the straighter patch's radius
	assert.LessOrEqual(t, ComputeSpeedLimit(arc, straight, 1, 1e6), SpeedForRadius(track.RadiusSentinel, 1)+1e-9)
	assert.Greater(t, ComputeSpeedLimit(arc, straight, 1, 5), ComputeSpeedLimit(arc, straight, 1, 0))

	// nil next patch counts as straight
	assert.InDelta(t, SpeedForRadius(track.Radius(arc), 1), ComputeSpeedLimit(arc, nil, 1, 0), 1e-9)
	assert.InDelta(t, SpeedForRadius(track.RadiusSentinel, 1), ComputeSpeedLimit(nil, nil, 1, 0), 1e-9)
}

func TestBrakeDistance(t *testing.T) {
	v2 := SpeedForRadius(30, 1)
	want := (40*40 - v2*v2) / (2 * Gravity)
	assert.InDelta(t, want, ComputeBrakeDistance(40, v2, 1), 1e-9)
	assert.InDelta(t, 66.6, ComputeBrakeDistance(40, v2, 1), 0.2)

	assert.Equal(t, 0.0, ComputeBrakeDistance(10, 20, 1))
	assert.Equal(t, 0.0, ComputeBrakeDistance(10, 10, 1))
	assert.Equal(t, 0.0, ComputeBrakeDistance(math.NaN(), 0, 1))
	assert.Equal(t, 0.0, ComputeBrakeDistance(10, math.NaN(), 1))
	assert.False(t, math.IsInf(ComputeBrakeDistance(10, 0, 0), 0))

	prev := 0.0
	for v := 0.0; v <= 80; v += 5 {
		d := ComputeBrakeDistance(v, 10, 0.8)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestPlanSpeedBrakesForCorner(t *testing.T) {
	tr := buildTrack(t, false,
		track.Section{Length: 200},
		track.Section{Length: 100, Radius: 30, Turn: "right"},
	)

	far := track.Vec3{X: 102.5}
	plan := PlanSpeed(tr.PatchAt(far, nil), far, 40, 1, 1, 1, 64)
	assert.False(t, plan.BrakeAhead)
	assert.Greater(t, plan.Limit, 40.0)

	near := track.Vec3{X: 152.5}
	plan = PlanSpeed(tr.PatchAt(near, nil), near, 40, 1, 1, 1, 64)
	require.True(t, plan.BrakeAhead)
	assert.Less(t, plan.Tightest, 40.0)
	assert.GreaterOrEqual(t, plan.BrakeDistance, plan.Distance)
	assert.NotEmpty(t, plan.Look)

	// slow enough to take the corner: nothing to brake for
	plan = PlanSpeed(tr.PatchAt(near, nil), near, 15, 1, 1, 1, 64)
	assert.False(t, plan.BrakeAhead)
}

func TestPlanSpeedStopsOnClosedTrack(t *testing.T) {
	tr := buildTrack(t, true, track.Section{Length: 40})
	pos := track.Vec3{X: 2.5}
	plan := PlanSpeed(tr.PatchAt(pos, nil), pos, 200, 1, 1, 1, 1000)
	assert.Less(t, len(plan.Look), len(tr.Patches))
}

func TestPlanSpeedWithoutPatch(t *testing.T) {
	plan := PlanSpeed(nil, track.Vec3{}, 20, 1, 1, 0.8, 64)
	assert.InDelta(t, SpeedForRadius(track.RadiusSentinel, 1)*0.8, plan.Limit, 1e-9)
	assert.False(t, plan.BrakeAhead)
}

func TestFrictionEstimator(t *testing.T) {
	cfg := DefaultConfig()
	f := newFrictionEstimator(cfg)
	assert.InDelta(t, 0.9, f.longitudinal(), 1e-9)
	assert.InDelta(t, 0.65, f.lateral(), 1e-9)

	grippy := groundedTires(1.2)
	f.update(grippy)
	assert.InDelta(t, 0.95, f.longitudinal(), 1e-9, "one step of MaxFrictionStep")
	for i := 0; i < 50; i++ {
		f.update(grippy)
	}
	assert.InDelta(t, 1.2*0.9, f.longitudinal(), 1e-9)
	assert.InDelta(t, 1.2*0.65, f.lateral(), 1e-9)

	// airborne: drift back to the defaults
	var air [4]TireState
	for i := 0; i < 50; i++ {
		f.update(air)
	}
	assert.InDelta(t, 0.9, f.longitudinal(), 1e-9)

	// no grip at all never drops below the floor
	for i := 0; i < 50; i++ {
		f.update(groundedTires(0))
	}
	assert.Equal(t, MinFriction, f.longitudinal())
	assert.Equal(t, MinFriction, f.lateral())

	f.reset()
	assert.InDelta(t, 0.9, f.longitudinal(), 1e-9)
}
