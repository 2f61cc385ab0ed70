package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func straightPatch(x0, x1, width float64) Patch {
	h := width / 2
	return Patch{
		BackLeft:   Vec3{X: x0, Y: h},
		BackRight:  Vec3{X: x0, Y: -h},
		FrontLeft:  Vec3{X: x1, Y: h},
		FrontRight: Vec3{X: x1, Y: -h},
	}
}

func TestPatchCentersAndVectors(t *testing.T) {
	p := straightPatch(0, 5, 10)

	assert.Equal(t, Vec3{X: 5}, FrontCenter(&p))
	assert.Equal(t, Vec3{X: 0}, BackCenter(&p))
	assert.Equal(t, Vec3{X: 5}, Direction(&p))
	assert.Equal(t, Vec3{Y: -10}, WidthVector(&p))
	assert.InDelta(t, 5.0, Length(&p), 1e-9)
	assert.InDelta(t, 10.0, Width(&p), 1e-9)
}

func TestHorizontalDistance(t *testing.T) {
	p := straightPatch(0, 5, 10)

	assert.InDelta(t, 0.0, HorizontalDistance(&p, Vec3{X: 2, Y: 5}), 1e-9)
	assert.InDelta(t, 5.0, HorizontalDistance(&p, Vec3{X: 2, Y: 0}), 1e-9)
	assert.InDelta(t, 10.0, HorizontalDistance(&p, Vec3{X: 2, Y: -5}), 1e-9)
	// height is ignored
	assert.InDelta(t, 5.0, HorizontalDistance(&p, Vec3{X: 2, Z: 3}), 1e-9)
}

func TestRadiusOfArc(t *testing.T) {
	tr, err := Build(Def{
		Width:       10,
		PatchLength: 4,
		Sections:    []Section{{Length: 60, Radius: 30, Turn: "left"}, {Length: 20}},
	})
	require.NoError(t, err)

	p := tr.Patches[3]
	assert.InDelta(t, 30.0, Radius(p), 0.01)
	assert.Greater(t, Curvature(p), 0.0)

	tr, err = Build(Def{
		Width:       10,
		PatchLength: 4,
		Sections:    []Section{{Length: 60, Radius: 30, Turn: "right"}, {Length: 20}},
	})
	require.NoError(t, err)
	assert.Less(t, Curvature(tr.Patches[3]), 0.0)
}

func TestRadiusSentinel(t *testing.T) {
	a := straightPatch(0, 5, 10)
	b := straightPatch(5, 10, 10)
	a.Next = &b

	assert.Equal(t, RadiusSentinel, Radius(&a), "straight")
	assert.Equal(t, RadiusSentinel, Radius(&b), "terminal")

	var zero Patch
	zero.Next = &Patch{}
	assert.Equal(t, RadiusSentinel, Radius(&zero), "degenerate")
	assert.Equal(t, 0.0, Curvature(nil))
}

func TestDegeneratePatchIsTotal(t *testing.T) {
	pt := Vec3{X: 1, Y: 1}
	p := Patch{FrontLeft: pt, FrontRight: pt, BackLeft: pt, BackRight: pt}

	assert.Equal(t, 0.0, Length(&p))
	assert.Equal(t, 0.0, HorizontalDistance(&p, Vec3{X: 4, Y: 5}))
	assert.InDelta(t, 5.0, DistanceTo(&p, Vec3{X: 4, Y: 5}), 1e-9)
	c, frac := ClosestCenterPoint(&p, Vec3{X: 9})
	assert.Equal(t, pt, c)
	assert.Equal(t, 0.0, frac)

	TrimPatch(&p, 1, 1, 1, 1)
	assert.Equal(t, pt, p.FrontLeft)
}

func TestTrimPatchNeverInverts(t *testing.T) {
	p := straightPatch(0, 5, 10)
	TrimPatch(&p, 2, 3, 0, 0)
	assert.InDelta(t, 3.0, p.FrontLeft.Y, 1e-9)
	assert.InDelta(t, -2.0, p.FrontRight.Y, 1e-9)
	assert.Equal(t, 5.0, p.BackLeft.Y)

	p = straightPatch(0, 5, 10)
	TrimPatch(&p, 50, 50, -3, 100)
	assert.InDelta(t, minPatchWidth, p.FrontLeft.Y-p.FrontRight.Y, 1e-9)
	assert.Greater(t, p.BackLeft.Y, p.BackRight.Y)
	assert.Equal(t, 5.0, p.BackLeft.Y, "negative trims are ignored")
}

func TestRevisePatchFollowsRacingLine(t *testing.T) {
	p := straightPatch(0, 5, 10)
	p.HasRacingLine = true
	p.RacingLineFront = 0.2
	p.RacingLineBack = 0.8

	plain := RevisePatch(&p, false, 1)
	assert.Equal(t, p.FrontLeft, plain.FrontLeft)

	r := RevisePatch(&p, true, 1)
	// 0.2 of the width from the left edge at y=5 is y=3
	assert.InDelta(t, 3.0, FrontCenter(&r).Y, 1e-9)
	assert.InDelta(t, 2.0, r.FrontLeft.Y-r.FrontRight.Y, 1e-9)
	assert.InDelta(t, -3.0, BackCenter(&r).Y, 1e-9)
	// original untouched
	assert.Equal(t, 5.0, p.FrontLeft.Y)
}

func TestDistanceTo(t *testing.T) {
	p := straightPatch(0, 5, 10)

	assert.Equal(t, 0.0, DistanceTo(&p, Vec3{X: 2.5, Y: 1}))
	assert.InDelta(t, 2.0, DistanceTo(&p, Vec3{X: 2.5, Y: 7}), 1e-9)
	assert.InDelta(t, math.Sqrt2, DistanceTo(&p, Vec3{X: 6, Y: 6}), 1e-9)
	assert.True(t, Contains(&p, Vec3{X: 5.2}, OnTrackMargin))
	assert.False(t, Contains(&p, Vec3{X: 5.3}, OnTrackMargin))
}

func TestSignedAngle(t *testing.T) {
	assert.InDelta(t, math.Pi/2, SignedAngle(Vec3{X: 1}, Vec3{Y: 1}), 1e-9)
	assert.InDelta(t, -math.Pi/2, SignedAngle(Vec3{X: 1}, Vec3{Y: -1}), 1e-9)
	assert.Equal(t, 0.0, SignedAngle(Vec3{}, Vec3{Y: 1}))
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}
