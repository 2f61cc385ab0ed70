package track

import "math"

const (
	// RadiusSentinel stands in for the radius of straight, degenerate and
	// terminal patches.
	RadiusSentinel = 10000.0

	// minPatchWidth is the narrowest a patch may be trimmed to.
	minPatchWidth = 0.1
)

// Patch is one curved quadrilateral of road. Front is the end the car drives
// toward. Next is nil for the last patch of an open track.
type Patch struct {
	Index int

	FrontLeft  Vec3
	FrontRight Vec3
	BackLeft   Vec3
	BackRight  Vec3

	// Racing line position across the front and back edges, as a fraction
	// of the width measured from the left side.
	HasRacingLine   bool
	RacingLineFront float64
	RacingLineBack  float64

	// DistFromStart is the centerline distance from the first patch to the
	// back edge of this one.
	DistFromStart float64

	Next *Patch
}

// FrontCenter returns the midpoint of the front edge.
func FrontCenter(p *Patch) Vec3 { return Lerp(p.FrontLeft, p.FrontRight, 0.5) }

// BackCenter returns the midpoint of the back edge.
func BackCenter(p *Patch) Vec3 { return Lerp(p.BackLeft, p.BackRight, 0.5) }

// Direction points from the back center to the front center.
func Direction(p *Patch) Vec3 { return FrontCenter(p).Sub(BackCenter(p)) }

// WidthVector points from the midpoint of the left side to the midpoint of
// the right side.
func WidthVector(p *Patch) Vec3 {
	left := Lerp(p.FrontLeft, p.BackLeft, 0.5)
	right := Lerp(p.FrontRight, p.BackRight, 0.5)
	return right.Sub(left)
}

// Length is the horizontal centerline length.
func Length(p *Patch) float64 { return Direction(p).Flat().Len() }

// Width is the horizontal width at the middle of the patch.
func Width(p *Patch) float64 { return WidthVector(p).Flat().Len() }

// Curvature returns the signed curvature (1/m) through the back center, the
// front center and the next patch's front center. Positive turns left.
// Terminal and degenerate patches are straight.
func Curvature(p *Patch) float64 {
	if p == nil || p.Next == nil {
		return 0
	}
	a := BackCenter(p).Flat()
	b := FrontCenter(p).Flat()
	c := FrontCenter(p.Next).Flat()

	ab := b.Sub(a)
	bc := c.Sub(b)
	ac := c.Sub(a)
	la, lb, lc := ab.Len(), bc.Len(), ac.Len()
	if la < 1e-6 || lb < 1e-6 || lc < 1e-6 {
		return 0
	}
	// k = 2 sin(angle) / chord = 2 * cross / (|ab| |bc| |ac|)
	k := 2 * ab.CrossZ(bc) / (la * lb * lc)
	if math.Abs(k) < 1/RadiusSentinel {
		return 0
	}
	return k
}

// Radius returns the approximate turn radius of the patch, capped at
// RadiusSentinel.
func Radius(p *Patch) float64 {
	k := math.Abs(Curvature(p))
	if k == 0 {
		return RadiusSentinel
	}
	return math.Min(1/k, RadiusSentinel)
}

// HorizontalDistance projects pos onto the patch's unit width vector,
// measured from the left side. 0 is the left edge, Width(p) the right edge.
func HorizontalDistance(p *Patch, pos Vec3) float64 {
	left := Lerp(p.FrontLeft, p.BackLeft, 0.5)
	w := WidthVector(p).Flat().Normalize()
	return w.Dot(pos.Sub(left).Flat())
}

// TrimPatch moves the corners of p inward across the road. Trims are
// clamped so the patch keeps at least minPatchWidth on each edge.
func TrimPatch(p *Patch, trimLeftFront, trimRightFront, trimLeftBack, trimRightBack float64) {
	p.FrontLeft, p.FrontRight = trimEdge(p.FrontLeft, p.FrontRight, trimLeftFront, trimRightFront)
	p.BackLeft, p.BackRight = trimEdge(p.BackLeft, p.BackRight, trimLeftBack, trimRightBack)
}

func trimEdge(left, right Vec3, trimLeft, trimRight float64) (Vec3, Vec3) {
	edge := right.Sub(left)
	width := edge.Len()
	if width <= minPatchWidth {
		return left, right
	}
	trimLeft = math.Max(trimLeft, 0)
	trimRight = math.Max(trimRight, 0)
	if total := trimLeft + trimRight; total > width-minPatchWidth {
		s := (width - minPatchWidth) / total
		trimLeft *= s
		trimRight *= s
	}
	u := edge.Scale(1 / width)
	return left.Add(u.Scale(trimLeft)), right.Sub(u.Scale(trimRight))
}

// RevisePatch returns a copy of p. With useRacingLine set and a racing line
// present, the copy is narrowed to a lane of halfCarWidth either side of the
// racing line, so its center follows the line.
func RevisePatch(p *Patch, useRacingLine bool, halfCarWidth float64) Patch {
	out := *p
	if !useRacingLine || !p.HasRacingLine {
		return out
	}
	wf := p.FrontRight.Sub(p.FrontLeft).Len()
	wb := p.BackRight.Sub(p.BackLeft).Len()
	lf := p.RacingLineFront*wf - halfCarWidth
	rf := (1-p.RacingLineFront)*wf - halfCarWidth
	lb := p.RacingLineBack*wb - halfCarWidth
	rb := (1-p.RacingLineBack)*wb - halfCarWidth
	TrimPatch(&out, lf, rf, lb, rb)
	return out
}

// DistanceTo returns the horizontal distance from pos to the patch
// quadrilateral, 0 when pos lies inside. Defined for degenerate patches.
func DistanceTo(p *Patch, pos Vec3) float64 {
	q := [4]Vec3{p.BackLeft.Flat(), p.BackRight.Flat(), p.FrontRight.Flat(), p.FrontLeft.Flat()}
	pt := pos.Flat()
	if insideConvex(q, pt) {
		return 0
	}
	best := math.Inf(1)
	for i := range q {
		best = math.Min(best, segmentDistance(pt, q[i], q[(i+1)%4]))
	}
	return best
}

// Contains reports whether pos lies inside the patch or within margin of it.
func Contains(p *Patch, pos Vec3, margin float64) bool {
	return DistanceTo(p, pos) <= margin
}

// ClosestCenterPoint projects pos onto the patch centerline and returns the
// projected point and its fraction along the patch, clamped to [0, 1].
func ClosestCenterPoint(p *Patch, pos Vec3) (Vec3, float64) {
	a := BackCenter(p)
	d := Direction(p).Flat()
	l2 := d.Dot(d)
	if l2 < 1e-12 {
		return a, 0
	}
	t := math.Max(0, math.Min(1, pos.Sub(a).Flat().Dot(d)/l2))
	return a.Add(Direction(p).Scale(t)), t
}

func insideConvex(q [4]Vec3, pt Vec3) bool {
	var pos, neg bool
	var area float64
	for i := range q {
		a, b := q[i], q[(i+1)%4]
		area += a.CrossZ(b)
		c := b.Sub(a).CrossZ(pt.Sub(a))
		if c > 0 {
			pos = true
		} else if c < 0 {
			neg = true
		}
	}
	if math.Abs(area) < 1e-9 {
		return false
	}
	return !(pos && neg)
}

func segmentDistance(pt, a, b Vec3) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < 1e-12 {
		return pt.Dist(a)
	}
	t := math.Max(0, math.Min(1, pt.Sub(a).Dot(ab)/l2))
	return pt.Dist(a.Add(ab.Scale(t)))
}
