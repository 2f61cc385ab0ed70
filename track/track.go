package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"
)

const (
	// OnTrackMargin is how far outside a patch a position still counts as on it.
	OnTrackMargin = 0.25

	// searchWindow bounds the hint-seeded scans before a full scan is needed.
	searchWindow = 24

	// defaultLookupRadius is how close the hint-seeded nearest search must
	// get before it skips the full scan.
	defaultLookupRadius = 30.0
)

// Track owns the patch sequence. It is read-only after Build and safe to share
// between controllers.
type Track struct {
	Patches []*Patch
	Closed  bool

	LookupRadius float64
}

// New links patches in order. When closed, the last patch links back to the
// first.
func New(patches []Patch, closed bool) (*Track, error) {
	if len(patches) == 0 {
		return nil, errors.New("track has no patches")
	}
	t := &Track{
		Patches:      make([]*Patch, len(patches)),
		Closed:       closed,
		LookupRadius: defaultLookupRadius,
	}
	for i := range patches {
		p := patches[i]
		p.Index = i
		p.Next = nil
		t.Patches[i] = &p
	}
	var dist float64
	for i, p := range t.Patches {
		if !BackCenter(p).IsFinite() || !FrontCenter(p).IsFinite() {
			return nil, fmt.Errorf("patch %d has non-finite corners", i)
		}
		p.DistFromStart = dist
		dist += Length(p)
		if i+1 < len(t.Patches) {
			p.Next = t.Patches[i+1]
		} else if closed && len(t.Patches) > 1 {
			p.Next = t.Patches[0]
		}
	}
	return t, nil
}

// PatchAt returns the patch containing pos (within OnTrackMargin), or nil
// when pos is off the track. The search starts around hint.
func (t *Track) PatchAt(pos Vec3, hint *Patch) *Patch {
	if !pos.IsFinite() {
		return nil
	}
	var found *Patch
	t.scanAround(hint, func(p *Patch, _ int) bool {
		if Contains(p, pos, OnTrackMargin) {
			found = p
			return true
		}
		return false
	})
	if found != nil {
		return found
	}
	for _, p := range t.Patches {
		if Contains(p, pos, OnTrackMargin) {
			return p
		}
	}
	return nil
}

// NearestPatch returns the patch closest to pos and its distance. Patches
// around hint are tried first. The windowed result stands when pos is on it
// or when it lies within the lookup radius and strictly inside the window;
// a best patch on the window edge means the car may be beyond it, so the
// whole track is scanned.
func (t *Track) NearestPatch(pos Vec3, hint *Patch) (*Patch, float64) {
	if !pos.IsFinite() {
		return hint, math.Inf(1)
	}
	var best *Patch
	bestDist := math.Inf(1)
	bestOff, maxOff := 0, 0
	t.scanAround(hint, func(p *Patch, off int) bool {
		if d := DistanceTo(p, pos); d < bestDist {
			best, bestDist, bestOff = p, d, off
		}
		maxOff = off
		return false
	})
	if best != nil {
		if bestDist <= OnTrackMargin {
			return best, bestDist
		}
		edge := maxOff >= searchWindow && bestOff == maxOff
		if bestDist <= t.LookupRadius && !edge {
			return best, bestDist
		}
	}
	best = lo.MinBy(t.Patches, func(a, b *Patch) bool {
		return DistanceTo(a, pos) < DistanceTo(b, pos)
	})
	return best, DistanceTo(best, pos)
}

// Length is the total centerline length.
func (t *Track) Length() float64 {
	last := t.Patches[len(t.Patches)-1]
	return last.DistFromStart + Length(last)
}

// scanAround visits patches within searchWindow of hint by index, nearest
// first, until fn returns true. fn also gets the index offset from hint.
func (t *Track) scanAround(hint *Patch, fn func(p *Patch, off int) bool) {
	if hint == nil || hint.Index < 0 || hint.Index >= len(t.Patches) || t.Patches[hint.Index] != hint {
		return
	}
	n := len(t.Patches)
	if fn(hint, 0) {
		return
	}
	for off := 1; off <= searchWindow && off < n; off++ {
		for _, i := range [2]int{hint.Index + off, hint.Index - off} {
			if t.Closed {
				i = (i%n + n) % n
			} else if i < 0 || i >= n {
				continue
			}
			if fn(t.Patches[i], off) {
				return
			}
		}
	}
}
