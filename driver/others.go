package driver

import (
	"math"

	"github.com/samber/lo"

	control "racer-ai-core/driver/longitudinal_control"
	"racer-ai-core/track"
)

// NoContactETA is the ETA reported when the gap to a car is not closing.
const NoContactETA = 1000.0

// OtherCarInfo is what the analyzer knows about one other car, relative to
// the controlled car and its patch.
type OtherCarInfo struct {
	// HorizontalDistance is positive when the other car is to the right.
	HorizontalDistance float64
	// ForeDistance is positive when the other car is ahead.
	ForeDistance float64
	// ClosingSpeed is positive when the controlled car is faster.
	ClosingSpeed float64
	// ETA is the time until the gap closes, NoContactETA if it does not.
	ETA    float64
	Active bool

	seen bool
}

// othersTable holds one record per other car, indexed by VehicleID. Records
// are never removed; cars that leave the window are only marked inactive.
type othersTable struct {
	records []OtherCarInfo
}

func (t *othersTable) get(id VehicleID) *OtherCarInfo {
	if id < 0 || id >= MaxVehicles {
		return nil
	}
	if int(id) >= len(t.records) {
		grown := make([]OtherCarInfo, int(id)+1, max(int(id)+1, 2*len(t.records)))
		copy(grown, t.records)
		t.records = grown
	}
	r := &t.records[id]
	r.seen = true
	return r
}

type analyzer struct {
	cfg       Config
	spacing   float64
	carLength float64
	table     othersTable
}

func newAnalyzer(cfg Config, spec VehicleSpec, difficulty float64) analyzer {
	return analyzer{
		cfg:       cfg,
		spacing:   cfg.Spacing + (1-difficulty)*1.5,
		carLength: spec.Length,
	}
}

// analyze refreshes the record of every car in others. ref is the patch the
// controlled car is on, or the last one it was on; nil falls back to the
// car's heading.
func (a *analyzer) analyze(self VehicleSnapshot, ref *track.Patch, others []VehicleSnapshot) {
	for i := range a.table.records {
		a.table.records[i].Active = false
	}

	fwd, right := trackFrame(self, ref)
	mySpeed := self.Velocity.Dot(fwd)

	for _, o := range others {
		if o.ID == self.ID {
			continue
		}
		rec := a.table.get(o.ID)
		if rec == nil || !o.Position.IsFinite() || !o.Velocity.IsFinite() {
			continue
		}

		rel := o.Position.Sub(self.Position).Flat()
		rec.ForeDistance = rel.Dot(fwd)
		rec.HorizontalDistance = rel.Dot(right)
		rec.Active = a.relevant(rec.HorizontalDistance, rec.ForeDistance)
		if !rec.Active {
			continue
		}
		rec.ClosingSpeed = mySpeed - o.Velocity.Dot(fwd)
		rec.ETA = a.eta(rec.ForeDistance, rec.ClosingSpeed)
	}
}

// relevant uses inclusive bounds so a car on the boundary always lands on
// the same side.
func (a *analyzer) relevant(horizontal, fore float64) bool {
	return math.Abs(horizontal) <= a.cfg.LateralWindow &&
		fore >= -a.cfg.BackWindow && fore <= a.cfg.ForeWindow
}

func (a *analyzer) eta(fore, closing float64) float64 {
	gap := math.Max(math.Abs(fore)-a.carLength, 0)
	switch {
	case fore > 0 && closing > a.cfg.MinClosing:
		return gap / closing
	case fore < 0 && closing < -a.cfg.MinClosing:
		return gap / -closing
	case fore == 0:
		return 0
	}
	return NoContactETA
}

func (a *analyzer) active() []OtherCarInfo {
	return lo.Filter(a.table.records, func(r OtherCarInfo, _ int) bool { return r.Active })
}

// steerBias pushes the steering away from the most pressing car alongside or
// ahead that overlaps laterally. Positive steers right.
func (a *analyzer) steerBias() float64 {
	var best, dir float64
	for _, r := range a.active() {
		h := math.Abs(r.HorizontalDistance)
		if h >= a.spacing || r.ForeDistance < -a.carLength/2 {
			continue
		}
		urgency := math.Max(
			1-control.RampBetween(r.ETA, a.cfg.EtaFull, a.cfg.EtaNone),
			1-control.RampBetween(math.Abs(r.ForeDistance), a.carLength, a.cfg.ForeWindow),
		)
		mag := a.cfg.AvoidanceGain * (a.spacing - h) / a.spacing * urgency
		if mag > best {
			best = mag
			dir = -1
			if r.HorizontalDistance < 0 {
				dir = 1
			}
		}
	}
	return dir * best
}

// brakeBias asks for extra brake when a slower car is ahead in our lane. It
// falls off linearly with distance and reaches zero at the fore window.
func (a *analyzer) brakeBias() float64 {
	var bias float64
	for _, r := range a.active() {
		if r.ForeDistance <= 0 || math.Abs(r.HorizontalDistance) > a.cfg.BrakeLateral || r.ClosingSpeed <= 0 {
			continue
		}
		b := r.ClosingSpeed / a.cfg.GasBrake.MaxSpeedDiff * (1 - r.ForeDistance/a.cfg.ForeWindow)
		bias = math.Max(bias, b)
	}
	return control.ClampFloat(bias, 0, 1)
}

// other returns the record for id, if that car has ever been seen.
func (a *analyzer) other(id VehicleID) (OtherCarInfo, bool) {
	if id < 0 || int(id) >= len(a.table.records) || !a.table.records[id].seen {
		return OtherCarInfo{}, false
	}
	return a.table.records[id], true
}

func (a *analyzer) reset() {
	a.table.records = a.table.records[:0]
}

// trackFrame returns the unit forward and right vectors of the road at the
// car: the patch's direction and width when they are usable, the car's
// heading otherwise.
func trackFrame(self VehicleSnapshot, ref *track.Patch) (track.Vec3, track.Vec3) {
	fwd := self.Forward()
	if ref != nil {
		if d := track.Direction(ref).Flat().Normalize(); d.Len() > 0 {
			fwd = d
		}
	}
	right := track.Vec3{X: fwd.Y, Y: -fwd.X}
	if ref != nil {
		if w := track.WidthVector(ref).Flat().Normalize(); w.Len() > 0 && w.Dot(right) > 0 {
			right = w
		}
	}
	return fwd, right
}
