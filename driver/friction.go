package driver

import (
	"github.com/samber/lo"

	control "racer-ai-core/driver/longitudinal_control"
)

// frictionEstimator tracks the longitudinal and lateral friction coefficients
// of the controlled car from its tire model.
type frictionEstimator struct {
	cfg  Config
	long float64
	lat  float64
}

func newFrictionEstimator(cfg Config) frictionEstimator {
	return frictionEstimator{
		cfg:  cfg,
		long: cfg.DefaultFriction * cfg.LongFrictionFactor,
		lat:  cfg.DefaultFriction * cfg.LatFrictionFactor,
	}
}

// update moves the estimate toward the coefficients implied by the tires, at
// most MaxFrictionStep per tick. Airborne cars drift toward the default.
func (f *frictionEstimator) update(tires [4]TireState) {
	long, lat := f.target(tires)
	step := f.cfg.MaxFrictionStep
	f.long = control.RateLimit(f.long, long, step, step)
	f.lat = control.RateLimit(f.lat, lat, step, step)
}

func (f *frictionEstimator) target(tires [4]TireState) (float64, float64) {
	touching := lo.Filter(tires[:], func(t TireState, _ int) bool {
		return t.Contact && t.Load > 0 && finite(t.Load) && finite(t.MaxLongForce) && finite(t.MaxLatForce)
	})
	if len(touching) == 0 {
		return f.cfg.DefaultFriction * f.cfg.LongFrictionFactor, f.cfg.DefaultFriction * f.cfg.LatFrictionFactor
	}

	grip := func(t TireState) float64 {
		return 1 - f.cfg.SlideFrictionReduction*control.ClampFloat(t.Slide, 0, 1)
	}
	n := float64(len(touching))
	long := lo.SumBy(touching, func(t TireState) float64 {
		return t.MaxLongForce / t.Load * grip(t)
	}) / n
	lat := lo.SumBy(touching, func(t TireState) float64 {
		return t.MaxLatForce / t.Load * grip(t)
	}) / n

	return long * f.cfg.LongFrictionFactor, lat * f.cfg.LatFrictionFactor
}

// longitudinal and lateral never return less than the friction floor.
func (f *frictionEstimator) longitudinal() float64 {
	return max(f.long, MinFriction)
}

func (f *frictionEstimator) lateral() float64 {
	return max(f.lat, MinFriction)
}

func (f *frictionEstimator) reset() {
	*f = newFrictionEstimator(f.cfg)
}
