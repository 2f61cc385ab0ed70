package track

import "math"

// RacingLineConfig tunes GenerateRacingLine.
type RacingLineConfig struct {
	// Gain converts curvature (1/m) into a shift across the road.
	Gain float64 `json:"gain"`
	// MaxShift bounds the shift from the center, as a fraction of the width.
	MaxShift float64 `json:"max_shift"`
	// Window is the smoothing window in patches.
	Window int `json:"window"`
}

func DefaultRacingLineConfig() RacingLineConfig {
	return RacingLineConfig{Gain: 12, MaxShift: 0.35, Window: 5}
}

// GenerateRacingLine places a racing line toward the inside of each corner,
// shifted in proportion to smoothed curvature.
func GenerateRacingLine(t *Track, cfg RacingLineConfig) {
	n := len(t.Patches)
	if n == 0 {
		return
	}
	k := make([]float64, n)
	for i, p := range t.Patches {
		k[i] = Curvature(p)
	}
	// forward and backward passes so the line moves in ahead of the corner
	fwd := SmoothSeries(k, cfg.Window)
	rev := make([]float64, n)
	for i := range k {
		rev[i] = k[n-1-i]
	}
	rev = SmoothSeries(rev, cfg.Window)

	line := make([]float64, n)
	for i := range k {
		ks := 0.5 * (fwd[i] + rev[n-1-i])
		shift := math.Max(-cfg.MaxShift, math.Min(cfg.MaxShift, ks*cfg.Gain))
		// left turns (k > 0) pull the line toward the left edge
		line[i] = 0.5 - shift
	}

	for i, p := range t.Patches {
		p.HasRacingLine = true
		p.RacingLineFront = line[i]
		switch {
		case i > 0:
			p.RacingLineBack = line[i-1]
		case t.Closed:
			p.RacingLineBack = line[n-1]
		default:
			p.RacingLineBack = line[i]
		}
	}
}

// SmoothSeries applies a trailing moving average over the input.
func SmoothSeries(vals []float64, window int) []float64 {
	if window <= 1 {
		return vals
	}
	out := make([]float64, len(vals))
	var sum float64
	for i, v := range vals {
		sum += v
		if i >= window {
			sum -= vals[i-window]
		}
		count := window
		if i+1 < window {
			count = i + 1
		}
		out[i] = sum / float64(count)
	}
	return out
}
