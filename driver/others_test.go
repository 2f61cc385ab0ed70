package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racer-ai-core/track"
)

func newTestAnalyzer() analyzer {
	return newAnalyzer(DefaultConfig(), DefaultVehicleSpec(), 1)
}

func TestAnalyzerBrakeBias(t *testing.T) {
	tr := buildTrack(t, false, track.Section{Length: 100})
	ref := tr.Patches[0]
	self := snapshot(0, 2.5, 0, 0, 20)

	bias := func(fore float64) float64 {
		a := newTestAnalyzer()
		a.analyze(self, ref, []VehicleSnapshot{self, snapshot(1, 2.5+fore, 0, 0, 15)})
		return a.brakeBias()
	}

	assert.InDelta(t, 5.0/6*(1-10.0/30), bias(10), 1e-9)
	assert.InDelta(t, 0.555, bias(10), 1e-3)
	assert.Less(t, bias(20), bias(10))
	assert.Less(t, bias(10), bias(5))
	assert.Equal(t, 0.0, bias(31))
	assert.Equal(t, 0.0, bias(-3), "cars behind never add brake")

	a := newTestAnalyzer()
	a.analyze(self, ref, []VehicleSnapshot{snapshot(1, 12.5, 0, 0, 25)})
	assert.Equal(t, 0.0, a.brakeBias(), "faster car ahead")
}

func TestAnalyzerRecords(t *testing.T) {
	tr := buildTrack(t, false, track.Section{Length: 100})
	ref := tr.Patches[0]
	self := snapshot(0, 2.5, 0, 0, 20)

	a := newTestAnalyzer()
	a.analyze(self, ref, []VehicleSnapshot{self, snapshot(3, 12.5, -2, 0, 15)})

	_, ok := a.other(0)
	assert.False(t, ok, "self is never recorded")
	_, ok = a.other(1)
	assert.False(t, ok)

	rec, ok := a.other(3)
	require.True(t, ok)
	assert.True(t, rec.Active)
	assert.InDelta(t, 10, rec.ForeDistance, 1e-9)
	assert.InDelta(t, 2, rec.HorizontalDistance, 1e-9, "negative Y is to the right")
	assert.InDelta(t, 5, rec.ClosingSpeed, 1e-9)
	assert.InDelta(t, (10-4.5)/5, rec.ETA, 1e-9)

	// moving away
	a.analyze(self, ref, []VehicleSnapshot{snapshot(3, 12.5, 0, 0, 30)})
	rec, _ = a.other(3)
	assert.Equal(t, NoContactETA, rec.ETA)

	// out of the window: kept but inactive
	a.analyze(self, ref, []VehicleSnapshot{snapshot(3, 80, 0, 0, 15)})
	rec, ok = a.other(3)
	require.True(t, ok)
	assert.False(t, rec.Active)
	assert.Empty(t, a.active())

	a.reset()
	_, ok = a.other(3)
	assert.False(t, ok)

	// ids past the slot range are not tracked
	a.analyze(self, ref, []VehicleSnapshot{snapshot(MaxVehicles, 12.5, 0, 0, 15), snapshot(1<<30, 12.5, 0, 0, 15)})
	assert.Empty(t, a.active())
	assert.Empty(t, a.table.records)
	_, ok = a.other(MaxVehicles)
	assert.False(t, ok)
}

func TestAnalyzerBoundariesAreInclusive(t *testing.T) {
	tr := buildTrack(t, false, track.Section{Length: 100})
	ref := tr.Patches[0]
	self := snapshot(0, 2.5, 0, 0, 20)
	cfg := DefaultConfig()

	cases := []struct {
		name   string
		x, y   float64
		active bool
	}{
		{"fore edge", 2.5 + cfg.ForeWindow, 0, true},
		{"past fore edge", 2.5 + cfg.ForeWindow + 0.5, 0, false},
		{"back edge", 2.5 - cfg.BackWindow, 0, true},
		{"past back edge", 2.5 - cfg.BackWindow - 0.5, 0, false},
		{"lateral edge", 12.5, -cfg.LateralWindow, true},
		{"past lateral edge", 12.5, -cfg.LateralWindow - 0.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAnalyzer()
			for i := 0; i < 3; i++ {
				a.analyze(self, ref, []VehicleSnapshot{snapshot(1, tc.x, tc.y, 0, 20)})
				rec, ok := a.other(1)
				require.True(t, ok)
				assert.Equal(t, tc.active, rec.Active)
			}
		})
	}
}

func TestAnalyzerSteerBias(t *testing.T) {
	tr := buildTrack(t, false, track.Section{Length: 100})
	ref := tr.Patches[0]
	self := snapshot(0, 2.5, 0, 0, 20)

	bias := func(other VehicleSnapshot) float64 {
		a := newTestAnalyzer()
		a.analyze(self, ref, []VehicleSnapshot{other})
		return a.steerBias()
	}

	right := bias(snapshot(1, 7.5, -1, 0, 20))
	left := bias(snapshot(1, 7.5, 1, 0, 20))
	assert.Less(t, right, 0.0, "car on the right: steer left")
	assert.Greater(t, left, 0.0, "car on the left: steer right")
	assert.InDelta(t, -right, left, 1e-9)

	assert.Equal(t, 0.0, bias(snapshot(1, 7.5, -5, 0, 20)), "no lateral overlap")
	assert.Equal(t, 0.0, bias(snapshot(1, 60, 0, 0, 20)), "out of range")

	closer := bias(snapshot(1, 7.5, -0.5, 0, 20))
	assert.Less(t, closer, right, "more overlap, stronger push")
}
