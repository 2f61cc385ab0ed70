package driver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racer-ai-core/track"
)

func TestRayCast(t *testing.T) {
	box := func(id VehicleID, x, y, yaw float64) footprint {
		return footprint{id: id, center: track.Vec3{X: x, Y: y}, fwd: track.Heading(yaw), halfLen: 2.25, halfWid: 0.95}
	}
	east := track.Vec3{X: 1}

	tests := []struct {
		name  string
		boxes []footprint
		dist  float64
		hit   VehicleID
	}{
		{"clear", nil, 40, NoHit},
		{"dead ahead", []footprint{box(3, 10, 0, 0)}, 7.75, 3},
		{"side on", []footprint{box(3, 10, 0, math.Pi/2)}, 9.05, 3},
		{"beside the ray", []footprint{box(3, 10, 5, 0)}, 40, NoHit},
		{"behind", []footprint{box(3, -10, 0, 0)}, 40, NoHit},
		{"beyond reach", []footprint{box(3, 50, 0, 0)}, 40, NoHit},
		{"nearest wins", []footprint{box(4, 20, 0, 0), box(5, 10, 0.5, 0)}, 7.75, 5},
		{"inside", []footprint{box(6, 1, 0, 0)}, 0, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, hit := rayCast(track.Vec3{}, east, 40, tt.boxes)
			assert.InDelta(t, tt.dist, d, 1e-9)
			assert.Equal(t, tt.hit, hit)
		})
	}
}

func TestControllerCastsRaysForObserver(t *testing.T) {
	tr := cornerTrack(t)
	var frame DebugFrame
	c := NewController(0, tr, DefaultVehicleSpec(), 1, WithObserver(func(f DebugFrame) { frame = f }))

	self := snapshot(0, 22.5, 0, 0, 20)
	c.Update(Tick{DT: 0.05, Time: 0.05}, self, []VehicleSnapshot{self, snapshot(1, 35, 0, 0, 20)})

	cfg := DefaultConfig()
	require.Len(t, frame.Rays, cfg.RayCount)
	assert.InDelta(t, -cfg.RayFan/2*math.Pi/180, frame.Rays[0].Angle, 1e-9)
	assert.InDelta(t, cfg.RayFan/2*math.Pi/180, frame.Rays[cfg.RayCount-1].Angle, 1e-9)

	closest, ok := ClosestRay(frame.Rays)
	require.True(t, ok)
	assert.Equal(t, VehicleID(1), closest.Hit)
	assert.InDelta(t, 12.5-DefaultVehicleSpec().Length/2, closest.Dist, 1e-9)

	c.Update(Tick{DT: 0.05, Time: 0.1}, self, nil)
	for _, r := range frame.Rays {
		assert.Equal(t, NoHit, r.Hit)
		assert.Equal(t, cfg.RayLength, r.Dist)
	}

	_, ok = ClosestRay(nil)
	assert.False(t, ok)
}
