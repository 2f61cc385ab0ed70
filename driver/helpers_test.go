package driver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"racer-ai-core/track"
)

func buildTrack(t *testing.T, closed bool, sections ...track.Section) *track.Track {
	t.Helper()
	tr, err := track.Build(track.Def{Width: 10, PatchLength: 5, Closed: closed, Sections: sections})
	require.NoError(t, err)
	return tr
}

func groundedTires(mu float64) [4]TireState {
	var tires [4]TireState
	for i := range tires {
		tires[i] = TireState{Contact: true, Load: 4000, MaxLongForce: 4000 * mu, MaxLatForce: 4000 * mu}
	}
	return tires
}

func snapshot(id VehicleID, x, y, yaw, speed float64) VehicleSnapshot {
	return VehicleSnapshot{
		ID:       id,
		Position: track.Vec3{X: x, Y: y},
		Yaw:      yaw,
		Velocity: track.Heading(yaw).Scale(speed),
		Tires:    groundedTires(1),
		Gear:     3,
		RPM:      4000,
		ABS:      true,
		TCS:      true,
	}
}
