package driver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	control "racer-ai-core/driver/longitudinal_control"
)

func TestConfigJSONKeepsDefaultsAndExplicitZeros(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"cross_track_gain": 0, "back_window": 0, "lookahead_min": 7}`), &cfg))

	d := DefaultConfig()
	assert.Equal(t, 0.0, cfg.CrossTrackGain)
	assert.Equal(t, 0.0, cfg.BackWindow)
	assert.Equal(t, 7.0, cfg.LookaheadMin)
	assert.Equal(t, d.ForeWindow, cfg.ForeWindow)
	assert.Equal(t, d.GasBrake, cfg.GasBrake)

	c := NewController(0, cornerTrack(t), DefaultVehicleSpec(), 1, WithConfig(cfg))
	assert.Equal(t, 0.0, c.cfg.CrossTrackGain)
	assert.Equal(t, 0.0, c.cfg.BackWindow)
	assert.Equal(t, 7.0, c.cfg.LookaheadMin)
}

func TestConfigRepair(t *testing.T) {
	d := DefaultConfig()
	cfg := DefaultConfig()
	cfg.CrossTrackGain = -1
	cfg.MaxRecoverTime = 0
	cfg.MaxSteerRate = -3
	cfg.RayCount = 0
	cfg.GasBrake.PID = control.PIDConfig{}

	got := cfg.withDefaults()
	assert.Equal(t, d.CrossTrackGain, got.CrossTrackGain, "negative gains are reset")
	assert.Equal(t, d.MaxRecoverTime, got.MaxRecoverTime, "zero durations are invalid")
	assert.Equal(t, d.MaxSteerRate, got.MaxSteerRate)
	assert.Equal(t, 0, got.RayCount, "zero rays disables the fan")
	assert.Equal(t, d.GasBrake.PID, got.GasBrake.PID)
}
