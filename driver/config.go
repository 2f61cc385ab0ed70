package driver

import (
	"encoding/json"

	control "racer-ai-core/driver/longitudinal_control"
)

// Gravity used by the speed planner (m/s²).
const Gravity = 9.8

// Config holds every tuning constant of the standard driver.
//
// NewController repairs a Config before use: fields that must be positive
// take their DefaultConfig value when zero or negative. Fields where zero is
// a valid setting (SlideFrictionReduction, LookaheadTime, CrossTrackGain,
// BackWindow, AvoidanceGain, MinClosing, RecoveryGrace, RayCount) are kept
// as given and only reset when negative, so a Config literal that names a
// few fields gets zero for those. Start from DefaultConfig to change single
// values; decoding JSON does that, so omitted keys keep their defaults and
// an explicit 0 stays 0.
type Config struct {
	// Friction estimator
	DefaultFriction        float64 `json:"default_friction"`
	LongFrictionFactor     float64 `json:"long_friction_factor"`
	LatFrictionFactor      float64 `json:"lat_friction_factor"`
	MaxFrictionStep        float64 `json:"max_friction_step"`
	SlideFrictionReduction float64 `json:"slide_friction_reduction"`

	// Speed planner
	MaxLookaheadPatches int `json:"max_lookahead_patches"`

	// Steering
	LookaheadMin   float64 `json:"lookahead_min"`
	LookaheadTime  float64 `json:"lookahead_time"`
	CrossTrackGain float64 `json:"cross_track_gain"`
	MaxSteerRate   float64 `json:"max_steer_rate"` // full-scale units per second

	// Other-vehicle analyzer
	LateralWindow float64 `json:"lateral_window"`
	ForeWindow    float64 `json:"fore_window"`
	BackWindow    float64 `json:"back_window"`
	BrakeLateral  float64 `json:"brake_lateral"`
	Spacing       float64 `json:"spacing"`
	AvoidanceGain float64 `json:"avoidance_gain"`
	EtaFull       float64 `json:"eta_full"`
	EtaNone       float64 `json:"eta_none"`
	MinClosing    float64 `json:"min_closing"`

	// Debug ray fan, cast only when an observer is set
	RayCount  int     `json:"ray_count"`
	RayFan    float64 `json:"ray_fan_deg"` // full spread, centered on the heading
	RayLength float64 `json:"ray_length"`

	// Recovery
	RecoveryGrace           float64 `json:"recovery_grace_s"`
	StallSpeed              float64 `json:"stall_speed"`
	StallTime               float64 `json:"stall_time_s"`
	MaxRecoverTime          float64 `json:"max_recover_time_s"`
	RecoverTolerance        float64 `json:"recover_tolerance"`
	RecoverHeadingTolerance float64 `json:"recover_heading_tolerance_deg"`
	RecoverLookahead        float64 `json:"recover_lookahead"`
	RecoverThrottle         float64 `json:"recover_throttle"`
	RecoverMaxSpeed         float64 `json:"recover_max_speed"`

	GasBrake control.GasBrakeConfig `json:"gas_brake"`
}

func DefaultConfig() Config {
	return Config{
		DefaultFriction:        1.0,
		LongFrictionFactor:     0.9,
		LatFrictionFactor:      0.65,
		MaxFrictionStep:        0.05,
		SlideFrictionReduction: 0.3,

		MaxLookaheadPatches: 64,

		LookaheadMin:   5,
		LookaheadTime:  0.6,
		CrossTrackGain: 0.3,
		MaxSteerRate:   4.0,

		LateralWindow: 6,
		ForeWindow:    30,
		BackWindow:    5,
		BrakeLateral:  2.5,
		Spacing:       3.5,
		AvoidanceGain: 0.5,
		EtaFull:       1,
		EtaNone:       5,
		MinClosing:    0.1,

		RayCount:  7,
		RayFan:    60,
		RayLength: 40,

		RecoveryGrace:           0.5,
		StallSpeed:              0.5,
		StallTime:               0.25,
		MaxRecoverTime:          10,
		RecoverTolerance:        1,
		RecoverHeadingTolerance: 45,
		RecoverLookahead:        8,
		RecoverThrottle:         0.4,
		RecoverMaxSpeed:         10,

		GasBrake: control.DefaultGasBrakeConfig(),
	}
}

// UnmarshalJSON decodes over DefaultConfig, so absent keys keep defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	p := plain(DefaultConfig())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Config(p)
	return nil
}

// withDefaults repairs c as described on Config.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	keep := func(v *float64, def float64) {
		if *v < 0 {
			*v = def
		}
	}
	fill(&c.DefaultFriction, d.DefaultFriction)
	fill(&c.LongFrictionFactor, d.LongFrictionFactor)
	fill(&c.LatFrictionFactor, d.LatFrictionFactor)
	fill(&c.MaxFrictionStep, d.MaxFrictionStep)
	keep(&c.SlideFrictionReduction, d.SlideFrictionReduction)
	if c.MaxLookaheadPatches <= 0 {
		c.MaxLookaheadPatches = d.MaxLookaheadPatches
	}
	fill(&c.LookaheadMin, d.LookaheadMin)
	keep(&c.LookaheadTime, d.LookaheadTime)
	keep(&c.CrossTrackGain, d.CrossTrackGain)
	fill(&c.MaxSteerRate, d.MaxSteerRate)
	fill(&c.LateralWindow, d.LateralWindow)
	fill(&c.ForeWindow, d.ForeWindow)
	keep(&c.BackWindow, d.BackWindow)
	fill(&c.BrakeLateral, d.BrakeLateral)
	fill(&c.Spacing, d.Spacing)
	keep(&c.AvoidanceGain, d.AvoidanceGain)
	fill(&c.EtaFull, d.EtaFull)
	fill(&c.EtaNone, d.EtaNone)
	keep(&c.MinClosing, d.MinClosing)
	if c.RayCount < 0 {
		c.RayCount = d.RayCount
	}
	fill(&c.RayFan, d.RayFan)
	fill(&c.RayLength, d.RayLength)
	keep(&c.RecoveryGrace, d.RecoveryGrace)
	fill(&c.StallSpeed, d.StallSpeed)
	fill(&c.StallTime, d.StallTime)
	fill(&c.MaxRecoverTime, d.MaxRecoverTime)
	fill(&c.RecoverTolerance, d.RecoverTolerance)
	fill(&c.RecoverHeadingTolerance, d.RecoverHeadingTolerance)
	fill(&c.RecoverLookahead, d.RecoverLookahead)
	fill(&c.RecoverThrottle, d.RecoverThrottle)
	fill(&c.RecoverMaxSpeed, d.RecoverMaxSpeed)
	if c.GasBrake.MaxSpeedDiff <= 0 {
		c.GasBrake = d.GasBrake
	}
	if c.GasBrake.PID == (control.PIDConfig{}) {
		c.GasBrake.PID = d.GasBrake.PID
	}
	return c
}
