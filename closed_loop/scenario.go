package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"racer-ai-core/driver"
	control "racer-ai-core/driver/longitudinal_control"
	"racer-ai-core/track"
)

// Scenario defines a complete closed-loop session
type Scenario struct {
	Meta         ScenarioMeta            `json:"meta"`
	Timing       ScenarioTiming          `json:"timing"`
	Track        track.Def               `json:"track"`
	Vehicles     []VehicleSetup          `json:"vehicles"`
	DriverConfig *driver.Config          `json:"driver_config,omitempty"` // Optional tuning for every standard driver
	GasBrake     *control.GasBrakeConfig `json:"gas_brake,omitempty"`     // Optional gas/brake override
}

// ScenarioMeta contains scenario metadata
type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// ScenarioTiming defines timing parameters
type ScenarioTiming struct {
	DtS          float64 `json:"dt_s"`
	DurationS    float64 `json:"duration_s"`
	LogHz        float64 `json:"log_hz"`
	RealTimeMode bool    `json:"real_time_mode"`
}

// VehicleSetup places one AI car on the grid
type VehicleSetup struct {
	Name       string              `json:"name"`
	Style      string              `json:"style,omitempty"` // driver style, default "standard"
	Difficulty float64             `json:"difficulty"`
	Spec       *driver.VehicleSpec `json:"spec,omitempty"`
	Physics    *VehicleParams      `json:"physics,omitempty"`
	Start      StartPose           `json:"start"`
}

// StartPose is a position along the track centerline
type StartPose struct {
	Distance float64 `json:"distance_m"` // from the start of the first patch
	Lateral  float64 `json:"lateral_m"`  // positive to the right
	Speed    float64 `json:"speed_mps"`
	Gear     *int    `json:"gear,omitempty"`
}

// LoadScenario loads a scenario from JSON file
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario
func ParseScenario(data []byte) (Scenario, error) {
	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}

	if scen.Timing.DtS <= 0 || math.IsNaN(scen.Timing.DtS) {
		return Scenario{}, fmt.Errorf("invalid dt_s: %f", scen.Timing.DtS)
	}
	if scen.Timing.DurationS <= 0 {
		return Scenario{}, fmt.Errorf("invalid duration_s: %f", scen.Timing.DurationS)
	}
	if scen.Timing.DtS > scen.Timing.DurationS {
		return Scenario{}, fmt.Errorf("dt_s %f longer than duration_s %f", scen.Timing.DtS, scen.Timing.DurationS)
	}
	if scen.Timing.LogHz < 0 {
		return Scenario{}, fmt.Errorf("invalid log_hz: %f", scen.Timing.LogHz)
	}
	if len(scen.Vehicles) == 0 {
		return Scenario{}, fmt.Errorf("scenario has no vehicles")
	}
	if len(scen.Vehicles) > driver.MaxVehicles {
		return Scenario{}, fmt.Errorf("scenario has %d vehicles, at most %d", len(scen.Vehicles), driver.MaxVehicles)
	}

	for i := range scen.Vehicles {
		v := &scen.Vehicles[i]
		if v.Name == "" {
			v.Name = fmt.Sprintf("car%d", i)
		}
		if v.Difficulty < 0 || v.Difficulty > 1 {
			return Scenario{}, fmt.Errorf("vehicle %s: difficulty %f outside [0, 1]", v.Name, v.Difficulty)
		}
		if _, err := driver.LookupFactory(v.Style); err != nil {
			return Scenario{}, fmt.Errorf("vehicle %s: %w (known: %v)", v.Name, err, driver.Styles())
		}
		if v.Start.Distance < 0 || v.Start.Speed < 0 {
			return Scenario{}, fmt.Errorf("vehicle %s: negative start distance or speed", v.Name)
		}
	}

	if scen.GasBrake != nil {
		if scen.GasBrake.MaxSpeedDiff <= 0 {
			return Scenario{}, fmt.Errorf("gas_brake: invalid max_speed_diff %f", scen.GasBrake.MaxSpeedDiff)
		}
		if scen.DriverConfig == nil {
			cfg := driver.DefaultConfig()
			scen.DriverConfig = &cfg
		}
		scen.DriverConfig.GasBrake = *scen.GasBrake
	}

	return scen, nil
}

// startPose resolves a start pose against the built track: the position on
// the centerline at the given distance, shifted sideways, and the heading of
// that patch.
func startPose(tr *track.Track, pose StartPose) (track.Vec3, float64, error) {
	d := pose.Distance
	if tr.Closed {
		d = math.Mod(d, tr.Length())
	}
	var p *track.Patch
	for _, cand := range tr.Patches {
		if cand.DistFromStart <= d {
			p = cand
		}
	}
	if p == nil || d > tr.Length() {
		return track.Vec3{}, 0, fmt.Errorf("start distance %f beyond track length %f", pose.Distance, tr.Length())
	}

	l := track.Length(p)
	frac := 0.0
	if l > 0 {
		frac = math.Min((d-p.DistFromStart)/l, 1)
	}
	center := track.Lerp(track.BackCenter(p), track.FrontCenter(p), frac)
	if math.Abs(pose.Lateral) > track.Width(p)/2 {
		return track.Vec3{}, 0, fmt.Errorf("lateral offset %f outside the road", pose.Lateral)
	}
	pos := center.Add(track.WidthVector(p).Flat().Normalize().Scale(pose.Lateral))

	dir := track.Direction(p)
	return pos, math.Atan2(dir.Y, dir.X), nil
}
