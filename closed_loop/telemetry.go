package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"racer-ai-core/driver"
	control "racer-ai-core/driver/longitudinal_control"
)

var telemetryColumns = []string{
	"t_s", "car", "name", "x", "y", "yaw_deg", "speed_mps", "gear", "rpm",
	"state", "steer", "throttle", "brake", "clutch", "shift_up", "shift_down",
	"speed_limit", "brake_ahead", "steer_bias", "brake_bias", "lat_mu", "ray_min_m", "lap_distance_m",
}

// Sample is one telemetry row
type Sample struct {
	Time     float64
	Car      driver.VehicleID
	Name     string
	Snap     driver.VehicleSnapshot
	Inputs   driver.ControlInputs
	Frame    driver.DebugFrame
	Progress float64
}

// Telemetry writes samples as CSV. The first line is a comment carrying the
// run id.
type Telemetry struct {
	f    *os.File
	w    *csv.Writer
	rows int
}

func NewTelemetry(path, runID, scenario string) (*Telemetry, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create telemetry: %w", err)
	}
	if _, err := fmt.Fprintf(f, "# run_id=%s scenario=%s\n", runID, scenario); err != nil {
		f.Close()
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(telemetryColumns); err != nil {
		f.Close()
		return nil, err
	}
	return &Telemetry{f: f, w: w}, nil
}

func (t *Telemetry) Write(s Sample) error {
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	in := s.Inputs
	rayMin := ""
	if r, ok := driver.ClosestRay(s.Frame.Rays); ok {
		rayMin = ff(r.Dist)
	}
	rec := []string{
		ff(s.Time),
		strconv.Itoa(int(s.Car)),
		s.Name,
		ff(s.Snap.Position.X),
		ff(s.Snap.Position.Y),
		ff(s.Snap.Yaw * 180 / math.Pi),
		ff(s.Snap.ForwardSpeed()),
		strconv.Itoa(s.Snap.Gear),
		ff(s.Snap.RPM),
		s.Frame.State.String(),
		ff(in[driver.Steer]),
		ff(in[driver.Throttle]),
		ff(in[driver.Brake]),
		ff(in[driver.Clutch]),
		ff(in[driver.ShiftUp]),
		ff(in[driver.ShiftDown]),
		ff(s.Frame.Plan.Limit),
		strconv.Itoa(control.BoolToInt(s.Frame.Plan.BrakeAhead)),
		ff(s.Frame.SteerBias),
		ff(s.Frame.BrakeBias),
		ff(s.Frame.LatMu),
		rayMin,
		ff(s.Progress),
	}
	if err := t.w.Write(rec); err != nil {
		return err
	}
	t.rows++
	return nil
}

func (t *Telemetry) Rows() int { return t.rows }

func (t *Telemetry) Close() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		t.f.Close()
		return err
	}
	return t.f.Close()
}
