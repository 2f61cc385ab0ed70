package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/segmentio/ksuid"

	"racer-ai-core/driver"
	control "racer-ai-core/driver/longitudinal_control"
	"racer-ai-core/track"
	"racer-ai-core/utils"
)

type RunnerConfig struct {
	Interface    string // SocketCAN interface; empty keeps frames in memory
	MapPath      string // CAN map CSV; empty disables frame encoding
	ScenarioPath string
	FrameName    string // control frame, one per car per tick
	StatusFrame  string // status frame, one per car per log sample; optional
	CSVPath      string
	PlotPath     string

	// Writer replaces the socket writer when set.
	Writer utils.CANWriter
}

// simCar is the harness side of one AI car.
type simCar struct {
	name  string
	id    driver.VehicleID
	sim   *SimVehicle
	lap   lapTracker
	frame driver.DebugFrame
	trace carTrace

	lastState  driver.RecoveryState
	recoveries int
	maxSpeed   float64
}

// CarSummary is reported at the end of a run.
type CarSummary struct {
	Name       string
	Distance   float64
	Laps       int
	Recoveries int
	MaxSpeed   float64
	State      driver.RecoveryState
}

type Runner struct {
	cfg   RunnerConfig
	log   *utils.Logger
	runID ksuid.KSUID
	scen  Scenario
	track *track.Track
	grid  *driver.Grid
	cars  []*simCar

	cmap      *utils.CANMap
	writer    utils.CANWriter
	command   *utils.FramePublisher
	status    *utils.FramePublisher
	telemetry *Telemetry
}

func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger) (*Runner, error) {
	scen, err := LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	return newRunner(ctx, cfg, scen, log)
}

func newRunner(ctx context.Context, cfg RunnerConfig, scen Scenario, log *utils.Logger) (*Runner, error) {
	runID := ksuid.New()
	log = log.WithPrefix("[" + runID.String() + "]")

	tr, err := track.Build(scen.Track)
	if err != nil {
		return nil, fmt.Errorf("build track: %w", err)
	}
	log.Info("Track: %d patches, %.1f m, closed=%v, racing line=%v",
		len(tr.Patches), tr.Length(), tr.Closed, scen.Track.RacingLine)

	r := &Runner{
		cfg:   cfg,
		log:   log,
		runID: runID,
		scen:  scen,
		track: tr,
		grid:  driver.NewGrid(tr, log),
	}
	if err := r.registerCars(); err != nil {
		return nil, err
	}
	if err := r.openCAN(ctx); err != nil {
		return nil, err
	}
	if cfg.CSVPath != "" {
		r.telemetry, err = NewTelemetry(cfg.CSVPath, runID.String(), scen.Meta.Name)
		if err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

func (r *Runner) registerCars() error {
	for _, v := range r.scen.Vehicles {
		spec := driver.DefaultVehicleSpec()
		if v.Spec != nil {
			spec = *v.Spec
		}
		params := DefaultVehicleParams()
		if v.Physics != nil {
			params = v.Physics.withDefaults()
		}
		pos, yaw, err := startPose(r.track, v.Start)
		if err != nil {
			return fmt.Errorf("vehicle %s: %w", v.Name, err)
		}
		gear := 1
		if v.Start.Gear != nil {
			gear = *v.Start.Gear
		}

		c := &simCar{name: v.Name}
		opts := []driver.Option{driver.WithObserver(func(f driver.DebugFrame) { c.frame = f })}
		if r.scen.DriverConfig != nil {
			opts = append(opts, driver.WithConfig(*r.scen.DriverConfig))
		}
		c.id, err = r.grid.Register(v.Style, spec, v.Difficulty, opts...)
		if err != nil {
			return fmt.Errorf("vehicle %s: %w", v.Name, err)
		}
		c.sim = NewSimVehicle(params, spec, pos, yaw, v.Start.Speed, gear)
		c.lap.start(r.track, pos)
		c.trace.name = v.Name
		r.cars = append(r.cars, c)
	}
	return nil
}

func (r *Runner) openCAN(ctx context.Context) error {
	if r.cfg.MapPath == "" {
		r.log.Info("CAN: no map configured, frames disabled")
		return nil
	}
	cmap, err := utils.LoadCANMap(r.cfg.MapPath)
	if err != nil {
		return fmt.Errorf("load can map: %w", err)
	}
	r.cmap = cmap

	switch {
	case r.cfg.Writer != nil:
		r.writer = r.cfg.Writer
	case r.cfg.Interface != "":
		r.writer, err = utils.NewSocketCANWriter(ctx, r.cfg.Interface)
		if err != nil {
			return err
		}
	default:
		r.writer = utils.NewMemoryCANWriter(0)
	}

	inputs := lo.Map(lo.Range(int(driver.NumInputs)), func(i, _ int) string { return driver.Input(i).String() })
	r.command, err = utils.NewFramePublisher(cmap, r.cfg.FrameName, r.writer, r.log, inputs...)
	if err != nil {
		r.Close()
		return fmt.Errorf("frame: %w", err)
	}
	r.log.Info("Control frame %s id=0x%X, %d slots", r.command.Frame().Name, r.command.Frame().ID, len(inputs))
	if r.cfg.StatusFrame != "" {
		r.status, err = utils.NewFramePublisher(cmap, r.cfg.StatusFrame, r.writer, r.log)
		if err != nil {
			r.Close()
			return fmt.Errorf("status frame: %w", err)
		}
		r.log.Info("Status frame %s id=0x%X", r.status.Frame().Name, r.status.Frame().ID)
	}
	return nil
}

func (r *Runner) Close() {
	if r.telemetry != nil {
		if err := r.telemetry.Close(); err != nil {
			r.log.Error("Telemetry close: %v", err)
		}
		r.telemetry = nil
	}
	if r.writer != nil {
		_ = r.writer.Close()
		r.writer = nil
	}
}

func (r *Runner) Run(ctx context.Context) error {
	dt := r.scen.Timing.DtS
	steps := int(math.Round(r.scen.Timing.DurationS / dt))
	logEvery := 0
	if r.scen.Timing.LogHz > 0 {
		logEvery = max(1, int(math.Round(1/(r.scen.Timing.LogHz*dt))))
	}

	r.log.Info("Starting run: scenario=%s cars=%d dt=%.3fs duration=%.1fs real_time=%v",
		r.scen.Meta.Name, len(r.cars), dt, r.scen.Timing.DurationS, r.scen.Timing.RealTimeMode)

	var ticker *time.Ticker
	if r.scen.Timing.RealTimeMode {
		ticker = time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer ticker.Stop()
	}

	snaps := make([]driver.VehicleSnapshot, len(r.cars))
	for step := 1; step <= steps; step++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		now := float64(step) * dt
		for i, c := range r.cars {
			snaps[i] = c.sim.Snapshot(c.id)
		}
		inputs, err := r.grid.Update(ctx, driver.Tick{DT: dt, Time: now}, snaps)
		if err != nil {
			return err
		}

		for i, c := range r.cars {
			if state := r.grid.Controller(c.id).State(); state != c.lastState {
				if state == driver.Recovering {
					c.recoveries++
				}
				r.log.Debug("%s: %s -> %s at t=%.2f", c.name, c.lastState, state, now)
				c.lastState = state
			}
			c.sim.Step(inputs[i], dt)
			c.lap.update(r.track, c.sim.Pos)
			c.maxSpeed = math.Max(c.maxSpeed, c.sim.Speed)
			if err := r.publishControl(ctx, inputs[i], c); err != nil {
				r.log.Critical("Transmit failed at t=%.3f: %v", now, err)
				return err
			}
		}

		if logEvery > 0 && step%logEvery == 0 {
			if err := r.sample(ctx, now, snaps, inputs); err != nil {
				return err
			}
		}
	}

	r.report()
	if r.cfg.PlotPath != "" {
		traces := lo.Map(r.cars, func(c *simCar, _ int) *carTrace { return &c.trace })
		if err := saveTrajectoryPlot(r.cfg.PlotPath, r.scen.Meta.Name, r.track, traces); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		r.log.Info("Trajectory plot written to %s", r.cfg.PlotPath)
	}
	return nil
}

func (r *Runner) publishControl(ctx context.Context, in driver.ControlInputs, c *simCar) error {
	if r.command == nil {
		return nil
	}
	return r.command.Publish(ctx, int(c.id), in.Map())
}

// sample writes telemetry and status frames and extends the plot traces.
func (r *Runner) sample(ctx context.Context, now float64, snaps []driver.VehicleSnapshot, inputs []driver.ControlInputs) error {
	for i, c := range r.cars {
		c.trace.add(c.sim.Pos)
		if r.telemetry != nil {
			err := r.telemetry.Write(Sample{
				Time:     now,
				Car:      c.id,
				Name:     c.name,
				Snap:     snaps[i],
				Inputs:   inputs[i],
				Frame:    c.frame,
				Progress: c.lap.distance,
			})
			if err != nil {
				return fmt.Errorf("telemetry: %w", err)
			}
		}
		if r.status != nil {
			values := map[string]float64{
				"recovering":   control.BoolToFloat(c.frame.State == driver.Recovering),
				"brake_ahead":  control.BoolToFloat(c.frame.Plan.BrakeAhead),
				"gear":         float64(c.sim.Gear),
				"speed":        c.sim.Speed,
				"speed_limit":  c.frame.Plan.Limit,
				"lap_distance": c.lap.distance,
			}
			if err := r.status.Publish(ctx, int(c.id), values); err != nil {
				return err
			}
		}
		r.log.Trace("%s t=%.2f pos=(%.1f, %.1f) v=%.2f gear=%d state=%s",
			c.name, now, c.sim.Pos.X, c.sim.Pos.Y, c.sim.Speed, c.sim.Gear, c.frame.State)
	}
	return nil
}

func (r *Runner) Summaries() []CarSummary {
	return lo.Map(r.cars, func(c *simCar, _ int) CarSummary {
		return CarSummary{
			Name:       c.name,
			Distance:   c.lap.covered(r.track),
			Laps:       c.lap.laps,
			Recoveries: c.recoveries,
			MaxSpeed:   c.maxSpeed,
			State:      r.grid.Controller(c.id).State(),
		}
	})
}

func (r *Runner) report() {
	for _, s := range r.Summaries() {
		r.log.Info("%s: distance=%.1fm laps=%d max_speed=%.1fm/s recoveries=%d state=%s",
			s.Name, s.Distance, s.Laps, s.MaxSpeed, s.Recoveries, s.State)
	}
	if r.command != nil {
		r.log.Info("Completed run. frames_sent=%d", r.command.Sent())
	}
}

// lapTracker follows a car's progress along the centerline.
type lapTracker struct {
	hint      *track.Patch
	startDist float64
	distance  float64 // along the current lap
	laps      int
}

func (l *lapTracker) start(tr *track.Track, pos track.Vec3) {
	l.update(tr, pos)
	l.startDist = l.distance
}

func (l *lapTracker) update(tr *track.Track, pos track.Vec3) {
	p, _ := tr.NearestPatch(pos, l.hint)
	if p == nil {
		return
	}
	l.hint = p
	_, frac := track.ClosestCenterPoint(p, pos)
	d := p.DistFromStart + frac*track.Length(p)
	if tr.Closed && d < l.distance-tr.Length()/2 {
		l.laps++
	}
	if tr.Closed && d > l.distance+tr.Length()/2 && l.laps > 0 {
		l.laps--
	}
	l.distance = d
}

// covered is the distance driven since the start.
func (l *lapTracker) covered(tr *track.Track) float64 {
	return float64(l.laps)*tr.Length() + l.distance - l.startDist
}
