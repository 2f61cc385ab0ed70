package driver

import (
	control "racer-ai-core/driver/longitudinal_control"
	"racer-ai-core/track"
	"racer-ai-core/utils"
)

// RacingLineDifficulty is the difficulty from which the controller follows
// the racing line instead of the lane center.
const RacingLineDifficulty = 0.3

// TrackQuery is the part of the track the controller needs.
type TrackQuery interface {
	PatchAt(pos track.Vec3, hint *track.Patch) *track.Patch
	NearestPatch(pos track.Vec3, hint *track.Patch) (*track.Patch, float64)
}

// Controller is the standard driver: one per AI vehicle. It is not safe for
// concurrent use; the Grid gives each controller its own goroutine per tick.
type Controller struct {
	id         VehicleID
	track      TrackQuery
	spec       VehicleSpec
	cfg        Config
	difficulty float64

	useRacingLine bool
	speedScale    float64

	log      *utils.Logger
	observer Observer

	lastPatch *track.Patch
	friction  frictionEstimator
	others    analyzer
	recovery  recovery
	gasBrake  *control.GasBrake
	shifter   *control.Shifter

	inputs ControlInputs
	ticks  uint64
}

// Options are the settings every driver style accepts.
type Options struct {
	Logger   *utils.Logger
	Observer Observer
	Config   *Config
}

type Option func(*Options)

func WithLogger(l *utils.Logger) Option { return func(o *Options) { o.Logger = l } }

func WithObserver(fn Observer) Option { return func(o *Options) { o.Observer = fn } }

func WithConfig(cfg Config) Option { return func(o *Options) { o.Config = &cfg } }

func buildOptions(opts []Option) Options {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// NewController creates the standard driver for vehicle id. Difficulty is
// clamped to [0, 1]; zero fields of the vehicle spec and config take their defaults.
func NewController(id VehicleID, tq TrackQuery, spec VehicleSpec, difficulty float64, opts ...Option) *Controller {
	o := buildOptions(opts)
	cfg := DefaultConfig()
	if o.Config != nil {
		cfg = o.Config.withDefaults()
	}
	spec = spec.withDefaults()
	if !finite(difficulty) {
		difficulty = 0
	}
	difficulty = control.ClampFloat(difficulty, 0, 1)

	c := &Controller{
		id:            id,
		track:         tq,
		spec:          spec,
		cfg:           cfg,
		difficulty:    difficulty,
		useRacingLine: difficulty >= RacingLineDifficulty,
		speedScale:    0.8 + 0.2*difficulty,
		log:           o.Logger,
		observer:      o.Observer,
		friction:      newFrictionEstimator(cfg),
		others:        newAnalyzer(cfg, spec, difficulty),
		recovery:      recovery{cfg: cfg},
		gasBrake:      control.NewGasBrake(cfg.GasBrake),
		shifter: control.NewShifter(control.GearConfig{
			TopGear:      spec.TopGear,
			UpshiftRPM:   spec.UpshiftRPM,
			DownshiftRPM: spec.DownshiftRPM,
			StallRPM:     spec.StallRPM,
			ShiftTime:    control.DefaultGearConfig().ShiftTime,
			StopSpeed:    control.DefaultGearConfig().StopSpeed,
		}),
	}
	c.log.Debug("driver %d: difficulty %.2f racing line %v speed scale %.2f", id, difficulty, c.useRacingLine, c.speedScale)
	return c
}

func (s VehicleSpec) withDefaults() VehicleSpec {
	d := DefaultVehicleSpec()
	if s.MaxSteeringAngle <= 0 {
		s.MaxSteeringAngle = d.MaxSteeringAngle
	}
	if s.OptimumSteeringAngle <= 0 || s.OptimumSteeringAngle > s.MaxSteeringAngle {
		s.OptimumSteeringAngle = min(d.OptimumSteeringAngle, s.MaxSteeringAngle)
	}
	if s.Length <= 0 {
		s.Length = d.Length
	}
	if s.Width <= 0 {
		s.Width = d.Width
	}
	if s.TopGear <= 0 {
		s.TopGear = d.TopGear
	}
	if s.UpshiftRPM <= 0 {
		s.UpshiftRPM = d.UpshiftRPM
	}
	if s.DownshiftRPM <= 0 {
		s.DownshiftRPM = d.DownshiftRPM
	}
	if s.StallRPM <= 0 {
		s.StallRPM = d.StallRPM
	}
	return s
}

// Update computes this tick's control inputs. A snapshot or tick with
// non-finite values leaves the previous inputs in place and returns them.
func (c *Controller) Update(tick Tick, self VehicleSnapshot, others []VehicleSnapshot) ControlInputs {
	c.ticks++
	if !self.IsFinite() || !finite(tick.DT) || !finite(tick.Time) || tick.DT < 0 {
		c.log.Warn("driver %d tick %d: non-finite state, holding previous inputs", c.id, c.ticks)
		// a held toggle would flip the aid again
		c.inputs[ABS], c.inputs[TCS] = 0, 0
		return c.inputs
	}

	c.friction.update(self.Tires)
	longMu, latMu := c.friction.longitudinal(), c.friction.lateral()
	speed := self.ForwardSpeed()

	patch := c.track.PatchAt(self.Position, c.lastPatch)
	var nearest *track.Patch
	var nearestDist float64
	if patch == nil || c.recovery.state == Recovering {
		nearest, nearestDist = c.track.NearestPatch(self.Position, c.lastPatch)
	}
	switch {
	case patch != nil:
		c.lastPatch = patch
	case nearest != nil:
		// follow the car along the road while it is off it
		c.lastPatch = nearest
	}
	ref := c.lastPatch

	c.others.analyze(self, ref, others)

	frame := DebugFrame{
		Vehicle: c.id,
		Time:    tick.Time,
		Patch:   patch,
		LongMu:  longMu,
		LatMu:   latMu,
	}
	if c.observer != nil {
		frame.Rays = c.castRays(self, others)
	}

	prev, elapsed := c.recovery.state, c.recovery.elapsed(tick.Time)
	c.recovery.update(tick.Time, patch, nearest, nearestDist, self, speed)
	if state := c.recovery.state; state != prev {
		if state == Recovering {
			c.log.Info("driver %d: off-track at t=%.2f, recovering", c.id, tick.Time)
		} else {
			c.log.Info("driver %d: recovery ended after %.2fs (on patch %v)", c.id, elapsed, patch != nil)
		}
	}
	frame.State = c.recovery.state

	if c.recovery.state == Recovering {
		in, target := c.recoverInputs(self, nearest, speed, tick.DT)
		c.gasBrake.Reset()
		c.shifter.Reset()
		frame.SteerDest = target
		return c.commit(in, frame)
	}

	if ref == nil {
		// no patch known: coast straight until recovery kicks in
		var in ControlInputs
		in[Steer] = c.limitSteer(0, tick.DT)
		c.driverAids(self, &in)
		return c.commit(in, frame)
	}

	plan := PlanSpeed(ref, self.Position, speed, latMu, longMu, c.speedScale, c.cfg.MaxLookaheadPatches)
	frame.Plan = plan

	frame.SteerBias = c.others.steerBias()
	st := c.steer(self, ref, speed, tick.DT, frame.SteerBias)
	frame.SteerLook, frame.SteerDest = st.look, st.dest

	frame.BrakeBias = c.others.brakeBias()
	gb := c.gasBrake.Update(control.GasBrakeInput{
		SpeedLimit:   plan.Limit,
		CurrentSpeed: speed,
		BrakeAhead:   plan.BrakeAhead,
		OthersBrake:  frame.BrakeBias,
		DT:           tick.DT,
	})
	shift := c.shifter.Update(tick.DT, self.Gear, self.RPM, speed, gb.Throttle, false)

	var in ControlInputs
	in[Steer] = st.value
	in[Throttle] = gb.Throttle
	in[Brake] = gb.Brake
	in[Clutch] = shift.Clutch
	in[ShiftUp] = control.BoolToFloat(shift.Up)
	in[ShiftDown] = control.BoolToFloat(shift.Down)
	c.driverAids(self, &in)
	in[StartEngine] = control.BoolToFloat(self.RPM < c.spec.StallRPM)
	frame.ThrottlePID = c.gasBrake.PID().GetDiagnostics()

	if c.log.Enabled(utils.TRACE) {
		pid := frame.ThrottlePID
		c.log.Trace("driver %d t=%.2f v=%.2f limit=%.2f brakeAhead=%v mode=%s steer=%.3f pid e=%.2f p=%.3f i=%.3f",
			c.id, tick.Time, speed, plan.Limit, plan.BrakeAhead, control.GetControlModeStr(gb), st.value, pid.Error, pid.P, pid.I)
	}
	return c.commit(in, frame)
}

// driverAids keeps ABS and TCS on. The slots are toggles, so a one-tick
// pulse goes out only while the reported state is off, and never on two
// ticks in a row so a physics layer one tick behind does not flip it back.
func (c *Controller) driverAids(self VehicleSnapshot, in *ControlInputs) {
	in[ABS] = control.BoolToFloat(!self.ABS && c.inputs[ABS] == 0)
	in[TCS] = control.BoolToFloat(!self.TCS && c.inputs[TCS] == 0)
}

func (c *Controller) commit(in ControlInputs, frame DebugFrame) ControlInputs {
	c.inputs = in
	if c.observer != nil {
		frame.Inputs = in
		c.observer(frame)
	}
	return in
}

func (c *Controller) ID() VehicleID { return c.id }

// Inputs returns the most recent control inputs.
func (c *Controller) Inputs() ControlInputs { return c.inputs }

func (c *Controller) State() RecoveryState { return c.recovery.state }

func (c *Controller) Difficulty() float64 { return c.difficulty }

// Friction returns the current longitudinal and lateral estimates.
func (c *Controller) Friction() (float64, float64) {
	return c.friction.longitudinal(), c.friction.lateral()
}

// Other returns what the controller knows about another vehicle.
func (c *Controller) Other(id VehicleID) (OtherCarInfo, bool) { return c.others.other(id) }

// Reset returns the controller to its just-created state, for a restart.
func (c *Controller) Reset() {
	c.lastPatch = nil
	c.friction.reset()
	c.others.reset()
	c.recovery.reset()
	c.gasBrake.Reset()
	c.shifter.Reset()
	c.inputs = ControlInputs{}
	c.ticks = 0
}
