package control

// ShiftCommand is the shifter's output for one tick.
type ShiftCommand struct {
	Up     bool
	Down   bool
	Clutch float64 // 1 = pedal pressed
}

// Shifter decides gear changes and holds the clutch during a shift.
type Shifter struct {
	cfg       GearConfig
	shiftTime float64 // remaining time of the shift in progress
}

func NewShifter(cfg GearConfig) *Shifter {
	return &Shifter{cfg: cfg}
}

// Update decides whether to request a gear change. Gear 0 is neutral,
// negative gears are reverse and are left alone. During recovery no gear is
// selected.
func (s *Shifter) Update(dt float64, gear int, rpm, speed, throttle float64, recovering bool) ShiftCommand {
	if s.shiftTime > 0 {
		s.shiftTime -= dt
		if s.shiftTime > 0 {
			return ShiftCommand{Clutch: 1}
		}
		s.shiftTime = 0
	}
	if recovering || gear < 0 {
		return ShiftCommand{}
	}

	var cmd ShiftCommand
	switch {
	case gear == 0 && throttle > 0:
		cmd.Up = true
	case gear > 1 && speed < s.cfg.StopSpeed:
		cmd.Down = true
	case gear > 0 && gear < s.cfg.TopGear && throttle > 0 && rpm > s.cfg.UpshiftRPM:
		cmd.Up = true
	case gear > 1 && rpm < s.cfg.DownshiftRPM:
		cmd.Down = true
	}
	if cmd.Up || cmd.Down {
		s.shiftTime = s.cfg.ShiftTime
		cmd.Clutch = 1
	}
	return cmd
}

// Shifting reports whether a shift is in progress.
func (s *Shifter) Shifting() bool { return s.shiftTime > 0 }

func (s *Shifter) Reset() { s.shiftTime = 0 }
