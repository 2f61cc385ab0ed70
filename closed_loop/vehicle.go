package main

import (
	"math"

	"racer-ai-core/driver"
	control "racer-ai-core/driver/longitudinal_control"
	"racer-ai-core/track"
)

// VehicleParams describes the simplified plant the harness drives.
type VehicleParams struct {
	MassKg        float64   `json:"mass_kg"`
	WheelbaseM    float64   `json:"wheelbase_m"`
	MaxAccel      float64   `json:"max_accel_mps2"`       // first gear, full throttle
	MaxBrakeDecel float64   `json:"max_brake_decel_mps2"` // full brake
	DragPerM      float64   `json:"drag_per_m"`           // decel = drag * v²
	RollingDecel  float64   `json:"rolling_decel_mps2"`
	Mu            float64   `json:"mu"`
	GearRatios    []float64 `json:"gear_ratios"`
	FinalDrive    float64   `json:"final_drive"`
	WheelRadiusM  float64   `json:"wheel_radius_m"`
	IdleRPM       float64   `json:"idle_rpm"`
	RedlineRPM    float64   `json:"redline_rpm"`
}

func DefaultVehicleParams() VehicleParams {
	return VehicleParams{
		MassKg:        1200,
		WheelbaseM:    2.6,
		MaxAccel:      6.0,
		MaxBrakeDecel: 11.0,
		DragPerM:      0.0004,
		RollingDecel:  0.15,
		Mu:            1.0,
		GearRatios:    []float64{3.2, 2.1, 1.5, 1.2, 1.0, 0.85},
		FinalDrive:    3.9,
		WheelRadiusM:  0.32,
		IdleRPM:       900,
		RedlineRPM:    7200,
	}
}

// withDefaults fills unset fields; gear ratios are taken as a whole.
func (p VehicleParams) withDefaults() VehicleParams {
	d := DefaultVehicleParams()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&p.MassKg, d.MassKg)
	fill(&p.WheelbaseM, d.WheelbaseM)
	fill(&p.MaxAccel, d.MaxAccel)
	fill(&p.MaxBrakeDecel, d.MaxBrakeDecel)
	fill(&p.Mu, d.Mu)
	fill(&p.FinalDrive, d.FinalDrive)
	fill(&p.WheelRadiusM, d.WheelRadiusM)
	fill(&p.IdleRPM, d.IdleRPM)
	fill(&p.RedlineRPM, d.RedlineRPM)
	if p.DragPerM < 0 {
		p.DragPerM = d.DragPerM
	}
	if p.RollingDecel < 0 {
		p.RollingDecel = d.RollingDecel
	}
	if len(p.GearRatios) == 0 {
		p.GearRatios = d.GearRatios
	}
	return p
}

// SimVehicle is a kinematic bicycle model with a lumped drivetrain. Speed
// never goes negative; there is no reverse.
type SimVehicle struct {
	p    VehicleParams
	spec driver.VehicleSpec

	Pos      track.Vec3
	Yaw      float64
	Speed    float64
	Gear     int
	RPM      float64
	EngineOn bool
	ABS, TCS bool

	slide            float64
	lastUp, lastDown bool
}

func NewSimVehicle(p VehicleParams, spec driver.VehicleSpec, pos track.Vec3, yaw, speed float64, gear int) *SimVehicle {
	gear = min(max(gear, 0), len(p.GearRatios))
	v := &SimVehicle{p: p, spec: spec, Pos: pos, Yaw: yaw, Speed: speed, Gear: gear, EngineOn: true, ABS: true, TCS: true}
	v.updateRPM()
	return v
}

// Step advances the vehicle by dt under the given inputs.
func (v *SimVehicle) Step(in driver.ControlInputs, dt float64) {
	if in[driver.StartEngine] > 0 {
		v.EngineOn = true
	}
	if in[driver.ABS] != 0 {
		v.ABS = !v.ABS
	}
	if in[driver.TCS] != 0 {
		v.TCS = !v.TCS
	}

	// shift requests act on the rising edge
	up, down := in[driver.ShiftUp] > 0, in[driver.ShiftDown] > 0
	if up && !v.lastUp && v.Gear < len(v.p.GearRatios) {
		v.Gear++
	}
	if down && !v.lastDown && v.Gear > 1 {
		v.Gear--
	}
	v.lastUp, v.lastDown = up, down

	throttle := control.ClampFloat(in[driver.Throttle], 0, 1)
	brake := control.ClampFloat(in[driver.Brake], 0, 1)
	clutch := control.ClampFloat(in[driver.Clutch], 0, 1)

	var drive float64
	if v.EngineOn && v.Gear > 0 && v.RPM < v.p.RedlineRPM {
		drive = throttle * (1 - clutch) * v.p.MaxAccel * v.p.GearRatios[v.Gear-1] / v.p.GearRatios[0]
	}
	grip := v.p.Mu * driver.Gravity
	drive = math.Min(drive, grip)

	resist := brake*math.Min(v.p.MaxBrakeDecel, grip) + v.p.DragPerM*v.Speed*v.Speed
	if v.Speed > 0 {
		resist += v.p.RollingDecel
	}
	v.Speed = math.Max(v.Speed+(drive-resist)*dt, 0)

	// positive steer turns right (clockwise)
	delta := control.ClampFloat(in[driver.Steer], -1, 1) * v.spec.MaxSteeringAngle * math.Pi / 180
	yawRate := -v.Speed / v.p.WheelbaseM * math.Tan(delta)
	v.slide = 0
	if lat := math.Abs(yawRate * v.Speed); lat > grip {
		v.slide = control.ClampFloat(lat/grip-1, 0, 1)
		yawRate *= grip / lat
	}

	v.Yaw += yawRate * dt
	v.Pos = v.Pos.Add(track.Heading(v.Yaw).Scale(v.Speed * dt))
	v.updateRPM()
}

func (v *SimVehicle) updateRPM() {
	switch {
	case !v.EngineOn:
		v.RPM = 0
	case v.Gear <= 0:
		v.RPM = v.p.IdleRPM
	default:
		wheel := v.Speed / v.p.WheelRadiusM * 60 / (2 * math.Pi)
		v.RPM = math.Max(v.p.IdleRPM, wheel*v.p.GearRatios[v.Gear-1]*v.p.FinalDrive)
	}
}

// Snapshot reports the state the controller reads.
func (v *SimVehicle) Snapshot(id driver.VehicleID) driver.VehicleSnapshot {
	load := v.p.MassKg * driver.Gravity / 4
	var tires [4]driver.TireState
	for i := range tires {
		tires[i] = driver.TireState{
			Contact:      true,
			Load:         load,
			MaxLongForce: load * v.p.Mu,
			MaxLatForce:  load * v.p.Mu,
			Slide:        v.slide,
		}
	}
	return driver.VehicleSnapshot{
		ID:       id,
		Position: v.Pos,
		Yaw:      v.Yaw,
		Velocity: track.Heading(v.Yaw).Scale(v.Speed),
		Tires:    tires,
		Gear:     v.Gear,
		RPM:      v.RPM,
		ABS:      v.ABS,
		TCS:      v.TCS,
	}
}
