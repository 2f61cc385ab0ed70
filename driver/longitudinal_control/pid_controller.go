package control

// PIDController is a discrete PID controller tracking a speed setpoint with
// a throttle command in [0, MaxThrottle].
type PIDController struct {
	cfg PIDConfig

	// State
	integral    float64
	prevError   float64
	initialized bool
}

// NewPIDController creates a new PID controller with given configuration
func NewPIDController(cfg PIDConfig) *PIDController {
	if cfg.MaxThrottle <= 0 {
		cfg.MaxThrottle = 1
	}
	return &PIDController{cfg: cfg}
}

// Reset clears the PID state
func (pid *PIDController) Reset() {
	pid.integral = 0.0
	pid.prevError = 0.0
	pid.initialized = false
}

// Update computes the throttle for the given setpoint and speed (m/s).
func (pid *PIDController) Update(target, current, dt float64) float64 {
	error := target - current

	if !pid.initialized {
		pid.prevError = error
		pid.initialized = true
	}

	// Proportional term
	p := pid.cfg.Kp * error

	// Integral term with anti-windup
	if dt > 0 {
		pid.integral += error * dt
	}
	pid.integral = ClampFloat(pid.integral, -pid.cfg.IntegralLimit, pid.cfg.IntegralLimit)
	i := pid.cfg.Ki * pid.integral

	// Reset integral when crossing setpoint
	if (pid.prevError > 0 && error < 0) || (pid.prevError < 0 && error > 0) {
		pid.integral *= 0.2
	}

	// Derivative term
	var d float64
	if dt > 0 {
		d = pid.cfg.Kd * (error - pid.prevError) / dt
	}

	throttle := p + i + d

	// Apply saturation limits, back-calculating the integral
	if throttle > pid.cfg.MaxThrottle {
		throttle = pid.cfg.MaxThrottle
		if pid.cfg.Ki > 0 {
			pid.integral = ClampFloat((throttle-p-d)/pid.cfg.Ki, -pid.cfg.IntegralLimit, pid.cfg.IntegralLimit)
		}
	} else if throttle < 0 {
		throttle = 0
		if pid.cfg.Ki > 0 {
			pid.integral = ClampFloat((throttle-p-d)/pid.cfg.Ki, -pid.cfg.IntegralLimit, pid.cfg.IntegralLimit)
		}
	}

	pid.prevError = error
	return throttle
}

// GetDiagnostics returns current PID state for logging/debugging
func (pid *PIDController) GetDiagnostics() PIDDiagnostics {
	return PIDDiagnostics{
		Error:    pid.prevError,
		Integral: pid.integral,
		P:        pid.cfg.Kp * pid.prevError,
		I:        pid.cfg.Ki * pid.integral,
	}
}

// PIDDiagnostics contains PID internal state for monitoring
type PIDDiagnostics struct {
	Error    float64
	Integral float64
	P        float64
	I        float64
}
