package driver

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// StandardStyle names the built-in driver.
const StandardStyle = "standard"

// DriverController is what the grid drives each tick. Alternative driver
// styles implement it and register a Factory.
type DriverController interface {
	ID() VehicleID
	Update(tick Tick, self VehicleSnapshot, others []VehicleSnapshot) ControlInputs
	Inputs() ControlInputs
	State() RecoveryState
	Reset()
}

// Factory creates controllers of one style.
type Factory interface {
	Create(id VehicleID, tq TrackQuery, spec VehicleSpec, difficulty float64, opts ...Option) DriverController
}

// StandardFactory creates Controllers.
type StandardFactory struct{}

func (StandardFactory) Create(id VehicleID, tq TrackQuery, spec VehicleSpec, difficulty float64, opts ...Option) DriverController {
	return NewController(id, tq, spec, difficulty, opts...)
}

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{StandardStyle: StandardFactory{}}
)

// RegisterFactory makes a driver style available by name. Registering a name
// twice replaces the earlier factory.
func RegisterFactory(style string, f Factory) {
	if style == "" || f == nil {
		panic("driver: RegisterFactory with empty style or nil factory")
	}
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[style] = f
}

// LookupFactory returns the factory for style. The empty style is the
// standard driver.
func LookupFactory(style string) (Factory, error) {
	if style == "" {
		style = StandardStyle
	}
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[style]
	if !ok {
		return nil, fmt.Errorf("unknown driver style %q", style)
	}
	return f, nil
}

// Styles lists the registered driver styles in name order.
func Styles() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := lo.Keys(factories)
	sort.Strings(out)
	return out
}
