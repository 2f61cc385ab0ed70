package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"racer-ai-core/utils"
)

// Grid owns the controllers of every AI vehicle in a session and ticks them
// together. Vehicle IDs are registration slots, starting at 0.
type Grid struct {
	track       TrackQuery
	log         *utils.Logger
	controllers []DriverController
}

func NewGrid(tq TrackQuery, log *utils.Logger) *Grid {
	return &Grid{track: tq, log: log}
}

// Register creates a controller of the given style for the next slot and
// returns its ID.
func (g *Grid) Register(style string, spec VehicleSpec, difficulty float64, opts ...Option) (VehicleID, error) {
	f, err := LookupFactory(style)
	if err != nil {
		return -1, err
	}
	id := VehicleID(len(g.controllers))
	if id >= MaxVehicles {
		return -1, fmt.Errorf("grid full: %d cars", MaxVehicles)
	}
	opts = append([]Option{WithLogger(g.log.WithPrefix(fmt.Sprintf("[car %d]", id)))}, opts...)
	g.controllers = append(g.controllers, f.Create(id, g.track, spec, difficulty, opts...))
	g.log.Info("registered car %d: style %q difficulty %.2f", id, style, difficulty)
	return id, nil
}

func (g *Grid) Len() int { return len(g.controllers) }

// Controller returns the controller in slot id, or nil.
func (g *Grid) Controller(id VehicleID) DriverController {
	if id < 0 || int(id) >= len(g.controllers) {
		return nil
	}
	return g.controllers[id]
}

// Update ticks every controller once. snapshots[i] must be the state of
// vehicle i; every controller sees all snapshots as its field. Controllers
// run in parallel and never share state, so the result does not depend on
// scheduling.
func (g *Grid) Update(ctx context.Context, tick Tick, snapshots []VehicleSnapshot) ([]ControlInputs, error) {
	if len(snapshots) != len(g.controllers) {
		return nil, fmt.Errorf("got %d snapshots for %d vehicles", len(snapshots), len(g.controllers))
	}
	for i, s := range snapshots {
		if s.ID != VehicleID(i) {
			return nil, fmt.Errorf("snapshot %d carries id %d", i, s.ID)
		}
	}

	out := make([]ControlInputs, len(g.controllers))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range g.controllers {
		i, c := i, c
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = c.Update(tick, snapshots[i], snapshots)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset resets every controller, for a session restart.
func (g *Grid) Reset() {
	for _, c := range g.controllers {
		c.Reset()
	}
}
