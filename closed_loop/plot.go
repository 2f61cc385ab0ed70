package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"racer-ai-core/track"
)

// carTrace is the sampled path of one car
type carTrace struct {
	name string
	pts  plotter.XYs
}

func (c *carTrace) add(p track.Vec3) {
	c.pts = append(c.pts, plotter.XY{X: p.X, Y: p.Y})
}

// saveTrajectoryPlot draws the track edges and every car's path.
func saveTrajectoryPlot(filename, title string, tr *track.Track, traces []*carTrace) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())

	toXY := func(v track.Vec3) plotter.XY { return plotter.XY{X: v.X, Y: v.Y} }
	edge := func(back, front func(*track.Patch) track.Vec3) plotter.XYs {
		pts := plotter.XYs(lo.Map(tr.Patches, func(pt *track.Patch, _ int) plotter.XY { return toXY(back(pt)) }))
		return append(pts, toXY(front(tr.Patches[len(tr.Patches)-1])))
	}
	left := edge(func(pt *track.Patch) track.Vec3 { return pt.BackLeft }, func(pt *track.Patch) track.Vec3 { return pt.FrontLeft })
	right := edge(func(pt *track.Patch) track.Vec3 { return pt.BackRight }, func(pt *track.Patch) track.Vec3 { return pt.FrontRight })
	for _, pts := range []plotter.XYs{left, right} {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1)
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
	}

	for i, c := range traces {
		if len(c.pts) < 2 {
			continue
		}
		line, err := plotter.NewLine(c.pts)
		if err != nil {
			return fmt.Errorf("trace %s: %w", c.name, err)
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(c.name, line)
	}
	p.Legend.Top = true

	return savePlotPNG(p, 8.0, 8.0, filename)
}

func savePlotPNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
