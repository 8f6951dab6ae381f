// Package preview renders quick-look PNG plots of a finished run: a top-down
// view of every agent's path and each agent's heading over time.
package preview

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/cellbots/replay/pkg/core"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	pathSize    = 8 * vg.Inch
	headingW    = 12 * vg.Inch
	headingH    = 5 * vg.Inch
	lineWidthPt = 1.5
)

// Plotter writes preview images into an output directory.
type Plotter struct {
	outputDir string
}

// New creates a Plotter writing into outputDir.
func New(outputDir string) *Plotter {
	return &Plotter{outputDir: outputDir}
}

// Render writes "<run>_paths.png" and "<run>_headings.png" and returns their
// paths. Agents without keyframes on a channel are left out of that plot.
func (p *Plotter) Render(run *core.Run) ([]string, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}

	base := fileBase(run.Info.Name)
	colors := Palette(run.Agents)

	paths, err := pathPlot(run, colors)
	if err != nil {
		return nil, err
	}
	headings, err := headingPlot(run, colors)
	if err != nil {
		return nil, err
	}

	pathsFile := filepath.Join(p.outputDir, base+"_paths.png")
	if err := paths.Save(pathSize, pathSize, pathsFile); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", pathsFile, err)
	}
	headingsFile := filepath.Join(p.outputDir, base+"_headings.png")
	if err := headings.Save(headingW, headingH, headingsFile); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", headingsFile, err)
	}
	return []string{pathsFile, headingsFile}, nil
}

func pathPlot(run *core.Run, colors []color.Color) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - Paths (top-down)", run.Info.Name)
	pl.X.Label.Text = "X"
	pl.Y.Label.Text = "Y"
	pl.Add(plotter.NewGrid())

	for i, a := range run.Agents {
		pts := make(plotter.XYs, 0, len(a.Position)+1)
		pts = append(pts, plotter.XY{X: a.RestPosition.X, Y: a.RestPosition.Y})
		for _, k := range a.Position {
			pts = append(pts, plotter.XY{X: k.Value[0], Y: k.Value[1]})
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("agent %s path: %w", a.ID, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(lineWidthPt)

		start, err := plotter.NewScatter(pts[:1])
		if err != nil {
			return nil, fmt.Errorf("agent %s start: %w", a.ID, err)
		}
		start.Color = colors[i]

		pl.Add(line, start)
		pl.Legend.Add(string(a.ID), line)
	}

	pl.Legend.Top = true
	pl.Legend.Left = false
	return pl, nil
}

func headingPlot(run *core.Run, colors []color.Color) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - Heading", run.Info.Name)
	pl.X.Label.Text = "Frame"
	pl.Y.Label.Text = "Yaw (rad)"

	for i, a := range run.Agents {
		if len(a.Orientation) == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, len(a.Orientation))
		for _, k := range a.Orientation {
			pts = append(pts, plotter.XY{X: float64(k.Frame), Y: k.Heading()})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("agent %s heading: %w", a.ID, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(lineWidthPt)
		pl.Add(line)
		pl.Legend.Add(string(a.ID), line)
	}

	pl.Legend.Top = true
	pl.Legend.Left = false
	return pl, nil
}

// Palette assigns each agent its own color when it has one, and otherwise an
// evenly spaced hue.
func Palette(agents []core.AgentTrack) []color.Color {
	out := make([]color.Color, len(agents))
	for i, a := range agents {
		if a.Color != nil {
			out[i] = colorful.Color{R: a.Color.R, G: a.Color.G, B: a.Color.B}.Clamped()
			continue
		}
		hue := 360 * float64(i) / float64(len(agents))
		out[i] = colorful.Hsv(hue, 0.75, 0.85)
	}
	return out
}

func fileBase(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '/', '\\':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return "run"
	}
	return name
}
