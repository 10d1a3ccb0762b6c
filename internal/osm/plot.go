package osm

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// FigureSize is the side length of a saved network figure
const FigureSize = 8 * vg.Inch

// ErrEmptyGraph is returned when there is nothing to draw
var ErrEmptyGraph = errors.New("graph has no edges")

var (
	edgeColor = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	nodeColor = color.White
)

// edgeLines draws each edge as one straight segment
type edgeLines struct {
	segments [][2]plotter.XY
	style    draw.LineStyle
}

// Plot implements plot.Plotter
func (l *edgeLines) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, s := range l.segments {
		c.StrokeLine2(l.style, trX(s[0].X), trY(s[0].Y), trX(s[1].X), trY(s[1].Y))
	}
}

// DataRange implements plot.DataRanger
func (l *edgeLines) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, s := range l.segments {
		for _, p := range s {
			xmin, xmax = math.Min(xmin, p.X), math.Max(xmax, p.X)
			ymin, ymax = math.Min(ymin, p.Y), math.Max(ymax, p.Y)
		}
	}
	return xmin, xmax, ymin, ymax
}

// project maps a node to plot space. Longitude is scaled by cos(lat0) so a metre is the
// same length along both axes.
func project(n *Node, lonScale float64) plotter.XY {
	return plotter.XY{X: n.Lon * lonScale, Y: n.Lat}
}

// SavePlot draws the network on a black background, grey edges and white nodes, and
// writes it to path. The image format follows the file extension.
func (g *Graph) SavePlot(path string) error {
	if len(g.Edges) == 0 {
		return ErrEmptyGraph
	}

	nodes := g.SortedNodes()
	var latSum float64
	for _, n := range nodes {
		latSum += n.Lat
	}
	lonScale := math.Cos(latSum / float64(len(nodes)) * math.Pi / 180)

	lines := &edgeLines{
		segments: make([][2]plotter.XY, 0, len(g.Edges)),
		style:    draw.LineStyle{Color: edgeColor, Width: vg.Points(1)},
	}
	for _, e := range g.Edges {
		lines.segments = append(lines.segments, [2]plotter.XY{
			project(g.Nodes[e.U], lonScale),
			project(g.Nodes[e.V], lonScale),
		})
	}

	points := make(plotter.XYs, 0, len(nodes))
	for _, n := range nodes {
		points = append(points, project(n, lonScale))
	}
	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return fmt.Errorf("plotting nodes: %w", err)
	}
	scatter.GlyphStyle = draw.GlyphStyle{
		Color:  nodeColor,
		Radius: vg.Points(1.5),
		Shape:  draw.CircleGlyph{},
	}

	p := plot.New()
	p.BackgroundColor = color.Black
	p.HideAxes()
	p.Add(lines, scatter)
	squareRanges(p)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating figure directory: %w", err)
	}
	if err := p.Save(FigureSize, FigureSize, path); err != nil {
		return fmt.Errorf("saving figure %s: %w", path, err)
	}

	return nil
}

// squareRanges widens the shorter axis so both cover the same span on a square canvas
func squareRanges(p *plot.Plot) {
	dx := p.X.Max - p.X.Min
	dy := p.Y.Max - p.Y.Min
	span := math.Max(dx, dy)
	if span == 0 {
		span = 1e-4
	}

	cx := (p.X.Min + p.X.Max) / 2
	cy := (p.Y.Min + p.Y.Max) / 2
	p.X.Min, p.X.Max = cx-span/2, cx+span/2
	p.Y.Min, p.Y.Max = cy-span/2, cy+span/2
}
