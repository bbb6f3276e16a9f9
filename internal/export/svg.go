// Package export writes simulation frames and metric series as SVG.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/viz"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

var ErrTooFewPoints = errors.New("export: need at least two points")

const background = "#0a0a0a"

type dot struct {
	x, y  int
	depth float64
	speed float64
}

// speedColor ramps from deep blue at rest to white at max speed.
func speedColor(speed, limit float64) string {
	t := 0.0
	if limit > 0 {
		t = math.Min(speed/limit, 1)
	}
	r := int(20 + t*235)
	g := int(90 + t*165)
	return fmt.Sprintf("#%02x%02x%02x", r, g, 255)
}

// Snapshot draws the container, obstacles and particles of w as seen by
// cam. Particles are painted back to front and coloured by speed.
func Snapshot(out io.Writer, w *fluid.World, cam *viz.Camera, width, height int) error {
	b := w.Bounds()
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	sb.WriteString(`<g stroke="#446688" stroke-width="1">` + "\n")
	for _, e := range viz.BoxEdges(b) {
		x0, y0, _, _ := cam.Project(e[0], b, width, height)
		x1, y1, _, _ := cam.Project(e[1], b, width, height)
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d"/>`+"\n", x0, y0, x1, y1)
	}
	sb.WriteString("</g>\n")

	scale := cam.Scale(b, width, height)
	sb.WriteString(`<g fill="#554433" stroke="#aa8866">` + "\n")
	for _, o := range w.Obstacles {
		if x, y, _, ok := cam.Project(o.Center, b, width, height); ok {
			fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="%.1f"/>`+"\n", x, y, o.Radius*scale)
		}
	}
	sb.WriteString("</g>\n")

	pos := w.State.Positions()
	vel := w.State.Velocities()
	dots := make([]dot, 0, len(pos))
	for i, p := range pos {
		if x, y, d, ok := cam.Project(p, b, width, height); ok {
			dots = append(dots, dot{x: x, y: y, depth: d, speed: r3.Norm(vel[i])})
		}
	}
	sort.Slice(dots, func(i, j int) bool { return dots[i].depth < dots[j].depth })

	radius := math.Max(1, w.Params.ParticleSize*scale)
	sb.WriteString("<g>\n")
	for _, d := range dots {
		fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="%.1f" fill="%s"/>`+"\n",
			d.x, d.y, radius, speedColor(d.speed, w.Params.MaxVelocity))
	}
	sb.WriteString("</g>\n</svg>\n")

	_, err := io.WriteString(out, sb.String())
	return err
}

// Series plots values against times as a single polyline with 10% padding
// on each axis.
func Series(out io.Writer, times, values []float64, width, height int, stroke string) error {
	n := min(len(times), len(values))
	if n < 2 {
		return ErrTooFewPoints
	}
	times, values = times[:n], values[:n]

	minX, maxX := floats.Min(times), floats.Max(times)
	minY, maxY := floats.Min(values), floats.Max(values)
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, stroke)

	for i := 0; i < n; i++ {
		x := (times[i] - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>` + "\n</svg>\n")

	_, err := io.WriteString(out, sb.String())
	return err
}
