package viz

import (
	"math"

	"github.com/san-kum/fluidsim/internal/fluid"
	"gonum.org/v1/gonum/spatial/r3"
)

type View int

const (
	ViewSide View = iota
	ViewTop
	ViewOrbit
)

func (v View) String() string {
	switch v {
	case ViewSide:
		return "side"
	case ViewTop:
		return "top"
	default:
		return "orbit"
	}
}

// Camera maps world points inside a box onto canvas dots. Side and top are
// orthographic; orbit is a perspective view rotated by Yaw and Pitch.
type Camera struct {
	View       View
	Yaw, Pitch float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{View: ViewSide, Yaw: 0.6, Pitch: 0.35, Zoom: 1}
}

func (c *Camera) Cycle()           { c.View = (c.View + 1) % 3 }
func (c *Camera) Rotate(a float64) { c.Yaw += a }
func (c *Camera) Tilt(a float64)   { c.Pitch = math.Max(-1.4, math.Min(1.4, c.Pitch+a)) }
func (c *Camera) ZoomIn()          { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()         { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cx, sx := math.Cos(c.Pitch), math.Sin(c.Pitch)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project returns the dot coordinates of p for a sw x sh dot canvas framing
// box b, the point's depth toward the viewer, and whether it is on screen.
func (c *Camera) Project(p r3.Vec, b r3.Box, sw, sh int) (int, int, float64, bool) {
	center := r3.Scale(0.5, r3.Add(b.Min, b.Max))
	size := r3.Sub(b.Max, b.Min)
	q := r3.Sub(p, center)

	var u, v, depth, ext float64
	switch c.View {
	case ViewSide:
		u, v, depth = q.X, q.Y, q.Z
		ext = math.Max(size.X/float64(sw), size.Y/float64(sh))
	case ViewTop:
		u, v, depth = q.X, -q.Z, q.Y
		ext = math.Max(size.X/float64(sw), size.Z/float64(sh))
	default:
		r := c.rotate(q)
		diag := r3.Norm(size)
		dist := 2.5 * diag
		if r.Z >= dist {
			return 0, 0, 0, false
		}
		persp := dist / (dist - r.Z)
		u, v, depth = r.X*persp, r.Y*persp, r.Z
		ext = diag / float64(min(sw, sh))
	}
	if ext == 0 {
		return 0, 0, 0, false
	}
	scale := 0.95 * c.Zoom / ext
	x := int(math.Round(u*scale)) + sw/2
	y := int(math.Round(-v*scale)) + sh/2
	return x, y, depth, x >= 0 && x < sw && y >= 0 && y < sh
}

// Scale returns how many dots one world unit spans in the current view.
func (c *Camera) Scale(b r3.Box, sw, sh int) float64 {
	x0, _, _, _ := c.Project(b.Min, b, sw, sh)
	x1, _, _, _ := c.Project(r3.Vec{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z}, b, sw, sh)
	w := b.Max.X - b.Min.X
	if w == 0 {
		return 0
	}
	return math.Abs(float64(x1-x0)) / w
}

// BoxEdges lists the twelve edges of b.
func BoxEdges(b r3.Box) [][2]r3.Vec {
	// corner i takes Max on X, Y, Z for bits 0, 1, 2 of i
	var v [8]r3.Vec
	for i := range v {
		v[i] = b.Min
		if i&1 != 0 {
			v[i].X = b.Max.X
		}
		if i&2 != 0 {
			v[i].Y = b.Max.Y
		}
		if i&4 != 0 {
			v[i].Z = b.Max.Z
		}
	}
	idx := [][2]int{
		{0, 1}, {2, 3}, {4, 5}, {6, 7},
		{0, 2}, {1, 3}, {4, 6}, {5, 7},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	edges := make([][2]r3.Vec, len(idx))
	for i, e := range idx {
		edges[i] = [2]r3.Vec{v[e[0]], v[e[1]]}
	}
	return edges
}

// Render draws the container, obstacles, source markers and particles of
// w onto c.
func Render(c *Canvas, w *fluid.World, cam *Camera) {
	c.Clear()
	sw, sh := c.Dots()
	b := w.Bounds()

	for _, e := range BoxEdges(b) {
		x0, y0, _, _ := cam.Project(e[0], b, sw, sh)
		x1, y1, _, _ := cam.Project(e[1], b, sw, sh)
		c.DrawLine(x0, y0, x1, y1)
	}

	scale := cam.Scale(b, sw, sh)
	for _, o := range w.Obstacles {
		x, y, _, ok := cam.Project(o.Center, b, sw, sh)
		if ok {
			c.DrawCircle(x, y, int(math.Round(o.Radius*scale)))
		}
	}

	markers := make([]r3.Vec, 0, w.Sources.Len())
	for _, s := range w.Sources.User {
		markers = append(markers, s.Pos)
	}
	for _, s := range w.Sources.Scenario {
		markers = append(markers, s.Pos)
	}
	for _, m := range markers {
		x, y, _, ok := cam.Project(m, b, sw, sh)
		if ok {
			c.DrawLine(x-1, y, x+1, y)
			c.DrawLine(x, y-1, x, y+1)
		}
	}

	for _, p := range w.State.Positions() {
		if x, y, _, ok := cam.Project(p, b, sw, sh); ok {
			c.Set(x, y)
		}
	}
}
