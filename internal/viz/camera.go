package viz

import (
	"math"

	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// viewLen is the length of the parameter vector exchanged with the engine:
// three rotation angles, zoom, the look-at centre and the fitted extent.
const viewLen = 8

// Camera is an orthographic camera rotating about Center.
type Camera struct {
	RotX, RotY, RotZ float64
	Zoom             float64
	Center           r3.Vec
	// Extent is the half-size of the region that fills the shorter side
	// at zoom 1.
	Extent float64
}

func NewCamera() *Camera {
	return &Camera{Zoom: 1, Extent: 10}
}

func (c *Camera) Rotate(dx, dy float64) {
	c.RotX += dx
	c.RotY += dy
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(20, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.05, c.Zoom/1.2) }

// Fit centres the camera on the bounding box of pts.
func (c *Camera) Fit(pts []r3.Vec) {
	if len(pts) == 0 {
		return
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	c.Center = r3.Scale(0.5, r3.Add(lo, hi))
	c.Extent = math.Max(1, 0.5*r3.Norm(r3.Sub(hi, lo))*1.1)
}

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Scale is the number of pixels per length unit on a w x h surface.
func (c *Camera) Scale(w, h int) float64 {
	return c.Zoom * float64(min(w, h)) / (2 * c.Extent)
}

// Project maps p onto a w x h surface, returning pixel coordinates and a
// depth that grows towards the viewer.
func (c *Camera) Project(p r3.Vec, w, h int) (float64, float64, float64) {
	q := c.rotate(r3.Sub(p, c.Center))
	s := c.Scale(w, h)
	return float64(w)/2 + q.X*s, float64(h)/2 - q.Y*s, q.Z
}

func (c *Camera) View() []float64 {
	return []float64{c.RotX, c.RotY, c.RotZ, c.Zoom, c.Center.X, c.Center.Y, c.Center.Z, c.Extent}
}

func (c *Camera) SetView(v []float64) error {
	if len(v) != viewLen {
		return errs.Invalid("view needs %d parameters, got %d", viewLen, len(v))
	}
	if v[3] <= 0 || v[7] <= 0 {
		return errs.Invalid("view zoom and extent must be positive")
	}
	c.RotX, c.RotY, c.RotZ, c.Zoom = v[0], v[1], v[2], v[3]
	c.Center = r3.Vec{X: v[4], Y: v[5], Z: v[6]}
	c.Extent = v[7]
	return nil
}
