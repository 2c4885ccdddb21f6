package viz

import (
	"math"
	"sort"

	"github.com/san-kum/atomscene/internal/scene"
	"github.com/san-kum/atomscene/internal/scenediff"
	"gonum.org/v1/gonum/spatial/r3"
)

// Preview is a renderer that retains the primitives it is sent and draws
// them as a braille wireframe or an SVG picture.
type Preview struct {
	Cols, Rows int
	Camera     *Camera
	// Width and Height are the snapshot size in pixels before
	// magnification; zero derives it from Cols and Rows.
	Width, Height int

	model  *scene.Model
	fitted bool
}

func NewPreview(cols, rows int) *Preview {
	return &Preview{Cols: cols, Rows: rows, Camera: NewCamera(), model: scene.Empty()}
}

// Apply fits the camera to the first non-empty scene it receives and then
// leaves the view alone.
func (p *Preview) Apply(patch scenediff.Patch) error {
	m, err := scenediff.Apply(p.model, patch)
	if err != nil {
		return err
	}
	p.model = m
	if !p.fitted && m.Len() > 0 {
		p.Camera.Fit(points(m))
		p.fitted = true
	}
	return nil
}

func (p *Preview) Model() *scene.Model { return p.model }

func (p *Preview) View() []float64 { return p.Camera.View() }

func (p *Preview) SetView(v []float64) error {
	if err := p.Camera.SetView(v); err != nil {
		return err
	}
	p.fitted = true
	return nil
}

func (p *Preview) Resize(cols, rows int) {
	p.Cols, p.Rows = max(cols, 1), max(rows, 1)
}

func points(m *scene.Model) []r3.Vec {
	var out []r3.Vec
	for _, prim := range m.Prims {
		if prim.Kind == scene.KindIsosurface {
			continue
		}
		out = append(out, prim.Geometry.Points...)
	}
	return out
}

// Texts returns the on-screen texts that a braille raster cannot show:
// the frame label first, then the legend.
func (p *Preview) Texts() []string {
	var out []string
	if prim, ok := p.model.Get(scene.FrameLabelID); ok && prim.Attrs.Text != "" {
		out = append(out, prim.Attrs.Text)
	}
	if prim, ok := p.model.Get(scene.LegendID); ok && prim.Attrs.Text != "" {
		out = append(out, prim.Attrs.Text)
	}
	return out
}

type projected struct {
	x, y, depth float64
}

func (p *Preview) project(v r3.Vec, w, h int) projected {
	x, y, d := p.Camera.Project(v, w, h)
	return projected{x, y, d}
}

// Render rasterises the retained scene back to front.
func (p *Preview) Render() string {
	c := NewCanvas(p.Cols, p.Rows)
	w, h := c.PixelWidth(), c.PixelHeight()
	scale := p.Camera.Scale(w, h)

	prims := p.model.Ordered()
	for _, prim := range prims {
		if prim.Attrs.Opacity == 0 {
			continue
		}
		g := prim.Geometry
		switch prim.Kind {
		case scene.KindAtom:
			a := p.project(g.Points[0], w, h)
			c.DrawCircle(int(a.x), int(a.y), int(math.Round(prim.Attrs.Radius*scale)))
		case scene.KindBond, scene.KindVector:
			drawSegment(c, p.project(g.Points[0], w, h), p.project(g.Points[1], w, h))
		case scene.KindCell, scene.KindPolyhedron:
			for _, e := range g.Edges {
				drawSegment(c, p.project(g.Points[e[0]], w, h), p.project(g.Points[e[1]], w, h))
			}
		case scene.KindIsosurface:
			for _, f := range g.Faces {
				for k := 0; k < 3; k++ {
					drawSegment(c, p.project(g.Points[f[k]], w, h), p.project(g.Points[f[(k+1)%3]], w, h))
				}
			}
		}
	}
	return c.String()
}

func drawSegment(c *Canvas, a, b projected) {
	c.DrawLine(int(a.x), int(a.y), int(b.x), int(b.y))
}

// depthSorted orders primitives by kind in draw order and then from far to
// near.
func depthSorted(prims []scene.Primitive, depth func(scene.Primitive) float64) []scene.Primitive {
	out := append([]scene.Primitive(nil), prims...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Kind.DrawRank(), out[j].Kind.DrawRank()
		if ri != rj {
			return ri < rj
		}
		return depth(out[i]) < depth(out[j])
	})
	return out
}
