package viz

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/fieldmap"
	"github.com/san-kum/atomscene/internal/scene"
)

// Pixels per terminal cell used to size snapshots.
const (
	cellPixelsX = 8
	cellPixelsY = 16
)

// WriteSVG draws the retained scene as a width x height SVG picture on a
// background of bg.
func (p *Preview) WriteSVG(w io.Writer, width, height int, bg fieldmap.Color) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, bg.Hex())

	scale := p.Camera.Scale(width, height)
	depth := func(prim scene.Primitive) float64 {
		if len(prim.Geometry.Points) == 0 {
			return 0
		}
		return p.project(prim.Geometry.Points[0], width, height).depth
	}

	var texts []string
	for _, prim := range depthSorted(p.model.Ordered(), depth) {
		if prim.Attrs.Opacity == 0 {
			continue
		}
		g := prim.Geometry
		color := prim.Attrs.Color.Hex()
		switch prim.Kind {
		case scene.KindAtom:
			a := p.project(g.Points[0], width, height)
			stroke := ""
			if prim.Attrs.Picked {
				stroke = ` stroke="#ffff00" stroke-width="2"`
			}
			fmt.Fprintf(bw, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="%.2f"%s/>`+"\n",
				a.x, a.y, math.Max(1, prim.Attrs.Radius*scale), color, prim.Attrs.Opacity, stroke)
		case scene.KindBond, scene.KindVector:
			a := p.project(g.Points[0], width, height)
			b := p.project(g.Points[1], width, height)
			fmt.Fprintf(bw, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.1f" stroke-opacity="%.2f"/>`+"\n",
				a.x, a.y, b.x, b.y, color, math.Max(1, 2*prim.Attrs.Radius*scale), prim.Attrs.Opacity)
		case scene.KindCell:
			for _, e := range g.Edges {
				a := p.project(g.Points[e[0]], width, height)
				b := p.project(g.Points[e[1]], width, height)
				fmt.Fprintf(bw, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n", a.x, a.y, b.x, b.y, color)
			}
		case scene.KindPolyhedron, scene.KindIsosurface:
			for _, f := range g.Faces {
				a := p.project(g.Points[f[0]], width, height)
				b := p.project(g.Points[f[1]], width, height)
				c := p.project(g.Points[f[2]], width, height)
				fmt.Fprintf(bw, `<polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="%s" fill-opacity="%.2f"/>`+"\n",
					a.x, a.y, b.x, b.y, c.x, c.y, color, prim.Attrs.Opacity)
			}
		case scene.KindLabel:
			if len(g.Points) == 0 {
				texts = append(texts, prim.Attrs.Text)
				continue
			}
			a := p.project(g.Points[0], width, height)
			fmt.Fprintf(bw, `<text x="%.1f" y="%.1f" fill="%s" font-size="12">%s</text>`+"\n",
				a.x, a.y, color, html.EscapeString(prim.Attrs.Text))
		case scene.KindLegend:
			texts = append(texts, prim.Attrs.Text)
		}
	}
	for i, t := range texts {
		fmt.Fprintf(bw, `<text x="8" y="%d" fill="#ffffff" font-size="14" xml:space="preserve">%s</text>`+"\n",
			20*(i+1), html.EscapeString(t))
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// Snapshot writes an SVG of mag times the snapshot size to path.
func (p *Preview) Snapshot(path string, mag int) error {
	if mag < 1 {
		return errs.Invalid("snapshot magnification must be at least 1, got %d", mag)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.IO("mkdir", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.IO("create", path, err)
	}
	defer f.Close()
	w, h := p.Cols*cellPixelsX, p.Rows*cellPixelsY
	if p.Width > 0 && p.Height > 0 {
		w, h = p.Width, p.Height
	}
	w, h = w*mag, h*mag
	if err := p.WriteSVG(f, w, h, fieldmap.Color{}); err != nil {
		return errs.IO("write", path, err)
	}
	return nil
}
