package geometry

import (
	"math"

	"github.com/san-kum/atomscene/internal/atoms"
	"gonum.org/v1/gonum/spatial/r3"
)

// ghost is a periodic copy of an atom placed for the neighbour search.
type ghost struct {
	atom  int
	shift atoms.Shift
	pos   r3.Vec
}

type binKey [3]int

// cellList bins points into cubes whose edge is never smaller than the
// search radius, so every neighbour lies in the 27 surrounding bins.
type cellList struct {
	edge   float64
	origin r3.Vec
	bins   map[binKey][]int
	points []ghost
}

func newCellList(points []ghost, edge float64) *cellList {
	cl := &cellList{edge: edge, points: points, bins: make(map[binKey][]int)}
	if len(points) == 0 {
		return cl
	}
	cl.origin = points[0].pos
	for _, g := range points[1:] {
		cl.origin.X = math.Min(cl.origin.X, g.pos.X)
		cl.origin.Y = math.Min(cl.origin.Y, g.pos.Y)
		cl.origin.Z = math.Min(cl.origin.Z, g.pos.Z)
	}
	for i, g := range points {
		k := cl.key(g.pos)
		cl.bins[k] = append(cl.bins[k], i)
	}
	return cl
}

func (cl *cellList) key(p r3.Vec) binKey {
	d := r3.Sub(p, cl.origin)
	return binKey{
		int(math.Floor(d.X / cl.edge)),
		int(math.Floor(d.Y / cl.edge)),
		int(math.Floor(d.Z / cl.edge)),
	}
}

// visit calls fn for every point in the bins around p.
func (cl *cellList) visit(p r3.Vec, fn func(g ghost)) {
	k := cl.key(p)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				for _, idx := range cl.bins[binKey{k[0] + dx, k[1] + dy, k[2] + dz}] {
					fn(cl.points[idx])
				}
			}
		}
	}
}

// wrapped holds positions folded into the home cell on periodic axes.
type wrapped struct {
	pos  []r3.Vec
	frac []r3.Vec
	wrap []atoms.Shift
	lat  *atoms.Lattice
}

func wrapPositions(cfg *atoms.Configuration) (*wrapped, error) {
	n := cfg.Len()
	w := &wrapped{pos: make([]r3.Vec, n), frac: make([]r3.Vec, n), wrap: make([]atoms.Shift, n)}
	if cfg.Cell.Periodic() {
		lat, err := cfg.Cell.Lattice()
		if err != nil {
			return nil, err
		}
		w.lat = lat
	}
	for i, a := range cfg.Atoms {
		p := a.Position
		if w.lat == nil {
			w.pos[i] = p
			continue
		}
		f := w.lat.Fractional(p)
		var s atoms.Shift
		for ax := 0; ax < 3; ax++ {
			if cfg.Cell.PBC[ax] {
				s[ax] = int(math.Floor(atoms.Component(f, ax)))
			}
		}
		w.wrap[i] = s
		w.pos[i] = r3.Sub(p, cfg.Cell.Translation(s))
		w.frac[i] = r3.Sub(f, r3.Vec{X: float64(s[0]), Y: float64(s[1]), Z: float64(s[2])})
	}
	return w, nil
}

// ghosts returns every periodic copy of the wrapped atoms that can lie within
// radius of the home cell.
func (w *wrapped) ghosts(cell atoms.Cell, radius float64) []ghost {
	var reach [3]int
	var margin [3]float64
	if w.lat != nil {
		h := cell.Heights()
		for ax := 0; ax < 3; ax++ {
			if cell.PBC[ax] {
				margin[ax] = radius/h[ax] + 1e-9
				reach[ax] = int(math.Ceil(margin[ax])) + 1
			}
		}
	}

	out := make([]ghost, 0, len(w.pos))
	for a := -reach[0]; a <= reach[0]; a++ {
		for b := -reach[1]; b <= reach[1]; b++ {
			for c := -reach[2]; c <= reach[2]; c++ {
				s := atoms.Shift{a, b, c}
				tr := cell.Translation(s)
				for j, p := range w.pos {
					if !s.IsZero() && !w.within(cell, j, s, margin) {
						continue
					}
					out = append(out, ghost{atom: j, shift: s, pos: r3.Add(p, tr)})
				}
			}
		}
	}
	return out
}

func (w *wrapped) within(cell atoms.Cell, j int, s atoms.Shift, margin [3]float64) bool {
	for ax := 0; ax < 3; ax++ {
		if !cell.PBC[ax] {
			continue
		}
		f := atoms.Component(w.frac[j], ax) + float64(s[ax])
		if f < -margin[ax] || f > 1+margin[ax] {
			return false
		}
	}
	return true
}
