package geometry

import (
	"sort"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// NeighborRule picks the neighbours of each polyhedron centre: either atoms
// of Species within Cutoff, or the partners of the centre in Bonds.
type NeighborRule struct {
	Cutoff  float64
	Species string
	Bonds   []Bond
}

type Neighbor struct {
	Index int
	Shift atoms.Shift
}

// Polyhedron is the coordination shell of Center. Vertices are the
// unwrapped neighbour positions; Faces and Edges index into Vertices.
type Polyhedron struct {
	Center    int
	Neighbors []Neighbor
	Vertices  []r3.Vec
	Faces     [][3]int
	Edges     [][2]int
}

// BuildPolyhedra returns one polyhedron per atom of centerSpecies that has
// at least one neighbour, ordered by centre index.
func BuildPolyhedra(cfg *atoms.Configuration, centerSpecies string, rule NeighborRule) ([]Polyhedron, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bonds := rule.Bonds
	if bonds == nil {
		if rule.Cutoff <= 0 {
			return nil, errs.Invalid("polyhedron cutoff must be positive, got %g", rule.Cutoff)
		}
		r := CutoffRule(rule.Cutoff)
		r.SpeciesA, r.SpeciesB = centerSpecies, rule.Species
		var err error
		if bonds, err = DetectBonds(cfg, r); err != nil {
			return nil, err
		}
	}

	shell := make(map[int][]Neighbor)
	for _, b := range bonds {
		if err := cfg.CheckIndex(b.I); err != nil {
			return nil, err
		}
		if err := cfg.CheckIndex(b.J); err != nil {
			return nil, err
		}
		if cfg.Atoms[b.I].Species == centerSpecies && matchOne(rule.Species, cfg.Atoms[b.J].Species) {
			shell[b.I] = append(shell[b.I], Neighbor{Index: b.J, Shift: b.Shift})
		}
		if cfg.Atoms[b.J].Species == centerSpecies && matchOne(rule.Species, cfg.Atoms[b.I].Species) {
			shell[b.J] = append(shell[b.J], Neighbor{Index: b.I, Shift: b.Shift.Neg()})
		}
	}

	centers := make([]int, 0, len(shell))
	for c := range shell {
		centers = append(centers, c)
	}
	sort.Ints(centers)

	out := make([]Polyhedron, 0, len(centers))
	for _, c := range centers {
		nbrs := shell[c]
		sort.Slice(nbrs, func(a, b int) bool {
			if nbrs[a].Index != nbrs[b].Index {
				return nbrs[a].Index < nbrs[b].Index
			}
			return nbrs[a].Shift.Less(nbrs[b].Shift)
		})
		p := Polyhedron{Center: c, Neighbors: nbrs, Vertices: make([]r3.Vec, len(nbrs))}
		for k, n := range nbrs {
			p.Vertices[k] = r3.Add(cfg.Atoms[n.Index].Position, cfg.Cell.Translation(n.Shift))
		}
		h := ConvexHull(p.Vertices)
		p.Faces, p.Edges = h.Faces, h.Edges
		out = append(out, p)
	}
	return out, nil
}
