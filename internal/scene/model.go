// Package scene derives the declarative set of primitives to display from
// a configuration and the current settings.
//
// Every primitive has an ID derived only from what it depicts, so building
// twice from the same inputs gives the same IDs and descriptors:
//
//	atom#3                         atom 3 in the home image
//	atom#3#img(1,0,0)              atom 3 translated by one a vector
//	bond#A#7-12                    whole bond of set A
//	bond#A#7-12+s(1,0,0)#half7     half of a boundary-crossing bond, anchored at 7
//	polyhedron#oct#5               polyhedron of set oct centred on atom 5
//	vector#3, label#atom#3         per-atom glyph and label
//	label#frame, legend            singletons
//	cell#img(0,0,0)                cell box of one image
//	isosurface#rho#0               first isosurface of volume rho
//
// The image suffix is omitted for the home image except on cell boxes.
package scene

import (
	"slices"
	"sort"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/fieldmap"
	"gonum.org/v1/gonum/spatial/r3"
)

type Kind string

const (
	KindAtom       Kind = "atom"
	KindBond       Kind = "bond"
	KindPolyhedron Kind = "polyhedron"
	KindVector     Kind = "vector"
	KindLabel      Kind = "label"
	KindCell       Kind = "cell"
	KindIsosurface Kind = "isosurface"
	KindLegend     Kind = "legend"
)

// drawOrder is the order renderers should add primitive kinds in.
var drawOrder = map[Kind]int{
	KindCell:       0,
	KindIsosurface: 1,
	KindPolyhedron: 2,
	KindBond:       3,
	KindAtom:       4,
	KindVector:     5,
	KindLabel:      6,
	KindLegend:     7,
}

// Geometry is what a primitive depicts. Any change here means the
// renderer must rebuild the primitive.
type Geometry struct {
	Atoms  []int       `json:"atoms,omitempty"`
	Image  atoms.Shift `json:"image"`
	Shift  atoms.Shift `json:"shift"`
	Points []r3.Vec    `json:"points,omitempty"`
	Faces  [][3]int    `json:"faces,omitempty"`
	Edges  [][2]int    `json:"edges,omitempty"`
	Ref    string      `json:"ref,omitempty"`
}

// Equal is exact structural equality.
func (g Geometry) Equal(o Geometry) bool {
	return g.Image == o.Image && g.Shift == o.Shift && g.Ref == o.Ref &&
		slices.Equal(g.Atoms, o.Atoms) &&
		slices.Equal(g.Points, o.Points) &&
		slices.Equal(g.Faces, o.Faces) &&
		slices.Equal(g.Edges, o.Edges)
}

// Attrs are visual attributes a renderer can change in place.
type Attrs struct {
	Color   fieldmap.Color `json:"color"`
	Radius  float64        `json:"radius,omitempty"`
	Opacity float64        `json:"opacity"`
	Text    string         `json:"text,omitempty"`
	Picked  bool           `json:"picked,omitempty"`
}

type Primitive struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Geometry Geometry `json:"geometry"`
	Attrs    Attrs    `json:"attrs"`
}

// Equal compares geometry and attributes exactly.
func (p Primitive) Equal(o Primitive) bool {
	return p.ID == o.ID && p.Kind == o.Kind && p.Attrs == o.Attrs && p.Geometry.Equal(o.Geometry)
}

// Stamp identifies the inputs a model was built from.
type Stamp struct {
	Revision   uint64 `json:"revision"`
	Generation uint64 `json:"generation"`
	Frame      int    `json:"frame"`
}

// Model is an immutable snapshot of the scene.
type Model struct {
	Stamp Stamp
	Prims map[string]Primitive
}

func Empty() *Model {
	return &Model{Prims: map[string]Primitive{}}
}

func (m *Model) Len() int { return len(m.Prims) }

func (m *Model) Get(id string) (Primitive, bool) {
	p, ok := m.Prims[id]
	return p, ok
}

// IDs returns every primitive ID in lexical order.
func (m *Model) IDs() []string {
	ids := make([]string, 0, len(m.Prims))
	for id := range m.Prims {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DrawRank is the position of k in the draw order.
func (k Kind) DrawRank() int { return drawOrder[k] }

// Ordered returns the primitives in draw order: by kind, then by ID. Bond
// sets of different radii sharing an atom are therefore drawn in bond set ID
// order.
func (m *Model) Ordered() []Primitive {
	out := make([]Primitive, 0, len(m.Prims))
	for _, p := range m.Prims {
		out = append(out, p)
	}
	SortDrawOrder(out)
	return out
}

func SortDrawOrder(ps []Primitive) {
	sort.Slice(ps, func(i, j int) bool {
		oi, oj := drawOrder[ps[i].Kind], drawOrder[ps[j].Kind]
		if oi != oj {
			return oi < oj
		}
		return ps[i].ID < ps[j].ID
	})
}

// Equal reports whether two models hold the same primitives.
func (m *Model) Equal(o *Model) bool {
	if len(m.Prims) != len(o.Prims) {
		return false
	}
	for id, p := range m.Prims {
		q, ok := o.Prims[id]
		if !ok || !p.Equal(q) {
			return false
		}
	}
	return true
}

// Counts returns the number of primitives per kind.
func (m *Model) Counts() map[Kind]int {
	out := make(map[Kind]int)
	for _, p := range m.Prims {
		out[p.Kind]++
	}
	return out
}
