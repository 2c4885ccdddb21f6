// Package settings holds the display settings that every scene build reads.
//
// A [State] is a plain value. The [Store] hands out read-only snapshots and
// copy-on-write drafts; a draft becomes the new snapshot only through
// [Store.Commit], which bumps the revision when anything changed.
package settings

import (
	"sort"

	"github.com/jinzhu/copier"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/fieldmap"
	"github.com/san-kum/atomscene/internal/geometry"
	"github.com/san-kum/atomscene/internal/volume"
)

type AtomType struct {
	Color   fieldmap.ColorRule  `json:"color" yaml:"color"`
	Radius  fieldmap.RadiusRule `json:"radius" yaml:"radius"`
	Opacity float64             `json:"opacity" yaml:"opacity"`
	// Label is a template rendered per atom; empty hides the label.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

type BondType struct {
	Color   fieldmap.Color `json:"color" yaml:"color"`
	Radius  float64        `json:"radius" yaml:"radius"`
	Opacity float64        `json:"opacity" yaml:"opacity"`
}

// BondSet is a named bond rule drawn with one bond type.
type BondSet struct {
	ID   string        `json:"id" yaml:"id"`
	Type string        `json:"type" yaml:"type"`
	Rule geometry.Rule `json:"rule" yaml:"rule"`
}

// PolyhedronSet draws coordination polyhedra around atoms of Center, with
// neighbours from BondSet when set, otherwise Neighbor atoms within Cutoff.
type PolyhedronSet struct {
	Name     string         `json:"name" yaml:"name"`
	Center   string         `json:"center" yaml:"center"`
	Neighbor string         `json:"neighbor,omitempty" yaml:"neighbor,omitempty"`
	Cutoff   float64        `json:"cutoff,omitempty" yaml:"cutoff,omitempty"`
	BondSet  string         `json:"bond_set,omitempty" yaml:"bond_set,omitempty"`
	Color    fieldmap.Color `json:"color" yaml:"color"`
	Opacity  float64        `json:"opacity" yaml:"opacity"`
}

type Isosurface struct {
	Value   float64        `json:"value" yaml:"value"`
	Color   fieldmap.Color `json:"color" yaml:"color"`
	Opacity float64        `json:"opacity" yaml:"opacity"`
}

// Volume is a loaded grid and the isosurfaces drawn from it.
type Volume struct {
	Grid        *volume.Grid `json:"grid" yaml:"grid"`
	Isosurfaces []Isosurface `json:"isosurfaces" yaml:"isosurfaces"`
}

// State is the full set of display settings.
type State struct {
	Revision uint64 `json:"revision" yaml:"revision"`

	AtomTypes      map[string]AtomType          `json:"atom_types" yaml:"atom_types"`
	DefaultAtom    AtomType                     `json:"default_atom" yaml:"default_atom"`
	BondTypes      map[string]BondType          `json:"bond_types" yaml:"bond_types"`
	BondSets       []BondSet                    `json:"bond_sets" yaml:"bond_sets"`
	Colormaps      map[string]fieldmap.Colormap `json:"colormaps" yaml:"colormaps"`
	PolyhedronSets []PolyhedronSet              `json:"polyhedron_sets" yaml:"polyhedron_sets"`
	Vectors        *fieldmap.VectorRule         `json:"vectors,omitempty" yaml:"vectors,omitempty"`
	Volumes        map[string]Volume            `json:"volumes,omitempty" yaml:"volumes,omitempty"`

	Images       geometry.Range `json:"images" yaml:"images"`
	FrameLabel   string         `json:"frame_label" yaml:"frame_label"`
	LabelDefault *string        `json:"label_default,omitempty" yaml:"label_default,omitempty"`
	Legend       bool           `json:"legend" yaml:"legend"`
	CellBox      bool           `json:"cell_box" yaml:"cell_box"`
	CellBoxColor fieldmap.Color `json:"cell_box_color" yaml:"cell_box_color"`
	Background   fieldmap.Color `json:"background" yaml:"background"`
	PickedColor  fieldmap.Color `json:"picked_color" yaml:"picked_color"`
	Picked       []int          `json:"picked,omitempty" yaml:"picked,omitempty"`
	FrameStep    int            `json:"frame_step" yaml:"frame_step"`
}

var elements = map[string]struct {
	radius float64
	color  fieldmap.Color
}{
	"H":  {0.25, fieldmap.Color{1, 1, 1}},
	"C":  {0.70, fieldmap.Color{0.2, 0.2, 0.2}},
	"N":  {0.65, fieldmap.Color{0.31, 0.31, 1}},
	"O":  {0.60, fieldmap.Color{1, 0.2, 0.2}},
	"F":  {0.50, fieldmap.Color{0, 1, 0}},
	"P":  {1.00, fieldmap.Color{1, 0.65, 0}},
	"S":  {1.00, fieldmap.Color{1, 1, 0}},
	"Cl": {1.00, fieldmap.Color{0, 1, 0}},
}

// Default returns the settings in effect before any resource file runs.
func Default() *State {
	s := &State{
		AtomTypes: make(map[string]AtomType, len(elements)),
		DefaultAtom: AtomType{
			Color:   fieldmap.ColorRule{Fixed: fieldmap.Color{0.78, 0.39, 0.78}},
			Radius:  fieldmap.RadiusRule{Fixed: 0.7},
			Opacity: 1,
		},
		BondTypes: map[string]BondType{
			"default": {Color: fieldmap.Color{0.59, 0.59, 0.59}, Radius: 0.15, Opacity: 1},
		},
		Colormaps:    fieldmap.Builtin(),
		Images:       geometry.Unbounded(),
		FrameLabel:   "${config_n}",
		CellBox:      true,
		CellBoxColor: fieldmap.Color{1, 1, 1},
		Background:   fieldmap.Color{0, 0, 0},
		PickedColor:  fieldmap.Color{1, 1, 0},
		FrameStep:    1,
	}
	for sym, e := range elements {
		s.AtomTypes[sym] = AtomType{
			Color:   fieldmap.ColorRule{Fixed: e.color},
			Radius:  fieldmap.RadiusRule{Fixed: e.radius},
			Opacity: 1,
		}
	}
	return s
}

// Clone returns a deep copy sharing nothing with s except volume grids,
// which are never mutated once loaded.
func (s *State) Clone() *State {
	out := &State{}
	if err := copier.CopyWithOption(out, s, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched types, which cannot happen here
		panic(err)
	}
	if len(s.Volumes) > 0 && out.Volumes == nil {
		out.Volumes = make(map[string]Volume, len(s.Volumes))
	}
	for name, v := range s.Volumes {
		nv := out.Volumes[name]
		nv.Grid = v.Grid
		out.Volumes[name] = nv
	}
	return out
}

// AtomType returns the type for species, falling back to DefaultAtom.
func (s *State) AtomType(species string) AtomType {
	if t, ok := s.AtomTypes[species]; ok {
		return t
	}
	return s.DefaultAtom
}

func (s *State) BondType(name string) (BondType, error) {
	t, ok := s.BondTypes[name]
	if !ok {
		return BondType{}, errs.Reference("unknown bond type %q", name)
	}
	return t, nil
}

// BondSet returns the set with id.
func (s *State) BondSet(id string) (BondSet, bool) {
	for _, b := range s.BondSets {
		if b.ID == id {
			return b, true
		}
	}
	return BondSet{}, false
}

// PutBondSet adds or replaces a bond set, keeping sets ordered by ID.
// Bond sets are drawn in this order.
func (s *State) PutBondSet(b BondSet) error {
	if b.ID == "" {
		return errs.Invalid("bond set needs an id")
	}
	if _, err := s.BondType(b.Type); err != nil {
		return err
	}
	if err := b.Rule.Validate(); err != nil {
		return err
	}
	for i := range s.BondSets {
		if s.BondSets[i].ID == b.ID {
			s.BondSets[i] = b
			return nil
		}
	}
	s.BondSets = append(s.BondSets, b)
	sort.Slice(s.BondSets, func(i, j int) bool { return s.BondSets[i].ID < s.BondSets[j].ID })
	return nil
}

// DeleteBondSet removes the set with id, or every set when id is empty.
func (s *State) DeleteBondSet(id string) error {
	if id == "" {
		s.BondSets = nil
		return nil
	}
	for i, b := range s.BondSets {
		if b.ID == id {
			s.BondSets = append(s.BondSets[:i], s.BondSets[i+1:]...)
			return nil
		}
	}
	return errs.Reference("unknown bond set %q", id)
}

func (s *State) PutPolyhedronSet(p PolyhedronSet) error {
	if p.Name == "" || p.Center == "" {
		return errs.Invalid("polyhedron set needs a name and a centre species")
	}
	if p.BondSet == "" && p.Cutoff <= 0 {
		return errs.Invalid("polyhedron set %q needs a cutoff or a bond set", p.Name)
	}
	if p.BondSet != "" {
		if _, ok := s.BondSet(p.BondSet); !ok {
			return errs.Reference("unknown bond set %q", p.BondSet)
		}
	}
	for i := range s.PolyhedronSets {
		if s.PolyhedronSets[i].Name == p.Name {
			s.PolyhedronSets[i] = p
			return nil
		}
	}
	s.PolyhedronSets = append(s.PolyhedronSets, p)
	sort.Slice(s.PolyhedronSets, func(i, j int) bool { return s.PolyhedronSets[i].Name < s.PolyhedronSets[j].Name })
	return nil
}

func (s *State) DeletePolyhedronSet(name string) error {
	if name == "" {
		s.PolyhedronSets = nil
		return nil
	}
	for i, p := range s.PolyhedronSets {
		if p.Name == name {
			s.PolyhedronSets = append(s.PolyhedronSets[:i], s.PolyhedronSets[i+1:]...)
			return nil
		}
	}
	return errs.Reference("unknown polyhedron set %q", name)
}

// DropAtoms renumbers explicit bond pairs after the atoms in drop are
// deleted. Sets left without pairs are removed, along with the polyhedron
// sets that take their neighbours from them. It returns the removed IDs.
func (s *State) DropAtoms(drop []int) []string {
	var removed []string
	kept := s.BondSets[:0]
	for _, b := range s.BondSets {
		if b.Rule.Kind == geometry.RulePairs {
			b.Rule = b.Rule.WithoutAtoms(drop)
			if len(b.Rule.Pairs) == 0 {
				removed = append(removed, b.ID)
				continue
			}
		}
		kept = append(kept, b)
	}
	s.BondSets = kept
	if len(removed) == 0 {
		return nil
	}

	gone := make(map[string]bool, len(removed))
	for _, id := range removed {
		gone[id] = true
	}
	polys := s.PolyhedronSets[:0]
	for _, p := range s.PolyhedronSets {
		if p.BondSet != "" && gone[p.BondSet] {
			removed = append(removed, p.Name)
			continue
		}
		polys = append(polys, p)
	}
	s.PolyhedronSets = polys
	return removed
}

// SetPicked replaces the picked atoms with a sorted, de-duplicated list.
func (s *State) SetPicked(idx []int) {
	seen := make(map[int]bool, len(idx))
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	sort.Ints(out)
	s.Picked = out
}

func (s *State) IsPicked(i int) bool {
	k := sort.SearchInts(s.Picked, i)
	return k < len(s.Picked) && s.Picked[k] == i
}

// ColorFields returns the scalar fields that colour rules read.
func (s *State) ColorFields() []string {
	seen := make(map[string]bool)
	add := func(r fieldmap.ColorRule) {
		if r.ByField() && r.Domain == nil {
			seen[r.Field] = true
		}
	}
	add(s.DefaultAtom.Color)
	for _, t := range s.AtomTypes {
		add(t.Color)
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
