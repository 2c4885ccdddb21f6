package scene

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/fieldmap"
	"github.com/san-kum/atomscene/internal/geometry"
	"github.com/san-kum/atomscene/internal/label"
	"github.com/san-kum/atomscene/internal/settings"
	"gonum.org/v1/gonum/spatial/r3"
)

// Input is everything a build reads. Config and Settings are treated as
// read-only snapshots.
type Input struct {
	Config     *atoms.Configuration
	Frame      int
	Generation uint64
	Settings   *settings.State
}

func (in Input) Stamp() Stamp {
	return Stamp{Revision: in.Settings.Revision, Generation: in.Generation, Frame: in.Frame}
}

// Builder derives models. It keeps compiled label templates across builds
// of the same settings revision.
type Builder struct {
	Labels *label.Cache
}

func NewBuilder() *Builder {
	return &Builder{Labels: label.NewCache()}
}

// Build derives a complete model or fails without a partial result.
func Build(in Input) (*Model, error) {
	return NewBuilder().Build(in)
}

type build struct {
	in     Input
	cfg    *atoms.Configuration
	s      *settings.State
	mapper *fieldmap.Mapper
	labels *label.Cache
	images []atoms.Shift
	vis    [][]bool
	m      *Model
	colors []fieldmap.Color

	bondCache map[string][]geometry.Bond
}

func (b *Builder) Build(in Input) (*Model, error) {
	if in.Settings == nil {
		return nil, errs.Invalid("scene build without settings")
	}
	if err := in.Config.Validate(); err != nil {
		return nil, err
	}
	labels := b.Labels
	if labels == nil {
		labels = label.NewCache()
	}
	bd := &build{
		in:     in,
		cfg:    in.Config,
		s:      in.Settings,
		labels: labels,
		m:      &Model{Stamp: in.Stamp(), Prims: make(map[string]Primitive)},
		mapper: &fieldmap.Mapper{
			Colormaps: in.Settings.Colormaps,
			Domains:   fieldmap.ComputeDomains(in.Config, in.Settings.ColorFields()),
		},
	}
	bd.images = geometry.GenerateImages(bd.cfg, bd.s.Images)
	vis, err := geometry.Visible(bd.cfg, bd.s.Images, bd.images)
	if err != nil {
		return nil, err
	}
	bd.vis = vis

	steps := []func() error{
		bd.addAtoms,
		bd.addBonds,
		bd.addPolyhedra,
		bd.addVectors,
		bd.addFrameLabel,
		bd.addCellBoxes,
		bd.addIsosurfaces,
		bd.addLegend,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return bd.m, nil
}

func (bd *build) add(p Primitive) {
	bd.m.Prims[p.ID] = p
}

func (bd *build) position(i int, img atoms.Shift) r3.Vec {
	return r3.Add(bd.cfg.Atoms[i].Position, bd.cfg.Cell.Translation(img))
}

func (bd *build) addAtoms() error {
	bd.colors = make([]fieldmap.Color, bd.cfg.Len())
	radii := make([]float64, bd.cfg.Len())
	texts := make([]string, bd.cfg.Len())
	hasText := make([]bool, bd.cfg.Len())

	for i := range bd.cfg.Atoms {
		a := &bd.cfg.Atoms[i]
		t := bd.s.AtomType(a.Species)
		c, err := bd.mapper.ResolveColor(a, t.Color)
		if err != nil {
			return fmt.Errorf("atom %d colour: %w", i, err)
		}
		r, err := bd.mapper.ResolveRadius(a, t.Radius)
		if err != nil {
			return fmt.Errorf("atom %d radius: %w", i, err)
		}
		bd.colors[i], radii[i] = c, r
		if v, ok := a.Props[atoms.LabelProperty]; ok && v.Kind == atoms.KindString {
			if v.Str != noneLabel {
				texts[i], hasText[i] = v.Str, true
			}
			continue
		}
		if t.Label == "" {
			continue
		}
		tmpl, err := bd.labels.Get(bd.s.Revision, t.Label)
		if err != nil {
			return err
		}
		text, err := tmpl.Render(label.Scope{
			Meta:    bd.cfg.Info,
			Props:   a.Props,
			Frame:   bd.in.Frame,
			Index:   i,
			Species: a.Species,
			Default: bd.s.LabelDefault,
		})
		if err != nil {
			return fmt.Errorf("atom %d label: %w", i, err)
		}
		texts[i], hasText[i] = text, true
	}

	for k, img := range bd.images {
		for i := range bd.cfg.Atoms {
			if !bd.vis[k][i] {
				continue
			}
			pos := bd.position(i, img)
			t := bd.s.AtomType(bd.cfg.Atoms[i].Species)
			bd.add(Primitive{
				ID:       AtomID(i, img),
				Kind:     KindAtom,
				Geometry: Geometry{Atoms: []int{i}, Image: img, Points: []r3.Vec{pos}},
				Attrs:    Attrs{Color: bd.colors[i], Radius: radii[i], Opacity: t.Opacity, Picked: bd.s.IsPicked(i)},
			})
			if hasText[i] {
				bd.add(Primitive{
					ID:       AtomLabelID(i, img),
					Kind:     KindLabel,
					Geometry: Geometry{Atoms: []int{i}, Image: img, Points: []r3.Vec{pos}},
					Attrs:    Attrs{Color: bd.colors[i], Opacity: 1, Text: texts[i]},
				})
			}
		}
	}
	return nil
}

// bondSet detects the bonds of set id, memoised per build.
func (bd *build) bondSet(id string, cache map[string][]geometry.Bond) ([]geometry.Bond, error) {
	if bonds, ok := cache[id]; ok {
		return bonds, nil
	}
	set, ok := bd.s.BondSet(id)
	if !ok {
		return nil, errs.Reference("unknown bond set %q", id)
	}
	bonds, err := geometry.DetectBonds(bd.cfg, set.Rule)
	if err != nil {
		return nil, fmt.Errorf("bond set %s: %w", id, err)
	}
	cache[id] = bonds
	return bonds, nil
}

func (bd *build) addBonds() error {
	cache := make(map[string][]geometry.Bond)
	for _, set := range bd.s.BondSets {
		bt, err := bd.s.BondType(set.Type)
		if err != nil {
			return fmt.Errorf("bond set %s: %w", set.ID, err)
		}
		bonds, err := bd.bondSet(set.ID, cache)
		if err != nil {
			return err
		}
		segs := geometry.Split(bd.cfg, bonds)
		for k, img := range bd.images {
			tr := bd.cfg.Cell.Translation(img)
			for _, seg := range segs {
				if !bd.segmentVisible(k, seg) {
					continue
				}
				bd.add(Primitive{
					ID:   BondID(set.ID, seg, img),
					Kind: KindBond,
					Geometry: Geometry{
						Atoms:  []int{seg.Bond.I, seg.Bond.J},
						Image:  img,
						Shift:  seg.Bond.Shift,
						Points: []r3.Vec{r3.Add(seg.From, tr), r3.Add(seg.To, tr)},
						Ref:    set.ID,
					},
					Attrs: Attrs{Color: bt.Color, Radius: bt.Radius, Opacity: bt.Opacity},
				})
			}
		}
	}
	bd.bondCache = cache
	return nil
}

// segmentVisible shows a half when its anchor atom is shown, and a whole
// bond when both of its atoms are.
func (bd *build) segmentVisible(k int, seg geometry.Segment) bool {
	if seg.Half {
		return bd.vis[k][seg.Anchor]
	}
	return bd.vis[k][seg.Bond.I] && bd.vis[k][seg.Bond.J]
}

func (bd *build) addPolyhedra() error {
	for _, ps := range bd.s.PolyhedronSets {
		rule := geometry.NeighborRule{Cutoff: ps.Cutoff, Species: ps.Neighbor}
		if ps.BondSet != "" {
			bonds, err := bd.bondSet(ps.BondSet, bd.bondCache)
			if err != nil {
				return fmt.Errorf("polyhedron set %s: %w", ps.Name, err)
			}
			rule.Bonds = bonds
		}
		polys, err := geometry.BuildPolyhedra(bd.cfg, ps.Center, rule)
		if err != nil {
			return fmt.Errorf("polyhedron set %s: %w", ps.Name, err)
		}
		for k, img := range bd.images {
			tr := bd.cfg.Cell.Translation(img)
			for _, p := range polys {
				if !bd.vis[k][p.Center] || len(p.Edges) == 0 {
					continue
				}
				idx := make([]int, 0, len(p.Neighbors)+1)
				idx = append(idx, p.Center)
				pts := make([]r3.Vec, len(p.Vertices))
				for v, n := range p.Neighbors {
					idx = append(idx, n.Index)
					pts[v] = r3.Add(p.Vertices[v], tr)
				}
				bd.add(Primitive{
					ID:       PolyhedronID(ps.Name, p.Center, img),
					Kind:     KindPolyhedron,
					Geometry: Geometry{Atoms: idx, Image: img, Points: pts, Faces: p.Faces, Edges: p.Edges, Ref: ps.Name},
					Attrs:    Attrs{Color: ps.Color, Opacity: ps.Opacity},
				})
			}
		}
	}
	return nil
}

func (bd *build) addVectors() error {
	rule := bd.s.Vectors
	if rule == nil {
		return nil
	}
	glyphs := make([]fieldmap.Glyph, bd.cfg.Len())
	for i := range bd.cfg.Atoms {
		g, err := bd.mapper.ResolveVector(&bd.cfg.Atoms[i], *rule)
		if err != nil {
			return fmt.Errorf("atom %d vector: %w", i, err)
		}
		glyphs[i] = g
	}
	for k, img := range bd.images {
		for i, g := range glyphs {
			if !bd.vis[k][i] || g.Magnitude == 0 {
				continue
			}
			start := bd.position(i, img)
			end := r3.Add(start, r3.Scale(g.Magnitude, g.Direction))
			bd.add(Primitive{
				ID:       VectorID(i, img),
				Kind:     KindVector,
				Geometry: Geometry{Atoms: []int{i}, Image: img, Points: []r3.Vec{start, end}},
				Attrs:    Attrs{Color: rule.GlyphColor(g, bd.colors[i]), Radius: rule.Radius, Opacity: 1},
			})
		}
	}
	return nil
}

// noneLabel as an override hides the label.
const noneLabel = "_NONE_"

func (bd *build) addFrameLabel() error {
	src := bd.s.FrameLabel
	if v, ok := bd.cfg.Info[atoms.FrameLabelKey]; ok && v.Kind == atoms.KindString {
		src = v.Str
	}
	if src == "" || src == noneLabel {
		return nil
	}
	tmpl, err := bd.labels.Get(bd.s.Revision, src)
	if err != nil {
		return err
	}
	text, err := tmpl.Render(label.Scope{Meta: bd.cfg.Info, Frame: bd.in.Frame, Index: -1, Default: bd.s.LabelDefault})
	if err != nil {
		return fmt.Errorf("frame label: %w", err)
	}
	bd.add(Primitive{
		ID:    FrameLabelID,
		Kind:  KindLabel,
		Attrs: Attrs{Color: bd.s.CellBoxColor, Opacity: 1, Text: text},
	})
	return nil
}

var boxEdges = [][2]int{
	{0, 1}, {0, 2}, {0, 4}, {1, 3}, {1, 5}, {2, 3},
	{2, 6}, {3, 7}, {4, 5}, {4, 6}, {5, 7}, {6, 7},
}

func (bd *build) addCellBoxes() error {
	c := bd.cfg.Cell
	if !bd.s.CellBox || c.Volume() == 0 {
		return nil
	}
	for _, img := range bd.images {
		origin := c.Translation(img)
		pts := make([]r3.Vec, 8)
		for corner := 0; corner < 8; corner++ {
			p := origin
			for ax := 0; ax < 3; ax++ {
				if corner&(1<<ax) != 0 {
					p = r3.Add(p, c.Vectors[ax])
				}
			}
			pts[corner] = p
		}
		bd.add(Primitive{
			ID:       CellID(img),
			Kind:     KindCell,
			Geometry: Geometry{Image: img, Points: pts, Edges: boxEdges},
			Attrs:    Attrs{Color: bd.s.CellBoxColor, Opacity: 1},
		})
	}
	return nil
}

func (bd *build) addIsosurfaces() error {
	names := make([]string, 0, len(bd.s.Volumes))
	for name := range bd.s.Volumes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := bd.s.Volumes[name]
		if v.Grid == nil {
			return errs.Reference("volume %q has no grid", name)
		}
		for k, iso := range v.Isosurfaces {
			mesh := v.Grid.Isosurface(iso.Value)
			bd.add(Primitive{
				ID:       IsosurfaceID(name, k),
				Kind:     KindIsosurface,
				Geometry: Geometry{Points: mesh.Vertices, Faces: mesh.Faces, Ref: name},
				Attrs:    Attrs{Color: iso.Color, Opacity: iso.Opacity},
			})
		}
	}
	return nil
}

func (bd *build) addLegend() error {
	if !bd.s.Legend {
		return nil
	}
	var b strings.Builder
	for _, sp := range bd.cfg.Species() {
		t := bd.s.AtomType(sp)
		if t.Color.ByField() {
			fmt.Fprintf(&b, "%s: %s by %s\n", sp, t.Color.Field, t.Color.Colormap)
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", sp, t.Color.Fixed)
	}
	bd.add(Primitive{
		ID:    LegendID,
		Kind:  KindLegend,
		Attrs: Attrs{Color: bd.s.CellBoxColor, Opacity: 1, Text: strings.TrimSuffix(b.String(), "\n")},
	})
	return nil
}
