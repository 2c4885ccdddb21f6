package scenediff_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/fieldmap"
	"github.com/san-kum/atomscene/internal/geometry"
	"github.com/san-kum/atomscene/internal/scene"
	"github.com/san-kum/atomscene/internal/scenediff"
	"github.com/san-kum/atomscene/internal/settings"
	"gonum.org/v1/gonum/spatial/r3"
)

func water() *atoms.Configuration {
	return &atoms.Configuration{
		Cell: atoms.Cell{
			Vectors: [3]r3.Vec{{X: 8}, {Y: 8}, {Z: 8}},
			PBC:     [3]bool{true, true, true},
		},
		Atoms: []atoms.Atom{
			{Species: "O", Position: r3.Vec{X: 0.2, Y: 4, Z: 4}, Props: atoms.Properties{"q": atoms.Scalar(-0.8), "e": atoms.Scalar(2)}},
			{Species: "H", Position: r3.Vec{X: 7.4, Y: 4, Z: 4}, Props: atoms.Properties{"q": atoms.Scalar(0.4), "e": atoms.Scalar(1)}},
			{Species: "H", Position: r3.Vec{X: 0.5, Y: 4.9, Z: 4}, Props: atoms.Properties{"q": atoms.Scalar(0.4), "e": atoms.Scalar(0)}},
		},
	}
}

func baseSettings() *settings.State {
	s := settings.Default()
	Expect(s.PutBondSet(settings.BondSet{ID: "OH", Type: "default", Rule: geometry.CutoffRule(1.2)})).To(Succeed())
	return s
}

func build(cfg *atoms.Configuration, s *settings.State, frame int) *scene.Model {
	m, err := scene.Build(scene.Input{Config: cfg, Frame: frame, Settings: s})
	Expect(err).NotTo(HaveOccurred())
	return m
}

func colourBy(s *settings.State, field string) {
	for _, sp := range []string{"O", "H"} {
		t := s.AtomType(sp)
		t.Color = fieldmap.ColorRule{Field: field, Colormap: "bwr"}
		s.AtomTypes[sp] = t
	}
}

var _ = Describe("Diff", func() {
	var (
		cfg *atoms.Configuration
		s   *settings.State
	)

	BeforeEach(func() {
		cfg = water()
		s = baseSettings()
	})

	It("creates everything from an empty scene", func() {
		m := build(cfg, s, 0)
		p := scenediff.Diff(nil, m)
		Expect(p.Counts()).To(Equal(map[scenediff.OpKind]int{scenediff.OpCreate: m.Len()}))
	})

	It("deletes everything when the scene is cleared", func() {
		m := build(cfg, s, 0)
		p := scenediff.Diff(m, nil)
		Expect(p.Counts()[scenediff.OpDelete]).To(Equal(m.Len()))
	})

	It("emits only attribute updates when the colour rule changes", func() {
		colourBy(s, "q")
		s.Revision = 1
		before := build(cfg, s, 0)

		next := s.Clone()
		colourBy(next, "e")
		next.Revision = 2
		after := build(cfg, next, 0)

		p := scenediff.Diff(before, after)
		Expect(p.Empty()).To(BeFalse())
		for _, op := range p.Ops {
			Expect(op.Kind).To(Equal(scenediff.OpUpdateAttr), op.String())
		}
	})

	It("leaves bond geometry alone when atoms are recoloured", func() {
		before := build(cfg, s, 0)
		next := s.Clone()
		next.AtomTypes["O"] = settings.AtomType{Color: fieldmap.ColorRule{Fixed: fieldmap.Color{0, 1, 0}}, Radius: s.AtomType("O").Radius, Opacity: 1}
		next.Revision = s.Revision + 1
		p := scenediff.Diff(before, build(cfg, next, 0))
		Expect(p.Ops).To(HaveLen(1))
		Expect(p.Ops[0].ID).To(Equal("atom#0"))
	})

	It("replaces primitives whose geometry moved", func() {
		before := build(cfg, s, 0)
		moved := cfg.Clone()
		moved.Atoms[2].Position.Y += 0.05
		after, err := scene.Build(scene.Input{Config: moved, Generation: 1, Settings: s})
		Expect(err).NotTo(HaveOccurred())

		p := scenediff.Diff(before, after)
		Expect(p.Counts()[scenediff.OpCreate]).To(BeZero())
		Expect(p.Counts()[scenediff.OpDelete]).To(BeZero())
		var ids []string
		for _, op := range p.Ops {
			Expect(op.Kind).To(Equal(scenediff.OpReplace))
			ids = append(ids, op.ID)
		}
		Expect(ids).To(ContainElements("atom#2", "bond#OH#0-2"))
	})

	It("short-circuits when both models share a stamp", func() {
		m := build(cfg, s, 0)
		Expect(scenediff.Diff(m, build(cfg, s, 0)).Empty()).To(BeTrue())
	})

	It("orders deletes before creates before updates", func() {
		before := build(cfg, s, 0)
		next := s.Clone()
		Expect(next.DeleteBondSet("OH")).To(Succeed())
		Expect(next.PutBondSet(settings.BondSet{ID: "X", Type: "default", Rule: geometry.CutoffRule(1.2)})).To(Succeed())
		next.BondTypes["default"] = settings.BondType{Color: fieldmap.Color{1, 0, 0}, Radius: 0.15, Opacity: 1}
		next.CellBoxColor = fieldmap.Color{0, 1, 1}
		next.Revision = 5
		p := scenediff.Diff(before, build(cfg, next, 0))

		phase := func(k scenediff.OpKind) int {
			switch k {
			case scenediff.OpDelete:
				return 0
			case scenediff.OpReplace:
				return 1
			case scenediff.OpCreate:
				return 2
			}
			return 3
		}
		for i := 1; i < len(p.Ops); i++ {
			a, b := p.Ops[i-1], p.Ops[i]
			Expect(phase(a.Kind) <= phase(b.Kind)).To(BeTrue(), "%s before %s", a, b)
			if a.Kind == b.Kind {
				Expect(a.ID < b.ID).To(BeTrue())
			}
		}
		Expect(p.Counts()[scenediff.OpDelete]).To(BeNumerically(">", 0))
		Expect(p.Counts()[scenediff.OpCreate]).To(BeNumerically(">", 0))
		Expect(p.Counts()[scenediff.OpUpdateAttr]).To(BeNumerically(">", 0))
	})

	It("reproduces the target model when applied", func() {
		before := build(cfg, s, 0)
		next := s.Clone()
		next.Images = geometry.RangeFromCounts([3]float64{0.5, 0, 0})
		colourBy(next, "q")
		next.Revision = 3
		after := build(cfg, next, 0)

		p := scenediff.Diff(before, after)
		got, err := scenediff.Apply(before, p)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Equal(after)).To(BeTrue())

		got, err = scenediff.Apply(before, p.Expand())
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Equal(after)).To(BeTrue())
	})
})

var _ = Describe("Expand", func() {
	It("lowers replaces into deletes and creates", func() {
		prim := scene.Primitive{ID: "atom#1", Kind: scene.KindAtom}
		p := scenediff.Patch{Ops: []scenediff.Op{
			{Kind: scenediff.OpDelete, ID: "atom#2"},
			{Kind: scenediff.OpReplace, ID: "atom#1", Prim: &prim},
			{Kind: scenediff.OpCreate, ID: "atom#0", Prim: &prim},
		}}
		var got []string
		for _, op := range p.Expand().Ops {
			got = append(got, op.String())
		}
		Expect(got).To(Equal([]string{
			"DELETE atom#1",
			"DELETE atom#2",
			"CREATE atom#0",
			"CREATE atom#1",
		}))
	})
})

var _ = Describe("Apply", func() {
	It("rejects dangling references", func() {
		attrs := scene.Attrs{}
		_, err := scenediff.Apply(scene.Empty(), scenediff.Patch{Ops: []scenediff.Op{
			{Kind: scenediff.OpUpdateAttr, ID: "atom#9", Attrs: &attrs},
		}})
		Expect(err).To(MatchError(errs.ErrInvalidReference))
	})
})
