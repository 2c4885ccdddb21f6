package scene_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/fieldmap"
	"github.com/san-kum/atomscene/internal/geometry"
	"github.com/san-kum/atomscene/internal/scene"
	"github.com/san-kum/atomscene/internal/settings"
	"gonum.org/v1/gonum/spatial/r3"
)

// chain is two carbons bonded across the x boundary of a 10 Å cell.
func chain() *atoms.Configuration {
	return &atoms.Configuration{
		Cell: atoms.Cell{
			Vectors: [3]r3.Vec{{X: 10}, {Y: 10}, {Z: 10}},
			PBC:     [3]bool{true, true, true},
		},
		Atoms: []atoms.Atom{
			{Species: "C", Position: r3.Vec{X: 0, Y: 5, Z: 5}, Props: atoms.Properties{"q": atoms.Scalar(-1)}},
			{Species: "C", Position: r3.Vec{X: 9, Y: 5, Z: 5}, Props: atoms.Properties{"q": atoms.Scalar(1)}},
		},
		Info: atoms.Properties{"energy": atoms.Scalar(-2)},
	}
}

func withBonds(s *settings.State) *settings.State {
	Expect(s.PutBondSet(settings.BondSet{ID: "A", Type: "default", Rule: geometry.CutoffRule(1.5)})).To(Succeed())
	return s
}

var _ = Describe("Build", func() {
	var (
		cfg *atoms.Configuration
		s   *settings.State
	)

	BeforeEach(func() {
		cfg = chain()
		s = withBonds(settings.Default())
		s.Revision = 4
	})

	It("stamps the model with its inputs", func() {
		m, err := scene.Build(scene.Input{Config: cfg, Frame: 2, Generation: 9, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Stamp).To(Equal(scene.Stamp{Revision: 4, Generation: 9, Frame: 2}))
	})

	It("splits boundary bonds into two halves with stable ids", func() {
		m, err := scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).NotTo(HaveOccurred())

		counts := m.Counts()
		Expect(counts[scene.KindAtom]).To(Equal(2))
		Expect(counts[scene.KindBond]).To(Equal(2))
		Expect(m.IDs()).To(ContainElements(
			"atom#0", "atom#1",
			"bond#A#0-1+s(-1,0,0)#half0",
			"bond#A#0-1+s(-1,0,0)#half1",
			"cell#img(0,0,0)",
			"label#frame",
		))

		a, _ := m.Get("bond#A#0-1+s(-1,0,0)#half0")
		b, _ := m.Get("bond#A#0-1+s(-1,0,0)#half1")
		Expect(a.Geometry.Points[1].X).To(BeNumerically("~", -0.5, 1e-12))
		Expect(b.Geometry.Points[1].X).To(BeNumerically("~", 9.5, 1e-12))
	})

	It("is deterministic", func() {
		m1, err := scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		m2, err := scene.Build(scene.Input{Config: cfg, Settings: s.Clone()})
		Expect(err).NotTo(HaveOccurred())
		Expect(m1.Equal(m2)).To(BeTrue())
	})

	It("replicates atoms into periodic images inside the range", func() {
		s.Images = geometry.NewRange([3]float64{-0.5, -0.5, -0.5}, [3]float64{1.5, 1.5, 1.5})
		m, err := scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		// each atom sits inside the range in 2 x-images and all 9 y/z images
		Expect(m.Counts()[scene.KindAtom]).To(Equal(2 * 2 * 9))
		Expect(m.Counts()[scene.KindCell]).To(Equal(27))
		Expect(m.IDs()).To(ContainElement("atom#1#img(-1,0,0)"))
	})

	It("shows nothing for an inverted range", func() {
		s.Images = geometry.RangeFromCounts([3]float64{-1, 0, 0})
		m, err := scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Counts()[scene.KindAtom]).To(BeZero())
	})

	It("colours atoms by a field through a colormap", func() {
		s.AtomTypes["C"] = settings.AtomType{
			Color:   fieldmap.ColorRule{Field: "q", Colormap: "gray"},
			Radius:  fieldmap.RadiusRule{Fixed: 0.7},
			Opacity: 1,
		}
		m, err := scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		lo, _ := m.Get("atom#0")
		hi, _ := m.Get("atom#1")
		Expect(lo.Attrs.Color).To(Equal(fieldmap.Color{0, 0, 0}))
		Expect(hi.Attrs.Color).To(Equal(fieldmap.Color{1, 1, 1}))
	})

	It("fails with MissingProperty when a colour field is absent", func() {
		s.AtomTypes["C"] = settings.AtomType{Color: fieldmap.ColorRule{Field: "spin", Colormap: "gray"}}
		_, err := scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).To(MatchError(errs.ErrMissingProperty))
	})

	It("renders atom and frame labels", func() {
		t := s.AtomType("C")
		t.Label = "$${q}"
		s.AtomTypes["C"] = t
		s.FrameLabel = "E=${energy} #${config_n}"
		m, err := scene.Build(scene.Input{Config: cfg, Frame: 3, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		l, ok := m.Get("label#atom#1")
		Expect(ok).To(BeTrue())
		Expect(l.Attrs.Text).To(Equal("1"))
		f, _ := m.Get(scene.FrameLabelID)
		Expect(f.Attrs.Text).To(Equal("E=-2 #3"))
	})

	It("prefers label overrides stored on atoms and frames", func() {
		t := s.AtomType("C")
		t.Label = "$${q}"
		s.AtomTypes["C"] = t
		cfg.Atoms[0].Props[atoms.LabelProperty] = atoms.String("anchor")
		cfg.Atoms[1].Props[atoms.LabelProperty] = atoms.String("_NONE_")
		cfg.Info[atoms.FrameLabelKey] = atoms.String("frame ${config_n}")

		m, err := scene.Build(scene.Input{Config: cfg, Frame: 5, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		l, ok := m.Get("label#atom#0")
		Expect(ok).To(BeTrue())
		Expect(l.Attrs.Text).To(Equal("anchor"))
		_, ok = m.Get("label#atom#1")
		Expect(ok).To(BeFalse())
		f, _ := m.Get(scene.FrameLabelID)
		Expect(f.Attrs.Text).To(Equal("frame 5"))

		cfg.Info[atoms.FrameLabelKey] = atoms.String("_NONE_")
		m, err = scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		_, ok = m.Get(scene.FrameLabelID)
		Expect(ok).To(BeFalse())
	})

	It("draws vector glyphs from scalar fields", func() {
		rule := fieldmap.DefaultVectorRule("q")
		s.Vectors = &rule
		m, err := scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		v, ok := m.Get("vector#0")
		Expect(ok).To(BeTrue())
		Expect(v.Geometry.Points[1].Z).To(BeNumerically("~", 4, 1e-12))
		Expect(v.Attrs.Color).To(Equal(rule.Down))
	})

	It("builds polyhedra around each centre", func() {
		// at 9.5 Å each atom sees the other directly and through the boundary
		Expect(s.PutPolyhedronSet(settings.PolyhedronSet{Name: "p", Center: "C", Cutoff: 9.5, Opacity: 0.5})).To(Succeed())
		m, err := scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.IDs()).To(ContainElements("polyhedron#p#0", "polyhedron#p#1"))
	})

	It("marks picked atoms", func() {
		s.SetPicked([]int{1, 7})
		m, err := scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		p, _ := m.Get("atom#1")
		Expect(p.Attrs.Picked).To(BeTrue())
	})

	It("rejects empty configurations", func() {
		_, err := scene.Build(scene.Input{Config: &atoms.Configuration{}, Settings: s})
		Expect(err).To(MatchError(errs.ErrEmptyConfiguration))
	})

	It("orders primitives for drawing by kind then id", func() {
		Expect(s.PutBondSet(settings.BondSet{ID: "B", Type: "default", Rule: geometry.CutoffRule(1.5)})).To(Succeed())
		m, err := scene.Build(scene.Input{Config: cfg, Settings: s})
		Expect(err).NotTo(HaveOccurred())
		var bondRefs []string
		for _, p := range m.Ordered() {
			if p.Kind == scene.KindBond {
				bondRefs = append(bondRefs, p.Geometry.Ref)
			}
		}
		Expect(bondRefs).To(Equal([]string{"A", "A", "B", "B"}))
	})
})
