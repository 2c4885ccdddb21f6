package command_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/command"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/render"
	"github.com/san-kum/atomscene/internal/scene"
	"github.com/san-kum/atomscene/internal/storage"
	"github.com/san-kum/atomscene/internal/viz"
)

const gridVol = `2 2 2
10 0 0
0 10 0
0 0 10
0.5
0 0 0 0 1 1 1 1
`

var _ = Describe("Registry", func() {
	reg := command.NewRegistry()

	DescribeTable("resolves unique prefixes",
		func(word, want string) {
			c, err := reg.Lookup(word)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Name).To(Equal(want))
		},
		Entry("exact", "bond", "bond"),
		Entry("exact beats longer names", "read", "read"),
		Entry("prefix", "pol", "polyhedra"),
		Entry("longer prefix", "read_", "read_state"),
		Entry("override frame", "override_f", "override_frame_label"),
		Entry("override atom", "override_a", "override_atom_label"),
		Entry("usage", "usa", "usage"),
	)

	DescribeTable("rejects unknown and ambiguous words",
		func(word string) {
			_, err := reg.Lookup(word)
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
		},
		Entry("ambiguous", "p"),
		Entry("ambiguous state", "re"),
		Entry("ambiguous override", "ov"),
		Entry("unknown", "xyzzy"),
	)

	It("lists settings apart from commands", func() {
		u := reg.Usage()
		Expect(u).To(HavePrefix("SETTINGS:\n"))
		Expect(u).To(ContainSubstring("atom_type [-color COLOR...]"))
		Expect(u).To(ContainSubstring("COMMANDS:\n"))
		Expect(u).To(ContainSubstring("bond "))
	})
})

var _ = Describe("Engine", func() {
	var (
		dir string
		rec *render.Recorder
		e   *command.Engine
	)

	run := func(line string) string {
		GinkgoHelper()
		out, err := e.Execute(line)
		Expect(err).NotTo(HaveOccurred())
		return out
	}
	counts := func() map[scene.Kind]int { return e.Model().Counts() }

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		rec = render.NewRecorder()
		e = command.NewEngine(rec)
		writeFile(dir, "water.xyz", waterXYZ)
		run("load " + filepath.Join(dir, "water.xyz"))
	})

	It("builds the loaded frame and hands the patch to the renderer", func() {
		Expect(counts()[scene.KindAtom]).To(Equal(3))
		Expect(counts()[scene.KindCell]).To(Equal(1))
		Expect(rec.Model().Equal(e.Model())).To(BeTrue())
		Expect(e.Frames().Len()).To(Equal(2))
	})

	It("does not emit a patch when nothing changed", func() {
		n := len(rec.Patches)
		run("legend off")
		run("usage")
		Expect(rec.Patches).To(HaveLen(n))
	})

	It("bumps the settings revision only on change", func() {
		rev := e.Settings().Revision
		run("legend on")
		Expect(e.Settings().Revision).To(Equal(rev + 1))
		run("legend on")
		Expect(e.Settings().Revision).To(Equal(rev + 1))
	})

	Describe("apply-or-reject", func() {
		It("leaves settings, frames and model untouched when the build fails", func() {
			settings, model, gen := e.Settings(), e.Model(), e.Frames().Generation()
			n := len(rec.Patches)

			_, err := e.Execute("atom_type O -colormap bwr spin")
			Expect(err).To(MatchError(errs.ErrMissingProperty))

			Expect(e.Settings()).To(BeIdenticalTo(settings))
			Expect(e.Model()).To(BeIdenticalTo(model))
			Expect(e.Frames().Generation()).To(Equal(gen))
			Expect(rec.Patches).To(HaveLen(n))
		})

		It("keeps commands before the failing one", func() {
			_, err := e.Execute("legend on; atom_type O -radius -1; cell_box off")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
			Expect(e.Settings().Legend).To(BeTrue())
			Expect(e.Settings().CellBox).To(BeTrue())
		})

		It("rejects dangling references", func() {
			_, err := e.Execute("pick 7")
			Expect(err).To(MatchError(errs.ErrInvalidReference))
			_, err = e.Execute("bond -type nope -rcut 1.2")
			Expect(err).To(MatchError(errs.ErrInvalidReference))
			Expect(e.Settings().BondSets).To(BeEmpty())
		})

		It("counts rejected commands", func() {
			e.Execute("xyzzy")
			out := run("stats")
			Expect(out).To(ContainSubstring(`commands_total{result="rejected"} 1`))
		})
	})

	Describe("frames", func() {
		It("steps and clamps", func() {
			run("next")
			Expect(e.Frames().Index()).To(Equal(1))
			run("next")
			Expect(e.Frames().Index()).To(Equal(1))
			run("prev 5")
			Expect(e.Frames().Index()).To(Equal(0))
			run("go -1")
			Expect(e.Frames().Index()).To(Equal(1))
			Expect(e.Model().Stamp.Frame).To(Equal(1))

			_, err := e.Execute("go 5")
			Expect(err).To(MatchError(errs.ErrInvalidReference))
			Expect(e.Frames().Index()).To(Equal(1))
		})

		It("appends frames", func() {
			run("load -append " + filepath.Join(dir, "water.xyz"))
			Expect(e.Frames().Len()).To(Equal(4))
		})

		It("deletes picked atoms and clears the picks", func() {
			run("pick 2")
			run("delete")
			cfg, err := e.Frames().Current()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Len()).To(Equal(2))
			Expect(e.Settings().Picked).To(BeEmpty())

			_, err = e.Execute("delete")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
		})

		It("deletes atoms in every frame", func() {
			run("delete -atoms 0 -all_frames")
			for _, f := range e.Frames().Frames() {
				Expect(f.Len()).To(Equal(2))
			}
		})

		It("renumbers explicit bonds after deleting atoms", func() {
			run("bond -n 0 1 -name oh; bond -n 1 2 -name hh")
			run("polyhedra -name cage -T O -bond_name oh")
			out := run("delete -atoms 0 -all_frames")
			Expect(out).To(ContainSubstring("removed oh"))
			Expect(out).To(ContainSubstring("removed cage"))

			_, ok := e.Settings().BondSet("oh")
			Expect(ok).To(BeFalse())
			Expect(e.Settings().PolyhedronSets).To(BeEmpty())
			hh, ok := e.Settings().BondSet("hh")
			Expect(ok).To(BeTrue())
			Expect(hh.Rule.Pairs).To(Equal([][2]int{{0, 1}}))
			Expect(counts()[scene.KindBond]).To(BeNumerically(">", 0))
		})

		It("clears the picks when frames are replaced", func() {
			run("pick 1 2")
			run("load -append " + filepath.Join(dir, "water.xyz"))
			Expect(e.Settings().Picked).To(Equal([]int{1, 2}))
			run("load " + filepath.Join(dir, "water.xyz"))
			Expect(e.Settings().Picked).To(BeEmpty())
		})

		It("duplicates the cell", func() {
			run("dup 2 1 1")
			Expect(counts()[scene.KindAtom]).To(Equal(6))
		})

		It("runs command files", func() {
			script := writeFile(dir, "setup.cmds", "legend on\n# comment\n\nimages 1\n")
			run("read " + script)
			Expect(e.Settings().Legend).To(BeTrue())
			Expect(e.Settings().Images.Bounded).To(BeTrue())
		})

		It("reports the failing line of a command file", func() {
			script := writeFile(dir, "bad.cmds", "legend on\nbogus\n")
			_, err := e.Execute("read " + script)
			Expect(err).To(MatchError(ContainSubstring("bad.cmds:2:")))
			Expect(e.Settings().Legend).To(BeTrue())
		})

		It("stops runaway script recursion", func() {
			script := filepath.Join(dir, "loop.cmds")
			writeFile(dir, "loop.cmds", "read "+script+"\n")
			_, err := e.Execute("read " + script)
			Expect(err).To(MatchError(ContainSubstring("nested deeper")))
		})
	})

	Describe("scene commands", func() {
		It("draws bonds across the boundary as halves", func() {
			run("bond -rcut 1.2")
			Expect(counts()[scene.KindBond]).To(BeNumerically(">=", 3))
			Expect(e.Model().IDs()).To(ContainElement(ContainSubstring("#half0")))
			Expect(run("bond -list")).To(ContainSubstring("default\ttype=default\tcutoff=0-1.2"))

			run("bond -delete")
			Expect(counts()[scene.KindBond]).To(BeZero())
		})

		It("bonds picked atoms explicitly", func() {
			run("pick 1 2; bond -picked -name hh")
			set, ok := e.Settings().BondSet("hh")
			Expect(ok).To(BeTrue())
			Expect(set.Rule.Pairs).To(Equal([][2]int{{1, 2}}))
			Expect(counts()[scene.KindBond]).To(BeNumerically(">", 0))
		})

		It("shows periodic images", func() {
			run("images 1")
			Expect(counts()[scene.KindAtom]).To(BeNumerically(">", 3))
			run("images -off")
			Expect(counts()[scene.KindAtom]).To(Equal(3))
		})

		It("accepts infinite range bounds", func() {
			run("images -range 0 1 -inf inf 0 1")
			Expect(e.Settings().Images.Bounded).To(BeTrue())
		})

		It("substitutes frame metadata into the frame label", func() {
			run(`override_frame_label -all_frames "${tag} E=${energy}"`)
			p, ok := e.Model().Get(scene.FrameLabelID)
			Expect(ok).To(BeTrue())
			Expect(p.Attrs.Text).To(Equal("first E=-12.5"))

			run("next")
			p, _ = e.Model().Get(scene.FrameLabelID)
			Expect(p.Attrs.Text).To(Equal("second E=-12"))

			run("override_frame_label _NONE_")
			_, ok = e.Model().Get(scene.FrameLabelID)
			Expect(ok).To(BeFalse())
			run("prev")
			_, ok = e.Model().Get(scene.FrameLabelID)
			Expect(ok).To(BeTrue())
		})

		It("falls back to the default frame label", func() {
			run(`override_frame_label -default "#${config_n}"`)
			run(`override_frame_label "${tag}"`)
			p, _ := e.Model().Get(scene.FrameLabelID)
			Expect(p.Attrs.Text).To(Equal("first"))

			run("next")
			p, _ = e.Model().Get(scene.FrameLabelID)
			Expect(p.Attrs.Text).To(Equal("#1"))

			run("prev; override_frame_label ''")
			p, _ = e.Model().Get(scene.FrameLabelID)
			Expect(p.Attrs.Text).To(Equal("#0"))

			_, err := e.Execute("override_frame_label -default -all_frames x")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
		})

		It("overrides the labels of selected atoms", func() {
			run("pick 1; override_atom_label hello world")
			p, ok := e.Model().Get(scene.AtomLabelID(1, atoms.Shift{}))
			Expect(ok).To(BeTrue())
			Expect(p.Attrs.Text).To(Equal("hello world"))

			run("override_atom_label -i 0,-1 X")
			for _, i := range []int{0, 2} {
				p, ok := e.Model().Get(scene.AtomLabelID(i, atoms.Shift{}))
				Expect(ok).To(BeTrue())
				Expect(p.Attrs.Text).To(Equal("X"))
			}

			run(`override_atom_label -eval 'species == "O"' ''`)
			_, ok = e.Model().Get(scene.AtomLabelID(0, atoms.Shift{}))
			Expect(ok).To(BeFalse())

			run("next")
			_, ok = e.Model().Get(scene.AtomLabelID(1, atoms.Shift{}))
			Expect(ok).To(BeFalse())
		})

		It("rejects conflicting atom label selections", func() {
			_, err := e.Execute("override_atom_label hello")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
			_, err = e.Execute("pick 0; override_atom_label -picked -i 1 hello")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
			_, err = e.Execute("override_atom_label -i 0:2:0 hello")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
			_, err = e.Execute("override_atom_label -i 9 hello")
			Expect(err).To(MatchError(errs.ErrInvalidReference))
			_, err = e.Execute("override_atom_label -eval 'q + 1' hello")
			Expect(err).To(MatchError(errs.ErrExpression))
		})

		It("renders per-atom label expressions", func() {
			run(`atom_type O -label '$(format("%.1f", q))'`)
			p, ok := e.Model().Get(scene.AtomLabelID(0, atoms.Shift{}))
			Expect(ok).To(BeTrue())
			Expect(p.Attrs.Text).To(Equal("-0.8"))
		})

		It("draws and removes vectors", func() {
			run("vectors -field q -color sign")
			Expect(counts()[scene.KindVector]).To(Equal(3))
			run("vectors -delete")
			Expect(counts()[scene.KindVector]).To(BeZero())

			_, err := e.Execute("vectors -radius 0.2")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
		})

		It("manages polyhedron sets", func() {
			run("polyhedra -T O -Tn H -rcut 1.2 -color blue")
			Expect(run("polyhedra -list")).To(ContainSubstring("default\tcentre=O\tneighbour=H\trcut=1.2"))
			run("polyhedra -delete")
			Expect(e.Settings().PolyhedronSets).To(BeEmpty())

			_, err := e.Execute("polyhedra -rcut 2")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
		})

		It("names polyhedron species by atomic number", func() {
			run("polyhedra -name z -Z 8 -Zn 1 -rcut 1.2")
			Expect(run("polyhedra -list")).To(ContainSubstring("z\tcentre=O\tneighbour=H\trcut=1.2"))

			_, err := e.Execute("polyhedra -T O -Z 8 -rcut 1.2")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
			_, err = e.Execute("polyhedra -Z 200 -rcut 1.2")
			Expect(err).To(MatchError(errs.ErrInvalidReference))
		})

		It("loads volumes and draws their isosurfaces", func() {
			grid := writeFile(dir, "rho.vol", gridVol)
			run("volume -name rho " + grid)
			Expect(counts()[scene.KindIsosurface]).To(Equal(1))
			Expect(run("volume -list")).To(ContainSubstring("rho\t2x2x2\t1 isosurface(s)"))

			run("volume -name rho -isosurface 0.25 1 0 0 0.5 -isosurface 0.75 0 0 1 0.5")
			Expect(counts()[scene.KindIsosurface]).To(Equal(2))

			run("volume -delete rho")
			Expect(counts()[scene.KindIsosurface]).To(BeZero())
		})

		It("defines colormaps and colours by field", func() {
			run("colormap heat 0 0 0 0 1 1 0 0")
			run("atom_type H -colormap heat q -domain 0 1")
			p, ok := e.Model().Get(scene.AtomID(1, atoms.Shift{}))
			Expect(ok).To(BeTrue())
			Expect(p.Attrs.Color[0]).To(BeNumerically("~", 0.4, 1e-12))
		})
	})

	Describe("state", func() {
		It("round-trips through the state library", func() {
			lib := storage.NewDirStore(filepath.Join(dir, "library"))
			e.Library = lib
			run("bond -rcut 1.2; legend on; next")
			model := e.Model()
			run("write_state -library s1")
			run("legend off; bond -delete; go 0")

			Expect(run("states")).To(ContainSubstring("s1\t"))
			run("read_state -library s1")
			Expect(e.Settings().Legend).To(BeTrue())
			Expect(e.Settings().BondSets).To(HaveLen(1))
			Expect(e.Frames().Index()).To(Equal(1))
			Expect(e.Model().Equal(model)).To(BeTrue())
		})

		It("round-trips through a compressed file", func() {
			path := filepath.Join(dir, "saved.json.gz")
			run("write_state -cur_frame_only " + path)
			run("unpick; legend on")
			run("read_state " + path)
			Expect(e.Frames().Len()).To(Equal(1))
			Expect(e.Settings().Legend).To(BeFalse())
		})

		It("fails without a library", func() {
			_, err := e.Execute("states")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
		})

		It("saves and restores named views", func() {
			run("restore_view -data 1 2 3")
			Expect(rec.View()).To(Equal([]float64{1, 2, 3}))
			run("save_view -name a")
			run("restore_view -data 4 5")
			run("restore_view -name a")
			Expect(rec.View()).To(Equal([]float64{1, 2, 3}))

			_, err := e.Execute("restore_view -name b")
			Expect(err).To(MatchError(errs.ErrInvalidReference))
		})

		It("needs a renderer that can take snapshots", func() {
			_, err := e.Execute("snapshot out.svg")
			Expect(err).To(MatchError(errs.ErrInvalidCommand))
		})

		It("writes snapshots through the preview", func() {
			pv := viz.NewPreview(40, 12)
			e = command.NewEngine(pv)
			run("load " + filepath.Join(dir, "water.xyz"))
			path := filepath.Join(dir, "shots", "water.svg")
			Expect(run("snapshot -mag 2 " + path)).To(ContainSubstring("snapshot written"))
			Expect(path).To(BeARegularFile())
		})
	})

	Describe("info", func() {
		It("measures picked atoms", func() {
			run("pick 0 1 2")
			out := run("measure")
			Expect(out).To(ContainSubstring("pair 0 1 distance 0.9600"))
			Expect(out).To(ContainSubstring("triplet 0 1 2 angle"))
		})

		It("plots a distance histogram", func() {
			out := run("measure -n 0 1 2 -histogram 4")
			Expect(out).To(ContainSubstring("pair distances"))
		})

		It("prints help for a command", func() {
			out := run("bond -h")
			Expect(out).To(HavePrefix("usage: bond"))
			Expect(out).To(ContainSubstring("-rcut"))
			Expect(run("help pol")).To(HavePrefix("usage: polyhedra"))
		})

		It("stops after exit", func() {
			run("exit; legend on")
			Expect(e.Exited()).To(BeTrue())
			Expect(e.Settings().Legend).To(BeFalse())
		})
	})
})

var _ = Describe("Startup", func() {
	It("runs resource files before anything is loaded", func() {
		dir := GinkgoT().TempDir()
		global := writeFile(dir, "global.rc", "bond_type thick -radius 0.3\n")
		local := writeFile(dir, "local.rc", "bond_type thick -color red\n")
		e := command.NewEngine(nil)
		Expect(e.Startup([]string{global, local})).To(Succeed())
		bt, err := e.Settings().BondType("thick")
		Expect(err).NotTo(HaveOccurred())
		Expect(bt.Radius).To(Equal(0.3))
		Expect(bt.Color[0]).To(Equal(1.0))
		Expect(e.Model().Len()).To(BeZero())
	})

	It("fails on a missing file", func() {
		e := command.NewEngine(nil)
		Expect(e.Startup([]string{"/nonexistent/rc"})).To(MatchError(errs.ErrIOFailure))
	})
})
