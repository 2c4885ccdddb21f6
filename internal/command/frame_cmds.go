package command

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/geometry"
	"github.com/san-kum/atomscene/internal/ioformat"
	"github.com/san-kum/atomscene/internal/label"
)

func frameCommands() []*Command {
	return []*Command{
		{Name: "read", Args: "FILE...", Short: "Run the commands in each file.", Bind: bindRead},
		{Name: "load", Args: "FILE...", Short: "Load configurations, replacing the loaded frames.", Bind: bindLoad},
		{Name: "go", Args: "N", Short: "Go to frame N. Negative N counts from the end.", Bind: bindGo},
		{Name: "next", Args: "[N]", Short: "Move forward N frames (default: the step setting).", Bind: bindStep(1)},
		{Name: "prev", Args: "[N]", Short: "Move back N frames (default: the step setting).", Bind: bindStep(-1)},
		{Name: "pick", Args: "N...", Short: "Add atoms to the picked set.", Bind: bindPick},
		{Name: "unpick", Short: "Clear the picked set.", Bind: bindUnpick},
		{Name: "delete", Short: "Delete atoms (default: the picked ones) or every bond set.", Bind: bindDelete},
		{Name: "dup", Args: "N [N N]", Short: "Replace the frame with an N1 x N2 x N3 supercell.", Bind: bindDup},
		{
			Name:  "override_frame_label",
			Args:  "TEMPLATE|" + noneWord,
			Short: "Set the frame label template of this frame ('' restores the default); ${NAME} reads frame info, ${config_n} the frame number.",
			Bind:  bindFrameLabel,
		},
		{
			Name:  "override_atom_label",
			Args:  "STRING...|" + noneWord,
			Short: "Show STRING instead of the type label on the picked atoms ('' restores it).",
			Bind:  bindAtomLabel,
		},
	}
}

func bindRead(fs *pflag.FlagSet) RunFunc {
	return func(tx *Tx, args []string) error {
		if len(args) == 0 {
			return errs.Invalid("read needs at least one file")
		}
		for _, path := range args {
			tx.After(func(w io.Writer) error {
				return tx.e.runScript(path, w)
			})
		}
		return nil
	}
}

func bindLoad(fs *pflag.FlagSet) RunFunc {
	appendFrames := fs.Bool("append", false, "append to the loaded frames instead of replacing them")
	return func(tx *Tx, args []string) error {
		if len(args) == 0 {
			return errs.Invalid("load needs at least one file")
		}
		var frames []*atoms.Configuration
		for _, path := range args {
			cfgs, err := ioformat.ReadConfigurations(path)
			if err != nil {
				return err
			}
			frames = append(frames, cfgs...)
		}
		if *appendFrames {
			if err := tx.Frames.Append(frames...); err != nil {
				return err
			}
		} else {
			if err := tx.Frames.Load(frames); err != nil {
				return err
			}
			if len(tx.Settings.Picked) > 0 {
				tx.Settings.SetPicked(nil)
			}
		}
		tx.Printf("%d frame(s) loaded\n", len(frames))
		return nil
	}
}

func bindGo(fs *pflag.FlagSet) RunFunc {
	return func(tx *Tx, args []string) error {
		if len(args) != 1 {
			return errs.Invalid("go takes one frame number")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return errs.Invalid("frame %q is not an integer", args[0])
		}
		return tx.Frames.Go(n)
	}
}

func bindStep(sign int) func(fs *pflag.FlagSet) RunFunc {
	return func(fs *pflag.FlagSet) RunFunc {
		return func(tx *Tx, args []string) error {
			n := tx.Settings.FrameStep
			switch len(args) {
			case 0:
			case 1:
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return errs.Invalid("step %q is not an integer", args[0])
				}
				n = v
			default:
				return errs.Invalid("takes at most one step")
			}
			return tx.Frames.Step(sign * n)
		}
	}
}

func bindPick(fs *pflag.FlagSet) RunFunc {
	return func(tx *Tx, args []string) error {
		if len(args) == 0 {
			return errs.Invalid("pick needs atom indices")
		}
		idx, err := parseInts("pick", args)
		if err != nil {
			return err
		}
		cfg, err := tx.Current()
		if err != nil {
			return err
		}
		for _, i := range idx {
			if err := cfg.CheckIndex(i); err != nil {
				return err
			}
		}
		tx.Settings.SetPicked(append(append([]int(nil), tx.Settings.Picked...), idx...))
		return nil
	}
}

func bindUnpick(fs *pflag.FlagSet) RunFunc {
	return func(tx *Tx, args []string) error {
		if len(args) != 0 {
			return errs.Invalid("unpick takes no arguments")
		}
		tx.Settings.SetPicked(nil)
		return nil
	}
}

// eachFrame applies fn to the current frame, or to every frame.
func eachFrame(tx *Tx, all bool, fn func(n int, cfg *atoms.Configuration) (*atoms.Configuration, error)) error {
	if tx.Frames.Empty() {
		return errs.ErrEmptyConfiguration
	}
	indices := []int{tx.Frames.Index()}
	if all {
		indices = indices[:0]
		for i := 0; i < tx.Frames.Len(); i++ {
			indices = append(indices, i)
		}
	}
	for _, i := range indices {
		cfg, err := tx.Frames.Frame(i)
		if err != nil {
			return err
		}
		out, err := fn(i, cfg)
		if err != nil {
			return err
		}
		if err := tx.Frames.Replace(i, out); err != nil {
			return err
		}
	}
	return nil
}

func bindDelete(fs *pflag.FlagSet) RunFunc {
	atomIdx := fs.IntSlice("atoms", nil, "delete these atom indices")
	nargs(fs, "atoms", oneOrMore)
	bonds := fs.Bool("bonds", false, "delete every bond set")
	allFrames := fs.Bool("all_frames", false, "apply to all frames")

	return func(tx *Tx, args []string) error {
		if len(args) != 0 {
			return errs.Invalid("delete takes only flags")
		}
		if *bonds {
			if err := tx.Settings.DeleteBondSet(""); err != nil {
				return err
			}
		}
		drop := *atomIdx
		if !fs.Changed("atoms") {
			if *bonds {
				return nil
			}
			drop = tx.Settings.Picked
		}
		if len(drop) == 0 {
			return errs.Invalid("nothing to delete: give -atoms or pick atoms first")
		}
		err := eachFrame(tx, *allFrames, func(_ int, cfg *atoms.Configuration) (*atoms.Configuration, error) {
			return cfg.WithoutAtoms(drop)
		})
		if err != nil {
			return err
		}
		for _, id := range tx.Settings.DropAtoms(drop) {
			tx.Printf("removed %s: all of its atoms were deleted\n", id)
		}
		tx.Settings.SetPicked(nil)
		return nil
	}
}

func bindDup(fs *pflag.FlagSet) RunFunc {
	allFrames := fs.Bool("all_frames", false, "apply to all frames")
	return func(tx *Tx, args []string) error {
		vals, err := parseInts("dup", args)
		if err != nil {
			return err
		}
		n, err := triple("dup", vals)
		if err != nil {
			return err
		}
		return eachFrame(tx, *allFrames, func(_ int, cfg *atoms.Configuration) (*atoms.Configuration, error) {
			return geometry.Supercell(cfg, n)
		})
	}
}

func bindFrameLabel(fs *pflag.FlagSet) RunFunc {
	allFrames := fs.Bool("all_frames", false, "apply to all frames")
	def := fs.Bool("default", false, "set the template of frames without their own")

	return func(tx *Tx, args []string) error {
		if len(args) != 1 {
			return errs.Invalid("override_frame_label takes one template")
		}
		tmpl := args[0]
		if tmpl != noneWord {
			if _, err := label.Compile(tmpl); err != nil {
				return err
			}
		}
		if *def {
			if fs.Changed("all_frames") {
				return errs.Invalid("override_frame_label -default applies to every frame already")
			}
			if tmpl == noneWord {
				tmpl = ""
			}
			tx.Settings.FrameLabel = tmpl
			return nil
		}
		return eachFrame(tx, *allFrames, func(_ int, cfg *atoms.Configuration) (*atoms.Configuration, error) {
			out := cfg.Clone()
			switch {
			case tmpl == "":
				delete(out.Info, atoms.FrameLabelKey)
			case out.Info == nil:
				out.Info = atoms.Properties{atoms.FrameLabelKey: atoms.String(tmpl)}
			default:
				out.Info[atoms.FrameLabelKey] = atoms.String(tmpl)
			}
			return out, nil
		})
	}
}

func bindAtomLabel(fs *pflag.FlagSet) RunFunc {
	allFrames := fs.Bool("all_frames", false, "apply to all frames")
	fs.Bool("picked", false, "label the picked atoms (the default)")
	ranges := fs.String("i", "", "label the atoms in these ranges, e.g. 0,4:8,-1")
	expr := fs.String("eval", "", "label the atoms for which this expression is true")

	return func(tx *Tx, args []string) error {
		if len(args) == 0 {
			return errs.Invalid("override_atom_label needs a label or %s", noneWord)
		}
		modes := 0
		for _, f := range []string{"picked", "i", "eval"} {
			if fs.Changed(f) {
				modes++
			}
		}
		if modes > 1 {
			return errs.Invalid("override_atom_label takes only one of -picked, -i or -eval")
		}
		var pred *label.Predicate
		if fs.Changed("eval") {
			var err error
			if pred, err = label.CompilePredicate(*expr); err != nil {
				return err
			}
		}
		if modes == 0 || fs.Changed("picked") {
			if len(tx.Settings.Picked) == 0 {
				return errs.Invalid("no atoms selected: pick atoms or give -i or -eval")
			}
		}
		text := strings.Join(args, " ")

		return eachFrame(tx, *allFrames, func(n int, cfg *atoms.Configuration) (*atoms.Configuration, error) {
			var sel []int
			switch {
			case fs.Changed("i"):
				var err error
				if sel, err = parseRanges(*ranges, cfg.Len()); err != nil {
					return nil, err
				}
			case pred != nil:
				for i, a := range cfg.Atoms {
					ok, err := pred.Match(label.Scope{Meta: cfg.Info, Props: a.Props, Frame: n, Index: i, Species: a.Species})
					if err != nil {
						return nil, fmt.Errorf("atom %d: %w", i, err)
					}
					if ok {
						sel = append(sel, i)
					}
				}
			default:
				sel = tx.Settings.Picked
			}

			out := cfg.Clone()
			for _, i := range sel {
				if err := out.CheckIndex(i); err != nil {
					return nil, err
				}
				a := &out.Atoms[i]
				if text == "" {
					delete(a.Props, atoms.LabelProperty)
					continue
				}
				if a.Props == nil {
					a.Props = atoms.Properties{}
				}
				a.Props[atoms.LabelProperty] = atoms.String(text)
			}
			return out, nil
		})
	}
}
