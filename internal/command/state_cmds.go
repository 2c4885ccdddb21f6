package command

import (
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/render"
	"github.com/san-kum/atomscene/internal/state"
)

const defaultView = "default"

func stateCommands() []*Command {
	return []*Command{
		{Name: "write_state", Args: "FILE|NAME", Short: "Save settings, frames and view to a file or to the state library.", Bind: bindWriteState},
		{Name: "read_state", Args: "FILE|NAME", Short: "Replace everything with a saved state.", Bind: bindReadState},
		{Name: "states", Short: "List the states in the library.", Bind: bindStates},
		{Name: "save_view", Short: "Remember the current view under a name.", Bind: bindSaveView},
		{Name: "restore_view", Short: "Return to a remembered view, or to the values given by -data.", Bind: bindRestoreView},
		{Name: "snapshot", Args: "FILE", Short: "Write an image of the scene.", Bind: bindSnapshot},
	}
}

func (tx *Tx) viewer() (render.Viewer, bool) {
	return render.ViewerOf(tx.e.Renderer)
}

func (tx *Tx) snapshot(curFrameOnly bool) (*state.Snapshot, error) {
	snap := &state.Snapshot{
		Settings: tx.Settings,
		Frames:   tx.Frames.Frames(),
		Frame:    tx.Frames.Index(),
		Views:    tx.Views,
	}
	if curFrameOnly {
		cfg, err := tx.Current()
		if err != nil {
			return nil, err
		}
		snap.Frames, snap.Frame = []*atoms.Configuration{cfg}, 0
	}
	if v, ok := tx.viewer(); ok {
		snap.View = v.View()
	}
	return snap, nil
}

func bindWriteState(fs *pflag.FlagSet) RunFunc {
	curFrameOnly := fs.Bool("cur_frame_only", false, "save only the current frame")
	library := fs.Bool("library", false, "save under NAME in the state library")

	return func(tx *Tx, args []string) error {
		if len(args) != 1 {
			return errs.Invalid("write_state takes one target")
		}
		snap, err := tx.snapshot(*curFrameOnly)
		if err != nil {
			return err
		}
		if !*library {
			if err := state.WriteFile(args[0], snap); err != nil {
				return err
			}
			tx.Printf("state written to %s\n", args[0])
			return nil
		}
		if tx.e.Library == nil {
			return errs.Invalid("no state library configured")
		}
		blob, err := state.Save(snap)
		if err != nil {
			return err
		}
		entry, err := tx.e.Library.Put(args[0], blob)
		if err != nil {
			return err
		}
		tx.Printf("state %s saved (%s)\n", entry.Name, entry.ID)
		return nil
	}
}

func bindReadState(fs *pflag.FlagSet) RunFunc {
	library := fs.Bool("library", false, "read NAME from the state library")

	return func(tx *Tx, args []string) error {
		if len(args) != 1 {
			return errs.Invalid("read_state takes one source")
		}
		var snap *state.Snapshot
		if *library {
			if tx.e.Library == nil {
				return errs.Invalid("no state library configured")
			}
			blob, err := tx.e.Library.Get(args[0])
			if err != nil {
				return err
			}
			if snap, err = state.Restore(blob); err != nil {
				return err
			}
		} else {
			var err error
			if snap, err = state.ReadFile(args[0]); err != nil {
				return err
			}
		}

		if err := tx.Frames.Load(snap.Frames); err != nil {
			return err
		}
		if len(snap.Frames) > 0 {
			if err := tx.Frames.Go(snap.Frame); err != nil {
				return err
			}
		}
		tx.Settings = snap.Settings
		tx.Views = snap.Views
		if tx.Views == nil {
			tx.Views = make(map[string][]float64)
		}
		if snap.View != nil {
			tx.After(func(io.Writer) error {
				v, ok := tx.viewer()
				if !ok {
					return nil
				}
				return v.SetView(snap.View)
			})
		}
		return nil
	}
}

func bindStates(fs *pflag.FlagSet) RunFunc {
	return func(tx *Tx, args []string) error {
		if tx.e.Library == nil {
			return errs.Invalid("no state library configured")
		}
		entries, err := tx.e.Library.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			tx.Printf("%s\t%s\t%d bytes\n", e.Name, e.Saved.Format("2006-01-02 15:04:05"), e.Size)
		}
		return nil
	}
}

func bindSaveView(fs *pflag.FlagSet) RunFunc {
	name := fs.String("name", defaultView, "name to save the view under")

	return func(tx *Tx, args []string) error {
		if len(args) != 0 {
			return errs.Invalid("save_view takes only flags")
		}
		v, ok := tx.viewer()
		if !ok {
			return render.ErrNoViewer
		}
		tx.Views[*name] = v.View()
		return nil
	}
}

func bindRestoreView(fs *pflag.FlagSet) RunFunc {
	name := fs.String("name", defaultView, "saved view to restore")
	data := fs.Float64Slice("data", nil, "explicit view values")
	nargs(fs, "data", oneOrMore)

	return func(tx *Tx, args []string) error {
		if len(args) != 0 {
			return errs.Invalid("restore_view takes only flags")
		}
		if fs.Changed("name") && fs.Changed("data") {
			return errs.Invalid("-name and -data are exclusive")
		}
		view := *data
		if !fs.Changed("data") {
			saved, ok := tx.Views[*name]
			if !ok {
				return errs.Reference("no saved view %q", *name)
			}
			view = saved
		}
		v, ok := tx.viewer()
		if !ok {
			return render.ErrNoViewer
		}
		tx.After(func(io.Writer) error { return v.SetView(view) })
		return nil
	}
}

func bindSnapshot(fs *pflag.FlagSet) RunFunc {
	mag := fs.Int("mag", 1, "magnification")

	return func(tx *Tx, args []string) error {
		if len(args) != 1 {
			return errs.Invalid("snapshot takes one file name")
		}
		if *mag < 1 {
			return errs.Invalid("magnification must be at least 1, got %d", *mag)
		}
		s, ok := render.SnapshotterOf(tx.e.Renderer)
		if !ok {
			return errs.Invalid("renderer cannot write snapshots")
		}
		path := args[0]
		tx.After(func(w io.Writer) error {
			if err := s.Snapshot(path, *mag); err != nil {
				return err
			}
			io.WriteString(w, "snapshot written to "+strings.TrimSpace(path)+"\n")
			return nil
		})
		return nil
	}
}
