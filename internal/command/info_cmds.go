package command

import (
	"fmt"
	"io"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/pflag"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/geometry"
	"github.com/san-kum/atomscene/internal/metrics"
)

func infoCommands() []*Command {
	return []*Command{
		{Name: "usage", Short: "List every command.", Bind: bindUsage},
		{Name: "help", Args: "[COMMAND]", Short: "Describe a command, or list them all.", Bind: bindHelp},
		{Name: "exit", Short: "Leave the viewer.", Bind: bindExit},
		{Name: "measure", Short: "Print positions, distances and angles of picked (default) or listed atoms.", Bind: bindMeasure},
		{Name: "stats", Short: "Print scene build and command counters.", Bind: bindStats},
	}
}

func bindUsage(fs *pflag.FlagSet) RunFunc {
	return func(tx *Tx, args []string) error {
		tx.Printf("%s", tx.e.Registry.Usage())
		return nil
	}
}

func bindHelp(fs *pflag.FlagSet) RunFunc {
	return func(tx *Tx, args []string) error {
		switch len(args) {
		case 0:
			tx.Printf("%s", tx.e.Registry.Usage())
			return nil
		case 1:
			c, err := tx.e.Registry.Lookup(args[0])
			if err != nil {
				return err
			}
			tx.Printf("%s", c.Help())
			return nil
		}
		return errs.Invalid("help takes at most one command")
	}
}

func bindExit(fs *pflag.FlagSet) RunFunc {
	return func(tx *Tx, args []string) error {
		tx.After(func(io.Writer) error {
			tx.e.exited = true
			return nil
		})
		return nil
	}
}

func bindStats(fs *pflag.FlagSet) RunFunc {
	return func(tx *Tx, args []string) error {
		snap, err := tx.e.Metrics.Snapshot()
		if err != nil {
			return err
		}
		tx.Printf("%s", metrics.Format(snap))
		return nil
	}
}

func bindMeasure(fs *pflag.FlagSet) RunFunc {
	indices := fs.IntSlice("n", nil, "atom indices to measure")
	nargs(fs, "n", oneOrMore)
	allFrames := fs.Bool("all_frames", false, "measure in every frame")
	bins := fs.Int("histogram", 0, "plot a histogram of pair distances with this many bins")

	return func(tx *Tx, args []string) error {
		if len(args) != 0 {
			return errs.Invalid("measure takes only flags")
		}
		if tx.Frames.Empty() {
			return errs.ErrEmptyConfiguration
		}
		if fs.Changed("histogram") && *bins < 1 {
			return errs.Invalid("histogram needs at least one bin, got %d", *bins)
		}
		sel := *indices
		if !fs.Changed("n") {
			sel = tx.Settings.Picked
		}
		frames := []int{tx.Frames.Index()}
		if *allFrames {
			frames = frames[:0]
			for i := 0; i < tx.Frames.Len(); i++ {
				frames = append(frames, i)
			}
		}
		for _, f := range frames {
			cfg, err := tx.Frames.Frame(f)
			if err != nil {
				return err
			}
			tx.Printf("frame %d\n", f)
			if err := measure(tx, cfg, sel); err != nil {
				return err
			}
			if *bins > 0 {
				if err := histogram(tx, cfg, sel, *bins); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func measure(tx *Tx, cfg *atoms.Configuration, sel []int) error {
	for _, i := range sel {
		if err := cfg.CheckIndex(i); err != nil {
			return err
		}
		a := cfg.Atoms[i]
		tx.Printf("atom %d %s pos %.4f %.4f %.4f\n", i, a.Species, a.Position.X, a.Position.Y, a.Position.Z)
	}
	for p := 0; p < len(sel); p++ {
		for q := p + 1; q < len(sel); q++ {
			d, err := geometry.Distance(cfg, sel[p], sel[q])
			if err != nil {
				return err
			}
			tx.Printf("pair %d %d distance %.4f\n", sel[p], sel[q], d)
		}
	}
	if len(sel) == 3 {
		ang, err := geometry.Angle(cfg, sel[0], sel[1], sel[2])
		if err != nil {
			return err
		}
		tx.Printf("triplet %d %d %d angle %.2f\n", sel[0], sel[1], sel[2], ang)
	}
	return nil
}

// histogram plots the minimum-image distances between the selected atoms,
// or between all atoms when nothing is selected.
func histogram(tx *Tx, cfg *atoms.Configuration, sel []int, bins int) error {
	if len(sel) == 0 {
		sel = make([]int, cfg.Len())
		for i := range sel {
			sel[i] = i
		}
	}
	var dists []float64
	for p := 0; p < len(sel); p++ {
		for q := p + 1; q < len(sel); q++ {
			d, err := geometry.Distance(cfg, sel[p], sel[q])
			if err != nil {
				return err
			}
			dists = append(dists, d)
		}
	}
	if len(dists) == 0 {
		return errs.Invalid("histogram needs at least two atoms")
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, d := range dists {
		lo, hi = math.Min(lo, d), math.Max(hi, d)
	}
	counts := make([]float64, bins)
	width := (hi - lo) / float64(bins)
	for _, d := range dists {
		k := bins - 1
		if width > 0 {
			k = min(bins-1, int((d-lo)/width))
		}
		counts[k]++
	}
	graph := asciigraph.Plot(counts,
		asciigraph.Height(10),
		asciigraph.Width(max(bins, 40)),
		asciigraph.Caption(fmt.Sprintf("pair distances %.3f-%.3f (%d pairs)", lo, hi, len(dists))),
	)
	tx.Printf("%s\n", graph)
	return nil
}
