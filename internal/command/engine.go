// Package command parses viewer commands and applies them to the settings
// and the loaded frames as transactions: a command either commits all of
// its changes and updates the renderer, or fails and changes nothing.
package command

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/metrics"
	"github.com/san-kum/atomscene/internal/render"
	"github.com/san-kum/atomscene/internal/scene"
	"github.com/san-kum/atomscene/internal/scenediff"
	"github.com/san-kum/atomscene/internal/settings"
	"github.com/san-kum/atomscene/internal/storage"
	"github.com/san-kum/atomscene/internal/trajectory"
)

const maxScriptDepth = 16

type Engine struct {
	Registry *Registry
	Renderer render.Renderer
	// Library is where write_state -library and read_state -library go;
	// nil disables them.
	Library storage.Library
	Metrics *metrics.Metrics
	Log     *slog.Logger
	// Out receives the output of scripts run by RunScript.
	Out io.Writer

	settings *settings.Store
	frames   *trajectory.Store
	views    map[string][]float64
	builder  *scene.Builder
	model    *scene.Model
	exited   bool
	depth    int
}

func NewEngine(r render.Renderer) *Engine {
	if r == nil {
		r = render.Discard{}
	}
	return &Engine{
		Registry: NewRegistry(),
		Renderer: r,
		Metrics:  metrics.New(),
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:      io.Discard,
		settings: settings.NewStore(nil),
		frames:   trajectory.New(),
		views:    make(map[string][]float64),
		builder:  scene.NewBuilder(),
		model:    scene.Empty(),
	}
}

// Settings returns the committed settings. Callers must not modify them.
func (e *Engine) Settings() *settings.State { return e.settings.Snapshot() }

// Frames returns the committed frame store. Callers must not modify it.
func (e *Engine) Frames() *trajectory.Store { return e.frames }

// Model returns the scene the renderer currently holds.
func (e *Engine) Model() *scene.Model { return e.model }

func (e *Engine) Views() map[string][]float64 { return maps.Clone(e.views) }

// Exited reports whether an exit command has run.
func (e *Engine) Exited() bool { return e.exited }

// Tx is the draft state a command mutates. Nothing in it is visible until
// the command succeeds.
type Tx struct {
	Settings *settings.State
	Frames   *trajectory.Store
	Views    map[string][]float64

	e     *Engine
	out   strings.Builder
	after []func(w io.Writer) error
}

func (e *Engine) begin() *Tx {
	return &Tx{
		Settings: e.settings.Draft(),
		Frames:   e.frames.Clone(),
		Views:    maps.Clone(e.views),
		e:        e,
	}
}

func (tx *Tx) Printf(format string, args ...any) {
	fmt.Fprintf(&tx.out, format, args...)
}

// Current returns the draft's active frame.
func (tx *Tx) Current() (*atoms.Configuration, error) {
	return tx.Frames.Current()
}

// After queues fn to run once the transaction has committed, for effects
// that need the updated renderer or must not be undone.
func (tx *Tx) After(fn func(w io.Writer) error) {
	tx.after = append(tx.after, fn)
}

// Execute runs every command on line in order and stops at the first
// failure. Commands before the failing one stay applied.
func (e *Engine) Execute(line string) (string, error) {
	cmds, err := Split(line)
	if err != nil {
		e.Metrics.ObserveCommand(err)
		e.Log.Warn("command rejected", "line", line, "kind", errs.Kind(err), "err", err)
		return "", err
	}
	var out strings.Builder
	for _, words := range cmds {
		err := e.run(words, &out)
		if err != nil {
			return out.String(), err
		}
		if e.exited {
			break
		}
	}
	return out.String(), nil
}

func (e *Engine) run(words []string, w io.Writer) error {
	err := e.apply(words, w)
	e.Metrics.ObserveCommand(err)
	if err != nil {
		e.Log.Warn("command rejected", "command", words[0], "kind", errs.Kind(err), "err", err)
	}
	return err
}

func (e *Engine) apply(words []string, w io.Writer) error {
	cmd, err := e.Registry.Lookup(words[0])
	if err != nil {
		return err
	}
	tx := e.begin()
	if err := tx.invoke(cmd, words[1:]); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	if err := e.commit(tx); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	io.WriteString(w, tx.out.String())
	for _, fn := range tx.after {
		if err := fn(w); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
	}
	return nil
}

func (tx *Tx) invoke(cmd *Command, words []string) error {
	fs, run := cmd.flagSet()
	flags, args, help, err := normalize(fs, words)
	if err != nil {
		return err
	}
	if help {
		tx.Printf("%s", cmd.Help())
		return nil
	}
	if err := fs.Parse(flags); err != nil {
		return errs.Invalid("%v", err)
	}
	return run(tx, args)
}

// commit rebuilds the scene when the draft's stamp differs from the held
// model's, hands the patch to the renderer and only then installs the
// drafts.
func (e *Engine) commit(tx *Tx) error {
	cur := e.settings.Snapshot()
	draft := tx.Settings
	changed := e.settings.Changed(draft)
	if changed {
		draft.Revision = cur.Revision + 1
	} else {
		draft = cur
	}

	stamp := scene.Stamp{Revision: draft.Revision, Generation: tx.Frames.Generation(), Frame: tx.Frames.Index()}
	next := e.model
	if stamp != e.model.Stamp {
		var err error
		next, err = e.build(draft, tx.Frames, stamp)
		if err != nil {
			return err
		}
		patch := scenediff.Diff(e.model, next)
		if err := e.Renderer.Apply(patch); err != nil {
			return fmt.Errorf("renderer rejected patch: %w", err)
		}
		counts := make(map[string]int)
		for k, n := range patch.Counts() {
			counts[k.String()] = n
		}
		e.Metrics.ObservePatch(counts)
	}

	if changed {
		e.settings.Commit(draft)
	}
	e.frames = tx.Frames
	e.views = tx.Views
	e.model = next
	return nil
}

func (e *Engine) build(s *settings.State, frames *trajectory.Store, stamp scene.Stamp) (*scene.Model, error) {
	if frames.Empty() {
		m := scene.Empty()
		m.Stamp = stamp
		return m, nil
	}
	cfg, err := frames.Current()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	m, err := e.builder.Build(scene.Input{
		Config:     cfg,
		Frame:      frames.Index(),
		Generation: frames.Generation(),
		Settings:   s,
	})
	elapsed := time.Since(start)
	if err != nil {
		e.Metrics.ObserveBuild(elapsed, 0, err)
		return nil, err
	}
	e.Metrics.ObserveBuild(elapsed, m.Len(), nil)
	e.Log.Debug("scene rebuilt", "primitives", m.Len(), "frame", stamp.Frame, "revision", stamp.Revision, "elapsed", elapsed)
	return m, nil
}

// RunScript executes the commands in path line by line, writing their
// output to Out. It stops at the first failing line.
func (e *Engine) RunScript(path string) error {
	return e.runScript(path, e.Out)
}

func (e *Engine) runScript(path string, w io.Writer) error {
	if e.depth >= maxScriptDepth {
		return errs.Invalid("scripts nested deeper than %d", maxScriptDepth)
	}
	f, err := os.Open(path)
	if err != nil {
		return errs.IO("open", path, err)
	}
	defer f.Close()

	e.depth++
	defer func() { e.depth-- }()

	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		n++
		out, err := e.Execute(sc.Text())
		io.WriteString(w, out)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
		if e.exited {
			return nil
		}
	}
	return errs.IO("read", path, sc.Err())
}

// Startup runs the resource files in order before anything is loaded.
func (e *Engine) Startup(files []string) error {
	for _, f := range files {
		e.Log.Info("running resource file", "path", f)
		if err := e.RunScript(f); err != nil {
			return err
		}
	}
	return nil
}
