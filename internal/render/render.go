// Package render is the boundary between the engine and whatever draws the
// scene. Renderers receive ordered patches and never see settings or
// configurations.
package render

import (
	"slices"

	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/scene"
	"github.com/san-kum/atomscene/internal/scenediff"
)

// Renderer applies a patch in order. An error means the renderer did not
// take the patch.
type Renderer interface {
	Apply(p scenediff.Patch) error
}

// Viewer exposes camera parameters as an opaque vector the engine can
// store and hand back.
type Viewer interface {
	View() []float64
	SetView(v []float64) error
}

// Snapshotter writes the current picture to path, mag times the window size.
type Snapshotter interface {
	Snapshot(path string, mag int) error
}

// Recorder retains the primitives it has been sent and rejects patches
// that reference unknown IDs or recreate held ones.
type Recorder struct {
	model   *scene.Model
	view    []float64
	Patches []scenediff.Patch
}

func NewRecorder() *Recorder {
	return &Recorder{model: scene.Empty()}
}

func (r *Recorder) Apply(p scenediff.Patch) error {
	m, err := scenediff.Apply(r.model, p)
	if err != nil {
		return err
	}
	r.model = m
	r.Patches = append(r.Patches, p)
	return nil
}

// Model returns the retained primitives.
func (r *Recorder) Model() *scene.Model { return r.model }

func (r *Recorder) View() []float64 { return slices.Clone(r.view) }

func (r *Recorder) SetView(v []float64) error {
	r.view = slices.Clone(v)
	return nil
}

// Last returns the most recent patch, if any.
func (r *Recorder) Last() (scenediff.Patch, bool) {
	if len(r.Patches) == 0 {
		return scenediff.Patch{}, false
	}
	return r.Patches[len(r.Patches)-1], true
}

// Discard accepts every patch and keeps nothing, for batch runs.
type Discard struct{}

func (Discard) Apply(scenediff.Patch) error { return nil }

// Fanout sends each patch to every renderer in order. The first failure
// stops the fan-out.
type Fanout []Renderer

func (f Fanout) Apply(p scenediff.Patch) error {
	for _, r := range f {
		if err := r.Apply(p); err != nil {
			return err
		}
	}
	return nil
}

// ViewerOf returns the first Viewer among r and, for a Fanout, its members.
func ViewerOf(r Renderer) (Viewer, bool) {
	return find[Viewer](r)
}

func SnapshotterOf(r Renderer) (Snapshotter, bool) {
	return find[Snapshotter](r)
}

func find[T any](r Renderer) (T, bool) {
	if v, ok := r.(T); ok {
		return v, true
	}
	if f, ok := r.(Fanout); ok {
		for _, m := range f {
			if v, ok := find[T](m); ok {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}

// ErrNoViewer is returned by view commands when the renderer has no camera.
var ErrNoViewer = errs.Invalid("renderer has no adjustable view")
