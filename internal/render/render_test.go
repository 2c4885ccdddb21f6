package render

import (
	"errors"
	"testing"

	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/scene"
	"github.com/san-kum/atomscene/internal/scenediff"
)

func prim(id string) *scene.Primitive {
	return &scene.Primitive{ID: id, Kind: scene.KindAtom, Attrs: scene.Attrs{Opacity: 1}}
}

func TestRecorderRetains(t *testing.T) {
	r := NewRecorder()
	create := scenediff.Patch{To: scene.Stamp{Revision: 1}, Ops: []scenediff.Op{
		{Kind: scenediff.OpCreate, ID: "atom#0", Prim: prim("atom#0")},
		{Kind: scenediff.OpCreate, ID: "atom#1", Prim: prim("atom#1")},
	}}
	if err := r.Apply(create); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if r.Model().Len() != 2 {
		t.Fatalf("retained %d primitives, want 2", r.Model().Len())
	}

	bad := scenediff.Patch{Ops: []scenediff.Op{{Kind: scenediff.OpDelete, ID: "atom#9"}}}
	if err := r.Apply(bad); !errors.Is(err, errs.ErrInvalidReference) {
		t.Errorf("dangling delete: %v", err)
	}
	if r.Model().Len() != 2 || len(r.Patches) != 1 {
		t.Error("rejected patch changed the recorder")
	}

	again := scenediff.Patch{Ops: []scenediff.Op{{Kind: scenediff.OpCreate, ID: "atom#0", Prim: prim("atom#0")}}}
	if err := r.Apply(again); err == nil {
		t.Error("recreating a held primitive was accepted")
	}
}

func TestFanoutFindsViewer(t *testing.T) {
	rec := NewRecorder()
	f := Fanout{Discard{}, rec}
	v, ok := ViewerOf(f)
	if !ok {
		t.Fatal("no viewer found")
	}
	if err := v.SetView([]float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if got := rec.View(); len(got) != 2 || got[1] != 2 {
		t.Errorf("View() = %v", got)
	}
	if _, ok := SnapshotterOf(f); ok {
		t.Error("found a snapshotter where none exists")
	}
	if err := f.Apply(scenediff.Patch{}); err != nil {
		t.Error(err)
	}
}
