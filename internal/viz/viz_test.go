package viz

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/fieldmap"
	"github.com/san-kum/atomscene/internal/scene"
	"github.com/san-kum/atomscene/internal/scenediff"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCanvasSetAndLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	if c.Cell(0, 0) != 0x2801 {
		t.Errorf("dot 1 = %U", c.Cell(0, 0))
	}
	c.Set(-1, 3)
	c.Set(100, 100)
	c.DrawLine(0, 7, 7, 7)
	for x := 0; x < 8; x++ {
		if !c.IsSet(x, 7) {
			t.Errorf("pixel (%d,7) not set", x)
		}
	}
	if lines := strings.Count(c.String(), "\n"); lines != 2 {
		t.Errorf("got %d rows", lines)
	}
	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("clear left pixels set")
	}
}

func TestCanvasCircle(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawCircle(10, 10, 4)
	for _, p := range [][2]int{{14, 10}, {6, 10}, {10, 14}, {10, 6}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("pixel %v not on circle", p)
		}
	}
	if c.IsSet(10, 10) {
		t.Error("circle filled its centre")
	}
}

func TestCameraView(t *testing.T) {
	cam := NewCamera()
	cam.Fit([]r3.Vec{{X: -2}, {X: 2}})
	if cam.Center != (r3.Vec{}) {
		t.Errorf("centre = %v", cam.Center)
	}
	x, y, _ := cam.Project(r3.Vec{}, 100, 50)
	if x != 50 || y != 25 {
		t.Errorf("centre projected to (%v,%v)", x, y)
	}

	cam.Rotate(0.3, 0.2)
	v := cam.View()
	other := NewCamera()
	if err := other.SetView(v); err != nil {
		t.Fatal(err)
	}
	if *other != *cam {
		t.Errorf("view round trip: %+v vs %+v", other, cam)
	}
	if err := other.SetView([]float64{1}); !errors.Is(err, errs.ErrInvalidCommand) {
		t.Errorf("short view: %v", err)
	}
}

func testPatch() scenediff.Patch {
	next := scene.Empty()
	next.Stamp = scene.Stamp{Revision: 1}
	next.Prims["atom#0"] = scene.Primitive{ID: "atom#0", Kind: scene.KindAtom,
		Geometry: scene.Geometry{Atoms: []int{0}, Points: []r3.Vec{{}}},
		Attrs:    scene.Attrs{Color: fieldmap.Color{1, 0, 0}, Radius: 0.5, Opacity: 1}}
	next.Prims["atom#1"] = scene.Primitive{ID: "atom#1", Kind: scene.KindAtom,
		Geometry: scene.Geometry{Atoms: []int{1}, Points: []r3.Vec{{X: 2}}},
		Attrs:    scene.Attrs{Color: fieldmap.Color{0, 0, 1}, Radius: 0.5, Opacity: 1}}
	next.Prims["bond#b#0-1"] = scene.Primitive{ID: "bond#b#0-1", Kind: scene.KindBond,
		Geometry: scene.Geometry{Atoms: []int{0, 1}, Points: []r3.Vec{{}, {X: 2}}},
		Attrs:    scene.Attrs{Color: fieldmap.Color{0.5, 0.5, 0.5}, Radius: 0.1, Opacity: 1}}
	next.Prims[scene.FrameLabelID] = scene.Primitive{ID: scene.FrameLabelID, Kind: scene.KindLabel,
		Attrs: scene.Attrs{Opacity: 1, Text: "frame <0>"}}
	return scenediff.Diff(nil, next)
}

func TestPreviewRenders(t *testing.T) {
	p := NewPreview(20, 10)
	if err := p.Apply(testPatch()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if p.Model().Len() != 4 {
		t.Errorf("retained %d primitives", p.Model().Len())
	}
	out := p.Render()
	if strings.Trim(out, "\u2800\n") == "" {
		t.Error("render produced a blank canvas")
	}
	if texts := p.Texts(); len(texts) != 1 || texts[0] != "frame <0>" {
		t.Errorf("Texts() = %v", texts)
	}

	var buf bytes.Buffer
	if err := p.WriteSVG(&buf, 200, 100, fieldmap.Color{}); err != nil {
		t.Fatal(err)
	}
	svg := buf.String()
	for _, want := range []string{"<circle", "#ff0000", "<line", "frame &lt;0&gt;", "</svg>"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestPreviewSnapshot(t *testing.T) {
	p := NewPreview(10, 5)
	if err := p.Apply(testPatch()); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "shots", "a.svg")
	if err := p.Snapshot(path, 2); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `width="160" height="160"`) {
		t.Errorf("unexpected size in %s", data[:120])
	}
	if err := p.Snapshot(path, 0); !errors.Is(err, errs.ErrInvalidCommand) {
		t.Errorf("mag 0: %v", err)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("ocean").Name != "ocean" || GetTheme("nope").Name != "minimal" {
		t.Error("theme lookup")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names")
	}
	_ = GetTheme("retro").Styles().Prompt.Render(">")
}
