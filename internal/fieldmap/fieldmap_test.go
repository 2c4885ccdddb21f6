package fieldmap

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

func chargedConfig() *atoms.Configuration {
	return &atoms.Configuration{Atoms: []atoms.Atom{
		{Species: "Na", Props: atoms.Properties{"q": atoms.Scalar(1), "m": atoms.Vector(r3.Vec{X: 2})}},
		{Species: "Cl", Props: atoms.Properties{"q": atoms.Scalar(-1), "m": atoms.Scalar(-3)}},
		{Species: "Ar"},
	}}
}

func TestColormapAt(t *testing.T) {
	cm, err := NewColormap("rb", []Knot{{1, Color{0, 0, 1}}, {0, Color{1, 0, 0}}})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		t    float64
		want Color
	}{
		{-1, Color{1, 0, 0}},
		{0, Color{1, 0, 0}},
		{0.25, Color{0.75, 0, 0.25}},
		{1, Color{0, 0, 1}},
		{2, Color{0, 0, 1}},
	}
	for _, tt := range tests {
		got := cm.At(tt.t)
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-12 {
				t.Errorf("At(%g) = %v, want %v", tt.t, got, tt.want)
				break
			}
		}
	}
	if _, err := NewColormap("empty", nil); !errors.Is(err, errs.ErrInvalidCommand) {
		t.Errorf("empty colormap error = %v", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		args    []string
		want    Color
		wantErr bool
	}{
		{[]string{"red"}, Color{1, 0, 0}, false},
		{[]string{"0.1", "0.2", "0.3"}, Color{0.1, 0.2, 0.3}, false},
		{[]string{"mauve"}, Color{}, true},
		{[]string{"1", "2"}, Color{}, true},
		{[]string{"1", "2", "0"}, Color{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.args...)
		if tt.wantErr != (err != nil) {
			t.Errorf("ParseColor(%v) error = %v", tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestResolveColor(t *testing.T) {
	cfg := chargedConfig()
	gray := Builtin()["gray"]
	m := &Mapper{
		Colormaps: map[string]Colormap{"gray": gray},
		Domains:   ComputeDomains(cfg, []string{"q"}),
	}
	if d := m.Domains["q"]; d.Min != -1 || d.Max != 1 {
		t.Fatalf("auto domain = %+v", d)
	}

	rule := ColorRule{Field: "q", Colormap: "gray"}
	c, err := m.ResolveColor(&cfg.Atoms[0], rule)
	if err != nil || c != (Color{1, 1, 1}) {
		t.Errorf("max charge colour = %v, %v", c, err)
	}
	c, err = m.ResolveColor(&cfg.Atoms[1], rule)
	if err != nil || c != (Color{0, 0, 0}) {
		t.Errorf("min charge colour = %v, %v", c, err)
	}

	_, err = m.ResolveColor(&cfg.Atoms[2], rule)
	if !errors.Is(err, errs.ErrMissingProperty) {
		t.Errorf("missing field error = %v", err)
	}

	fb := Color{0, 1, 0}
	rule.Fallback = &fb
	c, err = m.ResolveColor(&cfg.Atoms[2], rule)
	if err != nil || c != fb {
		t.Errorf("fallback colour = %v, %v", c, err)
	}

	rule.Colormap = "nope"
	if _, err := m.ResolveColor(&cfg.Atoms[0], rule); !errors.Is(err, errs.ErrInvalidReference) {
		t.Errorf("unknown colormap error = %v", err)
	}

	fixed, err := m.ResolveColor(&cfg.Atoms[2], ColorRule{Fixed: Color{0.2, 0.2, 0.2}})
	if err != nil || fixed != (Color{0.2, 0.2, 0.2}) {
		t.Errorf("fixed colour = %v, %v", fixed, err)
	}
}

func TestExplicitDomainOverridesAuto(t *testing.T) {
	cfg := chargedConfig()
	m := &Mapper{Colormaps: Builtin(), Domains: ComputeDomains(cfg, []string{"q"})}
	c, err := m.ResolveColor(&cfg.Atoms[0], ColorRule{Field: "q", Colormap: "gray", Domain: &Domain{Min: -3, Max: 5}})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c[0]-0.5) > 1e-12 {
		t.Errorf("colour = %v, want mid gray", c)
	}
}

func TestResolveRadius(t *testing.T) {
	cfg := chargedConfig()
	m := &Mapper{}
	r, err := m.ResolveRadius(&cfg.Atoms[0], RadiusRule{Field: "q", Scale: 0.5})
	if err != nil || r != 0.5 {
		t.Errorf("radius = %g, %v", r, err)
	}
	if _, err := m.ResolveRadius(&cfg.Atoms[2], RadiusRule{Field: "q"}); !errors.Is(err, errs.ErrMissingProperty) {
		t.Errorf("missing radius field error = %v", err)
	}
}

func TestResolveVector(t *testing.T) {
	cfg := chargedConfig()
	m := &Mapper{}
	rule := DefaultVectorRule("m")

	g, err := m.ResolveVector(&cfg.Atoms[0], rule)
	if err != nil {
		t.Fatal(err)
	}
	if g.Direction != (r3.Vec{X: 1}) || g.Magnitude != 2 || !g.Up {
		t.Errorf("vector glyph = %+v", g)
	}

	g, err = m.ResolveVector(&cfg.Atoms[1], rule)
	if err != nil {
		t.Fatal(err)
	}
	if g.Direction != (r3.Vec{Z: -1}) || g.Magnitude != 1 || g.Up {
		t.Errorf("scalar glyph = %+v", g)
	}
	if c := rule.GlyphColor(g, Color{}); c != rule.Down {
		t.Errorf("down glyph colour = %v", c)
	}

	if _, err := m.ResolveVector(&cfg.Atoms[2], rule); !errors.Is(err, errs.ErrMissingProperty) {
		t.Errorf("missing vector field error = %v", err)
	}
}
