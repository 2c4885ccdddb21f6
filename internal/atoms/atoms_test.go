package atoms

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

func cubic(a float64) Cell {
	return Cell{
		Vectors: [3]r3.Vec{{X: a}, {Y: a}, {Z: a}},
		PBC:     [3]bool{true, true, true},
	}
}

func TestCellValidate(t *testing.T) {
	tests := []struct {
		name    string
		cell    Cell
		wantErr bool
	}{
		{"cubic", cubic(3), false},
		{"no cell, no pbc", Cell{}, false},
		{"no cell, pbc", Cell{PBC: [3]bool{true, false, false}}, true},
		{"coplanar", Cell{Vectors: [3]r3.Vec{{X: 1}, {Y: 1}, {X: 1, Y: 1}}, PBC: [3]bool{true, true, true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cell.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errs.ErrDegenerateCell) {
				t.Errorf("expected ErrDegenerateCell, got %v", err)
			}
		})
	}
}

func TestLatticeRoundTrip(t *testing.T) {
	cell := Cell{Vectors: [3]r3.Vec{{X: 4}, {X: 2, Y: 3}, {X: 1, Y: 1, Z: 5}}}
	lat, err := cell.Lattice()
	if err != nil {
		t.Fatalf("lattice: %v", err)
	}

	p := r3.Vec{X: 1.5, Y: -0.7, Z: 2.2}
	back := lat.Cartesian(lat.Fractional(p))
	if r3.Norm(r3.Sub(back, p)) > 1e-12 {
		t.Errorf("round trip %v -> %v", p, back)
	}

	f := lat.Fractional(cell.Vectors[1])
	if math.Abs(f.X) > 1e-12 || math.Abs(f.Y-1) > 1e-12 || math.Abs(f.Z) > 1e-12 {
		t.Errorf("second lattice vector should be (0,1,0), got %v", f)
	}
}

func TestCellHeights(t *testing.T) {
	h := cubic(2.5).Heights()
	for i, v := range h {
		if math.Abs(v-2.5) > 1e-12 {
			t.Errorf("height %d = %f, want 2.5", i, v)
		}
	}
}

func TestShift(t *testing.T) {
	s := Shift{1, -2, 0}
	if s.Add(s.Neg()) != (Shift{}) {
		t.Error("s + -s should be zero")
	}
	if !s.Positive() || s.Neg().Positive() {
		t.Error("sign by first non-zero component")
	}
	if s.String() != "(1,-2,0)" {
		t.Errorf("unexpected string %s", s)
	}
}

func TestPropertiesLookup(t *testing.T) {
	p := Properties{
		"charge": Scalar(0.5),
		"force":  Vector(r3.Vec{X: 1}),
		"tag":    String("surface"),
	}

	if v, err := p.Scalar("charge"); err != nil || v != 0.5 {
		t.Errorf("Scalar(charge) = %v, %v", v, err)
	}
	if _, err := p.Scalar("force"); !errors.Is(err, errs.ErrMissingProperty) {
		t.Errorf("expected kind mismatch to be MissingProperty, got %v", err)
	}
	if _, err := p.Vector("missing"); !errors.Is(err, errs.ErrMissingProperty) {
		t.Errorf("expected MissingProperty, got %v", err)
	}
	if names := p.Names(); len(names) != 3 || names[0] != "charge" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestConfigurationValidate(t *testing.T) {
	var empty Configuration
	if err := empty.Validate(); !errors.Is(err, errs.ErrEmptyConfiguration) {
		t.Errorf("expected ErrEmptyConfiguration, got %v", err)
	}

	cfg := &Configuration{Atoms: []Atom{{Species: "Si"}}, Cell: Cell{PBC: [3]bool{true, true, true}}}
	if err := cfg.Validate(); !errors.Is(err, errs.ErrDegenerateCell) {
		t.Errorf("expected ErrDegenerateCell, got %v", err)
	}
}

func TestWithoutAtoms(t *testing.T) {
	cfg := &Configuration{Atoms: []Atom{{Species: "A"}, {Species: "B"}, {Species: "C"}}}

	out, err := cfg.WithoutAtoms([]int{1})
	if err != nil {
		t.Fatalf("WithoutAtoms: %v", err)
	}
	if out.Len() != 2 || out.Atoms[1].Species != "C" {
		t.Errorf("unexpected atoms %v", out.Atoms)
	}
	if cfg.Len() != 3 {
		t.Error("original configuration must not change")
	}

	if _, err := cfg.WithoutAtoms([]int{7}); !errors.Is(err, errs.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestSymbol(t *testing.T) {
	tests := []struct {
		z    int
		want string
	}{
		{1, "H"}, {8, "O"}, {26, "Fe"}, {79, "Au"}, {92, "U"}, {118, "Og"},
	}
	for _, tt := range tests {
		if got, err := Symbol(tt.z); err != nil || got != tt.want {
			t.Errorf("Symbol(%d) = %q, %v, want %q", tt.z, got, err, tt.want)
		}
	}
	for _, z := range []int{0, -1, 119} {
		if _, err := Symbol(z); !errors.Is(err, errs.ErrInvalidReference) {
			t.Errorf("Symbol(%d) error = %v", z, err)
		}
	}
}
