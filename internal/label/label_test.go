package label

import (
	"errors"
	"testing"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

func atomScope() Scope {
	return Scope{
		Meta:    atoms.Properties{"energy": atoms.Scalar(-3.5), "title": atoms.String("relaxed")},
		Props:   atoms.Properties{"q": atoms.Scalar(0.25), "f": atoms.Vector(r3.Vec{X: 3, Y: 4})},
		Frame:   7,
		Index:   2,
		Species: "Fe",
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		tmpl string
		want string
	}{
		{"plain", "plain"},
		{"E=${energy}", "E=-3.5"},
		{"q=$${q}", "q=0.25"},
		{"frame ${config_n}", "frame 7"},
		{"$(q*4)", "1"},
		{"$(norm(f))", "5"},
		{"$(f.y + f[0])", "7"},
		{`$(species + "#" + format("%.0f", i))`, "Fe#2"},
		{"$(max(1, q, -2))", "1"},
		{"$(q > 0 && species == \"Fe\")", "true"},
		{"cost $5 and $x", "cost $5 and $x"},
		{"$((1+2)*3)", "9"},
		{"${title}:$(abs(energy))", "relaxed:3.5"},
	}
	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			tmpl, err := Compile(tt.tmpl)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := tmpl.Render(atomScope())
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFrameScopePropsFallBackToMeta(t *testing.T) {
	tmpl, err := Compile("$${energy} @ ${config_n}")
	if err != nil {
		t.Fatal(err)
	}
	got, err := tmpl.Render(Scope{Meta: atoms.Properties{"energy": atoms.Scalar(1)}, Frame: 3, Index: -1})
	if err != nil {
		t.Fatal(err)
	}
	if got != "1 @ 3" {
		t.Errorf("Render() = %q", got)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []string{
		"${open",
		"$${open",
		"$(1 + 2",
		"$(os.Exit(1))",
		"$(func() int { return 1 }())",
		"$(x = 1)",
		"$([]int{1}[0])",
		"$(f.w)",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if _, err := Compile(src); !errors.Is(err, errs.ErrExpression) {
				t.Errorf("Compile(%q) error = %v, want ErrExpression", src, err)
			}
		})
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		tmpl string
		want error
	}{
		{"${missing}", errs.ErrMissingProperty},
		{"$${missing}", errs.ErrMissingProperty},
		{"$(missing + 1)", errs.ErrMissingProperty},
		{`$(q + "a")`, errs.ErrExpression},
		{"$(sqrt(f))", errs.ErrExpression},
		{"$(f[3])", errs.ErrExpression},
	}
	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			tmpl, err := Compile(tt.tmpl)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := tmpl.Render(atomScope()); !errors.Is(err, tt.want) {
				t.Errorf("Render() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRenderDefault(t *testing.T) {
	tmpl, err := Compile("[${missing}|$(nope)]")
	if err != nil {
		t.Fatal(err)
	}
	def := "?"
	s := atomScope()
	s.Default = &def
	got, err := tmpl.Render(s)
	if err != nil || got != "[?|?]" {
		t.Errorf("Render() = %q, %v", got, err)
	}
}

func TestAtomScoped(t *testing.T) {
	for tmpl, want := range map[string]bool{
		"${energy}": false,
		"$${q}":     true,
		"$(1)":      true,
		"just text": false,
	} {
		c, err := Compile(tmpl)
		if err != nil {
			t.Fatal(err)
		}
		if c.AtomScoped() != want {
			t.Errorf("%q AtomScoped() = %v", tmpl, !want)
		}
	}
}

func TestCacheDropsOnNewRevision(t *testing.T) {
	c := NewCache()
	a, err := c.Get(1, "${x}")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := c.Get(1, "${x}")
	if a != b {
		t.Error("same revision should reuse the compiled template")
	}
	if _, err := c.Get(1, "${y}"); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	d, _ := c.Get(2, "${x}")
	if d == a || c.Len() != 1 {
		t.Errorf("new revision should recompile, Len() = %d", c.Len())
	}
}

func TestPredicate(t *testing.T) {
	tests := []struct {
		src  string
		want bool
		err  error
	}{
		{`species == "Fe"`, true, nil},
		{"q > 1 || i == 2", true, nil},
		{"norm(f) < 5", false, nil},
		{"q * 2", false, errs.ErrExpression},
		{"spin > 0", false, errs.ErrMissingProperty},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p, err := CompilePredicate(tt.src)
			if err != nil {
				t.Fatalf("CompilePredicate() error = %v", err)
			}
			got, err := p.Match(atomScope())
			if !errors.Is(err, tt.err) {
				t.Fatalf("Match() error = %v, want %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
