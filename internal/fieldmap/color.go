// Package fieldmap resolves visual attributes of atoms from fixed values or
// from per-atom fields.
package fieldmap

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/atomscene/internal/errs"
)

// Color is linear RGB with components in [0, 1].
type Color [3]float64

func (c Color) String() string {
	return fmt.Sprintf("%g %g %g", c[0], c[1], c[2])
}

// Hex returns the #rrggbb form used by SVG output.
func (c Color) Hex() string {
	b := func(v float64) int { return int(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return fmt.Sprintf("#%02x%02x%02x", b(c[0]), b(c[1]), b(c[2]))
}

var named = map[string]Color{
	"black":   {0, 0, 0},
	"white":   {1, 1, 1},
	"red":     {1, 0, 0},
	"green":   {0, 1, 0},
	"blue":    {0, 0, 1},
	"yellow":  {1, 1, 0},
	"cyan":    {0, 1, 1},
	"magenta": {1, 0, 1},
	"gray":    {0.5, 0.5, 0.5},
	"grey":    {0.5, 0.5, 0.5},
	"orange":  {1, 0.5, 0},
}

// ParseColor accepts a colour name or three components in [0, 1].
func ParseColor(args ...string) (Color, error) {
	if len(args) == 1 {
		if c, ok := named[strings.ToLower(args[0])]; ok {
			return c, nil
		}
		return Color{}, errs.Invalid("unknown colour %q", args[0])
	}
	if len(args) != 3 {
		return Color{}, errs.Invalid("colour needs a name or 3 components, got %d values", len(args))
	}
	var c Color
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return Color{}, errs.Invalid("bad colour component %q", a)
		}
		if v < 0 || v > 1 {
			return Color{}, errs.Invalid("colour component %g outside [0,1]", v)
		}
		c[i] = v
	}
	return c, nil
}

// Knot is one control point of a colormap.
type Knot struct {
	Value float64 `json:"value" yaml:"value"`
	Color Color   `json:"color" yaml:"color"`
}

// Colormap maps [0, 1] to colours by piecewise-linear interpolation between
// knots sorted by value. Values outside the knot range clamp to the ends.
type Colormap struct {
	Name  string `json:"name" yaml:"name"`
	Knots []Knot `json:"knots" yaml:"knots"`
}

func NewColormap(name string, knots []Knot) (Colormap, error) {
	if len(knots) == 0 {
		return Colormap{}, errs.Invalid("colormap %q has no knots", name)
	}
	ks := append([]Knot(nil), knots...)
	sort.SliceStable(ks, func(a, b int) bool { return ks[a].Value < ks[b].Value })
	return Colormap{Name: name, Knots: ks}, nil
}

// At evaluates the colormap at normalised value t.
func (m Colormap) At(t float64) Color {
	ks := m.Knots
	if len(ks) == 0 {
		return Color{}
	}
	if math.IsNaN(t) || t <= ks[0].Value {
		return ks[0].Color
	}
	last := ks[len(ks)-1]
	if t >= last.Value {
		return last.Color
	}
	k := sort.Search(len(ks), func(i int) bool { return ks[i].Value > t })
	lo, hi := ks[k-1], ks[k]
	w := (t - lo.Value) / (hi.Value - lo.Value)
	var c Color
	for i := range c {
		c[i] = lo.Color[i] + w*(hi.Color[i]-lo.Color[i])
	}
	return c
}

// Builtin colormaps available before any are defined.
func Builtin() map[string]Colormap {
	return map[string]Colormap{
		"bwr": {Name: "bwr", Knots: []Knot{
			{0, Color{0, 0, 1}}, {0.5, Color{1, 1, 1}}, {1, Color{1, 0, 0}},
		}},
		"gray": {Name: "gray", Knots: []Knot{
			{0, Color{0, 0, 0}}, {1, Color{1, 1, 1}},
		}},
		"viridis": {Name: "viridis", Knots: []Knot{
			{0, Color{0.267, 0.005, 0.329}},
			{0.25, Color{0.229, 0.322, 0.546}},
			{0.5, Color{0.128, 0.567, 0.551}},
			{0.75, Color{0.369, 0.789, 0.383}},
			{1, Color{0.993, 0.906, 0.144}},
		}},
	}
}
