package fieldmap

import (
	"fmt"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// ColorRule colours an atom either with Fixed, or by looking up the scalar
// Field and passing it through Colormap over Domain (nil Domain means the
// auto-computed range of the current build).
type ColorRule struct {
	Fixed    Color   `json:"fixed" yaml:"fixed"`
	Field    string  `json:"field,omitempty" yaml:"field,omitempty"`
	Colormap string  `json:"colormap,omitempty" yaml:"colormap,omitempty"`
	Domain   *Domain `json:"domain,omitempty" yaml:"domain,omitempty"`
	Fallback *Color  `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

func (r ColorRule) ByField() bool { return r.Field != "" }

// Mapper resolves rules against one configuration. It is built once per
// scene build so every atom sees the same auto domains.
type Mapper struct {
	Colormaps map[string]Colormap
	Domains   Domains
}

// ResolveColor returns the colour of atom a under rule.
func (m *Mapper) ResolveColor(a *atoms.Atom, rule ColorRule) (Color, error) {
	if !rule.ByField() {
		return rule.Fixed, nil
	}
	cm, ok := m.Colormaps[rule.Colormap]
	if !ok {
		return Color{}, errs.Reference("unknown colormap %q", rule.Colormap)
	}
	v, err := a.Props.Scalar(rule.Field)
	if err != nil {
		if rule.Fallback != nil {
			return *rule.Fallback, nil
		}
		return Color{}, err
	}
	dom := rule.Domain
	if dom == nil {
		d, ok := m.Domains[rule.Field]
		if !ok {
			return Color{}, errs.Missing(rule.Field)
		}
		dom = &d
	}
	return cm.At(dom.Normalize(v)), nil
}

// RadiusRule sizes an atom with Fixed, or with Scale times the scalar Field.
type RadiusRule struct {
	Fixed float64 `json:"fixed" yaml:"fixed"`
	Field string  `json:"field,omitempty" yaml:"field,omitempty"`
	Scale float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

func (m *Mapper) ResolveRadius(a *atoms.Atom, rule RadiusRule) (float64, error) {
	if rule.Field == "" {
		return rule.Fixed, nil
	}
	v, err := a.Props.Scalar(rule.Field)
	if err != nil {
		return 0, err
	}
	scale := rule.Scale
	if scale == 0 {
		scale = 1
	}
	return v * scale, nil
}

type ColorMode string

const (
	ColorFixed ColorMode = "fixed"
	ColorAtom  ColorMode = "atom"
	ColorSign  ColorMode = "sign"
)

// VectorRule draws a glyph per atom from a vector Field used directly, or a
// scalar Field drawn as a glyph of fixed Length along Axis whose sign picks
// up or down.
type VectorRule struct {
	Field     string    `json:"field" yaml:"field"`
	Axis      r3.Vec    `json:"axis" yaml:"axis"`
	Length    float64   `json:"length" yaml:"length"`
	Scale     float64   `json:"scale" yaml:"scale"`
	Radius    float64   `json:"radius" yaml:"radius"`
	ColorMode ColorMode `json:"color_mode" yaml:"color_mode"`
	Color     Color     `json:"color" yaml:"color"`
	Up        Color     `json:"up" yaml:"up"`
	Down      Color     `json:"down" yaml:"down"`
}

// DefaultVectorRule draws field as a glyph along +z with red/blue signs.
func DefaultVectorRule(field string) VectorRule {
	return VectorRule{
		Field:     field,
		Axis:      r3.Vec{Z: 1},
		Length:    1,
		Scale:     1,
		Radius:    0.1,
		ColorMode: ColorSign,
		Color:     Color{0.5, 0.5, 0.5},
		Up:        Color{1, 0, 0},
		Down:      Color{0, 0, 1},
	}
}

// Glyph is a resolved vector: a unit direction and a length.
type Glyph struct {
	Direction r3.Vec
	Magnitude float64
	// Up is true for non-negative scalars and for every vector field.
	Up bool
}

// ResolveVector returns the glyph of atom a under rule. Zero vectors have a
// zero direction and magnitude.
func (m *Mapper) ResolveVector(a *atoms.Atom, rule VectorRule) (Glyph, error) {
	v, err := a.Props.Lookup(rule.Field)
	if err != nil {
		return Glyph{}, err
	}
	scale := rule.Scale
	if scale == 0 {
		scale = 1
	}
	switch v.Kind {
	case atoms.KindVector:
		n := r3.Norm(v.Vector)
		if n == 0 {
			return Glyph{Up: true}, nil
		}
		return Glyph{Direction: r3.Scale(1/n, v.Vector), Magnitude: n * scale, Up: true}, nil
	case atoms.KindScalar:
		axis := rule.Axis
		if r3.Norm(axis) == 0 {
			axis = r3.Vec{Z: 1}
		}
		axis = r3.Unit(axis)
		up := v.Scalar >= 0
		if !up {
			axis = r3.Scale(-1, axis)
		}
		length := rule.Length
		if length == 0 {
			length = 1
		}
		return Glyph{Direction: axis, Magnitude: length * scale, Up: up}, nil
	default:
		return Glyph{}, fmt.Errorf("%w: %q is a string field", errs.ErrMissingProperty, rule.Field)
	}
}

// GlyphColor picks the glyph colour for the rule's colour mode.
func (r VectorRule) GlyphColor(g Glyph, atomColor Color) Color {
	switch r.ColorMode {
	case ColorAtom:
		return atomColor
	case ColorSign:
		if g.Up {
			return r.Up
		}
		return r.Down
	default:
		return r.Color
	}
}
