package atoms

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kind tags the payload held by a Value.
type Kind string

const (
	KindScalar Kind = "scalar"
	KindVector Kind = "vector"
	KindString Kind = "string"
)

// Value is a tagged scalar, 3-vector or string.
type Value struct {
	Kind   Kind    `json:"kind" yaml:"kind"`
	Scalar float64 `json:"scalar,omitempty" yaml:"scalar,omitempty"`
	Vector r3.Vec  `json:"vector,omitempty" yaml:"vector,omitempty"`
	Str    string  `json:"str,omitempty" yaml:"str,omitempty"`
}

func Scalar(v float64) Value { return Value{Kind: KindScalar, Scalar: v} }
func Vector(v r3.Vec) Value  { return Value{Kind: KindVector, Vector: v} }
func String(s string) Value  { return Value{Kind: KindString, Str: s} }

// String formats the value the way labels display it.
func (v Value) String() string {
	switch v.Kind {
	case KindScalar:
		return strconv.FormatFloat(v.Scalar, 'g', -1, 64)
	case KindVector:
		return fmt.Sprintf("%g %g %g", v.Vector.X, v.Vector.Y, v.Vector.Z)
	default:
		return v.Str
	}
}

// Properties maps field names to values.
type Properties map[string]Value

// Lookup returns the named value or ErrMissingProperty.
func (p Properties) Lookup(name string) (Value, error) {
	v, ok := p[name]
	if !ok {
		return Value{}, errs.Missing(name)
	}
	return v, nil
}

// Scalar returns the named scalar field.
func (p Properties) Scalar(name string) (float64, error) {
	v, err := p.Lookup(name)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindScalar {
		return 0, fmt.Errorf("%w: %q is a %s, not a scalar", errs.ErrMissingProperty, name, v.Kind)
	}
	return v.Scalar, nil
}

// Vector returns the named vector field.
func (p Properties) Vector(name string) (r3.Vec, error) {
	v, err := p.Lookup(name)
	if err != nil {
		return r3.Vec{}, err
	}
	if v.Kind != KindVector {
		return r3.Vec{}, fmt.Errorf("%w: %q is a %s, not a vector", errs.ErrMissingProperty, name, v.Kind)
	}
	return v.Vector, nil
}

// Names returns the property names in sorted order.
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}
