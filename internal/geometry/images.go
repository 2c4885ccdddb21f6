package geometry

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/atomscene/internal/atoms"
	"gonum.org/v1/gonum/spatial/r3"
)

const boundEps = 1e-9

// Bound is a fractional-coordinate interval on one lattice axis.
type Bound struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

func (b Bound) infinite() bool {
	return math.IsInf(b.Lo, 0) || math.IsInf(b.Hi, 0) || math.IsNaN(b.Lo) || math.IsNaN(b.Hi)
}

// MarshalJSON writes infinite limits as "inf" and "-inf".
func (b Bound) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Lo any `json:"lo"`
		Hi any `json:"hi"`
	}{limit(b.Lo), limit(b.Hi)})
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lo any `json:"lo"`
		Hi any `json:"hi"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	if b.Lo, err = parseLimit(raw.Lo); err != nil {
		return err
	}
	b.Hi, err = parseLimit(raw.Hi)
	return err
}

func limit(f float64) any {
	if math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}

func parseLimit(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(x, 64)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("bad range limit %v", v)
}

// Range is the displayed region in fractional coordinates. An unbounded
// range shows the configuration as given, with no replication or slicing.
type Range struct {
	Bounded bool     `json:"bounded" yaml:"bounded"`
	Axes    [3]Bound `json:"axes" yaml:"axes"`
}

func Unbounded() Range { return Range{} }

func NewRange(lo, hi [3]float64) Range {
	r := Range{Bounded: true}
	for i := 0; i < 3; i++ {
		r.Axes[i] = Bound{Lo: lo[i], Hi: hi[i]}
	}
	return r
}

// RangeFromCounts returns [-n, 1+n] on each axis, the region shown by
// "images n". Negative counts below -0.5 invert the range.
func RangeFromCounts(n [3]float64) Range {
	var lo, hi [3]float64
	for i := 0; i < 3; i++ {
		lo[i], hi[i] = -n[i], 1+n[i]
	}
	return NewRange(lo, hi)
}

// Empty reports whether some axis is inverted or has zero width.
func (r Range) Empty() bool {
	if !r.Bounded {
		return false
	}
	for _, b := range r.Axes {
		if !b.infinite() && b.Hi <= b.Lo {
			return true
		}
	}
	return false
}

// GenerateImages returns the lattice translations whose unit cell
// [n, n+1) intersects the range on each periodic axis. Non-periodic axes
// and unbounded axes contribute only translation 0; an empty range yields
// no images.
func GenerateImages(cfg *atoms.Configuration, r Range) []atoms.Shift {
	if r.Empty() {
		return nil
	}
	var per [3][]int
	for ax := 0; ax < 3; ax++ {
		b := r.Axes[ax]
		if !r.Bounded || !cfg.Cell.PBC[ax] || b.infinite() {
			per[ax] = []int{0}
			continue
		}
		for n := int(math.Floor(b.Lo)); float64(n) < b.Hi; n++ {
			if float64(n+1) > b.Lo {
				per[ax] = append(per[ax], n)
			}
		}
	}

	out := make([]atoms.Shift, 0, len(per[0])*len(per[1])*len(per[2]))
	for _, a := range per[0] {
		for _, b := range per[1] {
			for _, c := range per[2] {
				out = append(out, atoms.Shift{a, b, c})
			}
		}
	}
	return out
}

// Contains reports whether fractional position frac, displaced by image,
// lies inside the range (inclusive bounds). Only bounded periodic axes
// filter; this is what turns a range inside [0,1) into a slice.
func (r Range) Contains(cell atoms.Cell, frac r3.Vec, image atoms.Shift) bool {
	if !r.Bounded {
		return true
	}
	for ax := 0; ax < 3; ax++ {
		b := r.Axes[ax]
		if !cell.PBC[ax] || b.infinite() {
			continue
		}
		f := atoms.Component(frac, ax) + float64(image[ax])
		if f < b.Lo-boundEps || f > b.Hi+boundEps {
			return false
		}
	}
	return true
}

// Visible returns, for each image, which atoms are displayed in it.
func Visible(cfg *atoms.Configuration, r Range, images []atoms.Shift) ([][]bool, error) {
	out := make([][]bool, len(images))
	var lat *atoms.Lattice
	if r.Bounded && cfg.Cell.Periodic() {
		l, err := cfg.Cell.Lattice()
		if err != nil {
			return nil, err
		}
		lat = l
	}
	fracs := make([]r3.Vec, cfg.Len())
	if lat != nil {
		for i, a := range cfg.Atoms {
			fracs[i] = lat.Fractional(a.Position)
		}
	}
	for k, img := range images {
		out[k] = make([]bool, cfg.Len())
		for i := range cfg.Atoms {
			out[k][i] = lat == nil || r.Contains(cfg.Cell, fracs[i], img)
		}
	}
	return out, nil
}
