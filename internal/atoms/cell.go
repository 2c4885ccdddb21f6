package atoms

import (
	"fmt"
	"math"

	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Shift is an integer lattice translation.
type Shift [3]int

func (s Shift) IsZero() bool { return s == Shift{} }
func (s Shift) Neg() Shift   { return Shift{-s[0], -s[1], -s[2]} }
func (s Shift) Add(o Shift) Shift {
	return Shift{s[0] + o[0], s[1] + o[1], s[2] + o[2]}
}
func (s Shift) Sub(o Shift) Shift { return s.Add(o.Neg()) }

// Less orders shifts lexicographically.
func (s Shift) Less(o Shift) bool {
	for i := 0; i < 3; i++ {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return false
}

// Positive reports whether the first non-zero component is positive.
func (s Shift) Positive() bool {
	return Shift{}.Less(s)
}

func (s Shift) String() string {
	return fmt.Sprintf("(%d,%d,%d)", s[0], s[1], s[2])
}

// Cell is a lattice whose rows are the three lattice vectors, plus a
// periodicity flag per axis.
type Cell struct {
	Vectors [3]r3.Vec `json:"vectors" yaml:"vectors"`
	PBC     [3]bool   `json:"pbc" yaml:"pbc"`
}

// Periodic reports whether any axis is periodic.
func (c Cell) Periodic() bool {
	return c.PBC[0] || c.PBC[1] || c.PBC[2]
}

func (c Cell) matrix() *mat.Dense {
	data := make([]float64, 0, 9)
	for _, v := range c.Vectors {
		data = append(data, v.X, v.Y, v.Z)
	}
	return mat.NewDense(3, 3, data)
}

// Volume returns the signed cell volume.
func (c Cell) Volume() float64 {
	return mat.Det(c.matrix())
}

// Singular reports whether the lattice vectors do not span space.
func (c Cell) Singular() bool {
	scale := r3.Norm(c.Vectors[0]) * r3.Norm(c.Vectors[1]) * r3.Norm(c.Vectors[2])
	if scale == 0 {
		return true
	}
	return math.Abs(c.Volume()) <= 1e-12*scale
}

// Validate fails with ErrDegenerateCell when periodicity is requested on a
// singular cell.
func (c Cell) Validate() error {
	if c.Periodic() && c.Singular() {
		return fmt.Errorf("%w: volume %g with pbc %v", errs.ErrDegenerateCell, c.Volume(), c.PBC)
	}
	return nil
}

// Translation returns the Cartesian displacement of a lattice shift.
func (c Cell) Translation(s Shift) r3.Vec {
	t := r3.Vec{}
	for i := 0; i < 3; i++ {
		if s[i] != 0 {
			t = r3.Add(t, r3.Scale(float64(s[i]), c.Vectors[i]))
		}
	}
	return t
}

// Heights returns the perpendicular widths of the cell along each axis.
func (c Cell) Heights() [3]float64 {
	vol := math.Abs(c.Volume())
	var h [3]float64
	for i := 0; i < 3; i++ {
		area := r3.Norm(r3.Cross(c.Vectors[(i+1)%3], c.Vectors[(i+2)%3]))
		if area > 0 {
			h[i] = vol / area
		}
	}
	return h
}

// Lattice converts between Cartesian and fractional coordinates.
type Lattice struct {
	cell Cell
	inv  [3][3]float64
}

// Lattice returns the coordinate converter for c, or ErrDegenerateCell.
func (c Cell) Lattice() (*Lattice, error) {
	if c.Singular() {
		return nil, fmt.Errorf("%w: cannot invert cell", errs.ErrDegenerateCell)
	}
	var inv mat.Dense
	if err := inv.Inverse(c.matrix()); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDegenerateCell, err)
	}
	l := &Lattice{cell: c}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			l.inv[i][j] = inv.At(i, j)
		}
	}
	return l, nil
}

// Fractional returns p in lattice coordinates.
func (l *Lattice) Fractional(p r3.Vec) r3.Vec {
	row := [3]float64{p.X, p.Y, p.Z}
	var f [3]float64
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			f[j] += row[i] * l.inv[i][j]
		}
	}
	return r3.Vec{X: f[0], Y: f[1], Z: f[2]}
}

// Cartesian returns the position of fractional coordinates f.
func (l *Lattice) Cartesian(f r3.Vec) r3.Vec {
	v := l.cell.Vectors
	return r3.Add(r3.Add(r3.Scale(f.X, v[0]), r3.Scale(f.Y, v[1])), r3.Scale(f.Z, v[2]))
}

// Component returns the i-th component of v.
func Component(v r3.Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
