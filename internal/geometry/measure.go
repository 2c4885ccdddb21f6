package geometry

import (
	"math"

	"github.com/san-kum/atomscene/internal/atoms"
	"gonum.org/v1/gonum/spatial/r3"
)

// Displacement returns the minimum-image vector from atom i to atom j.
func Displacement(cfg *atoms.Configuration, i, j int) (r3.Vec, error) {
	if err := cfg.CheckIndex(i); err != nil {
		return r3.Vec{}, err
	}
	if err := cfg.CheckIndex(j); err != nil {
		return r3.Vec{}, err
	}
	_, d, err := MinimumImage(cfg.Cell, cfg.Atoms[i].Position, cfg.Atoms[j].Position)
	return d, err
}

// Distance is the minimum-image distance between atoms i and j.
func Distance(cfg *atoms.Configuration, i, j int) (float64, error) {
	d, err := Displacement(cfg, i, j)
	if err != nil {
		return 0, err
	}
	return r3.Norm(d), nil
}

// Angle returns the angle i-j-k at vertex j, in degrees.
func Angle(cfg *atoms.Configuration, i, j, k int) (float64, error) {
	a, err := Displacement(cfg, j, i)
	if err != nil {
		return 0, err
	}
	b, err := Displacement(cfg, j, k)
	if err != nil {
		return 0, err
	}
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	c := math.Max(-1, math.Min(1, r3.Dot(a, b)/(na*nb)))
	return math.Acos(c) * 180 / math.Pi, nil
}
