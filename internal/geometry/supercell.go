package geometry

import (
	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Supercell replicates cfg n[0]×n[1]×n[2] times along the lattice vectors
// and scales the cell to match. Atom i of the original appears at index
// k*len+i for replica k.
func Supercell(cfg *atoms.Configuration, n [3]int) (*atoms.Configuration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for ax, k := range n {
		if k < 1 {
			return nil, errs.Invalid("dup count on axis %d must be >= 1, got %d", ax, k)
		}
	}
	out := &atoms.Configuration{Info: cfg.Info.Clone(), Cell: cfg.Cell}
	for ax := 0; ax < 3; ax++ {
		out.Cell.Vectors[ax] = r3.Scale(float64(n[ax]), cfg.Cell.Vectors[ax])
	}
	out.Atoms = make([]atoms.Atom, 0, cfg.Len()*n[0]*n[1]*n[2])
	for a := 0; a < n[0]; a++ {
		for b := 0; b < n[1]; b++ {
			for c := 0; c < n[2]; c++ {
				tr := cfg.Cell.Translation(atoms.Shift{a, b, c})
				for _, at := range cfg.Atoms {
					out.Atoms = append(out.Atoms, atoms.Atom{
						Species:  at.Species,
						Position: r3.Add(at.Position, tr),
						Props:    at.Props.Clone(),
					})
				}
			}
		}
	}
	return out, nil
}
