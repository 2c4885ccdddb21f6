// Package atoms provides the atomic configuration model.
//
// A [Configuration] is an ordered list of [Atom] values, a periodic [Cell]
// and a free-form metadata mapping. Per-atom and per-frame fields are held in
// [Properties], a typed mapping from name to a tagged [Value]:
//
//   - scalar fields (charge, energy, magnetic moment magnitude)
//   - vector fields (forces, magnetic moments)
//   - string fields (labels, tags)
//
// Configurations are immutable once loaded. Operations that change the atom
// list, such as [Configuration.WithoutAtoms], return a new configuration.
//
// # Lattice coordinates
//
//	lat, err := cfg.Cell.Lattice()
//	frac := lat.Fractional(cfg.Atoms[0].Position)
package atoms
