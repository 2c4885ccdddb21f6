// Package geometry derives bonds, periodic images and coordination polyhedra
// from an atomic configuration.
//
//   - [DetectBonds]: cutoff search over a cell list, or explicit index pairs
//   - [Split]: half-bond splitting of bonds that cross a periodic boundary
//   - [GenerateImages]: lattice translations covering a fractional range
//   - [BuildPolyhedra]: coordination polyhedra via [ConvexHull]
//
// Every function is a pure function of its inputs; results are sorted so that
// repeated derivations from the same configuration and rule are identical.
package geometry
