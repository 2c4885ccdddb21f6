package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Bond joins atom I to the image of atom J displaced by Shift.
//
// Bonds are canonical: I < J, or I == J with a positive Shift for an atom
// bonded to its own periodic image. The reverse bond (J, I, -Shift) is never
// stored separately.
type Bond struct {
	I, J     int
	Shift    atoms.Shift
	Distance float64
}

func (b Bond) String() string {
	return fmt.Sprintf("%d-%d%s", b.I, b.J, b.Shift)
}

func canonical(i, j int, s atoms.Shift) (int, int, atoms.Shift) {
	if i > j || (i == j && s.Neg().Positive()) {
		return j, i, s.Neg()
	}
	return i, j, s
}

func sortBonds(bonds []Bond) {
	sort.Slice(bonds, func(a, b int) bool {
		x, y := bonds[a], bonds[b]
		if x.I != y.I {
			return x.I < y.I
		}
		if x.J != y.J {
			return x.J < y.J
		}
		return x.Shift.Less(y.Shift)
	})
}

// DetectBonds returns the bonds selected by rule, sorted by (I, J, Shift).
func DetectBonds(cfg *atoms.Configuration, rule Rule) ([]Bond, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if rule.Kind == RulePairs {
		return explicitBonds(cfg, rule)
	}
	return cutoffBonds(cfg, rule)
}

func cutoffBonds(cfg *atoms.Configuration, rule Rule) ([]Bond, error) {
	w, err := wrapPositions(cfg)
	if err != nil {
		return nil, err
	}
	cl := newCellList(w.ghosts(cfg.Cell, rule.Max), rule.Max)

	bonds := make([]Bond, 0, cfg.Len())
	for i, p := range w.pos {
		si := cfg.Atoms[i].Species
		cl.visit(p, func(g ghost) {
			if g.atom < i || (g.atom == i && !g.shift.Positive()) {
				return
			}
			if !rule.MatchSpecies(si, cfg.Atoms[g.atom].Species) {
				return
			}
			d := r3.Norm(r3.Sub(g.pos, p))
			if d > rule.Max || d < rule.Min {
				return
			}
			// back to the frame of the positions as given
			shift := g.shift.Add(w.wrap[i]).Sub(w.wrap[g.atom])
			bonds = append(bonds, Bond{I: i, J: g.atom, Shift: shift, Distance: d})
		})
	}
	sortBonds(bonds)
	return bonds, nil
}

func explicitBonds(cfg *atoms.Configuration, rule Rule) ([]Bond, error) {
	seen := make(map[Bond]bool)
	bonds := make([]Bond, 0, len(rule.Pairs))
	for _, pr := range rule.Pairs {
		for _, idx := range pr {
			if err := cfg.CheckIndex(idx); err != nil {
				return nil, err
			}
		}
		if pr[0] == pr[1] {
			return nil, errs.Reference("cannot bond atom %d to itself", pr[0])
		}
		s, d, err := MinimumImage(cfg.Cell, cfg.Atoms[pr[0]].Position, cfg.Atoms[pr[1]].Position)
		if err != nil {
			return nil, err
		}
		i, j, s := canonical(pr[0], pr[1], s)
		key := Bond{I: i, J: j, Shift: s}
		if seen[key] {
			continue
		}
		seen[key] = true
		bonds = append(bonds, Bond{I: i, J: j, Shift: s, Distance: r3.Norm(d)})
	}
	sortBonds(bonds)
	return bonds, nil
}

// MinimumImage returns the lattice shift of b closest to a and the
// displacement from a to that image. Non-periodic axes never shift.
func MinimumImage(cell atoms.Cell, a, b r3.Vec) (atoms.Shift, r3.Vec, error) {
	d := r3.Sub(b, a)
	if !cell.Periodic() {
		return atoms.Shift{}, d, nil
	}
	lat, err := cell.Lattice()
	if err != nil {
		return atoms.Shift{}, r3.Vec{}, err
	}
	df := lat.Fractional(d)
	var base atoms.Shift
	var span [3]int
	for ax := 0; ax < 3; ax++ {
		if cell.PBC[ax] {
			base[ax] = -int(math.Round(atoms.Component(df, ax)))
			span[ax] = 1
		}
	}

	best, bestD := base, r3.Add(d, cell.Translation(base))
	bestN := r3.Norm2(bestD)
	for x := -span[0]; x <= span[0]; x++ {
		for y := -span[1]; y <= span[1]; y++ {
			for z := -span[2]; z <= span[2]; z++ {
				s := base.Add(atoms.Shift{x, y, z})
				cand := r3.Add(d, cell.Translation(s))
				if n := r3.Norm2(cand); n < bestN || (n == bestN && s.Less(best)) {
					best, bestD, bestN = s, cand, n
				}
			}
		}
	}
	return best, bestD, nil
}

// Segment is one renderable piece of a bond: the whole bond, or one half of
// a bond that crosses a periodic boundary.
type Segment struct {
	Bond   Bond
	Anchor int
	// Shift is the translation applied to the far atom, relative to Anchor.
	Shift    atoms.Shift
	From, To r3.Vec
	// Midpoint is the bond midpoint in the unwrapped frame of Bond.I.
	Midpoint r3.Vec
	Half     bool
}

// Split turns bonds into segments. A bond with a non-zero shift leaves the
// cell it starts in, so it becomes two halves anchored at each atom that
// meet at the unwrapped midpoint; all other bonds stay whole.
func Split(cfg *atoms.Configuration, bonds []Bond) []Segment {
	out := make([]Segment, 0, len(bonds))
	for _, b := range bonds {
		pi := cfg.Atoms[b.I].Position
		pj := cfg.Atoms[b.J].Position
		tr := cfg.Cell.Translation(b.Shift)
		d := r3.Sub(r3.Add(pj, tr), pi)
		mid := r3.Add(pi, r3.Scale(0.5, d))

		if b.Shift.IsZero() {
			out = append(out, Segment{Bond: b, Anchor: b.I, From: pi, To: pj, Midpoint: mid})
			continue
		}
		out = append(out,
			Segment{Bond: b, Anchor: b.I, Shift: b.Shift, From: pi, To: mid, Midpoint: mid, Half: true},
			Segment{Bond: b, Anchor: b.J, Shift: b.Shift.Neg(), From: pj, To: r3.Sub(mid, tr), Midpoint: mid, Half: true},
		)
	}
	return out
}
