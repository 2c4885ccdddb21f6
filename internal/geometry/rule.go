package geometry

import (
	"sort"

	"github.com/san-kum/atomscene/internal/errs"
)

type RuleKind string

const (
	RuleCutoff RuleKind = "cutoff"
	RulePairs  RuleKind = "pairs"
)

// Rule selects the atom pairs of a bond set.
//
// Cutoff rules accept pairs with Min <= distance <= Max whose species match
// SpeciesA/SpeciesB in either order; an empty or "*" species matches anything.
// Pair rules bond exactly the listed atom indices using the minimum image.
type Rule struct {
	Kind     RuleKind `json:"kind" yaml:"kind"`
	Min      float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max      float64  `json:"max,omitempty" yaml:"max,omitempty"`
	SpeciesA string   `json:"species_a,omitempty" yaml:"species_a,omitempty"`
	SpeciesB string   `json:"species_b,omitempty" yaml:"species_b,omitempty"`
	Pairs    [][2]int `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

func CutoffRule(max float64) Rule {
	return Rule{Kind: RuleCutoff, Max: max}
}

func PairRule(pairs ...[2]int) Rule {
	return Rule{Kind: RulePairs, Pairs: pairs}
}

func (r Rule) Validate() error {
	switch r.Kind {
	case RuleCutoff:
		if r.Max <= 0 {
			return errs.Invalid("bond cutoff must be positive, got %g", r.Max)
		}
		if r.Min < 0 || r.Min > r.Max {
			return errs.Invalid("bond cutoff range [%g, %g] is invalid", r.Min, r.Max)
		}
	case RulePairs:
		if len(r.Pairs) == 0 {
			return errs.Invalid("explicit bond rule has no pairs")
		}
	default:
		return errs.Invalid("unknown bond rule kind %q", r.Kind)
	}
	return nil
}

func anySpecies(s string) bool { return s == "" || s == "*" }

func matchOne(want, got string) bool { return anySpecies(want) || want == got }

// MatchSpecies reports whether the unordered species pair satisfies the filter.
func (r Rule) MatchSpecies(a, b string) bool {
	return (matchOne(r.SpeciesA, a) && matchOne(r.SpeciesB, b)) ||
		(matchOne(r.SpeciesA, b) && matchOne(r.SpeciesB, a))
}

// WithoutAtoms renumbers the explicit pairs of r after the atoms in drop
// are removed. Pairs touching a removed atom are dropped. Cutoff rules are
// returned unchanged.
func (r Rule) WithoutAtoms(drop []int) Rule {
	if r.Kind != RulePairs || len(drop) == 0 {
		return r
	}
	gone := append([]int(nil), drop...)
	sort.Ints(gone)
	n := 0
	for _, i := range gone {
		if n == 0 || gone[n-1] != i {
			gone[n] = i
			n++
		}
	}
	gone = gone[:n]

	removed := func(i int) bool {
		k := sort.SearchInts(gone, i)
		return k < len(gone) && gone[k] == i
	}
	out := r
	out.Pairs = nil
	for _, p := range r.Pairs {
		if removed(p[0]) || removed(p[1]) {
			continue
		}
		out.Pairs = append(out.Pairs, [2]int{
			p[0] - sort.SearchInts(gone, p[0]),
			p[1] - sort.SearchInts(gone, p[1]),
		})
	}
	return out
}
