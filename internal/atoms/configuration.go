package atoms

import (
	"fmt"
	"sort"

	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Keys under which label overrides are stored, so they follow the atoms
// and frames they belong to.
const (
	// LabelProperty is a per-atom string shown instead of the type's label.
	LabelProperty = "_label"
	// FrameLabelKey is frame metadata holding a template shown instead of
	// the default frame label.
	FrameLabelKey = "_frame_label"
)

type Atom struct {
	Species  string     `json:"species" yaml:"species"`
	Position r3.Vec     `json:"position" yaml:"position"`
	Props    Properties `json:"props,omitempty" yaml:"props,omitempty"`
}

// Configuration is one frame: atoms, cell and metadata.
type Configuration struct {
	Atoms []Atom     `json:"atoms" yaml:"atoms"`
	Cell  Cell       `json:"cell" yaml:"cell"`
	Info  Properties `json:"info,omitempty" yaml:"info,omitempty"`
}

func (c *Configuration) Len() int { return len(c.Atoms) }

// Validate checks the geometry preconditions shared by every build.
func (c *Configuration) Validate() error {
	if c == nil || len(c.Atoms) == 0 {
		return errs.ErrEmptyConfiguration
	}
	return c.Cell.Validate()
}

// CheckIndex fails with ErrInvalidReference for an out-of-range atom index.
func (c *Configuration) CheckIndex(i int) error {
	if i < 0 || i >= len(c.Atoms) {
		return errs.Reference("atom index %d out of range [0,%d)", i, len(c.Atoms))
	}
	return nil
}

// Species returns the distinct species in sorted order.
func (c *Configuration) Species() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, a := range c.Atoms {
		if !seen[a.Species] {
			seen[a.Species] = true
			out = append(out, a.Species)
		}
	}
	sort.Strings(out)
	return out
}

// HasProperty reports whether any atom carries the named field.
func (c *Configuration) HasProperty(name string) bool {
	for _, a := range c.Atoms {
		if _, ok := a.Props[name]; ok {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (c *Configuration) Clone() *Configuration {
	out := &Configuration{
		Atoms: make([]Atom, len(c.Atoms)),
		Cell:  c.Cell,
		Info:  c.Info.Clone(),
	}
	for i, a := range c.Atoms {
		out.Atoms[i] = Atom{Species: a.Species, Position: a.Position, Props: a.Props.Clone()}
	}
	return out
}

// WithoutAtoms returns a copy with the given atoms removed.
func (c *Configuration) WithoutAtoms(indices []int) (*Configuration, error) {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		if err := c.CheckIndex(i); err != nil {
			return nil, err
		}
		drop[i] = true
	}
	out := &Configuration{Cell: c.Cell, Info: c.Info.Clone()}
	for i, a := range c.Atoms {
		if !drop[i] {
			out.Atoms = append(out.Atoms, Atom{Species: a.Species, Position: a.Position, Props: a.Props.Clone()})
		}
	}
	return out, nil
}

func (c *Configuration) String() string {
	return fmt.Sprintf("%d atoms, species %v, pbc %v", len(c.Atoms), c.Species(), c.Cell.PBC)
}
