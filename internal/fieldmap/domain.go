package fieldmap

import (
	"github.com/san-kum/atomscene/internal/atoms"
	"gonum.org/v1/gonum/floats"
)

// Domain is the scalar interval normalised onto [0, 1] before a colormap
// lookup.
type Domain struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Normalize maps v into [0, 1]; a zero-width domain maps everything to 0.5.
func (d Domain) Normalize(v float64) float64 {
	if d.Max == d.Min {
		return 0.5
	}
	return (v - d.Min) / (d.Max - d.Min)
}

// Domains holds the auto-computed ranges of one build pass, keyed by field.
type Domains map[string]Domain

// ComputeDomains scans cfg once for the min and max of each named scalar
// field. Atoms lacking a field are ignored; fields present on no atom are
// absent from the result.
func ComputeDomains(cfg *atoms.Configuration, fields []string) Domains {
	out := make(Domains, len(fields))
	for _, f := range fields {
		if _, done := out[f]; done {
			continue
		}
		vals := make([]float64, 0, cfg.Len())
		for _, a := range cfg.Atoms {
			if v, err := a.Props.Scalar(f); err == nil {
				vals = append(vals, v)
			}
		}
		if len(vals) > 0 {
			out[f] = Domain{Min: floats.Min(vals), Max: floats.Max(vals)}
		}
	}
	return out
}
