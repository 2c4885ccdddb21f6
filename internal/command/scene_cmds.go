package command

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/fieldmap"
	"github.com/san-kum/atomscene/internal/geometry"
	"github.com/san-kum/atomscene/internal/ioformat"
	"github.com/san-kum/atomscene/internal/settings"
	"github.com/san-kum/atomscene/internal/volume"
)

func sceneCommands() []*Command {
	return []*Command{
		{
			Name:  "images",
			Args:  "[N | N1 N2 N3]",
			Short: "Show N periodic images on each side of the cell, or the fractional box given by -range.",
			Bind:  bindImages,
		},
		{Name: "vectors", Short: "Draw a per-atom field as arrows.", Bind: bindVectors},
		{Name: "bond", Short: "Define, delete or list bond sets.", Bind: bindBond},
		{Name: "polyhedra", Short: "Define, delete or list coordination polyhedra.", Bind: bindPolyhedra},
		{Name: "volume", Args: "[FILE]", Short: "Load a volumetric grid and draw isosurfaces of it.", Bind: bindVolume},
	}
}

func bindImages(fs *pflag.FlagSet) RunFunc {
	box := fs.Float64Slice("range", nil, "fractional bounds LO1 HI1 LO2 HI2 LO3 HI3 (inf allowed)")
	nargs(fs, "range", 6)
	off := fs.Bool("off", false, "show the configuration as given")

	return func(tx *Tx, args []string) error {
		switch {
		case *off:
			if len(args) != 0 || fs.Changed("range") {
				return errs.Invalid("-off takes no other arguments")
			}
			tx.Settings.Images = geometry.Unbounded()
		case fs.Changed("range"):
			if len(args) != 0 {
				return errs.Invalid("-range and image counts are exclusive")
			}
			var lo, hi [3]float64
			for ax := 0; ax < 3; ax++ {
				lo[ax], hi[ax] = (*box)[2*ax], (*box)[2*ax+1]
			}
			tx.Settings.Images = geometry.NewRange(lo, hi)
		default:
			vals, err := parseFloats("images", args)
			if err != nil {
				return err
			}
			n, err := triple("images", vals)
			if err != nil {
				return err
			}
			tx.Settings.Images = geometry.RangeFromCounts(n)
		}
		if tx.Settings.Images.Empty() {
			tx.Printf("warning: image range is empty, no atoms will be shown\n")
		}
		return nil
	}
}

func bindVectors(fs *pflag.FlagSet) RunFunc {
	field := fs.String("field", "", "atom field to draw, scalar or 3-vector")
	color := fs.StringArray("color", nil, "atom, sign, a colour name or R G B")
	nargs(fs, "color", oneOrMore)
	signColors := fs.Float64Slice("sign_colors", nil, "RU GU BU RD GD BD colours for -color sign")
	nargs(fs, "sign_colors", 6)
	axis := fs.Float64Slice("axis", nil, "direction X Y Z of scalar fields")
	nargs(fs, "axis", 3)
	radius := fs.Float64("radius", 0, "arrow radius")
	scale := fs.Float64("scale", 0, "factor from field value to arrow length")
	length := fs.Float64("length", 0, "arrow length of scalar fields")
	del := fs.Bool("delete", false, "stop drawing vectors")

	return func(tx *Tx, args []string) error {
		if len(args) != 0 {
			return errs.Invalid("vectors takes only flags")
		}
		if *del {
			tx.Settings.Vectors = nil
			return nil
		}
		var rule fieldmap.VectorRule
		switch {
		case tx.Settings.Vectors != nil:
			rule = *tx.Settings.Vectors
		case *field != "":
			rule = fieldmap.DefaultVectorRule(*field)
		default:
			return errs.Invalid("vectors needs -field")
		}
		if *field != "" {
			rule.Field = *field
		}
		if fs.Changed("color") {
			switch mode := strings.ToLower((*color)[0]); {
			case len(*color) == 1 && mode == string(fieldmap.ColorAtom):
				rule.ColorMode = fieldmap.ColorAtom
			case len(*color) == 1 && mode == string(fieldmap.ColorSign):
				rule.ColorMode = fieldmap.ColorSign
			default:
				c, err := fieldmap.ParseColor((*color)...)
				if err != nil {
					return err
				}
				rule.ColorMode, rule.Color = fieldmap.ColorFixed, c
			}
		}
		if fs.Changed("sign_colors") {
			for k, v := range *signColors {
				if v < 0 || v > 1 {
					return errs.Invalid("colour component %g outside [0,1]", v)
				}
				if k < 3 {
					rule.Up[k] = v
				} else {
					rule.Down[k-3] = v
				}
			}
		}
		if fs.Changed("axis") {
			a := r3.Vec{X: (*axis)[0], Y: (*axis)[1], Z: (*axis)[2]}
			if r3.Norm(a) == 0 {
				return errs.Invalid("vector axis must be non-zero")
			}
			rule.Axis = a
		}
		for name, p := range map[string]*float64{"radius": radius, "scale": scale, "length": length} {
			if !fs.Changed(name) {
				continue
			}
			if *p <= 0 {
				return errs.Invalid("-%s must be positive, got %g", name, *p)
			}
		}
		if fs.Changed("radius") {
			rule.Radius = *radius
		}
		if fs.Changed("scale") {
			rule.Scale = *scale
		}
		if fs.Changed("length") {
			rule.Length = *length
		}
		tx.Settings.Vectors = &rule
		return nil
	}
}

func bindBond(fs *pflag.FlagSet) RunFunc {
	name := fs.String("name", "", "bond set name (default: the bond type)")
	typ := fs.String("type", "default", "bond type to draw with")
	speciesA := fs.String("T", "*", "species of one member")
	speciesB := fs.String("T2", "*", "species of the other member")
	picked := fs.Bool("picked", false, "bond the two picked atoms")
	pair := fs.IntSlice("n", nil, "bond atoms I J")
	nargs(fs, "n", 2)
	rcut := fs.Float64Slice("rcut", nil, "MAX or MIN MAX bond length")
	nargs(fs, "rcut", oneOrMore)
	del := fs.Bool("delete", false, "delete the named set, or every set")
	list := fs.Bool("list", false, "list bond sets")

	return func(tx *Tx, args []string) error {
		if len(args) != 0 {
			return errs.Invalid("bond takes only flags")
		}
		if *list {
			for _, b := range tx.Settings.BondSets {
				tx.Printf("%s\ttype=%s\t%s\n", b.ID, b.Type, describeRule(b.Rule))
			}
			return nil
		}
		if *del {
			return tx.Settings.DeleteBondSet(*name)
		}

		modes := 0
		for _, f := range []string{"picked", "n", "rcut"} {
			if fs.Changed(f) {
				modes++
			}
		}
		if modes != 1 {
			return errs.Invalid("bond needs exactly one of -picked, -n or -rcut")
		}

		var rule geometry.Rule
		switch {
		case *picked:
			if len(tx.Settings.Picked) != 2 {
				return errs.Invalid("bond -picked needs exactly 2 picked atoms, have %d", len(tx.Settings.Picked))
			}
			rule = geometry.PairRule([2]int{tx.Settings.Picked[0], tx.Settings.Picked[1]})
		case fs.Changed("n"):
			cfg, err := tx.Current()
			if err != nil {
				return err
			}
			for _, i := range *pair {
				if err := cfg.CheckIndex(i); err != nil {
					return err
				}
			}
			rule = geometry.PairRule([2]int{(*pair)[0], (*pair)[1]})
		default:
			switch len(*rcut) {
			case 1:
				rule = geometry.CutoffRule((*rcut)[0])
			case 2:
				rule = geometry.CutoffRule((*rcut)[1])
				rule.Min = (*rcut)[0]
			default:
				return errs.Invalid("-rcut takes 1 or 2 values, got %d", len(*rcut))
			}
			rule.SpeciesA, rule.SpeciesB = *speciesA, *speciesB
		}

		id := *name
		if id == "" {
			id = *typ
		}
		if rule.Kind == geometry.RulePairs {
			// explicit pairs accumulate within a set
			if prev, ok := tx.Settings.BondSet(id); ok && prev.Rule.Kind == geometry.RulePairs {
				rule.Pairs = append(append([][2]int(nil), prev.Rule.Pairs...), rule.Pairs...)
			}
		}
		return tx.Settings.PutBondSet(settings.BondSet{ID: id, Type: *typ, Rule: rule})
	}
}

func describeRule(r geometry.Rule) string {
	if r.Kind == geometry.RulePairs {
		parts := make([]string, len(r.Pairs))
		for i, p := range r.Pairs {
			parts[i] = fmt.Sprintf("%d-%d", p[0], p[1])
		}
		return "pairs=" + strings.Join(parts, ",")
	}
	return fmt.Sprintf("cutoff=%g-%g species=%s-%s", r.Min, r.Max, orAny(r.SpeciesA), orAny(r.SpeciesB))
}

func orAny(species string) string {
	if species == "" {
		return "*"
	}
	return species
}

func bindPolyhedra(fs *pflag.FlagSet) RunFunc {
	name := fs.String("name", "default", "polyhedron set name")
	center := fs.String("T", "", "species of the polyhedron centres")
	neighbor := fs.String("Tn", "", "species of the neighbours (default: any)")
	centerZ := fs.Int("Z", 0, "atomic number of the polyhedron centres")
	neighborZ := fs.Int("Zn", 0, "atomic number of the neighbours")
	rcut := fs.Float64("rcut", 0, "centre-neighbour cutoff")
	bondSet := fs.String("bond_name", "", "take neighbours from this bond set")
	color := fs.StringArray("color", nil, "a colour name or R G B")
	nargs(fs, "color", oneOrMore)
	opacity := fs.Float64("opacity", 0.5, "face opacity")
	del := fs.Bool("delete", false, "delete the named set, or every set when -name is not given")
	list := fs.Bool("list", false, "list polyhedron sets")

	return func(tx *Tx, args []string) error {
		if len(args) != 0 {
			return errs.Invalid("polyhedra takes only flags")
		}
		creating := false
		for _, f := range []string{"T", "Tn", "Z", "Zn", "rcut", "bond_name", "color"} {
			creating = creating || fs.Changed(f)
		}
		if (*del || *list) && creating {
			return errs.Invalid("polyhedra -delete and -list take no definition flags")
		}
		switch {
		case *list:
			for _, p := range tx.Settings.PolyhedronSets {
				src := fmt.Sprintf("rcut=%g", p.Cutoff)
				if p.BondSet != "" {
					src = "bonds=" + p.BondSet
				}
				tx.Printf("%s\tcentre=%s\tneighbour=%s\t%s\n", p.Name, p.Center, orAny(p.Neighbor), src)
			}
			return nil
		case *del:
			if !fs.Changed("name") {
				return tx.Settings.DeletePolyhedronSet("")
			}
			return tx.Settings.DeletePolyhedronSet(*name)
		}

		for _, sp := range []struct {
			sym, z string
			dst    *string
			num    int
		}{{"T", "Z", center, *centerZ}, {"Tn", "Zn", neighbor, *neighborZ}} {
			if !fs.Changed(sp.z) {
				continue
			}
			if fs.Changed(sp.sym) {
				return errs.Invalid("polyhedra takes -%s or -%s, not both", sp.sym, sp.z)
			}
			sym, err := atoms.Symbol(sp.num)
			if err != nil {
				return err
			}
			*sp.dst = sym
		}
		if *center == "" {
			return errs.Invalid("polyhedra needs -T or -Z to create polyhedra")
		}
		if fs.Changed("rcut") == fs.Changed("bond_name") {
			return errs.Invalid("polyhedra needs exactly one of -rcut or -bond_name")
		}
		if err := checkOpacity(*opacity); err != nil {
			return err
		}
		c := fieldmap.Color{0.5, 0.5, 1}
		if fs.Changed("color") {
			var err error
			if c, err = fieldmap.ParseColor((*color)...); err != nil {
				return err
			}
		}
		return tx.Settings.PutPolyhedronSet(settings.PolyhedronSet{
			Name:     *name,
			Center:   *center,
			Neighbor: *neighbor,
			Cutoff:   *rcut,
			BondSet:  *bondSet,
			Color:    c,
			Opacity:  *opacity,
		})
	}
}

func bindVolume(fs *pflag.FlagSet) RunFunc {
	name := fs.String("name", "", "name of the volume (default: the file name)")
	iso := fs.Float64Slice("isosurface", nil, "VALUE R G B OPACITY, repeatable")
	nargs(fs, "isosurface", 5)
	del := fs.String("delete", "", "delete the named volume")
	list := fs.Bool("list", false, "list volumes")

	return func(tx *Tx, args []string) error {
		switch {
		case *list:
			for _, n := range slices.Sorted(maps.Keys(tx.Settings.Volumes)) {
				v := tx.Settings.Volumes[n]
				tx.Printf("%s\t%dx%dx%d\t%d isosurface(s)\n", n, v.Grid.Dims[0], v.Grid.Dims[1], v.Grid.Dims[2], len(v.Isosurfaces))
			}
			return nil
		case fs.Changed("delete"):
			if _, ok := tx.Settings.Volumes[*del]; !ok {
				return errs.Reference("unknown volume %q", *del)
			}
			delete(tx.Settings.Volumes, *del)
			return nil
		}
		if len(args) > 1 {
			return errs.Invalid("volume reads one file")
		}

		surfaces, err := isosurfaces(*iso)
		if err != nil {
			return err
		}
		id := *name
		var vol settings.Volume
		if len(args) == 1 {
			if id == "" {
				id = args[0]
			}
			g, err := ioformat.ReadVolume(args[0])
			if err != nil {
				return err
			}
			vol.Grid = g
			if surfaces == nil {
				surfaces = defaultIsosurfaces(g)
			}
		} else {
			existing, ok := tx.Settings.Volumes[id]
			if !ok {
				return errs.Invalid("volume needs a file or the -name of a loaded volume")
			}
			vol.Grid = existing.Grid
			if surfaces == nil {
				return errs.Invalid("nothing to change for volume %q", id)
			}
		}
		vol.Isosurfaces = surfaces
		if tx.Settings.Volumes == nil {
			tx.Settings.Volumes = make(map[string]settings.Volume)
		}
		tx.Settings.Volumes[id] = vol
		return nil
	}
}

func isosurfaces(vals []float64) ([]settings.Isosurface, error) {
	if len(vals) == 0 {
		return nil, nil
	}
	if len(vals)%5 != 0 {
		return nil, errs.Invalid("-isosurface takes VALUE R G B OPACITY")
	}
	out := make([]settings.Isosurface, 0, len(vals)/5)
	for k := 0; k < len(vals); k += 5 {
		var c fieldmap.Color
		for i := 0; i < 3; i++ {
			if v := vals[k+1+i]; v < 0 || v > 1 {
				return nil, errs.Invalid("colour component %g outside [0,1]", v)
			}
			c[i] = vals[k+1+i]
		}
		if err := checkOpacity(vals[k+4]); err != nil {
			return nil, err
		}
		out = append(out, settings.Isosurface{Value: vals[k], Color: c, Opacity: vals[k+4]})
	}
	return out, nil
}

// defaultIsosurfaces draws the isovalues stored in the file, or the middle
// of the data range when there are none.
func defaultIsosurfaces(g *volume.Grid) []settings.Isosurface {
	values := g.Isovalues
	if len(values) == 0 {
		lo, hi := g.Range()
		values = []float64{(lo + hi) / 2}
	}
	out := make([]settings.Isosurface, len(values))
	for i, v := range values {
		out[i] = settings.Isosurface{Value: v, Color: fieldmap.Color{0.5, 0.5, 0.5}, Opacity: 0.5}
	}
	return out
}
