package command

import (
	"strconv"

	"github.com/spf13/pflag"

	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/fieldmap"
	"github.com/san-kum/atomscene/internal/settings"
)

// noneWord clears an optional string setting.
const noneWord = "_NONE_"

func settingCommands() []*Command {
	return []*Command{
		{
			Name:    "atom_type",
			Setting: true,
			Args:    "NAME",
			Short:   "Set how atoms of species NAME are drawn. NAME * edits the fallback type.",
			Bind:    bindAtomType,
		},
		{
			Name:    "bond_type",
			Setting: true,
			Args:    "NAME",
			Short:   "Define or change a bond type.",
			Bind:    bindBondType,
		},
		{
			Name:    "colormap",
			Setting: true,
			Args:    "NAME V R G B [V R G B ...]",
			Short:   "Define a colormap from knots of value and colour.",
			Bind:    bindColormap,
		},
		colorSetting("cell_box_color", "Colour of the cell box.", func(s *settings.State) *fieldmap.Color { return &s.CellBoxColor }),
		colorSetting("background_color", "Background colour.", func(s *settings.State) *fieldmap.Color { return &s.Background }),
		colorSetting("picked_color", "Colour of picked atoms.", func(s *settings.State) *fieldmap.Color { return &s.PickedColor }),
		toggleSetting("cell_box", "Show or hide the cell box.", func(s *settings.State) *bool { return &s.CellBox }),
		toggleSetting("legend", "Show or hide the colour legend.", func(s *settings.State) *bool { return &s.Legend }),
		{
			Name:    "step",
			Setting: true,
			Args:    "N",
			Short:   "Number of frames next and prev move by.",
			Bind: func(fs *pflag.FlagSet) RunFunc {
				return func(tx *Tx, args []string) error {
					if len(args) != 1 {
						return errs.Invalid("step takes one value")
					}
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return errs.Invalid("step must be a positive integer, got %q", args[0])
					}
					tx.Settings.FrameStep = n
					return nil
				}
			},
		},
		{
			Name:    "label_default",
			Setting: true,
			Args:    "TEXT|" + noneWord,
			Short:   "Text substituted for ${NAME} lookups that find nothing. " + noneWord + " makes them fail again.",
			Bind: func(fs *pflag.FlagSet) RunFunc {
				return func(tx *Tx, args []string) error {
					if len(args) != 1 {
						return errs.Invalid("label_default takes one value")
					}
					if args[0] == noneWord {
						tx.Settings.LabelDefault = nil
						return nil
					}
					text := args[0]
					tx.Settings.LabelDefault = &text
					return nil
				}
			},
		},
	}
}

func bindAtomType(fs *pflag.FlagSet) RunFunc {
	color := fs.StringArray("color", nil, "fixed colour: a name or R G B")
	nargs(fs, "color", oneOrMore)
	colormap := fs.StringArray("colormap", nil, "colour by scalar FIELD through colormap MAP")
	nargs(fs, "colormap", 2)
	domain := fs.Float64Slice("domain", nil, "fixed MIN MAX of the colormap field (default: range of the frame)")
	nargs(fs, "domain", 2)
	radius := fs.Float64("radius", 0, "fixed radius")
	radiusField := fs.StringArray("radius_field", nil, "radius from scalar FIELD times SCALE")
	nargs(fs, "radius_field", 2)
	opacity := fs.Float64("opacity", 1, "opacity in [0,1]")
	labelText := fs.String("label", "", "per-atom label template, "+noneWord+" for none")

	return func(tx *Tx, args []string) error {
		if len(args) != 1 {
			return errs.Invalid("atom_type takes one species name")
		}
		name := args[0]
		t := tx.Settings.AtomType(name)
		if fs.Changed("color") {
			c, err := fieldmap.ParseColor((*color)...)
			if err != nil {
				return err
			}
			t.Color = fieldmap.ColorRule{Fixed: c}
		}
		if fs.Changed("colormap") {
			cm, field := (*colormap)[0], (*colormap)[1]
			if _, ok := tx.Settings.Colormaps[cm]; !ok {
				return errs.Reference("unknown colormap %q", cm)
			}
			t.Color.Colormap, t.Color.Field, t.Color.Domain = cm, field, nil
		}
		if fs.Changed("domain") {
			if !t.Color.ByField() {
				return errs.Invalid("-domain needs a colormap")
			}
			t.Color.Domain = &fieldmap.Domain{Min: (*domain)[0], Max: (*domain)[1]}
		}
		if fs.Changed("radius") {
			if *radius <= 0 {
				return errs.Invalid("radius must be positive, got %g", *radius)
			}
			t.Radius = fieldmap.RadiusRule{Fixed: *radius}
		}
		if fs.Changed("radius_field") {
			scale, err := strconv.ParseFloat((*radiusField)[1], 64)
			if err != nil {
				return errs.Invalid("radius scale %q is not a number", (*radiusField)[1])
			}
			t.Radius.Field, t.Radius.Scale = (*radiusField)[0], scale
		}
		if fs.Changed("opacity") {
			if err := checkOpacity(*opacity); err != nil {
				return err
			}
			t.Opacity = *opacity
		}
		if fs.Changed("label") {
			t.Label = *labelText
			if t.Label == noneWord {
				t.Label = ""
			}
		}

		if name == "*" {
			tx.Settings.DefaultAtom = t
			return nil
		}
		if tx.Settings.AtomTypes == nil {
			tx.Settings.AtomTypes = make(map[string]settings.AtomType)
		}
		tx.Settings.AtomTypes[name] = t
		return nil
	}
}

func bindBondType(fs *pflag.FlagSet) RunFunc {
	color := fs.StringArray("color", nil, "a colour name or R G B")
	nargs(fs, "color", oneOrMore)
	radius := fs.Float64("radius", 0, "cylinder radius")
	opacity := fs.Float64("opacity", 1, "opacity in [0,1]")

	return func(tx *Tx, args []string) error {
		if len(args) != 1 {
			return errs.Invalid("bond_type takes one name")
		}
		t, ok := tx.Settings.BondTypes[args[0]]
		if !ok {
			t = tx.Settings.BondTypes["default"]
			if t.Opacity == 0 {
				t.Opacity = 1
			}
		}
		if fs.Changed("color") {
			c, err := fieldmap.ParseColor((*color)...)
			if err != nil {
				return err
			}
			t.Color = c
		}
		if fs.Changed("radius") {
			if *radius <= 0 {
				return errs.Invalid("radius must be positive, got %g", *radius)
			}
			t.Radius = *radius
		}
		if fs.Changed("opacity") {
			if err := checkOpacity(*opacity); err != nil {
				return err
			}
			t.Opacity = *opacity
		}
		if tx.Settings.BondTypes == nil {
			tx.Settings.BondTypes = make(map[string]settings.BondType)
		}
		tx.Settings.BondTypes[args[0]] = t
		return nil
	}
}

func bindColormap(fs *pflag.FlagSet) RunFunc {
	return func(tx *Tx, args []string) error {
		if len(args) < 5 || (len(args)-1)%4 != 0 {
			return errs.Invalid("colormap takes a name and groups of V R G B")
		}
		vals, err := parseFloats("colormap", args[1:])
		if err != nil {
			return err
		}
		knots := make([]fieldmap.Knot, 0, len(vals)/4)
		for k := 0; k < len(vals); k += 4 {
			c, err := fieldmap.ParseColor(args[1+k+1], args[1+k+2], args[1+k+3])
			if err != nil {
				return err
			}
			knots = append(knots, fieldmap.Knot{Value: vals[k], Color: c})
		}
		cm, err := fieldmap.NewColormap(args[0], knots)
		if err != nil {
			return err
		}
		if tx.Settings.Colormaps == nil {
			tx.Settings.Colormaps = make(map[string]fieldmap.Colormap)
		}
		tx.Settings.Colormaps[args[0]] = cm
		return nil
	}
}

func colorSetting(name, short string, field func(*settings.State) *fieldmap.Color) *Command {
	return &Command{
		Name:    name,
		Setting: true,
		Args:    "COLOR|R G B",
		Short:   short,
		Bind: func(fs *pflag.FlagSet) RunFunc {
			return func(tx *Tx, args []string) error {
				c, err := fieldmap.ParseColor(args...)
				if err != nil {
					return err
				}
				*field(tx.Settings) = c
				return nil
			}
		},
	}
}

func toggleSetting(name, short string, field func(*settings.State) *bool) *Command {
	return &Command{
		Name:    name,
		Setting: true,
		Args:    "[on|off]",
		Short:   short + " Without an argument the setting is toggled.",
		Bind: func(fs *pflag.FlagSet) RunFunc {
			return func(tx *Tx, args []string) error {
				p := field(tx.Settings)
				v, err := onOff(name, args, *p)
				if err != nil {
					return err
				}
				*p = v
				return nil
			}
		},
	}
}

func checkOpacity(v float64) error {
	if v < 0 || v > 1 {
		return errs.Invalid("opacity %g outside [0,1]", v)
	}
	return nil
}
