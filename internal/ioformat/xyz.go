package ioformat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

type column struct {
	name  string
	kind  byte
	width int
}

var defaultColumns = []column{{"species", 'S', 1}, {"pos", 'R', 3}}

// ReadXYZ reads every frame of a plain or extended XYZ stream.
//
// The comment line of extended XYZ carries key=value pairs; Lattice gives
// the cell rows, pbc the periodic flags (default all true when a lattice is
// given), Properties the per-atom columns as name:type:width triples, and
// any other key becomes frame metadata.
func ReadXYZ(r io.Reader) ([]*atoms.Configuration, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return sc.Text(), true
	}

	var frames []*atoms.Configuration
	for {
		head, ok := next()
		if !ok {
			break
		}
		if strings.TrimSpace(head) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("line %d: bad atom count %q", line, head)
		}
		comment, ok := next()
		if !ok {
			return nil, fmt.Errorf("line %d: missing comment line", line)
		}
		cfg, cols, err := parseComment(comment)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cfg.Atoms = make([]atoms.Atom, 0, min(n, 1<<16))
		for i := 0; i < n; i++ {
			text, ok := next()
			if !ok {
				return nil, fmt.Errorf("frame %d: expected %d atoms, got %d", len(frames), n, i)
			}
			a, err := parseAtom(strings.Fields(text), cols)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			cfg.Atoms = append(cfg.Atoms, a)
		}
		frames = append(frames, cfg)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

func parseComment(comment string) (*atoms.Configuration, []column, error) {
	cfg := &atoms.Configuration{Info: atoms.Properties{}}
	cols := defaultColumns

	p := shellwords.NewParser()
	words, err := p.Parse(comment)
	if err != nil {
		// free text comments may carry stray quotes
		if structured(comment) {
			return nil, nil, fmt.Errorf("comment line: %w", err)
		}
		return cfg, cols, nil
	}
	pbcSet := false
	for _, w := range words {
		key, val, ok := strings.Cut(w, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "lattice":
			f, err := floats(val)
			if err != nil || len(f) != 9 {
				return nil, nil, fmt.Errorf("lattice needs 9 numbers, got %q", val)
			}
			for i := 0; i < 3; i++ {
				cfg.Cell.Vectors[i] = r3.Vec{X: f[3*i], Y: f[3*i+1], Z: f[3*i+2]}
			}
			if !pbcSet {
				cfg.Cell.PBC = [3]bool{true, true, true}
			}
		case "pbc":
			flags := strings.Fields(val)
			if len(flags) != 3 {
				return nil, nil, fmt.Errorf("pbc needs 3 flags, got %q", val)
			}
			for i, f := range flags {
				cfg.Cell.PBC[i] = isTrue(f)
			}
			pbcSet = true
		case "properties":
			if cols, err = parseColumns(val); err != nil {
				return nil, nil, err
			}
		default:
			cfg.Info[key] = infoValue(val)
		}
	}
	return cfg, cols, nil
}

// structured reports whether comment sets any key that changes how the
// frame is read.
func structured(comment string) bool {
	c := strings.ToLower(comment)
	for _, key := range []string{"lattice=", "properties=", "pbc="} {
		if strings.Contains(c, key) {
			return true
		}
	}
	return false
}

func parseColumns(spec string) ([]column, error) {
	parts := strings.Split(spec, ":")
	if len(parts)%3 != 0 {
		return nil, fmt.Errorf("properties needs name:type:width triples, got %q", spec)
	}
	var cols []column
	var species, pos bool
	for i := 0; i < len(parts); i += 3 {
		w, err := strconv.Atoi(parts[i+2])
		if err != nil || w < 1 || len(parts[i+1]) != 1 {
			return nil, fmt.Errorf("bad property column %q", strings.Join(parts[i:i+3], ":"))
		}
		c := column{name: parts[i], kind: parts[i+1][0], width: w}
		switch c.kind {
		case 'S', 'R', 'I', 'L':
		default:
			return nil, fmt.Errorf("unknown property type %q", parts[i+1])
		}
		species = species || c.name == "species"
		pos = pos || c.name == "pos"
		cols = append(cols, c)
	}
	if !species || !pos {
		return nil, errors.New("properties must include species and pos")
	}
	return cols, nil
}

func parseAtom(fields []string, cols []column) (atoms.Atom, error) {
	var a atoms.Atom
	k := 0
	for _, c := range cols {
		if k+c.width > len(fields) {
			return a, fmt.Errorf("atom line has %d fields, columns need more", len(fields))
		}
		vals := fields[k : k+c.width]
		k += c.width
		switch {
		case c.name == "species":
			a.Species = vals[0]
		case c.name == "pos":
			f, err := floats(strings.Join(vals, " "))
			if err != nil || len(f) != 3 {
				return a, fmt.Errorf("bad position %v", vals)
			}
			a.Position = r3.Vec{X: f[0], Y: f[1], Z: f[2]}
		case c.kind == 'S' || c.kind == 'L':
			if a.Props == nil {
				a.Props = atoms.Properties{}
			}
			a.Props[c.name] = atoms.String(strings.Join(vals, " "))
		default:
			f, err := floats(strings.Join(vals, " "))
			if err != nil {
				return a, fmt.Errorf("column %s: %w", c.name, err)
			}
			if a.Props == nil {
				a.Props = atoms.Properties{}
			}
			switch len(f) {
			case 1:
				a.Props[c.name] = atoms.Scalar(f[0])
			case 3:
				a.Props[c.name] = atoms.Vector(r3.Vec{X: f[0], Y: f[1], Z: f[2]})
			default:
				return a, fmt.Errorf("column %s: width %d is neither scalar nor vector", c.name, len(f))
			}
		}
	}
	return a, nil
}

func floats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func isTrue(s string) bool {
	switch strings.ToUpper(s) {
	case "T", "TRUE", "1":
		return true
	}
	return false
}

func infoValue(s string) atoms.Value {
	if f, err := floats(s); err == nil {
		switch len(f) {
		case 1:
			return atoms.Scalar(f[0])
		case 3:
			return atoms.Vector(r3.Vec{X: f[0], Y: f[1], Z: f[2]})
		}
	}
	return atoms.String(s)
}

// WriteXYZ writes cfg as one extended XYZ frame. Scalar and vector
// properties present on every atom are written as columns.
func WriteXYZ(w io.Writer, cfg *atoms.Configuration) error {
	bw := bufio.NewWriter(w)
	var cols []string
	if len(cfg.Atoms) > 0 {
		for _, name := range cfg.Atoms[0].Props.Names() {
			kind := cfg.Atoms[0].Props[name].Kind
			if kind == atoms.KindString {
				continue
			}
			all := true
			for _, a := range cfg.Atoms {
				if v, ok := a.Props[name]; !ok || v.Kind != kind {
					all = false
					break
				}
			}
			if all {
				cols = append(cols, name)
			}
		}
	}

	fmt.Fprintf(bw, "%d\n", len(cfg.Atoms))
	spec := "species:S:1:pos:R:3"
	for _, c := range cols {
		width := 1
		if cfg.Atoms[0].Props[c].Kind == atoms.KindVector {
			width = 3
		}
		spec += fmt.Sprintf(":%s:R:%d", c, width)
	}
	v := cfg.Cell.Vectors
	fmt.Fprintf(bw, "Lattice=\"%g %g %g %g %g %g %g %g %g\" Properties=%s pbc=\"%s %s %s\"",
		v[0].X, v[0].Y, v[0].Z, v[1].X, v[1].Y, v[1].Z, v[2].X, v[2].Y, v[2].Z,
		spec, flag(cfg.Cell.PBC[0]), flag(cfg.Cell.PBC[1]), flag(cfg.Cell.PBC[2]))
	for _, k := range cfg.Info.Names() {
		fmt.Fprintf(bw, " %s=%s", k, quote(cfg.Info[k].String()))
	}
	bw.WriteString("\n")
	for _, a := range cfg.Atoms {
		fmt.Fprintf(bw, "%s %g %g %g", a.Species, a.Position.X, a.Position.Y, a.Position.Z)
		for _, c := range cols {
			fmt.Fprintf(bw, " %s", a.Props[c].String())
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"'\\;&|<>") {
		return strconv.Quote(s)
	}
	return s
}

func flag(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

// ReadConfigurations reads every frame in path.
func ReadConfigurations(path string) ([]*atoms.Configuration, error) {
	switch Ext(path) {
	case ".xyz", ".extxyz":
	default:
		return nil, errs.IO("read", path, fmt.Errorf("unsupported configuration format %q", Ext(path)))
	}
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	frames, err := ReadXYZ(rc)
	if err != nil {
		return nil, errs.IO("parse", path, err)
	}
	if len(frames) == 0 {
		return nil, errs.IO("parse", path, errs.ErrEmptyConfiguration)
	}
	return frames, nil
}
