package ioformat

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/volume"
	"gonum.org/v1/gonum/spatial/r3"
)

// IsCHGCAR reports whether path names a VASP charge density file.
func IsCHGCAR(path string) bool {
	base := strings.TrimSuffix(filepath.Base(path), ".gz")
	return strings.HasSuffix(strings.ToUpper(base), "CHGCAR")
}

// ReadCHGCAR reads the first density grid of a VASP CHGCAR stream. VASP
// stores density times cell volume with x varying fastest; the grid holds
// the density itself.
func ReadCHGCAR(r io.Reader) (*volume.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	next := func(what string) ([]string, error) {
		for sc.Scan() {
			line++
			if f := strings.Fields(sc.Text()); len(f) > 0 {
				return f, nil
			}
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", what, io.ErrUnexpectedEOF)
	}

	if !sc.Scan() {
		return nil, fmt.Errorf("comment: %w", io.ErrUnexpectedEOF)
	}
	line++

	f, err := next("scale")
	if err != nil {
		return nil, err
	}
	scale, err := strconv.ParseFloat(f[0], 64)
	if err != nil || scale == 0 {
		return nil, fmt.Errorf("line %d: bad scale %q", line, f[0])
	}

	var cell atoms.Cell
	for i := 0; i < 3; i++ {
		f, err := next("lattice")
		if err != nil {
			return nil, err
		}
		v, err := floats(strings.Join(f, " "))
		if err != nil || len(v) < 3 {
			return nil, fmt.Errorf("line %d: lattice vector needs 3 numbers", line)
		}
		cell.Vectors[i] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	if scale < 0 {
		// a negative scale is the cell volume
		scale = math.Cbrt(-scale / math.Abs(cell.Volume()))
	}
	for i := range cell.Vectors {
		cell.Vectors[i] = r3.Scale(scale, cell.Vectors[i])
	}
	vol := math.Abs(cell.Volume())
	if vol == 0 {
		return nil, fmt.Errorf("line %d: lattice is singular", line)
	}

	// species names are optional before the counts
	f, err = next("atom counts")
	if err != nil {
		return nil, err
	}
	if _, err := strconv.Atoi(f[0]); err != nil {
		if f, err = next("atom counts"); err != nil {
			return nil, err
		}
	}
	natoms := 0
	for _, s := range f {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("line %d: bad atom count %q", line, s)
		}
		natoms += n
	}

	f, err = next("coordinate mode")
	if err != nil {
		return nil, err
	}
	if c := f[0][0]; c == 'S' || c == 's' {
		if _, err := next("coordinate mode"); err != nil {
			return nil, err
		}
	}
	for i := 0; i < natoms; i++ {
		if _, err := next("positions"); err != nil {
			return nil, err
		}
	}

	f, err = next("grid dimensions")
	if err != nil {
		return nil, err
	}
	dims, err := parseInts3(f)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", line, err)
	}
	n := 1
	for _, d := range dims {
		if d < 1 || n > volume.MaxSamples/d {
			return nil, fmt.Errorf("line %d: bad grid %v", line, dims)
		}
		n *= d
	}

	raw := make([]float64, 0, min(n, 1<<20))
	for len(raw) < n {
		f, err := next("density")
		if err != nil {
			return nil, err
		}
		for _, s := range f {
			if len(raw) == n {
				break
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: density: %w", line, err)
			}
			raw = append(raw, v)
		}
	}

	g := &volume.Grid{Dims: dims, Cell: cell.Vectors, Data: make([]float64, n)}
	for x, v := range raw {
		i := x % dims[0]
		j := (x / dims[0]) % dims[1]
		k := x / (dims[0] * dims[1])
		g.Data[g.Index(i, j, k)] = v / vol
	}
	return g, nil
}

func parseInts3(f []string) ([3]int, error) {
	var out [3]int
	if len(f) != 3 {
		return out, fmt.Errorf("grid dimensions need 3 integers, got %d", len(f))
	}
	for i, s := range f {
		v, err := strconv.Atoi(s)
		if err != nil {
			return out, fmt.Errorf("grid dimension %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}
