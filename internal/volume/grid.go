// Package volume holds volumetric scalar grids and reads the native ASCII
// grid format.
//
// The native format is whitespace separated:
//
//	n0 n1 n2
//	a.x a.y a.z
//	b.x b.y b.z
//	c.x c.y c.z
//	iso [iso ...]
//	v v v ...        (n0*n1*n2 values, the last index varying fastest)
//
// Lines starting with '#' are comments.
package volume

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// MaxSamples bounds the number of samples a grid may hold.
const MaxSamples = 1 << 27

// Grid is a scalar field sampled on a lattice aligned with Cell.
type Grid struct {
	Dims      [3]int    `json:"dims"`
	Cell      [3]r3.Vec `json:"cell"`
	Data      []float64 `json:"data"`
	Isovalues []float64 `json:"isovalues"`
}

// Index returns the offset of sample (i, j, k) in Data.
func (g *Grid) Index(i, j, k int) int {
	return (i*g.Dims[1]+j)*g.Dims[2] + k
}

func (g *Grid) At(i, j, k int) float64 { return g.Data[g.Index(i, j, k)] }

// Point returns the Cartesian position of sample (i, j, k).
func (g *Grid) Point(i, j, k int) r3.Vec {
	f := [3]float64{
		float64(i) / float64(g.Dims[0]),
		float64(j) / float64(g.Dims[1]),
		float64(k) / float64(g.Dims[2]),
	}
	return r3.Add(r3.Add(r3.Scale(f[0], g.Cell[0]), r3.Scale(f[1], g.Cell[1])), r3.Scale(f[2], g.Cell[2]))
}

func (g *Grid) Validate() error {
	n := 1
	for ax, d := range g.Dims {
		if d < 1 {
			return fmt.Errorf("%w: grid dimension %d is %d", errs.ErrIOFailure, ax, d)
		}
		if n > MaxSamples/d {
			return fmt.Errorf("%w: grid %dx%dx%d exceeds %d samples", errs.ErrIOFailure, g.Dims[0], g.Dims[1], g.Dims[2], MaxSamples)
		}
		n *= d
	}
	if len(g.Data) != n {
		return fmt.Errorf("%w: grid has %d values, dimensions need %d", errs.ErrIOFailure, len(g.Data), n)
	}
	return nil
}

// Range returns the smallest and largest sample.
func (g *Grid) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.Data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

type tokenizer struct {
	sc   *bufio.Scanner
	line int
	toks []string
}

func (t *tokenizer) nextLine() ([]string, error) {
	for t.sc.Scan() {
		t.line++
		s := strings.TrimSpace(t.sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		return strings.Fields(s), nil
	}
	if err := t.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

func (t *tokenizer) floats(want int, what string) ([]float64, error) {
	f, err := t.nextLine()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if want > 0 && len(f) != want {
		return nil, fmt.Errorf("line %d: %s needs %d values, got %d", t.line, what, want, len(f))
	}
	out := make([]float64, len(f))
	for i, s := range f {
		if out[i], err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", t.line, what, err)
		}
	}
	return out, nil
}

// Parse reads a grid in the native format. Decoding failures are reported
// as ErrIOFailure with the offending line.
func Parse(r io.Reader) (*Grid, error) {
	g, err := parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: volume: %v", errs.ErrIOFailure, err)
	}
	return g, nil
}

func parse(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	t := &tokenizer{sc: sc}

	dims, err := t.floats(3, "dimensions")
	if err != nil {
		return nil, err
	}
	g := &Grid{}
	n := 1
	for i, d := range dims {
		if d < 1 || d != math.Trunc(d) {
			return nil, fmt.Errorf("line %d: bad dimension %g", t.line, d)
		}
		if d > float64(MaxSamples/n) {
			return nil, fmt.Errorf("line %d: grid %v exceeds %d samples", t.line, dims, MaxSamples)
		}
		g.Dims[i] = int(d)
		n *= g.Dims[i]
	}
	for i := 0; i < 3; i++ {
		row, err := t.floats(3, "cell vector")
		if err != nil {
			return nil, err
		}
		g.Cell[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
	}
	if g.Isovalues, err = t.floats(0, "isovalues"); err != nil {
		return nil, err
	}

	g.Data = make([]float64, 0, min(n, 1<<20))
	for len(g.Data) < n {
		row, err := t.floats(0, "values")
		if err != nil {
			return nil, err
		}
		g.Data = append(g.Data, row...)
	}
	if len(g.Data) > n {
		return nil, fmt.Errorf("line %d: %d values for a %dx%dx%d grid", t.line, len(g.Data), g.Dims[0], g.Dims[1], g.Dims[2])
	}
	return g, nil
}
