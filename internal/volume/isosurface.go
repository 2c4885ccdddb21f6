package volume

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a triangle soup.
type Mesh struct {
	Vertices []r3.Vec
	Faces    [][3]int
}

var cubeCorners = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// six tetrahedra sharing the 0-6 diagonal
var cubeTets = [6][4]int{
	{0, 5, 1, 6}, {0, 1, 2, 6}, {0, 2, 3, 6},
	{0, 3, 7, 6}, {0, 7, 4, 6}, {0, 4, 5, 6},
}

// Isosurface extracts the surface v == iso by marching tetrahedra. The grid
// is treated as periodic, so the surface covers one full cell. Slabs along
// the first axis are marched concurrently and joined in order, so the mesh
// is the same for any number of workers.
func (g *Grid) Isosurface(iso float64) Mesh {
	parts := make([]Mesh, g.Dims[0])
	parallelFor(g.Dims[0], minSlabs, func(start, end int) {
		for i := start; i < end; i++ {
			g.slab(i, iso, &parts[i])
		}
	})
	var m Mesh
	for _, p := range parts {
		m.join(p)
	}
	return m
}

func (g *Grid) slab(i int, iso float64, m *Mesh) {
	var pos [8]r3.Vec
	var val [8]float64
	for j := 0; j < g.Dims[1]; j++ {
		for k := 0; k < g.Dims[2]; k++ {
			for c, off := range cubeCorners {
				ci, cj, ck := i+off[0], j+off[1], k+off[2]
				pos[c] = g.Point(ci, cj, ck)
				val[c] = g.At(ci%g.Dims[0], cj%g.Dims[1], ck%g.Dims[2])
			}
			for _, tet := range cubeTets {
				m.tetra(tet, &pos, &val, iso)
			}
		}
	}
}

func (m *Mesh) join(o Mesh) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, f := range o.Faces {
		m.Faces = append(m.Faces, [3]int{f[0] + base, f[1] + base, f[2] + base})
	}
}

func (m *Mesh) tetra(tet [4]int, pos *[8]r3.Vec, val *[8]float64, iso float64) {
	var in, out []int
	for _, c := range tet {
		if val[c] > iso {
			in = append(in, c)
		} else {
			out = append(out, c)
		}
	}
	cross := func(a, b int) int {
		t := (iso - val[a]) / (val[b] - val[a])
		m.Vertices = append(m.Vertices, r3.Add(pos[a], r3.Scale(t, r3.Sub(pos[b], pos[a]))))
		return len(m.Vertices) - 1
	}
	switch len(in) {
	case 1:
		m.Faces = append(m.Faces, [3]int{cross(in[0], out[0]), cross(in[0], out[1]), cross(in[0], out[2])})
	case 3:
		m.Faces = append(m.Faces, [3]int{cross(out[0], in[0]), cross(out[0], in[1]), cross(out[0], in[2])})
	case 2:
		a := cross(in[0], out[0])
		b := cross(in[0], out[1])
		c := cross(in[1], out[1])
		d := cross(in[1], out[0])
		m.Faces = append(m.Faces, [3]int{a, b, c}, [3]int{a, c, d})
	}
}
