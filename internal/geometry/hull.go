package geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Hull is the boundary of a point set: outward-oriented triangles and the
// polygon edges between distinct faces. Indices refer to the input points.
type Hull struct {
	Faces [][3]int
	Edges [][2]int
}

type plane struct {
	n r3.Vec
	d float64
}

// ConvexHull computes the hull of a small point set. Fewer than four
// non-coplanar points degrade to a polygon, a polyline or a single edge
// instead of failing.
func ConvexHull(pts []r3.Vec) Hull {
	if len(pts) < 2 {
		return Hull{}
	}
	eps := 1e-9 * math.Max(1, extent(pts))

	a, b, ok := farthestPair(pts)
	if !ok {
		return Hull{}
	}
	axis := r3.Unit(r3.Sub(pts[b], pts[a]))
	c := -1
	best := eps
	for i, p := range pts {
		off := r3.Sub(p, pts[a])
		perp := r3.Norm(r3.Sub(off, r3.Scale(r3.Dot(off, axis), axis)))
		if perp > best {
			best, c = perp, i
		}
	}
	if c < 0 {
		return collinear(pts, pts[a], axis)
	}

	n := r3.Unit(r3.Cross(r3.Sub(pts[b], pts[a]), r3.Sub(pts[c], pts[a])))
	coplanar := true
	for _, p := range pts {
		if math.Abs(r3.Dot(n, r3.Sub(p, pts[a]))) > eps {
			coplanar = false
			break
		}
	}
	h := Hull{}
	if coplanar {
		all := make([]int, len(pts))
		for i := range all {
			all[i] = i
		}
		h.addPolygon(pts, all, plane{n: n, d: r3.Dot(n, pts[a])})
		h.normalize()
		return h
	}

	for _, pl := range supportingPlanes(pts, eps) {
		on := make([]int, 0, 4)
		for i, p := range pts {
			if math.Abs(r3.Dot(pl.n, p)-pl.d) <= eps {
				on = append(on, i)
			}
		}
		h.addPolygon(pts, on, pl)
	}
	h.normalize()
	return h
}

func extent(pts []r3.Vec) float64 {
	m := 0.0
	for _, p := range pts {
		m = math.Max(m, math.Max(math.Abs(p.X), math.Max(math.Abs(p.Y), math.Abs(p.Z))))
	}
	return m
}

func farthestPair(pts []r3.Vec) (int, int, bool) {
	a, b, best := 0, 0, 0.0
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := r3.Norm2(r3.Sub(pts[j], pts[i])); d > best {
				a, b, best = i, j, d
			}
		}
	}
	return a, b, best > 0
}

func collinear(pts []r3.Vec, origin, axis r3.Vec) Hull {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool {
		return r3.Dot(r3.Sub(pts[idx[x]], origin), axis) < r3.Dot(r3.Sub(pts[idx[y]], origin), axis)
	})
	h := Hull{}
	for k := 0; k+1 < len(idx); k++ {
		h.Edges = append(h.Edges, [2]int{idx[k], idx[k+1]})
	}
	h.normalize()
	return h
}

// supportingPlanes returns each distinct plane through three points with
// every other point on one side, oriented outward.
func supportingPlanes(pts []r3.Vec, eps float64) []plane {
	var planes []plane
	for a := 0; a < len(pts); a++ {
		for b := a + 1; b < len(pts); b++ {
			for c := b + 1; c < len(pts); c++ {
				cr := r3.Cross(r3.Sub(pts[b], pts[a]), r3.Sub(pts[c], pts[a]))
				if r3.Norm(cr) <= eps {
					continue
				}
				n := r3.Unit(cr)
				d := r3.Dot(n, pts[a])
				pos, neg := 0, 0
				for _, p := range pts {
					s := r3.Dot(n, p) - d
					if s > eps {
						pos++
					} else if s < -eps {
						neg++
					}
				}
				if pos > 0 && neg > 0 {
					continue
				}
				if pos > 0 {
					n, d = r3.Scale(-1, n), -d
				}
				dup := false
				for _, q := range planes {
					if r3.Norm(r3.Sub(q.n, n)) <= 1e-6 && math.Abs(q.d-d) <= eps {
						dup = true
						break
					}
				}
				if !dup {
					planes = append(planes, plane{n: n, d: d})
				}
			}
		}
	}
	return planes
}

// addPolygon appends the 2D hull of the points idx lying in pl as a
// triangle fan wound counter-clockwise around pl.n.
func (h *Hull) addPolygon(pts []r3.Vec, idx []int, pl plane) {
	u := r3.Cross(pl.n, r3.Vec{X: 1})
	if r3.Norm(u) < 0.1 {
		u = r3.Cross(pl.n, r3.Vec{Y: 1})
	}
	u = r3.Unit(u)
	v := r3.Cross(pl.n, u)

	type p2 struct {
		x, y float64
		i    int
	}
	flat := make([]p2, len(idx))
	for k, i := range idx {
		flat[k] = p2{r3.Dot(pts[i], u), r3.Dot(pts[i], v), i}
	}
	sort.Slice(flat, func(a, b int) bool {
		if flat[a].x != flat[b].x {
			return flat[a].x < flat[b].x
		}
		return flat[a].y < flat[b].y
	})
	cross := func(o, a, b p2) float64 {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}
	// monotone chain
	ring := make([]p2, 0, 2*len(flat))
	for _, p := range flat {
		for len(ring) >= 2 && cross(ring[len(ring)-2], ring[len(ring)-1], p) <= 0 {
			ring = ring[:len(ring)-1]
		}
		ring = append(ring, p)
	}
	lower := len(ring) + 1
	for k := len(flat) - 2; k >= 0; k-- {
		p := flat[k]
		for len(ring) >= lower && cross(ring[len(ring)-2], ring[len(ring)-1], p) <= 0 {
			ring = ring[:len(ring)-1]
		}
		ring = append(ring, p)
	}
	ring = ring[:len(ring)-1]

	if len(ring) < 3 {
		for k := 0; k+1 < len(ring); k++ {
			h.Edges = append(h.Edges, [2]int{ring[k].i, ring[k+1].i})
		}
		return
	}
	for k := 1; k+1 < len(ring); k++ {
		h.Faces = append(h.Faces, [3]int{ring[0].i, ring[k].i, ring[k+1].i})
	}
	for k := range ring {
		h.Edges = append(h.Edges, [2]int{ring[k].i, ring[(k+1)%len(ring)].i})
	}
}

func (h *Hull) normalize() {
	seen := make(map[[2]int]bool)
	edges := h.Edges[:0]
	for _, e := range h.Edges {
		if e[0] > e[1] {
			e[0], e[1] = e[1], e[0]
		}
		if e[0] == e[1] || seen[e] {
			continue
		}
		seen[e] = true
		edges = append(edges, e)
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a][0] != edges[b][0] {
			return edges[a][0] < edges[b][0]
		}
		return edges[a][1] < edges[b][1]
	})
	h.Edges = edges
}
