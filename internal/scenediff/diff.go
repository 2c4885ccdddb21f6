// Package scenediff computes the ordered patch that turns one scene model
// into another.
//
// Per primitive ID:
//
//	absent  -> present                     CREATE
//	present -> absent                      DELETE
//	present -> present, geometry changed   REPLACE
//	present -> present, attributes changed UPDATE-ATTR
//
// A patch lists deletes, then replaces, then creates, then attribute
// updates, each group sorted by ID, so a renderer applying it in order never
// refers to a primitive it does not hold.
package scenediff

import (
	"fmt"
	"sort"

	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/scene"
)

type OpKind int

const (
	OpDelete OpKind = iota
	OpReplace
	OpCreate
	OpUpdateAttr
)

func (k OpKind) String() string {
	switch k {
	case OpDelete:
		return "DELETE"
	case OpReplace:
		return "REPLACE"
	case OpCreate:
		return "CREATE"
	case OpUpdateAttr:
		return "UPDATE-ATTR"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is one patch step. Prim is set for CREATE and REPLACE, Attrs for
// UPDATE-ATTR.
type Op struct {
	Kind  OpKind
	ID    string
	Prim  *scene.Primitive
	Attrs *scene.Attrs
}

func (o Op) String() string { return o.Kind.String() + " " + o.ID }

type Patch struct {
	From, To scene.Stamp
	Ops      []Op
}

func (p Patch) Empty() bool { return len(p.Ops) == 0 }

// Counts returns the number of operations of each kind.
func (p Patch) Counts() map[OpKind]int {
	out := make(map[OpKind]int)
	for _, op := range p.Ops {
		out[op.Kind]++
	}
	return out
}

// Diff compares two models. A nil model is empty. Models built from the
// same stamp are equal by construction and yield an empty patch without
// comparison.
func Diff(prev, next *scene.Model) Patch {
	if prev == nil {
		prev = scene.Empty()
	}
	if next == nil {
		next = scene.Empty()
	}
	p := Patch{From: prev.Stamp, To: next.Stamp}
	if prev.Stamp == next.Stamp && prev.Len() > 0 && next.Len() > 0 {
		return p
	}

	var del, rep, cre, upd []Op
	for id := range prev.Prims {
		if _, ok := next.Prims[id]; !ok {
			del = append(del, Op{Kind: OpDelete, ID: id})
		}
	}
	for id, np := range next.Prims {
		pp, ok := prev.Prims[id]
		switch {
		case !ok:
			prim := np
			cre = append(cre, Op{Kind: OpCreate, ID: id, Prim: &prim})
		case pp.Kind != np.Kind || !pp.Geometry.Equal(np.Geometry):
			prim := np
			rep = append(rep, Op{Kind: OpReplace, ID: id, Prim: &prim})
		case pp.Attrs != np.Attrs:
			attrs := np.Attrs
			upd = append(upd, Op{Kind: OpUpdateAttr, ID: id, Attrs: &attrs})
		}
	}
	for _, group := range [][]Op{del, rep, cre, upd} {
		sortOps(group)
		p.Ops = append(p.Ops, group...)
	}
	return p
}

func sortOps(ops []Op) {
	sort.Slice(ops, func(i, j int) bool { return ops[i].ID < ops[j].ID })
}

// Expand lowers every REPLACE into a DELETE and a CREATE, for renderers
// that cannot rebuild in place. Ordering is preserved: every delete comes
// before every create.
func (p Patch) Expand() Patch {
	out := Patch{From: p.From, To: p.To}
	var del, cre, upd []Op
	for _, op := range p.Ops {
		switch op.Kind {
		case OpDelete:
			del = append(del, op)
		case OpReplace:
			del = append(del, Op{Kind: OpDelete, ID: op.ID})
			cre = append(cre, Op{Kind: OpCreate, ID: op.ID, Prim: op.Prim})
		case OpCreate:
			cre = append(cre, op)
		case OpUpdateAttr:
			upd = append(upd, op)
		}
	}
	for _, group := range [][]Op{del, cre, upd} {
		sortOps(group)
		out.Ops = append(out.Ops, group...)
	}
	return out
}

// Apply returns the model obtained by applying p to m, leaving m untouched.
// It fails on any operation that refers to a primitive m does not hold or
// creates one it already holds.
func Apply(m *scene.Model, p Patch) (*scene.Model, error) {
	if m == nil {
		m = scene.Empty()
	}
	out := &scene.Model{Stamp: p.To, Prims: make(map[string]scene.Primitive, len(m.Prims))}
	for id, prim := range m.Prims {
		out.Prims[id] = prim
	}
	for _, op := range p.Ops {
		_, held := out.Prims[op.ID]
		switch op.Kind {
		case OpDelete:
			if !held {
				return nil, errs.Reference("patch deletes unknown primitive %s", op.ID)
			}
			delete(out.Prims, op.ID)
		case OpReplace:
			if !held {
				return nil, errs.Reference("patch replaces unknown primitive %s", op.ID)
			}
			out.Prims[op.ID] = *op.Prim
		case OpCreate:
			if held {
				return nil, errs.Reference("patch creates existing primitive %s", op.ID)
			}
			out.Prims[op.ID] = *op.Prim
		case OpUpdateAttr:
			if !held {
				return nil, errs.Reference("patch updates unknown primitive %s", op.ID)
			}
			prim := out.Prims[op.ID]
			prim.Attrs = *op.Attrs
			out.Prims[op.ID] = prim
		}
	}
	return out, nil
}
