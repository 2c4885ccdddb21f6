package scene

import (
	"fmt"
	"strconv"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/geometry"
)

func imgSuffix(img atoms.Shift) string {
	if img.IsZero() {
		return ""
	}
	return "#img" + img.String()
}

func AtomID(i int, img atoms.Shift) string {
	return "atom#" + strconv.Itoa(i) + imgSuffix(img)
}

// BondID names one segment of a bond. Halves carry the lattice shift and
// their anchor atom.
func BondID(set string, seg geometry.Segment, img atoms.Shift) string {
	id := fmt.Sprintf("bond#%s#%d-%d", set, seg.Bond.I, seg.Bond.J)
	if !seg.Bond.Shift.IsZero() {
		id += "+s" + seg.Bond.Shift.String()
	}
	if seg.Half {
		id += "#half" + strconv.Itoa(seg.Anchor)
	}
	return id + imgSuffix(img)
}

func PolyhedronID(set string, center int, img atoms.Shift) string {
	return fmt.Sprintf("polyhedron#%s#%d%s", set, center, imgSuffix(img))
}

func VectorID(i int, img atoms.Shift) string {
	return "vector#" + strconv.Itoa(i) + imgSuffix(img)
}

func AtomLabelID(i int, img atoms.Shift) string {
	return "label#atom#" + strconv.Itoa(i) + imgSuffix(img)
}

func CellID(img atoms.Shift) string {
	return "cell#img" + img.String()
}

func IsosurfaceID(volume string, k int) string {
	return fmt.Sprintf("isosurface#%s#%d", volume, k)
}

const (
	FrameLabelID = "label#frame"
	LegendID     = "legend"
)
