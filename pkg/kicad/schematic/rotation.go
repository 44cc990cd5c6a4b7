package schematic

import (
	"fmt"
)

// ComponentRotation is the 2x2 placement matrix of a component, in the
// order it appears on the matrix line: A B C D.
type ComponentRotation struct {
	A, B, C, D int
}

// String returns the matrix in file order
func (r ComponentRotation) String() string {
	return fmt.Sprintf("%d %d %d %d", r.A, r.B, r.C, r.D)
}

type placement struct {
	orientation Orientation
	mirrored    bool
}

// Mirrored variants flip the symbol about its vertical axis after rotating.
var placements = map[ComponentRotation]placement{
	{1, 0, 0, -1}:  {R0, false},
	{0, -1, -1, 0}: {R90, false},
	{-1, 0, 0, 1}:  {R180, false},
	{0, 1, 1, 0}:   {R270, false},
	{-1, 0, 0, -1}: {R0, true},
	{0, -1, 1, 0}:  {R90, true},
	{1, 0, 0, 1}:   {R180, true},
	{0, 1, -1, 0}:  {R270, true},
}

// Decode returns the orientation and mirror flag the matrix encodes.
// Only the eight matrices KiCad writes are accepted.
func (r ComponentRotation) Decode() (Orientation, bool, error) {
	p, ok := placements[r]
	if !ok {
		return R0, false, fmt.Errorf("invalid rotation matrix %d %d %d %d", r.A, r.B, r.C, r.D)
	}
	return p.orientation, p.mirrored, nil
}

// EncodeRotation returns the matrix for an orientation and mirror flag
func EncodeRotation(o Orientation, mirrored bool) ComponentRotation {
	for m, p := range placements {
		if p.orientation == o && p.mirrored == mirrored {
			return m
		}
	}
	panic(fmt.Sprintf("schematic: invalid orientation %d", int(o)))
}
