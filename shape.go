package shaper

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// CurvePoint is a control point in object or world space.
type CurvePoint = mgl64.Vec3

// Axis names a world axis, used both as a facing normal and as a mirror axis.
type Axis string

const (
	AxisX    Axis = "x"
	AxisY    Axis = "y"
	AxisZ    Axis = "z"
	AxisNone Axis = "none"
)

// ParseAxis accepts x, y, z and none (case insensitive). The empty string is none.
func ParseAxis(token string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	case "none", "":
		return AxisNone, nil
	}
	return "", &InvalidAxisError{Token: token}
}

func (a Axis) valid() bool {
	switch a {
	case AxisX, AxisY, AxisZ, AxisNone:
		return true
	}
	return false
}

// CurveShape is one curve attached to a node.
type CurveShape struct {
	Points   []CurvePoint
	Degree   int
	Periodic bool
	Color    Color
}

// ShapeSet is every curve shape of one controller, in creation order.
type ShapeSet []CurveShape

// Clone returns a deep copy of the shape.
func (s CurveShape) Clone() CurveShape {
	out := s
	out.Points = append([]CurvePoint(nil), s.Points...)
	return out
}

// Clone returns a deep copy of the set.
func (set ShapeSet) Clone() ShapeSet {
	if set == nil {
		return nil
	}
	out := make(ShapeSet, len(set))
	for i, s := range set {
		out[i] = s.Clone()
	}
	return out
}

// Validate checks the point/degree invariant and the color range.
func Validate(s CurveShape) error {
	return validateAt(s, -1)
}

func validateAt(s CurveShape, index int) error {
	bad := func(format string, args ...any) error {
		return &MalformedShapeError{Index: index, Reason: fmt.Sprintf(format, args...)}
	}

	if len(s.Points) == 0 {
		return bad("no points")
	}
	if s.Degree < 1 {
		return bad("degree %d is lower than 1", s.Degree)
	}

	// An open curve needs degree+1 points, a periodic one wraps and needs degree.
	need := s.Degree + 1
	if s.Periodic {
		need = s.Degree
	}
	if len(s.Points) < need {
		return bad("%d points given, degree %d needs at least %d", len(s.Points), s.Degree, need)
	}

	for i, p := range s.Points {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return bad("point %d is not finite: %v", i, p)
			}
		}
	}

	if err := s.Color.validate(); err != nil {
		return bad("%v", err)
	}
	return nil
}

// Validate checks every shape of the set and reports the first failure.
func (set ShapeSet) Validate() error {
	for i, s := range set {
		if err := validateAt(s, i); err != nil {
			return err
		}
	}
	return nil
}

// Scale multiplies every coordinate by factor. Zero collapses the shape to the origin.
func Scale(s CurveShape, factor float64) CurveShape {
	out := s
	out.Points = make([]CurvePoint, len(s.Points))
	for i, p := range s.Points {
		out.Points[i] = p.Mul(factor)
	}
	return out
}

// Reorient permutes coordinates so a shape drawn facing y faces the given axis:
// x -> (y,z,x), y -> identity, z -> (z,x,y), none -> unchanged.
func Reorient(s CurveShape, axis Axis) (CurveShape, error) {
	if !axis.valid() {
		return CurveShape{}, &InvalidAxisError{Token: string(axis)}
	}

	out := s
	out.Points = make([]CurvePoint, len(s.Points))
	for i, p := range s.Points {
		x, y, z := p.Elem()
		switch axis {
		case AxisX:
			out.Points[i] = CurvePoint{y, z, x}
		case AxisZ:
			out.Points[i] = CurvePoint{z, x, y}
		default:
			out.Points[i] = p
		}
	}
	return out, nil
}

// Scale applies Scale to every shape of the set.
func (set ShapeSet) Scale(factor float64) ShapeSet {
	out := make(ShapeSet, len(set))
	for i, s := range set {
		out[i] = Scale(s, factor)
	}
	return out
}

// Reorient applies Reorient to every shape of the set.
func (set ShapeSet) Reorient(axis Axis) (ShapeSet, error) {
	out := make(ShapeSet, len(set))
	for i, s := range set {
		r, err := Reorient(s, axis)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Colors returns the color of each shape, in order.
func (set ShapeSet) Colors() []Color {
	colors := make([]Color, len(set))
	for i, s := range set {
		colors[i] = s.Color
	}
	return colors
}
