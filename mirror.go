package shaper

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// singularEpsilon bounds |det| relative to the product of the basis column
// lengths; below it the basis is degenerate whatever its overall scale.
const singularEpsilon = 1e-12

// MirrorRequest carries both nodes' world matrices captured at call time.
type MirrorRequest struct {
	Source      string
	Dest        string
	Axis        Axis
	SourceWorld mgl64.Mat4
	DestWorld   mgl64.Mat4
}

// Reflect negates the coordinate on axis. AxisNone returns p unchanged.
func Reflect(p CurvePoint, axis Axis) CurvePoint {
	switch axis {
	case AxisX:
		return CurvePoint{-p.X(), p.Y(), p.Z()}
	case AxisY:
		return CurvePoint{p.X(), -p.Y(), p.Z()}
	case AxisZ:
		return CurvePoint{p.X(), p.Y(), -p.Z()}
	}
	return p
}

// basisVolume is the product of the column lengths of m's upper 3x3.
func basisVolume(m mgl64.Mat4) float64 {
	return m.Col(0).Vec3().Len() * m.Col(1).Vec3().Len() * m.Col(2).Vec3().Len()
}

// worldToLocal inverts m after checking it is not singular. The determinant
// is compared against the basis volume so uniformly tiny frames still pass.
func worldToLocal(m mgl64.Mat4, node string) (mgl64.Mat4, error) {
	det := m.Det()
	volume := basisVolume(m)
	if math.IsNaN(det) || math.IsInf(det, 0) || volume == 0 || math.Abs(det) <= singularEpsilon*volume {
		return mgl64.Mat4{}, &SingularTransformError{Node: node, Determinant: det}
	}

	// Mat4.Inv returns zero below an absolute determinant, so invert at unit size.
	k := math.Cbrt(volume)
	return m.Mul(1 / k).Inv().Mul(1 / k), nil
}

func transformPoint(m mgl64.Mat4, p CurvePoint) CurvePoint {
	return mgl64.TransformCoordinate(p, m)
}

// MirrorPoints reflects world-space points about axis and expresses them in the
// local space of destWorld. The input slice is never modified.
func MirrorPoints(points []CurvePoint, destWorld mgl64.Mat4, axis Axis) ([]CurvePoint, error) {
	if !axis.valid() {
		return nil, &InvalidAxisError{Token: string(axis)}
	}
	inv, err := worldToLocal(destWorld, "")
	if err != nil {
		return nil, err
	}

	out := make([]CurvePoint, len(points))
	for i, p := range points {
		out[i] = transformPoint(inv, Reflect(p, axis))
	}
	return out, nil
}

// MirrorShape lifts an object-space shape of req.Source to world space,
// reflects it and re-expresses it in req.Dest's local space.
func MirrorShape(s CurveShape, req MirrorRequest) (CurveShape, error) {
	if !req.Axis.valid() {
		return CurveShape{}, &InvalidAxisError{Token: string(req.Axis)}
	}
	inv, err := worldToLocal(req.DestWorld, req.Dest)
	if err != nil {
		return CurveShape{}, err
	}

	out := s
	out.Points = make([]CurvePoint, len(s.Points))
	for i, p := range s.Points {
		world := transformPoint(req.SourceWorld, p)
		out.Points[i] = transformPoint(inv, Reflect(world, req.Axis))
	}
	return out, nil
}

// MirrorSet applies MirrorShape to every shape of the set.
func MirrorSet(set ShapeSet, req MirrorRequest) (ShapeSet, error) {
	out := make(ShapeSet, len(set))
	for i, s := range set {
		m, err := MirrorShape(s, req)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}
