// Package scene is an in-memory scene graph implementing shaper.Host. It
// stands in for the host application in tests and in the command line tool.
package scene

import (
	"fmt"
	"strings"

	"github.com/gekko3d/shaper"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Curve is a curve shape parented under a node.
type Curve struct {
	ID       uuid.UUID
	Name     string
	Points   []mgl64.Vec3
	Degree   int
	Periodic bool
	Override shaper.OverrideState
}

func (c *Curve) clone() *Curve {
	out := *c
	out.Points = append([]mgl64.Vec3(nil), c.Points...)
	return &out
}

// Node is a transform node.
type Node struct {
	ID        uuid.UUID
	Name      string
	Transform *Transform
	Override  shaper.OverrideState
	Curves    []*Curve

	parent   *Node
	children []*Node
}

// Path returns the node's full path, e.g. |rig|L_arm_ctl.
func (n *Node) Path() string {
	if n.parent == nil {
		return "|" + n.Name
	}
	return n.parent.Path() + "|" + n.Name
}

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Children() []*Node { return n.children }

// World composes the parent chain: parentWorld * local.
func (n *Node) World() mgl64.Mat4 {
	local := n.Transform.ObjectToWorld()
	if n.parent == nil {
		return local
	}
	return n.parent.World().Mul4(local)
}

func (n *Node) curve(name string) (*Curve, int) {
	for i, c := range n.Curves {
		if c.Name == name {
			return c, i
		}
	}
	return nil, -1
}

// nextShapeName returns <short>Shape<N> with the lowest unused N.
func (n *Node) nextShapeName() string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%sShape%d", n.Name, i)
		if c, _ := n.curve(name); c == nil {
			return name
		}
	}
}

// Scene holds nodes, the current selection and the undo history.
type Scene struct {
	roots     []*Node
	selection []string
	undo      history
}

func New() *Scene {
	return &Scene{}
}

// AddNode creates a node under parent (empty for a root) and returns its path.
func (s *Scene) AddNode(name, parent string, tr *Transform) (string, error) {
	if name == "" || strings.Contains(name, "|") {
		return "", fmt.Errorf("invalid node name %q", name)
	}
	if tr == nil {
		tr = NewTransform()
	}
	n := &Node{ID: uuid.New(), Name: name, Transform: tr}

	if parent == "" {
		for _, r := range s.roots {
			if r.Name == name {
				return "", fmt.Errorf("node %q already exists", name)
			}
		}
		s.roots = append(s.roots, n)
		return n.Path(), nil
	}

	p, err := s.node(parent)
	if err != nil {
		return "", err
	}
	for _, c := range p.children {
		if c.Name == name {
			return "", fmt.Errorf("node %q already exists under %s", name, p.Path())
		}
	}
	n.parent = p
	p.children = append(p.children, n)
	return n.Path(), nil
}

// Node resolves a full path, or a short name when it is unique.
func (s *Scene) Node(name string) (*Node, bool) {
	n, err := s.node(name)
	return n, err == nil
}

func (s *Scene) node(name string) (*Node, error) {
	if strings.HasPrefix(name, "|") {
		parts := strings.Split(name[1:], "|")
		level := s.roots
		var found *Node
		for _, part := range parts {
			found = nil
			for _, n := range level {
				if n.Name == part {
					found = n
					break
				}
			}
			if found == nil {
				return nil, &shaper.NodeNotFoundError{Node: name}
			}
			level = found.children
		}
		return found, nil
	}

	var matches []*Node
	s.walk(func(n *Node) {
		if n.Name == name {
			matches = append(matches, n)
		}
	})
	switch len(matches) {
	case 0:
		return nil, &shaper.NodeNotFoundError{Node: name}
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("more than one object matches name %q", name)
	}
}

// shape resolves <node path>|<curve name>.
func (s *Scene) shape(path string) (*Node, *Curve, error) {
	i := strings.LastIndex(path, "|")
	if i <= 0 {
		return nil, nil, fmt.Errorf("%q is not a shape path", path)
	}
	n, err := s.node(path[:i])
	if err != nil {
		return nil, nil, err
	}
	c, _ := n.curve(path[i+1:])
	if c == nil {
		return nil, nil, fmt.Errorf("no curve %q under %s", path[i+1:], n.Path())
	}
	return n, c, nil
}

func (s *Scene) walk(fn func(n *Node)) {
	var visit func(nodes []*Node)
	visit = func(nodes []*Node) {
		for _, n := range nodes {
			fn(n)
			visit(n.children)
		}
	}
	visit(s.roots)
}

func (s *Scene) Exists(node string) bool {
	_, err := s.node(node)
	return err == nil
}

func (s *Scene) Nodes() []string {
	var paths []string
	s.walk(func(n *Node) {
		paths = append(paths, n.Path())
	})
	return paths
}

func (s *Scene) CurveShapes(node string) ([]string, error) {
	n, err := s.node(node)
	if err != nil {
		return nil, err
	}
	base := n.Path()
	shapes := make([]string, len(n.Curves))
	for i, c := range n.Curves {
		shapes[i] = base + "|" + c.Name
	}
	return shapes, nil
}

func (s *Scene) ReadCurve(shape string) (shaper.CurveShape, error) {
	_, c, err := s.shape(shape)
	if err != nil {
		return shaper.CurveShape{}, err
	}
	return shaper.CurveShape{
		Points:   append([]shaper.CurvePoint(nil), c.Points...),
		Degree:   c.Degree,
		Periodic: c.Periodic,
	}, nil
}

func (s *Scene) SetCurvePoints(shape string, points []shaper.CurvePoint) error {
	_, c, err := s.shape(shape)
	if err != nil {
		return err
	}
	if len(points) != len(c.Points) {
		return fmt.Errorf("%s has %d control points, got %d", shape, len(c.Points), len(points))
	}
	copy(c.Points, points)
	return nil
}

// CreateCurve rejects shapes the scene could not build, as the host would.
func (s *Scene) CreateCurve(parent string, shape shaper.CurveShape) (string, error) {
	n, err := s.node(parent)
	if err != nil {
		return "", err
	}
	if err := shaper.Validate(shape); err != nil {
		return "", err
	}
	c := &Curve{
		ID:       uuid.New(),
		Name:     n.nextShapeName(),
		Points:   append([]mgl64.Vec3(nil), shape.Points...),
		Degree:   shape.Degree,
		Periodic: shape.Periodic,
		Override: shaper.Encode(shape.Color),
	}
	n.Curves = append(n.Curves, c)
	return n.Path() + "|" + c.Name, nil
}

func (s *Scene) DeleteShapes(shapes ...string) error {
	for _, sh := range shapes {
		n, c, err := s.shape(sh)
		if err != nil {
			return err
		}
		_, i := n.curve(c.Name)
		n.Curves = append(n.Curves[:i], n.Curves[i+1:]...)
	}
	return nil
}

// override resolves dag as a shape first, then as a node.
func (s *Scene) override(dag string) (*shaper.OverrideState, error) {
	if _, c, err := s.shape(dag); err == nil {
		return &c.Override, nil
	}
	n, err := s.node(dag)
	if err != nil {
		return nil, err
	}
	return &n.Override, nil
}

func (s *Scene) OverrideState(dag string) (shaper.OverrideState, error) {
	st, err := s.override(dag)
	if err != nil {
		return shaper.OverrideState{}, err
	}
	return *st, nil
}

func (s *Scene) SetOverrideState(dag string, st shaper.OverrideState) error {
	cur, err := s.override(dag)
	if err != nil {
		return err
	}
	*cur = st
	return nil
}

func (s *Scene) WorldMatrix(node string) (mgl64.Mat4, error) {
	n, err := s.node(node)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return n.World(), nil
}

func (s *Scene) Selection() []string {
	return append([]string(nil), s.selection...)
}

// Select replaces the selection with the nodes that exist.
func (s *Scene) Select(nodes ...string) {
	sel := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if s.Exists(n) {
			sel = append(sel, n)
		}
	}
	s.selection = sel
}

var _ shaper.Host = (*Scene)(nil)
