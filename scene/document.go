package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gekko3d/shaper"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a scene.
type Document struct {
	Nodes     []NodeDef `yaml:"nodes"`
	Selection []string  `yaml:"selection,omitempty"`
}

// NodeDef describes one node. Parent is the parent's path or unique name.
type NodeDef struct {
	Name     string     `yaml:"name"`
	Parent   string     `yaml:"parent,omitempty"`
	Position [3]float64 `yaml:"position,flow"`
	Rotation [3]float64 `yaml:"rotation,flow"`
	Scale    [3]float64 `yaml:"scale,flow"`
	Color    string     `yaml:"color,omitempty"`
	Curves   []CurveDef `yaml:"curves,omitempty"`
}

// CurveDef describes one curve shape.
type CurveDef struct {
	Points   [][3]float64 `yaml:"points"`
	Degree   int          `yaml:"degree"`
	Periodic bool         `yaml:"periodic"`
	Color    string       `yaml:"color,omitempty"`
}

func vec(a [3]float64) mgl64.Vec3 { return mgl64.Vec3{a[0], a[1], a[2]} }

func arr(v mgl64.Vec3) [3]float64 { return [3]float64{v[0], v[1], v[2]} }

func colorString(st shaper.OverrideState) string {
	c := shaper.Decode(st)
	if c.IsNone() {
		return ""
	}
	return c.String()
}

// FromDocument builds a scene. Parents must be declared before their children.
func FromDocument(doc *Document) (*Scene, error) {
	s := New()
	for i, nd := range doc.Nodes {
		tr := &Transform{Position: vec(nd.Position), Rotation: vec(nd.Rotation), Scale: vec(nd.Scale)}
		if nd.Scale == ([3]float64{}) {
			tr.Scale = mgl64.Vec3{1, 1, 1}
		}
		path, err := s.AddNode(nd.Name, nd.Parent, tr)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		n, _ := s.Node(path)

		nodeColor, err := shaper.ParseColor(nd.Color)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", path, err)
		}
		n.Override = shaper.Encode(nodeColor)

		for j, cd := range nd.Curves {
			c, err := shaper.ParseColor(cd.Color)
			if err != nil {
				return nil, fmt.Errorf("node %s curve %d: %w", path, j, err)
			}
			shape := shaper.CurveShape{Degree: cd.Degree, Periodic: cd.Periodic, Color: c}
			for _, p := range cd.Points {
				shape.Points = append(shape.Points, vec(p))
			}
			if _, err := s.CreateCurve(path, shape); err != nil {
				return nil, fmt.Errorf("node %s curve %d: %w", path, j, err)
			}
		}
	}
	s.Select(doc.Selection...)
	return s, nil
}

// Document captures the scene, parents first.
func (s *Scene) Document() *Document {
	doc := &Document{Selection: s.Selection()}
	s.walk(func(n *Node) {
		nd := NodeDef{
			Name:     n.Name,
			Position: arr(n.Transform.Position),
			Rotation: arr(n.Transform.Rotation),
			Scale:    arr(n.Transform.Scale),
			Color:    colorString(n.Override),
		}
		if n.parent != nil {
			nd.Parent = n.parent.Path()
		}
		for _, c := range n.Curves {
			cd := CurveDef{Degree: c.Degree, Periodic: c.Periodic, Color: colorString(c.Override)}
			for _, p := range c.Points {
				cd.Points = append(cd.Points, arr(p))
			}
			nd.Curves = append(nd.Curves, cd)
		}
		doc.Nodes = append(doc.Nodes, nd)
	})
	return doc
}

// Load reads a YAML scene document.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return FromDocument(&doc)
}

// Save writes the scene as YAML.
func (s *Scene) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create scene directory: %w", err)
		}
	}
	data, err := yaml.Marshal(s.Document())
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scene: %w", err)
	}
	return nil
}
