package shaper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format selects the shape file codec.
type Format int

const (
	// FormatCtrl is the full export format (.ctrl): shapes with colors.
	FormatCtrl Format = iota
	// FormatLegacy is the older curve-only format (.json): no colors.
	FormatLegacy
)

const (
	CtrlExtension   = ".ctrl"
	LegacyExtension = ".json"
)

func (f Format) String() string {
	if f == FormatLegacy {
		return "legacy"
	}
	return "ctrl"
}

// FormatForPath picks the codec from the file extension; unknown extensions read as .ctrl.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), LegacyExtension) {
		return FormatLegacy
	}
	return FormatCtrl
}

// EnsureExtension appends ext unless path already ends with .ctrl or .json.
func EnsureExtension(path, ext string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case CtrlExtension, LegacyExtension:
		return path
	}
	if ext == "" {
		ext = CtrlExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path + ext
}

// NodeShapes is one entry of a shape document.
type NodeShapes struct {
	Node   string
	Shapes ShapeSet
}

// ShapeDocument maps node names to shape sets, keeping file order.
type ShapeDocument []NodeShapes

// Lookup returns the shapes stored for node.
func (doc ShapeDocument) Lookup(node string) (ShapeSet, bool) {
	for _, e := range doc {
		if e.Node == node {
			return e.Shapes, true
		}
	}
	return nil, false
}

// Set replaces or appends the entry for node.
func (doc *ShapeDocument) Set(node string, shapes ShapeSet) {
	for i := range *doc {
		if (*doc)[i].Node == node {
			(*doc)[i].Shapes = shapes
			return
		}
	}
	*doc = append(*doc, NodeShapes{Node: node, Shapes: shapes})
}

// Nodes returns the node names in document order.
func (doc ShapeDocument) Nodes() []string {
	names := make([]string, len(doc))
	for i, e := range doc {
		names[i] = e.Node
	}
	return names
}

type shapeData struct {
	Points   [][]float64 `json:"points"`
	Degree   int         `json:"degree"`
	Periodic bool        `json:"periodic"`
	Color    Color       `json:"color"`
}

type legacyShapeData struct {
	Points   [][]float64 `json:"points"`
	Degree   int         `json:"degree"`
	Periodic bool        `json:"periodic"`
}

func pointsToData(points []CurvePoint) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = []float64{p[0], p[1], p[2]}
	}
	return out
}

func pointsFromData(data [][]float64) ([]CurvePoint, error) {
	out := make([]CurvePoint, len(data))
	for i, p := range data {
		if len(p) != 3 {
			return nil, fmt.Errorf("point %d has %d coordinates, expected 3", i, len(p))
		}
		out[i] = CurvePoint{p[0], p[1], p[2]}
	}
	return out, nil
}

func encodeShapes(set ShapeSet, format Format) any {
	if format == FormatLegacy {
		out := make([]legacyShapeData, len(set))
		for i, s := range set {
			out[i] = legacyShapeData{Points: pointsToData(s.Points), Degree: s.Degree, Periodic: s.Periodic}
		}
		return out
	}
	out := make([]shapeData, len(set))
	for i, s := range set {
		out[i] = shapeData{Points: pointsToData(s.Points), Degree: s.Degree, Periodic: s.Periodic, Color: s.Color}
	}
	return out
}

// decodeShapes reads an array of shape objects. A missing degree defaults to 1.
func decodeShapes(raw json.RawMessage, format Format) (ShapeSet, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected an array of shapes: %w", err)
	}

	set := make(ShapeSet, 0, len(items))
	for i, item := range items {
		d := shapeData{Degree: 1}
		if err := json.Unmarshal(item, &d); err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		points, err := pointsFromData(d.Points)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		s := CurveShape{Points: points, Degree: d.Degree, Periodic: d.Periodic}
		if format == FormatCtrl {
			s.Color = d.Color
		}
		set = append(set, s)
	}
	return set, nil
}

// Encode writes doc as an indented JSON object in document order.
func (doc ShapeDocument) Encode(w io.Writer, format Format) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range doc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Node)
		if err != nil {
			return err
		}
		shapes, err := json.Marshal(encodeShapes(e.Shapes, format))
		if err != nil {
			return fmt.Errorf("encoding %s: %w", e.Node, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(shapes)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}

// DecodeDocument reads a top-level object of node name to shape array.
// Malformed input yields a *FileFormatError.
func DecodeDocument(r io.Reader, format Format) (ShapeDocument, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, &FileFormatError{Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &FileFormatError{Err: fmt.Errorf("expected a top-level object, got %v", tok)}
	}

	var doc ShapeDocument
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &FileFormatError{Err: err}
		}
		node, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, &FileFormatError{Err: fmt.Errorf("%s: %w", node, err)}
		}
		shapes, err := decodeShapes(raw, format)
		if err != nil {
			return nil, &FileFormatError{Err: fmt.Errorf("%s: %w", node, err)}
		}
		doc.Set(node, shapes)
	}

	if _, err := dec.Token(); err != nil {
		return nil, &FileFormatError{Err: err}
	}
	return doc, nil
}

// WriteShapeFile writes doc to path using the codec picked by its extension.
func WriteShapeFile(path string, doc ShapeDocument) error {
	var buf bytes.Buffer
	if err := doc.Encode(&buf, FormatForPath(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadShapeFile reads a shape file. Missing files return an error wrapping
// os.ErrNotExist; decoding failures a *FileFormatError carrying path.
func ReadShapeFile(path string) (ShapeDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := DecodeDocument(f, FormatForPath(path))
	if err != nil {
		var ffe *FileFormatError
		if errors.As(err, &ffe) {
			ffe.Path = path
		}
		return nil, err
	}
	return doc, nil
}
