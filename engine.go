package shaper

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Engine sequences shape reads, transforms and writes against a Host. Every
// mutating operation runs inside one undo chunk and restores the selection.
type Engine struct {
	host       Host
	log        Logger
	catalog    *Catalog
	sideTokens [][2]string
	ctrlSuffix string
	extension  string
}

// TransferOptions choose what a transfer writes onto the target.
type TransferOptions struct {
	ApplyShapes bool
	ApplyColor  bool
}

// TransferAll applies both shapes and colors.
var TransferAll = TransferOptions{ApplyShapes: true, ApplyColor: true}

// PresetOptions control how a catalog preset is placed on a node.
type PresetOptions struct {
	Axis       Axis
	Scale      float64
	ApplyColor bool
}

// DefaultPresetOptions keeps the preset facing y at unit scale and keeps the node's colors.
func DefaultPresetOptions() PresetOptions {
	return PresetOptions{Axis: AxisY, Scale: 1.0}
}

func (e *Engine) Logger() Logger   { return e.log }
func (e *Engine) Catalog() *Catalog { return e.catalog }

// guarded runs fn inside an undo chunk with the selection held.
func (e *Engine) guarded(name string, fn func() error) error {
	var guards Guards
	defer guards.Release()
	guards.Push(OpenUndoScope(e.host, name))
	guards.Push(HoldSelection(e.host))
	return fn()
}

func (e *Engine) requireNode(node string) error {
	if !e.host.Exists(node) {
		return &NodeNotFoundError{Node: node}
	}
	return nil
}

func (e *Engine) readShapes(node string) (ShapeSet, error) {
	if err := e.requireNode(node); err != nil {
		return nil, err
	}
	shapes, err := e.host.CurveShapes(node)
	if err != nil {
		return nil, fmt.Errorf("failed to list shapes of %s: %w", node, err)
	}

	set := make(ShapeSet, 0, len(shapes))
	for _, sh := range shapes {
		s, err := e.host.ReadCurve(sh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", sh, err)
		}
		st, err := e.host.OverrideState(sh)
		if err != nil {
			return nil, fmt.Errorf("failed to read override of %s: %w", sh, err)
		}
		s.Color = Decode(st)
		set = append(set, s)
	}
	return set, nil
}

// Copy returns the node's current shapes, unmodified.
func (e *Engine) Copy(node string) (ShapeSet, error) {
	return e.readShapes(node)
}

// Replace swaps the target's shapes for set. When applyColor is false each
// new shape takes the color its predecessor at the same position had.
func (e *Engine) Replace(target string, set ShapeSet, applyColor bool) error {
	return e.Transfer(target, set, TransferOptions{ApplyShapes: true, ApplyColor: applyColor})
}

// ReplaceShapes replaces the target's shapes and colors with set.
func (e *Engine) ReplaceShapes(target string, set ShapeSet) error {
	return e.Replace(target, set, true)
}

// Transfer writes shapes and/or colors from set onto target.
func (e *Engine) Transfer(target string, set ShapeSet, opts TransferOptions) error {
	if err := e.requireNode(target); err != nil {
		return err
	}
	if opts.ApplyShapes {
		if err := set.Validate(); err != nil {
			return err
		}
	}

	return e.guarded("transfer", func() error {
		oldShapes, err := e.host.CurveShapes(target)
		if err != nil {
			return fmt.Errorf("failed to list shapes of %s: %w", target, err)
		}
		oldColors := make([]Color, len(oldShapes))
		for i, sh := range oldShapes {
			st, err := e.host.OverrideState(sh)
			if err != nil {
				return fmt.Errorf("failed to read override of %s: %w", sh, err)
			}
			oldColors[i] = Decode(st)
		}

		newShapes := oldShapes
		if opts.ApplyShapes {
			if len(oldShapes) > 0 {
				if err := e.host.DeleteShapes(oldShapes...); err != nil {
					return fmt.Errorf("failed to delete shapes of %s: %w", target, err)
				}
			}
			newShapes = make([]string, 0, len(set))
			for _, s := range set {
				bare := s.Clone()
				bare.Color = NoColor()
				sh, err := e.host.CreateCurve(target, bare)
				if err != nil {
					return fmt.Errorf("failed to create curve under %s: %w", target, err)
				}
				newShapes = append(newShapes, sh)
			}
		}

		for i, sh := range newShapes {
			c := NoColor()
			if opts.ApplyColor {
				if i < len(set) {
					c = set[i].Color
				}
			} else if i < len(oldColors) {
				c = oldColors[i]
			}
			if err := e.host.SetOverrideState(sh, Encode(c)); err != nil {
				return fmt.Errorf("failed to set override on %s: %w", sh, err)
			}
		}

		e.log.Debugf("transferred %d shapes onto %s (shapes=%v color=%v)", len(set), target, opts.ApplyShapes, opts.ApplyColor)
		return nil
	})
}

// ScaleShapes multiplies every control point of the node's curves by factor.
func (e *Engine) ScaleShapes(node string, factor float64) error {
	if err := e.requireNode(node); err != nil {
		return err
	}
	return e.guarded("scaleShapes", func() error {
		shapes, err := e.host.CurveShapes(node)
		if err != nil {
			return fmt.Errorf("failed to list shapes of %s: %w", node, err)
		}
		for _, sh := range shapes {
			s, err := e.host.ReadCurve(sh)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", sh, err)
			}
			if err := e.host.SetCurvePoints(sh, Scale(s, factor).Points); err != nil {
				return fmt.Errorf("failed to scale %s: %w", sh, err)
			}
		}
		return nil
	})
}

// SetOverrideColor writes color on every curve shape of node, or on the node
// itself when it has none. The node's own override is cleared otherwise.
func (e *Engine) SetOverrideColor(node string, color Color) error {
	if err := color.validate(); err != nil {
		return &MalformedShapeError{Index: -1, Reason: err.Error()}
	}
	if err := e.requireNode(node); err != nil {
		return err
	}
	return e.guarded("setOverrideColor", func() error {
		shapes, err := e.host.CurveShapes(node)
		if err != nil {
			return fmt.Errorf("failed to list shapes of %s: %w", node, err)
		}
		if len(shapes) == 0 {
			return e.host.SetOverrideState(node, Encode(color))
		}
		if err := e.host.SetOverrideState(node, OverrideState{}); err != nil {
			return fmt.Errorf("failed to reset override on %s: %w", node, err)
		}
		for _, sh := range shapes {
			if err := e.host.SetOverrideState(sh, Encode(color)); err != nil {
				return fmt.Errorf("failed to set override on %s: %w", sh, err)
			}
		}
		return nil
	})
}

// ApplyPreset replaces node's shapes with a catalog preset, scaled then
// turned to face opts.Axis.
func (e *Engine) ApplyPreset(node, name string, opts PresetOptions) error {
	if e.catalog == nil {
		return errors.New("no preset catalog configured")
	}
	preset, ok := e.catalog.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	set, err := preset.Shapes.Scale(opts.Scale).Reorient(opts.Axis)
	if err != nil {
		return err
	}
	return e.Replace(node, set, opts.ApplyColor)
}

// Mirror reads source's shapes, reflects them in world space about axis and
// returns them expressed in dest's local space, ready for Replace.
func (e *Engine) Mirror(source, dest string, axis Axis) (ShapeSet, error) {
	if !axis.valid() {
		return nil, &InvalidAxisError{Token: string(axis)}
	}
	if err := e.requireNode(dest); err != nil {
		return nil, err
	}
	set, err := e.readShapes(source)
	if err != nil {
		return nil, err
	}

	srcWorld, err := e.host.WorldMatrix(source)
	if err != nil {
		return nil, fmt.Errorf("failed to query world matrix of %s: %w", source, err)
	}
	dstWorld, err := e.host.WorldMatrix(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to query world matrix of %s: %w", dest, err)
	}

	return MirrorSet(set, MirrorRequest{
		Source:      source,
		Dest:        dest,
		Axis:        axis,
		SourceWorld: srcWorld,
		DestWorld:   dstWorld,
	})
}

// MirrorShapes mirrors node onto dest. dest keeps its own colors.
func (e *Engine) MirrorShapes(node, dest string, axis Axis) error {
	set, err := e.Mirror(node, dest, axis)
	if err != nil {
		return err
	}
	return e.guarded("mirrorShapes", func() error {
		return e.Replace(dest, set, false)
	})
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
func isLower(b byte) bool { return b >= 'a' && b <= 'z' }

// onBoundary reports whether tok found at seg[i:] is a whole name part: a
// token ending in "_" must start the segment or follow "_", one starting with
// "_" must end it or precede "_". Word tokens such as "left" may also meet a
// camelCase boundary.
func onBoundary(seg, tok string, i int) bool {
	end := i + len(tok)
	word := !strings.Contains(tok, "_")

	left := i == 0 || seg[i-1] == '_' || strings.HasPrefix(tok, "_") ||
		(word && isUpper(tok[0]) && isLower(seg[i-1]))
	right := end == len(seg) || seg[end] == '_' || strings.HasSuffix(tok, "_") ||
		(word && isUpper(seg[end]))
	return left && right
}

// sideMatches returns the offsets of tok in seg that sit on a name boundary.
func sideMatches(seg, tok string) []int {
	var at []int
	for i := 0; i+len(tok) <= len(seg); {
		j := strings.Index(seg[i:], tok)
		if j < 0 {
			break
		}
		if onBoundary(seg, tok, i+j) {
			at = append(at, i+j)
			i += j + len(tok)
			continue
		}
		i += j + 1
	}
	return at
}

func swapSide(segment string, tokens [][2]string) (string, bool) {
	for _, t := range tokens {
		for _, pair := range [][2]string{{t[0], t[1]}, {t[1], t[0]}} {
			at := sideMatches(segment, pair[0])
			if len(at) == 0 {
				continue
			}
			var b strings.Builder
			last := 0
			for _, i := range at {
				b.WriteString(segment[last:i])
				b.WriteString(pair[1])
				last = i + len(pair[0])
			}
			b.WriteString(segment[last:])
			return b.String(), true
		}
	}
	return segment, false
}

// Counterpart returns the opposite-side node of node by swapping side tokens
// in each path segment. It reports false when no token matched or the
// counterpart does not exist.
func (e *Engine) Counterpart(node string) (string, bool) {
	segments := strings.Split(node, "|")
	swapped := false
	for i, seg := range segments {
		if s, ok := swapSide(seg, e.sideTokens); ok {
			segments[i] = s
			swapped = true
		}
	}
	if !swapped {
		return "", false
	}
	other := strings.Join(segments, "|")
	if other == node || !e.host.Exists(other) {
		return "", false
	}
	return other, true
}

// MirrorBatch mirrors every node onto its counterpart. Nodes without one, or
// that fail, are reported and skipped.
func (e *Engine) MirrorBatch(nodes []string, axis Axis) (*BatchReport, error) {
	if len(nodes) == 0 {
		return nil, &EmptySelectionError{Op: "mirror"}
	}
	if !axis.valid() {
		return nil, &InvalidAxisError{Token: string(axis)}
	}

	report := &BatchReport{}
	err := e.guarded("mirrorBatch", func() error {
		for _, node := range nodes {
			dest, ok := e.Counterpart(node)
			if !ok {
				report.skip(e.log, node, fmt.Errorf("no counterpart found for %q", node))
				continue
			}
			if err := e.MirrorShapes(node, dest, axis); err != nil {
				report.skip(e.log, node, err)
				continue
			}
			report.apply(dest)
		}
		return nil
	})
	return report, err
}

// Controllers lists nodes whose short name ends with the controller suffix
// and that own at least one curve shape.
func (e *Engine) Controllers() []string {
	var ctrls []string
	for _, n := range e.host.Nodes() {
		if !strings.HasSuffix(ShortName(n), e.ctrlSuffix) {
			continue
		}
		shapes, err := e.host.CurveShapes(n)
		if err != nil || len(shapes) == 0 {
			continue
		}
		ctrls = append(ctrls, n)
	}
	return ctrls
}

// ShortName strips the parent path from a node path.
func ShortName(node string) string {
	if i := strings.LastIndex(node, "|"); i >= 0 {
		return node[i+1:]
	}
	return node
}

// ExportAll reads the shapes of every node. Nodes that fail are skipped.
func (e *Engine) ExportAll(nodes []string) (ShapeDocument, *BatchReport, error) {
	if len(nodes) == 0 {
		return nil, nil, &EmptySelectionError{Op: "export"}
	}

	report := &BatchReport{}
	var doc ShapeDocument
	for _, node := range nodes {
		set, err := e.readShapes(node)
		if err != nil {
			report.skip(e.log, node, err)
			continue
		}
		doc.Set(node, set)
		report.apply(node)
	}
	if len(doc) == 0 {
		return nil, report, &EmptySelectionError{Op: "export"}
	}
	return doc, report, nil
}

// ImportAll transfers every document entry onto the node of the same name.
// A non-empty filter restricts the nodes touched. Missing nodes are reported
// and skipped.
func (e *Engine) ImportAll(doc ShapeDocument, filter []string, opts TransferOptions) (*BatchReport, error) {
	allowed := make(map[string]bool, len(filter))
	for _, f := range filter {
		allowed[f] = true
	}

	report := &BatchReport{}
	err := e.guarded("importAll", func() error {
		for _, entry := range doc {
			if len(allowed) > 0 && !allowed[entry.Node] {
				continue
			}
			if !e.host.Exists(entry.Node) {
				report.skip(e.log, entry.Node, &NodeNotFoundError{Node: entry.Node})
				continue
			}
			if err := e.Transfer(entry.Node, entry.Shapes, opts); err != nil {
				report.skip(e.log, entry.Node, err)
				continue
			}
			report.apply(entry.Node)
		}
		return nil
	})
	return report, err
}

// ExportShapes writes the shapes of nodes to path. An empty path means the
// user cancelled and is a no-op.
func (e *Engine) ExportShapes(nodes []string, path string) (*BatchReport, error) {
	if path == "" {
		return nil, nil
	}
	doc, report, err := e.ExportAll(nodes)
	if err != nil {
		e.log.Warnf("Nothing valid selected. Skip...")
		return report, err
	}

	path = EnsureExtension(path, e.extension)
	if err := WriteShapeFile(path, doc); err != nil {
		return report, err
	}
	e.log.Infof("The file '%s' has been created.", path)
	return report, nil
}

// ImportShapes reads path and applies it with ImportAll. A path without an
// extension falls back to the one exports append. An empty path or a missing
// file is a silent no-op. Legacy files never apply colors.
func (e *Engine) ImportShapes(path string, filter []string, opts TransferOptions) (*BatchReport, error) {
	if path == "" {
		return nil, nil
	}
	doc, err := ReadShapeFile(path)
	if withExt := EnsureExtension(path, e.extension); errors.Is(err, fs.ErrNotExist) && withExt != path {
		path = withExt
		doc, err = ReadShapeFile(path)
	}
	if errors.Is(err, fs.ErrNotExist) {
		e.log.Debugf("The file '%s' does not exist.", path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if FormatForPath(path) == FormatLegacy {
		opts.ApplyColor = false
	}
	report, err := e.ImportAll(doc, filter, opts)
	if err != nil {
		return report, err
	}
	e.log.Infof("The file '%s' has been loaded: %s", path, report)
	return report, nil
}

// selected returns the current selection or an EmptySelectionError.
func (e *Engine) selected(op string) ([]string, error) {
	sel := e.host.Selection()
	if len(sel) == 0 {
		return nil, &EmptySelectionError{Op: op}
	}
	return sel, nil
}

func (e *Engine) eachSelected(op string, fn func(node string) error) (*BatchReport, error) {
	sel, err := e.selected(op)
	if err != nil {
		return nil, err
	}
	report := &BatchReport{}
	err = e.guarded(op, func() error {
		for _, node := range sel {
			if err := fn(node); err != nil {
				report.skip(e.log, node, err)
				continue
			}
			report.apply(node)
		}
		return nil
	})
	return report, err
}

func (e *Engine) ScaleSelected(factor float64) (*BatchReport, error) {
	return e.eachSelected("scaleShapes", func(node string) error {
		return e.ScaleShapes(node, factor)
	})
}

func (e *Engine) SetOverrideColorSelected(color Color) (*BatchReport, error) {
	return e.eachSelected("setOverrideColor", func(node string) error {
		return e.SetOverrideColor(node, color)
	})
}

func (e *Engine) ApplyPresetSelected(name string, opts PresetOptions) (*BatchReport, error) {
	return e.eachSelected("applyPreset", func(node string) error {
		return e.ApplyPreset(node, name, opts)
	})
}

// MirrorSelected mirrors every selected node onto its counterpart.
func (e *Engine) MirrorSelected(axis Axis) (*BatchReport, error) {
	sel, err := e.selected("mirror")
	if err != nil {
		return nil, err
	}
	return e.MirrorBatch(sel, axis)
}

// Describe renders the node's shapes as text, one curve per block.
func (e *Engine) Describe(node string) (string, error) {
	set, err := e.readShapes(node)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d shape(s)\n", node, len(set))
	for i, s := range set {
		fmt.Fprintf(&b, "  [%d] degree=%d periodic=%v color=%s\n", i, s.Degree, s.Periodic, s.Color)
		for _, p := range s.Points {
			fmt.Fprintf(&b, "      (%g, %g, %g)\n", p[0], p[1], p[2])
		}
	}
	return b.String(), nil
}
