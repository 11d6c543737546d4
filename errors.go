package shaper

import (
	"fmt"
	"strings"
)

// MalformedShapeError reports invalid point, degree or color data.
type MalformedShapeError struct {
	Index  int // position of the shape in its set, -1 when not part of a set
	Reason string
}

func (e *MalformedShapeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed shape: %s", e.Reason)
	}
	return fmt.Sprintf("malformed shape #%d: %s", e.Index, e.Reason)
}

// InvalidAxisError reports an axis token other than x, y, z or none.
type InvalidAxisError struct {
	Token string
}

func (e *InvalidAxisError) Error() string {
	return fmt.Sprintf("'x', 'y', 'z' or 'none' expected as axis, got %q", e.Token)
}

// SingularTransformError reports a destination world matrix that cannot be inverted.
type SingularTransformError struct {
	Node        string
	Determinant float64
}

func (e *SingularTransformError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("singular transform (det=%g)", e.Determinant)
	}
	return fmt.Sprintf("singular transform on %q (det=%g)", e.Node, e.Determinant)
}

// EmptySelectionError reports an operation invoked without a valid target.
type EmptySelectionError struct {
	Op string
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("%s: nothing valid selected", e.Op)
}

// NodeNotFoundError reports a named node absent from the scene.
type NodeNotFoundError struct {
	Node string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("unable to find %q", e.Node)
}

// FileFormatError reports a shape file that could not be decoded.
type FileFormatError struct {
	Path string
	Err  error
}

func (e *FileFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid shape file: %v", e.Err)
	}
	return fmt.Sprintf("invalid shape file %s: %v", e.Path, e.Err)
}

func (e *FileFormatError) Unwrap() error { return e.Err }

// NodeFailure records a node skipped during a batch operation.
type NodeFailure struct {
	Node string
	Err  error
}

func (f NodeFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Node, f.Err)
}

// BatchReport collects the outcome of an operation over many nodes.
type BatchReport struct {
	Applied []string
	Skipped []NodeFailure
}

func (r *BatchReport) apply(node string) {
	r.Applied = append(r.Applied, node)
}

func (r *BatchReport) skip(log Logger, node string, err error) {
	r.Skipped = append(r.Skipped, NodeFailure{Node: node, Err: err})
	log.Warnf("%v. Skip...", err)
}

// OK reports whether every node was applied.
func (r *BatchReport) OK() bool {
	return len(r.Skipped) == 0
}

func (r *BatchReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d applied, %d skipped", len(r.Applied), len(r.Skipped))
	for _, f := range r.Skipped {
		b.WriteString("\n  ")
		b.WriteString(f.String())
	}
	return b.String()
}
