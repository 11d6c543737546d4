package shaper

// Clipboard holds one copied shape set between a Copy and later Pastes.
// It is owned by the caller; the engine keeps no copy.
type Clipboard struct {
	source string
	shapes ShapeSet
}

// Copy captures node's shapes, replacing any previous content.
func (c *Clipboard) Copy(e *Engine, node string) error {
	set, err := e.Copy(node)
	if err != nil {
		return err
	}
	c.source = node
	c.shapes = set
	return nil
}

// Empty reports whether nothing has been copied yet.
func (c *Clipboard) Empty() bool { return c.source == "" }

// Source is the node last copied from.
func (c *Clipboard) Source() string { return c.source }

// Shapes returns a deep copy of the clipboard content.
func (c *Clipboard) Shapes() ShapeSet { return c.shapes.Clone() }

// Paste transfers the clipboard onto each target.
func (c *Clipboard) Paste(e *Engine, targets []string, opts TransferOptions) (*BatchReport, error) {
	if c.Empty() {
		return nil, &EmptySelectionError{Op: "paste"}
	}
	if len(targets) == 0 {
		return nil, &EmptySelectionError{Op: "paste"}
	}

	report := &BatchReport{}
	err := e.guarded("paste", func() error {
		for _, t := range targets {
			if err := e.Transfer(t, c.shapes, opts); err != nil {
				report.skip(e.log, t, err)
				continue
			}
			report.apply(t)
		}
		return nil
	})
	return report, err
}
