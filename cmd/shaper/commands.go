package main

import (
	"fmt"
	"strconv"

	"github.com/gekko3d/shaper"
	"github.com/spf13/cobra"
)

var (
	exportOut  string
	exportAll  bool
	importOnly string
	noShapes   bool
	noColor    bool
	presetName string
	fromFile   string
	fromNode   string
	presetAxis string
	presetSize float64
	applyColor bool
	mirrorAxis string
)

var exportCmd = &cobra.Command{
	Use:   "export [nodes...]",
	Short: "Export controller shapes to a .ctrl (or legacy .json) file",
	Long: `Writes the curve shapes of the given nodes, the selection, or with --all every
controller in the scene. Paths without an extension get the configured one.`,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Apply shapes from a .ctrl or .json file onto nodes of the same name",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

var replaceCmd = &cobra.Command{
	Use:   "replace [nodes...]",
	Short: "Replace node shapes with a preset or with shapes read from a file",
	Long: `Replaces the curve shapes of the given nodes (or the selection).

Examples:
  shaper replace L_arm_ctl --preset circle --axis x --size 2
  shaper replace R_arm_ctl --from shapes.ctrl --node L_arm_ctl --color`,
	RunE: runReplace,
}

var scaleCmd = &cobra.Command{
	Use:   "scale [factor] [nodes...]",
	Short: "Scale the curve shapes of nodes about their pivot",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScale,
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror [node] [dest]",
	Short: "Mirror a node's shapes onto its counterpart",
	Long: `Mirrors node onto dest about the world axis. Without dest the counterpart is
found by swapping side tokens (L_/R_ ...). Without node every selected node is mirrored.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runMirror,
}

var colorCmd = &cobra.Command{
	Use:   "color [color] [nodes...]",
	Short: "Set the override color (none, index, r,g,b or #rrggbb)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runColor,
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the preset shapes of the catalog",
	RunE:  runPresets,
}

var showCmd = &cobra.Command{
	Use:   "show [nodes...]",
	Short: "Print the shapes of nodes",
	RunE:  runShow,
}

var controllersCmd = &cobra.Command{
	Use:   "controllers",
	Short: "List controller nodes in the scene",
	RunE:  runControllers,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every controller")
	_ = exportCmd.MarkFlagRequired("out")

	importCmd.Flags().StringVar(&importOnly, "only", "", "comma separated nodes to restrict the import to")
	importCmd.Flags().BoolVar(&noShapes, "no-shapes", false, "do not apply shapes")
	importCmd.Flags().BoolVar(&noColor, "no-color", false, "do not apply colors")

	replaceCmd.Flags().StringVar(&presetName, "preset", "", "catalog preset name")
	replaceCmd.Flags().StringVar(&fromFile, "from", "", "shape file to read from")
	replaceCmd.Flags().StringVar(&fromNode, "node", "", "entry of --from to use (defaults to the first)")
	replaceCmd.Flags().StringVar(&presetAxis, "axis", "y", "facing axis for presets (x, y, z, none)")
	replaceCmd.Flags().Float64Var(&presetSize, "size", 1.0, "scale applied to presets")
	replaceCmd.Flags().BoolVar(&applyColor, "color", false, "apply the incoming colors instead of keeping the node's")

	mirrorCmd.Flags().StringVar(&mirrorAxis, "axis", "", "mirror axis (defaults to the configured one)")
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	nodes := s.targets(args)
	if exportAll {
		nodes = s.engine.Controllers()
	}
	report, err := s.engine.ExportShapes(nodes, exportOut)
	printReport(cmd, report)
	return err
}

func runImport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	opts := shaper.TransferOptions{ApplyShapes: !noShapes, ApplyColor: !noColor}
	report, err := s.engine.ImportShapes(args[0], splitList(importOnly), opts)
	if err != nil {
		return err
	}
	printReport(cmd, report)
	return s.save()
}

func runReplace(cmd *cobra.Command, args []string) error {
	if (presetName == "") == (fromFile == "") {
		return fmt.Errorf("exactly one of --preset or --from is required")
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	nodes := s.targets(args)
	if len(nodes) == 0 {
		return &shaper.EmptySelectionError{Op: "replace"}
	}

	var apply func(node string) error
	if presetName != "" {
		axis, err := shaper.ParseAxis(presetAxis)
		if err != nil {
			return err
		}
		opts := shaper.PresetOptions{Axis: axis, Scale: presetSize, ApplyColor: applyColor}
		apply = func(node string) error { return s.engine.ApplyPreset(node, presetName, opts) }
	} else {
		doc, err := shaper.ReadShapeFile(fromFile)
		if err != nil {
			return err
		}
		if len(doc) == 0 {
			return fmt.Errorf("%s holds no shapes", fromFile)
		}
		set := doc[0].Shapes
		if fromNode != "" {
			var ok bool
			if set, ok = doc.Lookup(fromNode); !ok {
				return &shaper.NodeNotFoundError{Node: fromNode}
			}
		}
		apply = func(node string) error { return s.engine.Replace(node, set, applyColor) }
	}

	for _, node := range nodes {
		if err := apply(node); err != nil {
			return err
		}
	}
	return s.save()
}

func runScale(cmd *cobra.Command, args []string) error {
	factor, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid scale factor %q: %w", args[0], err)
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		report, err := s.engine.ScaleSelected(factor)
		if err != nil {
			return err
		}
		printReport(cmd, report)
		return s.save()
	}
	for _, node := range args[1:] {
		if err := s.engine.ScaleShapes(node, factor); err != nil {
			return err
		}
	}
	return s.save()
}

func runMirror(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	token := mirrorAxis
	if token == "" {
		token = cfg.Mirror.Axis
	}
	axis, err := shaper.ParseAxis(token)
	if err != nil {
		return err
	}

	switch len(args) {
	case 0:
		report, err := s.engine.MirrorSelected(axis)
		if err != nil {
			return err
		}
		printReport(cmd, report)
	case 1:
		report, err := s.engine.MirrorBatch(args, axis)
		if err != nil {
			return err
		}
		printReport(cmd, report)
	default:
		if err := s.engine.MirrorShapes(args[0], args[1], axis); err != nil {
			return err
		}
	}
	return s.save()
}

func runColor(cmd *cobra.Command, args []string) error {
	color, err := shaper.ParseColor(args[0])
	if err != nil {
		return err
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		report, err := s.engine.SetOverrideColorSelected(color)
		if err != nil {
			return err
		}
		printReport(cmd, report)
		return s.save()
	}
	for _, node := range args[1:] {
		if err := s.engine.SetOverrideColor(node, color); err != nil {
			return err
		}
	}
	return s.save()
}

func runPresets(cmd *cobra.Command, args []string) error {
	catalog, err := shaper.LoadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	for _, name := range catalog.Names() {
		p, _ := catalog.Lookup(name)
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d curve(s)\n", name, len(p.Shapes))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	nodes := s.targets(args)
	if len(nodes) == 0 {
		return &shaper.EmptySelectionError{Op: "show"}
	}
	for _, node := range nodes {
		text, err := s.engine.Describe(node)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
	}
	return nil
}

func runControllers(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	for _, c := range s.engine.Controllers() {
		fmt.Fprintln(cmd.OutOrStdout(), c)
	}
	return nil
}
