package shaper_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gekko3d/shaper"
	"github.com/gekko3d/shaper/scene"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	leftArm  = "|rig|L_arm_ctl"
	rightArm = "|rig|R_arm_ctl"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

// newRig builds |rig with L_arm_ctl at x=+5 and R_arm_ctl at x=-5, each
// carrying one colored curve.
func newRig(t *testing.T) (*scene.Scene, *shaper.Engine, *observer.ObservedLogs) {
	t.Helper()
	s := scene.New()
	_, err := s.AddNode("rig", "", nil)
	require.NoError(t, err)

	at := func(x float64) *scene.Transform {
		tr := scene.NewTransform()
		tr.Position = mgl64.Vec3{x, 0, 0}
		return tr
	}
	_, err = s.AddNode("L_arm_ctl", "|rig", at(5))
	require.NoError(t, err)
	_, err = s.AddNode("R_arm_ctl", "|rig", at(-5))
	require.NoError(t, err)

	_, err = s.CreateCurve(leftArm, shaper.CurveShape{
		Points: []shaper.CurvePoint{{1, 0, 0}, {0, 2, 1}},
		Degree: 1,
		Color:  shaper.Indexed(13),
	})
	require.NoError(t, err)
	_, err = s.CreateCurve(rightArm, shaper.CurveShape{
		Points: []shaper.CurvePoint{{0, 0, 0}, {0, 0, 1}},
		Degree: 1,
		Color:  shaper.RGB(0, 0, 1),
	})
	require.NoError(t, err)

	catalog, err := shaper.DefaultCatalog()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	e := shaper.NewEngineBuilder(s).
		UseLogger(shaper.NewZapLogger(zap.New(core))).
		UseCatalog(catalog).
		Build()
	return s, e, logs
}

func line(points ...shaper.CurvePoint) shaper.CurveShape {
	return shaper.CurveShape{Points: points, Degree: 1}
}

func TestReplaceKeepsColorsByPosition(t *testing.T) {
	s, e, _ := newRig(t)
	_, err := s.CreateCurve(leftArm, shaper.CurveShape{
		Points: []shaper.CurvePoint{{0, 0, 0}, {1, 1, 1}},
		Degree: 1,
		Color:  shaper.RGB(1, 0, 0),
	})
	require.NoError(t, err)

	set := shaper.ShapeSet{
		line(shaper.CurvePoint{0, 0, 0}, shaper.CurvePoint{0, 1, 0}),
		line(shaper.CurvePoint{0, 0, 0}, shaper.CurvePoint{0, 0, 1}),
		line(shaper.CurvePoint{0, 0, 0}, shaper.CurvePoint{1, 0, 0}),
	}
	set[0].Color = shaper.Indexed(3)
	require.NoError(t, e.Replace(leftArm, set, false))

	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Color.Equal(shaper.Indexed(13)))
	assert.True(t, got[1].Color.Equal(shaper.RGB(1, 0, 0)))
	assert.True(t, got[2].Color.IsNone())
	assert.Equal(t, set[2].Points, got[2].Points)
}

func TestReplaceShapesAppliesColors(t *testing.T) {
	_, e, _ := newRig(t)
	set := shaper.ShapeSet{line(shaper.CurvePoint{0, 0, 0}, shaper.CurvePoint{0, 1, 0})}
	set[0].Color = shaper.Indexed(6)

	require.NoError(t, e.ReplaceShapes(leftArm, set))

	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Color.Equal(shaper.Indexed(6)))
}

func TestTransferColorOnly(t *testing.T) {
	_, e, _ := newRig(t)
	before, err := e.Copy(rightArm)
	require.NoError(t, err)

	src, err := e.Copy(leftArm)
	require.NoError(t, err)
	require.NoError(t, e.Transfer(rightArm, src, shaper.TransferOptions{ApplyColor: true}))

	after, err := e.Copy(rightArm)
	require.NoError(t, err)
	assert.Equal(t, before[0].Points, after[0].Points)
	assert.True(t, after[0].Color.Equal(shaper.Indexed(13)))
}

func TestTransferRejectsMalformedSet(t *testing.T) {
	s, e, _ := newRig(t)
	bad := shaper.ShapeSet{line(shaper.CurvePoint{0, 0, 0}), {Points: nil, Degree: 1}}

	err := e.Replace(leftArm, bad, true)
	var mse *shaper.MalformedShapeError
	require.ErrorAs(t, err, &mse)
	assert.Equal(t, 0, mse.Index)
	assert.Empty(t, s.UndoNames())

	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTransferMissingNode(t *testing.T) {
	_, e, _ := newRig(t)
	err := e.ReplaceShapes("|rig|ghost_ctl", nil)
	var nnf *shaper.NodeNotFoundError
	assert.ErrorAs(t, err, &nnf)
}

func TestMirrorShapesAcrossRig(t *testing.T) {
	s, e, _ := newRig(t)
	s.Select(leftArm)

	require.NoError(t, e.MirrorShapes(leftArm, rightArm, shaper.AxisX))

	got, err := e.Copy(rightArm)
	require.NoError(t, err)
	require.Len(t, got, 1)
	want := []shaper.CurvePoint{{-1, 0, 0}, {0, 2, 1}}
	if diff := cmp.Diff(want, got[0].Points, approx); diff != "" {
		t.Errorf("mirrored points (-want +got):\n%s", diff)
	}
	assert.True(t, got[0].Color.Equal(shaper.RGB(0, 0, 1)), "destination keeps its color")

	assert.Equal(t, []string{"mirrorShapes"}, s.UndoNames())
	assert.False(t, s.ChunkOpen())
	assert.Equal(t, []string{leftArm}, s.Selection())
}

func TestMirrorNoneOntoSelfIsIdentity(t *testing.T) {
	_, e, _ := newRig(t)
	before, err := e.Copy(leftArm)
	require.NoError(t, err)

	set, err := e.Mirror(leftArm, leftArm, shaper.AxisNone)
	require.NoError(t, err)
	if diff := cmp.Diff(before[0].Points, set[0].Points, approx); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestMirrorErrors(t *testing.T) {
	s, e, _ := newRig(t)
	flat := scene.NewTransform()
	flat.Scale = mgl64.Vec3{1, 0, 1}
	_, err := s.AddNode("R_flat_ctl", "|rig", flat)
	require.NoError(t, err)

	err = e.MirrorShapes(leftArm, "|rig|R_flat_ctl", shaper.AxisX)
	var ste *shaper.SingularTransformError
	require.ErrorAs(t, err, &ste)
	assert.Equal(t, "|rig|R_flat_ctl", ste.Node)
	assert.Empty(t, s.UndoNames())

	err = e.MirrorShapes(leftArm, rightArm, shaper.Axis("w"))
	var iae *shaper.InvalidAxisError
	assert.ErrorAs(t, err, &iae)

	err = e.MirrorShapes(leftArm, "|rig|nope", shaper.AxisX)
	var nnf *shaper.NodeNotFoundError
	assert.ErrorAs(t, err, &nnf)
}

func TestUndoRevertsMirror(t *testing.T) {
	s, e, _ := newRig(t)
	before, err := e.Copy(rightArm)
	require.NoError(t, err)

	require.NoError(t, e.MirrorShapes(leftArm, rightArm, shaper.AxisX))
	require.True(t, s.Undo())

	after, err := e.Copy(rightArm)
	require.NoError(t, err)
	assert.Equal(t, before[0].Points, after[0].Points)
	assert.True(t, after[0].Color.Equal(before[0].Color))

	require.True(t, s.Redo())
	redone, err := e.Copy(rightArm)
	require.NoError(t, err)
	if diff := cmp.Diff([]shaper.CurvePoint{{-1, 0, 0}, {0, 2, 1}}, redone[0].Points, approx); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCounterpart(t *testing.T) {
	_, e, _ := newRig(t)

	other, ok := e.Counterpart(leftArm)
	assert.True(t, ok)
	assert.Equal(t, rightArm, other)

	other, ok = e.Counterpart(rightArm)
	assert.True(t, ok)
	assert.Equal(t, leftArm, other)

	_, ok = e.Counterpart("|rig")
	assert.False(t, ok)
}

func TestCounterpartIgnoresTokensInsideNames(t *testing.T) {
	s, e, _ := newRig(t)
	for _, parent := range []string{"GLOBAL_ctl", "CTRL_grp"} {
		_, err := s.AddNode(parent, "", nil)
		require.NoError(t, err)
		_, err = s.AddNode("L_arm_ctl", "|"+parent, nil)
		require.NoError(t, err)
		_, err = s.AddNode("R_arm_ctl", "|"+parent, nil)
		require.NoError(t, err)

		other, ok := e.Counterpart("|" + parent + "|L_arm_ctl")
		assert.True(t, ok, parent)
		assert.Equal(t, "|"+parent+"|R_arm_ctl", other)
	}

	_, ok := e.Counterpart("|GLOBAL_ctl")
	assert.False(t, ok)
}

func TestMirrorBatchSkipsNodesWithoutCounterpart(t *testing.T) {
	s, e, logs := newRig(t)

	report, err := e.MirrorBatch([]string{leftArm, "|rig"}, shaper.AxisX)
	require.NoError(t, err)
	assert.Equal(t, []string{rightArm}, report.Applied)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "|rig", report.Skipped[0].Node)
	assert.False(t, report.OK())
	assert.Equal(t, 1, logs.FilterMessageSnippet("Skip...").Len())

	assert.Equal(t, []string{"mirrorBatch"}, s.UndoNames())

	_, err = e.MirrorBatch(nil, shaper.AxisX)
	var ese *shaper.EmptySelectionError
	assert.ErrorAs(t, err, &ese)
}

func TestMirrorSelected(t *testing.T) {
	s, e, _ := newRig(t)

	_, err := e.MirrorSelected(shaper.AxisX)
	var ese *shaper.EmptySelectionError
	require.ErrorAs(t, err, &ese)

	s.Select(rightArm)
	report, err := e.MirrorSelected(shaper.AxisX)
	require.NoError(t, err)
	assert.Equal(t, []string{leftArm}, report.Applied)
	assert.Equal(t, []string{rightArm}, s.Selection())
}

func TestScaleShapes(t *testing.T) {
	_, e, _ := newRig(t)
	require.NoError(t, e.ScaleShapes(leftArm, 2))

	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	assert.Equal(t, []shaper.CurvePoint{{2, 0, 0}, {0, 4, 2}}, got[0].Points)
	assert.True(t, got[0].Color.Equal(shaper.Indexed(13)))
}

func TestScaleSelected(t *testing.T) {
	s, e, _ := newRig(t)
	s.Select(leftArm, rightArm)

	report, err := e.ScaleSelected(0.5)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, []string{"scaleShapes"}, s.UndoNames())

	got, err := e.Copy(rightArm)
	require.NoError(t, err)
	assert.Equal(t, []shaper.CurvePoint{{0, 0, 0}, {0, 0, 0.5}}, got[0].Points)
}

func TestSetOverrideColor(t *testing.T) {
	s, e, _ := newRig(t)
	require.NoError(t, s.SetOverrideState(leftArm, shaper.Encode(shaper.Indexed(9))))

	require.NoError(t, e.SetOverrideColor(leftArm, shaper.RGB(0, 1, 0)))
	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	assert.True(t, got[0].Color.Equal(shaper.RGB(0, 1, 0)))
	st, err := s.OverrideState(leftArm)
	require.NoError(t, err)
	assert.False(t, st.Enabled, "node override is cleared when shapes carry the color")

	require.NoError(t, e.SetOverrideColor("|rig", shaper.Indexed(22)))
	st, err = s.OverrideState("|rig")
	require.NoError(t, err)
	assert.True(t, shaper.Decode(st).Equal(shaper.Indexed(22)))

	var mse *shaper.MalformedShapeError
	assert.ErrorAs(t, e.SetOverrideColor(leftArm, shaper.Indexed(-1)), &mse)
}

func TestApplyPreset(t *testing.T) {
	_, e, _ := newRig(t)
	square, ok := e.Catalog().Lookup("square")
	require.True(t, ok)

	require.NoError(t, e.ApplyPreset(leftArm, "square", shaper.PresetOptions{Axis: shaper.AxisY, Scale: 2}))

	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	require.Len(t, got, len(square.Shapes))
	want := square.Shapes.Scale(2)
	if diff := cmp.Diff(want[0].Points, got[0].Points, approx); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	assert.True(t, got[0].Color.Equal(shaper.Indexed(13)), "node keeps its color")

	require.NoError(t, e.ApplyPreset(leftArm, "square", shaper.PresetOptions{Axis: shaper.AxisX, Scale: 1}))
	got, err = e.Copy(leftArm)
	require.NoError(t, err)
	turned, err := square.Shapes.Reorient(shaper.AxisX)
	require.NoError(t, err)
	if diff := cmp.Diff(turned[0].Points, got[0].Points, approx); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	assert.Error(t, e.ApplyPreset(leftArm, "no-such-preset", shaper.DefaultPresetOptions()))
}

func TestApplyPresetSelected(t *testing.T) {
	s, e, _ := newRig(t)
	s.Select(leftArm, rightArm)

	report, err := e.ApplyPresetSelected("circle", shaper.DefaultPresetOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{leftArm, rightArm}, report.Applied)

	for _, n := range []string{leftArm, rightArm} {
		got, err := e.Copy(n)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Periodic)
	}
}

func TestClipboard(t *testing.T) {
	s, e, _ := newRig(t)
	var cb shaper.Clipboard

	_, err := cb.Paste(e, []string{rightArm}, shaper.TransferAll)
	var ese *shaper.EmptySelectionError
	require.ErrorAs(t, err, &ese)

	require.NoError(t, cb.Copy(e, leftArm))
	assert.Equal(t, leftArm, cb.Source())

	report, err := cb.Paste(e, []string{rightArm, "|rig|ghost"}, shaper.TransferAll)
	require.NoError(t, err)
	assert.Equal(t, []string{rightArm}, report.Applied)
	assert.Len(t, report.Skipped, 1)
	assert.Equal(t, []string{"paste"}, s.UndoNames())

	got, err := e.Copy(rightArm)
	require.NoError(t, err)
	assert.Equal(t, cb.Shapes()[0].Points, got[0].Points)
	assert.True(t, got[0].Color.Equal(shaper.Indexed(13)))
}

func TestExportAllEmpty(t *testing.T) {
	_, e, _ := newRig(t)

	_, _, err := e.ExportAll(nil)
	var ese *shaper.EmptySelectionError
	assert.ErrorAs(t, err, &ese)

	_, report, err := e.ExportAll([]string{"|rig|ghost"})
	assert.ErrorAs(t, err, &ese)
	assert.Len(t, report.Skipped, 1)
}

func TestImportAllSkipsMissingNodes(t *testing.T) {
	_, e, logs := newRig(t)
	doc := shaper.ShapeDocument{}
	doc.Set(leftArm, shaper.ShapeSet{line(shaper.CurvePoint{0, 0, 0}, shaper.CurvePoint{3, 3, 3})})
	doc.Set("|rig|ghost_ctl", shaper.ShapeSet{line(shaper.CurvePoint{0, 0, 0}, shaper.CurvePoint{1, 0, 0})})

	report, err := e.ImportAll(doc, nil, shaper.TransferAll)
	require.NoError(t, err)
	assert.Equal(t, []string{leftArm}, report.Applied)
	require.Len(t, report.Skipped, 1)
	var nnf *shaper.NodeNotFoundError
	assert.ErrorAs(t, report.Skipped[0].Err, &nnf)
	assert.Equal(t, 1, logs.FilterMessageSnippet("unable to find").Len())

	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	assert.Equal(t, []shaper.CurvePoint{{0, 0, 0}, {3, 3, 3}}, got[0].Points)
}

func TestImportAllFilter(t *testing.T) {
	_, e, _ := newRig(t)
	doc := shaper.ShapeDocument{}
	doc.Set(leftArm, shaper.ShapeSet{line(shaper.CurvePoint{0, 0, 0}, shaper.CurvePoint{3, 3, 3})})
	doc.Set(rightArm, shaper.ShapeSet{line(shaper.CurvePoint{0, 0, 0}, shaper.CurvePoint{4, 4, 4})})

	report, err := e.ImportAll(doc, []string{rightArm}, shaper.TransferAll)
	require.NoError(t, err)
	assert.Equal(t, []string{rightArm}, report.Applied)
	assert.Empty(t, report.Skipped)

	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	assert.Equal(t, []shaper.CurvePoint{{1, 0, 0}, {0, 2, 1}}, got[0].Points)
}

func TestExportImportShapeFile(t *testing.T) {
	_, e, _ := newRig(t)
	dir := t.TempDir()

	report, err := e.ExportShapes([]string{leftArm, rightArm}, filepath.Join(dir, "arms"))
	require.NoError(t, err)
	assert.Len(t, report.Applied, 2)
	path := filepath.Join(dir, "arms.ctrl")
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, e.ScaleShapes(leftArm, 3))
	require.NoError(t, e.SetOverrideColor(leftArm, shaper.Indexed(1)))

	report, err = e.ImportShapes(path, nil, shaper.TransferAll)
	require.NoError(t, err)
	assert.True(t, report.OK())

	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	assert.Equal(t, []shaper.CurvePoint{{1, 0, 0}, {0, 2, 1}}, got[0].Points)
	assert.True(t, got[0].Color.Equal(shaper.Indexed(13)))
}

func TestImportShapesAddsExportExtension(t *testing.T) {
	_, e, _ := newRig(t)
	bare := filepath.Join(t.TempDir(), "shapes")

	_, err := e.ExportShapes([]string{leftArm}, bare)
	require.NoError(t, err)
	require.NoError(t, e.ScaleShapes(leftArm, 4))

	report, err := e.ImportShapes(bare, nil, shaper.TransferAll)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, []string{leftArm}, report.Applied)

	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	assert.Equal(t, []shaper.CurvePoint{{1, 0, 0}, {0, 2, 1}}, got[0].Points)
}

func TestImportLegacyFileKeepsColors(t *testing.T) {
	_, e, _ := newRig(t)
	path := filepath.Join(t.TempDir(), "arms.json")

	_, err := e.ExportShapes([]string{leftArm}, path)
	require.NoError(t, err)
	require.NoError(t, e.SetOverrideColor(leftArm, shaper.Indexed(4)))

	_, err = e.ImportShapes(path, nil, shaper.TransferAll)
	require.NoError(t, err)

	got, err := e.Copy(leftArm)
	require.NoError(t, err)
	assert.True(t, got[0].Color.Equal(shaper.Indexed(4)))
}

func TestShapeFileNoOps(t *testing.T) {
	_, e, _ := newRig(t)

	report, err := e.ExportShapes([]string{leftArm}, "")
	assert.NoError(t, err)
	assert.Nil(t, report)

	report, err = e.ImportShapes("", nil, shaper.TransferAll)
	assert.NoError(t, err)
	assert.Nil(t, report)

	report, err = e.ImportShapes(filepath.Join(t.TempDir(), "missing.ctrl"), nil, shaper.TransferAll)
	assert.NoError(t, err)
	assert.Nil(t, report)
}

func TestControllers(t *testing.T) {
	s, e, _ := newRig(t)
	_, err := s.AddNode("spine_ctl", "|rig", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{leftArm, rightArm}, e.Controllers())
	assert.Equal(t, "L_arm_ctl", shaper.ShortName(leftArm))
}

func TestDescribe(t *testing.T) {
	_, e, _ := newRig(t)
	out, err := e.Describe(leftArm)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, leftArm+": 1 shape(s)"))
	assert.Contains(t, out, "degree=1 periodic=false")
	assert.Contains(t, out, "(0, 2, 1)")
}
