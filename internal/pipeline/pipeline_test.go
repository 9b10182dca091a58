package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ogre-mesh-tools/internal/model"
	"ogre-mesh-tools/internal/toolchain"
)

// fakeTools records every adapter call and fails the steps listed in fail.
type fakeTools struct {
	calls []string
	fail  map[string]error
}

func newFakeTools() *fakeTools {
	return &fakeTools{fail: make(map[string]error)}
}

func invocationErr(detail string) error {
	return &toolchain.ToolError{Kind: model.ErrInvocation, Tool: "fake", Detail: detail}
}

func (f *fakeTools) record(name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeTools) MeshToXML(in, out string) error {
	if err := f.record("mesh_to_xml"); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("<mesh/>"), 0o644)
}

func (f *fakeTools) XMLToMesh(in, out string) error {
	if err := f.record("xml_to_mesh"); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("mesh"), 0o644)
}

func (f *fakeTools) RecalculateNormals(xmlPath string) (bool, error) {
	if err := f.record("recalc_normals"); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeTools) ExportOBJ(input, outDir string) (string, error) {
	if err := f.record("export_obj"); err != nil {
		return "", err
	}
	out := filepath.Join(outDir, toolchain.Stem(input)+".obj")
	return out, os.WriteFile(out, []byte("obj"), 0o644)
}

func (f *fakeTools) ExportGLTF(blenderPath, input, outDir string) (string, error) {
	if err := f.record("export_gltf"); err != nil {
		return "", err
	}
	out := filepath.Join(outDir, toolchain.Stem(input)+".glb")
	return out, os.WriteFile(out, []byte("glb"), 0o644)
}

func writeMesh(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("binary mesh"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fakeBlender(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "blender")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func assertNoScratchLeft(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".omt-scratch-") {
			t.Fatalf("intermediate artifact survived the run: %s", e.Name())
		}
	}
}

func TestRunOrdersOutcomesCanonically(t *testing.T) {
	tmp := t.TempDir()
	input := writeMesh(t, tmp, "ring.mesh")
	tools := newFakeTools()

	// Selection order deliberately reversed.
	result := New(tools).Run(model.ConversionRequest{
		InputPath:   input,
		Operations:  []model.Operation{model.OpExportGLTF, model.OpExportOBJ, model.OpRecalcNormals},
		BlenderPath: fakeBlender(t, tmp),
	})

	want := []model.Operation{model.OpRecalcNormals, model.OpExportOBJ, model.OpExportGLTF}
	if len(result.Outcomes) != len(want) {
		t.Fatalf("expected %d outcomes, got %d", len(want), len(result.Outcomes))
	}
	for i, op := range want {
		if result.Outcomes[i].Operation != op {
			t.Fatalf("outcome %d: expected %s, got %s", i, op, result.Outcomes[i].Operation)
		}
	}
	assertNoScratchLeft(t, tmp)
}

func TestRunRingMeshNormalsAndOBJ(t *testing.T) {
	tmp := t.TempDir()
	input := writeMesh(t, tmp, "ring.mesh")
	tools := newFakeTools()

	result := New(tools).Run(model.ConversionRequest{
		InputPath:  input,
		Operations: []model.Operation{model.OpRecalcNormals, model.OpExportOBJ},
	})

	if !result.Succeeded() {
		t.Fatalf("expected full success, got %+v", result.Outcomes)
	}
	objPath := filepath.Join(tmp, OBJExportDir, "ring.obj")
	if _, err := os.Stat(objPath); err != nil {
		t.Fatalf("expected OBJ at %s: %v", objPath, err)
	}
	if got := result.Outcomes[1].OutputPath; got != objPath {
		t.Fatalf("expected outcome output %s, got %s", objPath, got)
	}
	// Normals round trip: mesh -> xml -> recalc -> back to mesh.
	want := []string{"mesh_to_xml", "recalc_normals", "xml_to_mesh", "export_obj"}
	if fmt.Sprint(tools.calls) != fmt.Sprint(want) {
		t.Fatalf("unexpected call sequence %v, want %v", tools.calls, want)
	}
	assertNoScratchLeft(t, tmp)
}

func TestRunSkipsBackConversionWhenNormalsUnchanged(t *testing.T) {
	tmp := t.TempDir()
	input := writeMesh(t, tmp, "ring.mesh")
	tools := newFakeTools()
	unchanged := &unchangedTools{fakeTools: tools}

	result := New(unchanged).Run(model.ConversionRequest{
		InputPath:  input,
		Operations: []model.Operation{model.OpRecalcNormals},
	})

	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result.Outcomes)
	}
	if result.Outcomes[0].Note != "normals already correct" {
		t.Fatalf("unexpected note %q", result.Outcomes[0].Note)
	}
	for _, c := range tools.calls {
		if c == "xml_to_mesh" {
			t.Fatal("expected no back-conversion for unchanged normals")
		}
	}
}

type unchangedTools struct {
	*fakeTools
}

func (u *unchangedTools) RecalculateNormals(xmlPath string) (bool, error) {
	if err := u.record("recalc_normals"); err != nil {
		return false, err
	}
	return false, nil
}

func TestRunXMLInputRepairsInPlaceAndConvertsForOBJ(t *testing.T) {
	tmp := t.TempDir()
	input := filepath.Join(tmp, "ring.xml")
	if err := os.WriteFile(input, []byte("<mesh/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	tools := newFakeTools()

	result := New(tools).Run(model.ConversionRequest{
		InputPath:  input,
		Operations: []model.Operation{model.OpRecalcNormals, model.OpExportOBJ},
	})

	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result.Outcomes)
	}
	// XML input: normals run directly, OBJ export converts to a scratch
	// binary first.
	want := []string{"recalc_normals", "xml_to_mesh", "export_obj"}
	if fmt.Sprint(tools.calls) != fmt.Sprint(want) {
		t.Fatalf("unexpected call sequence %v, want %v", tools.calls, want)
	}
	objPath := filepath.Join(tmp, OBJExportDir, "ring.obj")
	if _, err := os.Stat(objPath); err != nil {
		t.Fatalf("expected OBJ named after the input at %s: %v", objPath, err)
	}
	assertNoScratchLeft(t, tmp)
}

func TestRunFailedOperationDoesNotAbortSiblings(t *testing.T) {
	tmp := t.TempDir()
	input := writeMesh(t, tmp, "ring.mesh")
	tools := newFakeTools()
	tools.fail["mesh_to_xml"] = invocationErr("converter exploded")

	result := New(tools).Run(model.ConversionRequest{
		InputPath:  input,
		Operations: []model.Operation{model.OpRecalcNormals, model.OpExportOBJ},
	})

	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
	}
	normals := result.Outcomes[0]
	if normals.Status != model.StatusFailed || normals.ErrorKind != model.ErrInvocation {
		t.Fatalf("expected failed invocation outcome, got %+v", normals)
	}
	if !strings.Contains(normals.ErrorDetail, "converter exploded") {
		t.Fatalf("expected diagnostic detail, got %q", normals.ErrorDetail)
	}
	if result.Outcomes[1].Status != model.StatusSuccess {
		t.Fatalf("expected OBJ export to still succeed, got %+v", result.Outcomes[1])
	}
	// The dependent normals steps must not have run after the failure.
	for _, c := range tools.calls {
		if c == "recalc_normals" || c == "xml_to_mesh" {
			t.Fatalf("dependent step %s ran after its prerequisite failed", c)
		}
	}
	assertNoScratchLeft(t, tmp)
}

func TestRunScratchReleasedOnFailure(t *testing.T) {
	tmp := t.TempDir()
	input := writeMesh(t, tmp, "ring.mesh")
	tools := newFakeTools()
	tools.fail["recalc_normals"] = invocationErr("bad xml")

	result := New(tools).Run(model.ConversionRequest{
		InputPath:  input,
		Operations: []model.Operation{model.OpRecalcNormals},
	})
	if result.Succeeded() {
		t.Fatal("expected failure")
	}
	assertNoScratchLeft(t, tmp)
}

func TestRunGLTFWithoutBlenderIsConfigurationErrorWithoutInvocation(t *testing.T) {
	tmp := t.TempDir()
	input := writeMesh(t, tmp, "ring.mesh")

	for _, blender := range []string{"", filepath.Join(tmp, "missing-blender")} {
		tools := newFakeTools()
		result := New(tools).Run(model.ConversionRequest{
			InputPath:   input,
			Operations:  []model.Operation{model.OpExportGLTF},
			BlenderPath: blender,
		})

		outcome := result.Outcomes[0]
		if outcome.Status != model.StatusFailed || outcome.ErrorKind != model.ErrConfiguration {
			t.Fatalf("blender=%q: expected configuration failure, got %+v", blender, outcome)
		}
		if len(tools.calls) != 0 {
			t.Fatalf("blender=%q: expected zero invocations, got %v", blender, tools.calls)
		}
	}
}

func TestRunGLTFAcceptsBlenderResolvableOnPATH(t *testing.T) {
	tmp := t.TempDir()
	input := writeMesh(t, tmp, "ring.mesh")
	tools := newFakeTools()

	// A bare name resolves via PATH, the same way the doctor probes it.
	result := New(tools).Run(model.ConversionRequest{
		InputPath:   input,
		Operations:  []model.Operation{model.OpExportGLTF},
		BlenderPath: "sh",
	})

	if !result.Succeeded() {
		t.Fatalf("expected PATH-name blender to be accepted, got %+v", result.Outcomes)
	}
	if fmt.Sprint(tools.calls) != fmt.Sprint([]string{"export_gltf"}) {
		t.Fatalf("expected the export to run, got %v", tools.calls)
	}
}

func TestRunGLTFSuccess(t *testing.T) {
	tmp := t.TempDir()
	input := writeMesh(t, tmp, "tower.mesh")
	tools := newFakeTools()

	result := New(tools).Run(model.ConversionRequest{
		InputPath:   input,
		Operations:  []model.Operation{model.OpExportGLTF},
		BlenderPath: fakeBlender(t, tmp),
	})

	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result.Outcomes)
	}
	want := filepath.Join(tmp, GLTFExportDir, "tower.glb")
	if result.Outcomes[0].OutputPath != want {
		t.Fatalf("expected glb at %s, got %s", want, result.Outcomes[0].OutputPath)
	}
}

func TestRunHonorsOutputRootOverride(t *testing.T) {
	tmp := t.TempDir()
	input := writeMesh(t, tmp, "ring.mesh")
	outRoot := filepath.Join(tmp, "custom", "objs")
	tools := newFakeTools()

	result := New(tools).Run(model.ConversionRequest{
		InputPath:   input,
		Operations:  []model.Operation{model.OpExportOBJ},
		OutputRoots: map[model.Operation]string{model.OpExportOBJ: outRoot},
	})

	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result.Outcomes)
	}
	if _, err := os.Stat(filepath.Join(outRoot, "ring.obj")); err != nil {
		t.Fatalf("expected OBJ under override root: %v", err)
	}
}

func TestRunInvalidRequestFailsEverySelectedOperation(t *testing.T) {
	tools := newFakeTools()
	result := New(tools).Run(model.ConversionRequest{
		InputPath:  "/nonexistent/ring.mesh",
		Operations: []model.Operation{model.OpExportOBJ, model.OpExportGLTF},
	})

	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
	}
	for _, o := range result.Outcomes {
		if o.Status != model.StatusFailed || o.ErrorKind != model.ErrConfiguration {
			t.Fatalf("expected configuration failures, got %+v", o)
		}
	}
	if len(tools.calls) != 0 {
		t.Fatalf("expected zero invocations, got %v", tools.calls)
	}
}

func TestRunIdempotentSuccessStatus(t *testing.T) {
	tmp := t.TempDir()
	input := writeMesh(t, tmp, "ring.mesh")
	req := model.ConversionRequest{
		InputPath:  input,
		Operations: []model.Operation{model.OpRecalcNormals, model.OpExportOBJ},
	}

	first := New(newFakeTools()).Run(req)
	second := New(newFakeTools()).Run(req)
	if first.Succeeded() != second.Succeeded() {
		t.Fatal("expected the same success status on repeated runs")
	}
	assertNoScratchLeft(t, tmp)
}
