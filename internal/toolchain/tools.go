package toolchain

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
)

const (
	ConverterName     = "OgreXMLConverter"
	NormalsScriptName = "recalculate_normals.py"
	ObjScriptName     = "MeshToObj.py"
	GLTFScriptName    = "batch_ogre_to_gltf.py"
)

// changedMarker is printed by the normals script when it rewrote the mesh.
const changedMarker = "CHANGED"

// Toolchain locates the external converters and scripts the pipeline drives.
// Zero fields fall back to the bundled defaults next to the executable.
type Toolchain struct {
	ConverterPath string
	NormalsScript string
	ObjScript     string
	GLTFScript    string
	PythonBin     string
	LogWriter     io.Writer
}

// Locate resolves the bundled tool layout: converter and scripts sit next to
// the executable, python comes from PATH. Paths that do not resolve are left
// as bare names so the existence precheck reports them properly at use time.
func Locate() Toolchain {
	dir := executableDir()
	tc := Toolchain{
		ConverterPath: ConverterName,
		NormalsScript: NormalsScriptName,
		ObjScript:     ObjScriptName,
		GLTFScript:    GLTFScriptName,
		PythonBin:     "python3",
	}
	if dir == "" {
		return tc
	}
	tc.ConverterPath = preferLocal(dir, ConverterName)
	tc.NormalsScript = filepath.Join(dir, NormalsScriptName)
	tc.ObjScript = filepath.Join(dir, ObjScriptName)
	tc.GLTFScript = filepath.Join(dir, GLTFScriptName)
	return tc
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// preferLocal returns the sibling copy of a tool when present, otherwise the
// bare name for PATH lookup.
func preferLocal(dir, name string) string {
	local := filepath.Join(dir, name)
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return name
}

func (t Toolchain) python() string {
	if strings.TrimSpace(t.PythonBin) != "" {
		return t.PythonBin
	}
	return "python3"
}

// MeshToXML converts a binary mesh to its XML text form.
func (t Toolchain) MeshToXML(in, out string) error {
	_, err := Run(Invocation{
		Tool:         ConverterName,
		Binary:       t.ConverterPath,
		Args:         []string{in, out},
		ExpectOutput: out,
		LogWriter:    t.LogWriter,
	})
	return err
}

// XMLToMesh converts an XML text-form mesh back to binary.
func (t Toolchain) XMLToMesh(in, out string) error {
	_, err := Run(Invocation{
		Tool:         ConverterName,
		Binary:       t.ConverterPath,
		Args:         []string{in, out},
		ExpectOutput: out,
		LogWriter:    t.LogWriter,
	})
	return err
}

// RecalculateNormals repairs per-vertex normals in an XML mesh in place and
// reports whether anything changed.
func (t Toolchain) RecalculateNormals(xmlPath string) (bool, error) {
	res, err := Run(Invocation{
		Tool:      "recalculate_normals",
		Binary:    t.python(),
		Args:      []string{t.NormalsScript, xmlPath},
		LogWriter: t.LogWriter,
	})
	if err != nil {
		return false, err
	}
	return strings.Contains(res.Stdout, changedMarker), nil
}

// ExportOBJ writes <stem>.obj for the given binary mesh into outDir.
func (t Toolchain) ExportOBJ(input, outDir string) (string, error) {
	out := filepath.Join(outDir, Stem(input)+".obj")
	_, err := Run(Invocation{
		Tool:         "MeshToObj",
		Binary:       t.python(),
		Args:         []string{t.ObjScript, input, "-o", outDir},
		ExpectOutput: out,
		LogWriter:    t.LogWriter,
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// ExportGLTF delegates the import/rig/export sequence to Blender running the
// bundled script headless, then sanity-checks that the result parses as a
// glTF document.
func (t Toolchain) ExportGLTF(blenderPath, input, outDir string) (string, error) {
	out := filepath.Join(outDir, Stem(input)+".glb")
	_, err := Run(Invocation{
		Tool:         "blender",
		Binary:       blenderPath,
		Args:         []string{"-b", "-P", t.GLTFScript, "--", input, outDir, t.ConverterPath},
		ExpectOutput: out,
		LogWriter:    t.LogWriter,
	})
	if err != nil {
		return "", err
	}
	if err := verifyGLB(out); err != nil {
		return "", err
	}
	return out, nil
}

// verifyGLB treats an unparseable export as a failed invocation: Blender can
// exit 0 after writing a truncated file when its own exporter errors late.
func verifyGLB(path string) error {
	doc, err := gltf.Open(path)
	if err != nil {
		return invocationError("blender", fmt.Sprintf("output %s is not a valid glTF document: %v", path, err))
	}
	if len(doc.Meshes) == 0 {
		return invocationError("blender", fmt.Sprintf("output %s contains no meshes", path))
	}
	return nil
}

// Stem returns the input's base name without its recognized extensions, so
// ring.mesh, ring.xml and ring.mesh.xml all map to "ring".
func Stem(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if strings.EqualFold(filepath.Ext(name), ".mesh") {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// DependencyReport lists which external tools could be found.
type DependencyReport struct {
	ConverterFound bool   `json:"converter_found"`
	ConverterPath  string `json:"converter_path,omitempty"`
	PythonFound    bool   `json:"python_found"`
	PythonPath     string `json:"python_path,omitempty"`
	BlenderFound   bool   `json:"blender_found"`
	BlenderPath    string `json:"blender_path,omitempty"`
}

// DependencyStatus probes for the converter, python runtime and the
// configured Blender without invoking anything.
func (t Toolchain) DependencyStatus(blenderPath string) DependencyReport {
	report := DependencyReport{}
	if path, err := ResolveBinary(t.ConverterPath); err == nil {
		report.ConverterFound = true
		report.ConverterPath = path
	}
	if path, err := exec.LookPath(t.python()); err == nil {
		report.PythonFound = true
		report.PythonPath = path
	}
	if path, err := ResolveBinary(blenderPath); err == nil {
		report.BlenderFound = true
		report.BlenderPath = path
	}
	return report
}
