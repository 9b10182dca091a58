package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Operation is one of the conversion steps a request can select.
type Operation string

const (
	OpRecalcNormals Operation = "recalc_normals"
	OpExportOBJ     Operation = "export_obj"
	OpExportGLTF    Operation = "export_gltf"
)

// CanonicalOrder is the fixed execution order. Normals recalculation mutates
// the working mesh that later exports read, and the two exports are
// independent of each other.
var CanonicalOrder = []Operation{OpRecalcNormals, OpExportOBJ, OpExportGLTF}

func IsKnownOperation(op Operation) bool {
	switch op {
	case OpRecalcNormals, OpExportOBJ, OpExportGLTF:
		return true
	}
	return false
}

// RecognizedExtensions are the input forms the pipeline accepts: the binary
// mesh and its XML text form.
var RecognizedExtensions = []string{".mesh", ".xml"}

func IsRecognizedInput(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range RecognizedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ConversionRequest describes one input file and the operations to run on it.
// It is immutable once built.
type ConversionRequest struct {
	InputPath   string               `json:"input_path"`
	Operations  []Operation          `json:"operations"`
	OutputRoots map[Operation]string `json:"output_roots,omitempty"`
	BlenderPath string               `json:"blender_path,omitempty"`
}

// Validate checks the request invariants: the input exists and carries a
// recognized extension, and at least one operation is selected.
func (r ConversionRequest) Validate() error {
	if strings.TrimSpace(r.InputPath) == "" {
		return fmt.Errorf("input path is required")
	}
	info, err := os.Stat(r.InputPath)
	if err != nil {
		return fmt.Errorf("input path %s: %w", r.InputPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected a mesh file", r.InputPath)
	}
	if !IsRecognizedInput(r.InputPath) {
		return fmt.Errorf("input path %s: unrecognized extension (expected .mesh or .xml)", r.InputPath)
	}
	if len(r.Operations) == 0 {
		return fmt.Errorf("no operations selected")
	}
	for _, op := range r.Operations {
		if !IsKnownOperation(op) {
			return fmt.Errorf("unknown operation %q", op)
		}
	}
	return nil
}

// Selected reports whether op is in the request's operation set.
func (r ConversionRequest) Selected(op Operation) bool {
	for _, o := range r.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// OutputRoot returns the caller-specified output directory for op, or "" when
// the default (adjacent to the input) should be used.
func (r ConversionRequest) OutputRoot(op Operation) string {
	if r.OutputRoots == nil {
		return ""
	}
	return strings.TrimSpace(r.OutputRoots[op])
}
