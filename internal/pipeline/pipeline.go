// Package pipeline runs the selected conversion operations for one input
// mesh and records a per-item result. Failures surface as data, never as
// errors past this boundary.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ogre-mesh-tools/internal/model"
	"ogre-mesh-tools/internal/scratch"
	"ogre-mesh-tools/internal/toolchain"
)

const (
	OBJExportDir  = "OBJ_Export"
	GLTFExportDir = "glTF_Export"
)

// Tools is the external-tool surface the pipeline drives. Satisfied by
// toolchain.Toolchain; tests substitute a recording fake.
type Tools interface {
	MeshToXML(in, out string) error
	XMLToMesh(in, out string) error
	RecalculateNormals(xmlPath string) (bool, error)
	ExportOBJ(input, outDir string) (string, error)
	ExportGLTF(blenderPath, input, outDir string) (string, error)
}

type Pipeline struct {
	Tools Tools
}

func New(tools Tools) *Pipeline {
	return &Pipeline{Tools: tools}
}

// Run executes the request's operations in canonical order. A failed
// operation never aborts its siblings; every intermediate artifact is
// released before returning.
func (p *Pipeline) Run(req model.ConversionRequest) model.ItemResult {
	result := model.ItemResult{InputPath: req.InputPath}

	if err := req.Validate(); err != nil {
		// An unusable request fails every selected operation; the batch
		// carries on with the next item.
		for _, op := range model.CanonicalOrder {
			if req.Selected(op) {
				result.Outcomes = append(result.Outcomes,
					model.FailedOutcome(op, model.ErrConfiguration, err.Error()))
			}
		}
		return result
	}

	files := scratch.NewManager()
	defer files.ReleaseAll()

	for _, op := range model.CanonicalOrder {
		if !req.Selected(op) {
			continue
		}
		var outcome model.OperationOutcome
		switch op {
		case model.OpRecalcNormals:
			outcome = p.recalcNormals(req, files)
		case model.OpExportOBJ:
			outcome = p.exportOBJ(req, files)
		case model.OpExportGLTF:
			outcome = p.exportGLTF(req)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result
}

// recalcNormals repairs the normals of the input mesh in place. A binary
// input is round-tripped through its XML text form; the binary is only
// re-exported when the repair actually changed something.
func (p *Pipeline) recalcNormals(req model.ConversionRequest, files *scratch.Manager) model.OperationOutcome {
	op := model.OpRecalcNormals
	input := req.InputPath

	if isXML(input) {
		changed, err := p.Tools.RecalculateNormals(input)
		if err != nil {
			return failed(op, err)
		}
		return noteOutcome(op, input, changed)
	}

	xmlPath, err := files.Acquire(input, ".xml")
	if err != nil {
		return model.FailedOutcome(op, model.ErrIO, err.Error())
	}
	defer files.Release(xmlPath)

	if err := p.Tools.MeshToXML(input, xmlPath); err != nil {
		return failed(op, err)
	}
	changed, err := p.Tools.RecalculateNormals(xmlPath)
	if err != nil {
		return failed(op, err)
	}
	if changed {
		if err := p.Tools.XMLToMesh(xmlPath, input); err != nil {
			return failed(op, err)
		}
	}
	return noteOutcome(op, input, changed)
}

// exportOBJ writes the static OBJ form of the input. The exporter consumes
// the binary mesh, so an XML input is converted to a scratch binary first.
func (p *Pipeline) exportOBJ(req model.ConversionRequest, files *scratch.Manager) model.OperationOutcome {
	op := model.OpExportOBJ
	outDir := req.OutputRoot(op)
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(req.InputPath), OBJExportDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return model.FailedOutcome(op, model.ErrIO, fmt.Sprintf("create output directory %s: %v", outDir, err))
	}

	input := req.InputPath
	if isXML(input) {
		meshPath, err := files.Acquire(input, ".mesh")
		if err != nil {
			return model.FailedOutcome(op, model.ErrIO, err.Error())
		}
		defer files.Release(meshPath)
		if err := p.Tools.XMLToMesh(input, meshPath); err != nil {
			return failed(op, err)
		}
		input = meshPath
	}

	out, err := p.Tools.ExportOBJ(input, outDir)
	if err != nil {
		return failed(op, err)
	}
	return model.SuccessOutcome(op, out)
}

// exportGLTF hands the whole import/rig/export sequence to Blender. An unset
// or missing Blender path is a configuration failure with no process
// launched.
func (p *Pipeline) exportGLTF(req model.ConversionRequest) model.OperationOutcome {
	op := model.OpExportGLTF
	blender := strings.TrimSpace(req.BlenderPath)
	if blender == "" {
		return model.FailedOutcome(op, model.ErrConfiguration,
			"blender path is not configured; set it with `ogre-mesh-tools settings set --blender-path <path>`")
	}
	// Same resolution the doctor uses: bare names go through PATH.
	if _, err := toolchain.ResolveBinary(blender); err != nil {
		return model.FailedOutcome(op, model.ErrConfiguration, fmt.Sprintf("blender: %v", err))
	}

	outDir := req.OutputRoot(op)
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(req.InputPath), GLTFExportDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return model.FailedOutcome(op, model.ErrIO, fmt.Sprintf("create output directory %s: %v", outDir, err))
	}

	out, err := p.Tools.ExportGLTF(blender, req.InputPath, outDir)
	if err != nil {
		return failed(op, err)
	}
	return model.SuccessOutcome(op, out)
}

func failed(op model.Operation, err error) model.OperationOutcome {
	return model.FailedOutcome(op, toolchain.Classify(err), err.Error())
}

func noteOutcome(op model.Operation, outputPath string, changed bool) model.OperationOutcome {
	outcome := model.SuccessOutcome(op, outputPath)
	if changed {
		outcome.Note = "normals corrected"
	} else {
		outcome.Note = "normals already correct"
	}
	return outcome
}

func isXML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}
