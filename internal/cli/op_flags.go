package cli

import (
	"errors"
	"flag"
	"strings"

	"ogre-mesh-tools/internal/config"
	"ogre-mesh-tools/internal/model"
)

// opFlags holds the operation selection and tool configuration shared by the
// convert and batch commands.
type opFlags struct {
	normals     *bool
	obj         *bool
	gltf        *bool
	objDir      *string
	gltfDir     *string
	blenderPath *string
	settings    *string
	jsonOut     *bool
}

func registerOpFlags(fs *flag.FlagSet) *opFlags {
	return &opFlags{
		normals:     fs.Bool("normals", false, "recalculate vertex normals"),
		obj:         fs.Bool("obj", false, "export static OBJ"),
		gltf:        fs.Bool("gltf", false, "export rigged glTF via Blender"),
		objDir:      fs.String("obj-dir", "", "OBJ output directory (default: OBJ_Export next to input)"),
		gltfDir:     fs.String("gltf-dir", "", "glTF output directory (default: glTF_Export next to input)"),
		blenderPath: fs.String("blender-path", "", "blender executable (default: saved settings)"),
		settings:    fs.String("config", config.DefaultSettingsPath, "settings file path"),
		jsonOut:     fs.Bool("json", false, "print JSON output"),
	}
}

// operations returns the selected operation set, in flag order. The pipeline
// reorders canonically regardless.
func (f *opFlags) operations() ([]model.Operation, error) {
	ops := make([]model.Operation, 0, 3)
	if *f.gltf {
		ops = append(ops, model.OpExportGLTF)
	}
	if *f.obj {
		ops = append(ops, model.OpExportOBJ)
	}
	if *f.normals {
		ops = append(ops, model.OpRecalcNormals)
	}
	if len(ops) == 0 {
		return nil, errors.New("select at least one of --normals, --obj, --gltf")
	}
	return ops, nil
}

func (f *opFlags) outputRoots() map[model.Operation]string {
	roots := make(map[model.Operation]string)
	if d := strings.TrimSpace(*f.objDir); d != "" {
		roots[model.OpExportOBJ] = d
	}
	if d := strings.TrimSpace(*f.gltfDir); d != "" {
		roots[model.OpExportGLTF] = d
	}
	if len(roots) == 0 {
		return nil
	}
	return roots
}

// resolveBlender prefers the flag over the saved settings value.
func (f *opFlags) resolveBlender() (string, error) {
	if p := strings.TrimSpace(*f.blenderPath); p != "" {
		return p, nil
	}
	settings, err := config.Load(*f.settings)
	if err != nil {
		return "", err
	}
	return settings.BlenderPath, nil
}
