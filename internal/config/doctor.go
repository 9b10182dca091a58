package config

import (
	"fmt"
	"os"
	"path/filepath"

	"ogre-mesh-tools/internal/toolchain"
)

type DoctorOptions struct {
	SettingsPath string
	Toolchain    toolchain.Toolchain
}

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Doctor runs the dependency and filesystem preflight: are the external
// converters reachable, is Blender configured, can the settings file be
// written.
func Doctor(opts DoctorOptions) (DoctorResult, error) {
	settingsPath := normalizeSettingsPath(opts.SettingsPath)
	settings, err := Load(settingsPath)
	if err != nil {
		return DoctorResult{}, err
	}

	dep := opts.Toolchain.DependencyStatus(settings.BlenderPath)
	checks := []DoctorCheck{
		{
			Name:    "dependency:" + toolchain.ConverterName,
			OK:      dep.ConverterFound,
			Message: dependencyMessage(dep.ConverterFound, dep.ConverterPath, toolchain.ConverterName),
		},
		{
			Name:    "dependency:python3",
			OK:      dep.PythonFound,
			Message: dependencyMessage(dep.PythonFound, dep.PythonPath, "python3"),
		},
		{
			Name:    "dependency:blender",
			OK:      dep.BlenderFound,
			Message: blenderMessage(dep.BlenderFound, dep.BlenderPath, settings.BlenderPath),
		},
	}

	cfgOK, cfgMessage := ensureWritableDir(filepath.Dir(settingsPath))
	checks = append(checks, DoctorCheck{
		Name:    "directory:settings",
		OK:      cfgOK,
		Message: cfgMessage,
	})

	ok := true
	for _, c := range checks {
		// Blender is only needed for glTF export; an unset path is a
		// warning, not a failure.
		if !c.OK && c.Name != "dependency:blender" {
			ok = false
		}
	}
	return DoctorResult{OK: ok, Checks: checks}, nil
}

func dependencyMessage(found bool, path, name string) string {
	if found {
		return fmt.Sprintf("found at %s", path)
	}
	return fmt.Sprintf("%s is not installed or not reachable", name)
}

func blenderMessage(found bool, resolved, configured string) string {
	if found {
		return fmt.Sprintf("found at %s", resolved)
	}
	if configured == "" {
		return "blender path not configured (required for glTF export only)"
	}
	return fmt.Sprintf("configured path %s does not exist", configured)
}

func ensureWritableDir(dir string) (bool, string) {
	if dir == "" || dir == "." {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Sprintf("cannot create %s: %v", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".omt-probe-*")
	if err != nil {
		return false, fmt.Sprintf("cannot write in %s: %v", dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return true, fmt.Sprintf("writable (%s)", dir)
}
