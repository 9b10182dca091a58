// Package config persists the tool's settings and runs environment preflight
// checks. The Blender install path lives here so it can be threaded
// explicitly into requests instead of being read as ambient state.
package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

const (
	DefaultSettingsPath = "ogre-tools.json"
	DefaultWorkers      = 1
)

type Settings struct {
	SchemaVersion int    `json:"schema_version"`
	UpdatedAt     string `json:"updated_at,omitempty"`
	// BlenderPath is the 3D tool's install location, a hard precondition
	// for glTF export only.
	BlenderPath string `json:"blender_path,omitempty"`
	// Workers bounds concurrent batch items.
	Workers int `json:"workers,omitempty"`
}

func defaultSettings() Settings {
	return Settings{
		SchemaVersion: 1,
		Workers:       DefaultWorkers,
	}
}

func normalizeSettingsPath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return DefaultSettingsPath
	}
	return p
}

func normalizeSettings(raw Settings) Settings {
	norm := raw
	if norm.SchemaVersion <= 0 {
		norm.SchemaVersion = 1
	}
	if norm.Workers <= 0 {
		norm.Workers = DefaultWorkers
	}
	norm.BlenderPath = strings.TrimSpace(norm.BlenderPath)
	return norm
}

// Load reads settings from path, falling back to defaults when the file does
// not exist yet.
func Load(path string) (Settings, error) {
	p := normalizeSettingsPath(path)
	var s Settings
	err := ReadJSON(p, &s)
	if err == nil {
		return normalizeSettings(s), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return defaultSettings(), nil
	}
	return Settings{}, err
}

// Save persists settings to path atomically.
func Save(path string, s Settings) error {
	p := normalizeSettingsPath(path)
	norm := normalizeSettings(s)
	norm.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return WriteJSON(p, norm)
}
