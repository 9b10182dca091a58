// Package scratch tracks the transient files a pipeline run hands to the
// external tools. Every acquired path is deleted on release, whether the
// enclosing step succeeded or failed.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager owns the intermediate artifacts of one pipeline invocation.
//
// Each artifact lives in its own private directory next to the file it
// derives from, so concurrent items (or the same input processed twice) never
// collide and an unrelated file is never overwritten. The artifact keeps the
// input's stem because the external tools derive output names from it.
type Manager struct {
	mu   sync.Mutex
	dirs map[string]string // artifact path -> owning temp dir
}

func NewManager() *Manager {
	return &Manager{dirs: make(map[string]string)}
}

// Acquire reserves a path for an artifact derived from basedOn, carrying the
// given extension. The file is created empty; the external tool overwrites it.
func (m *Manager) Acquire(basedOn, ext string) (string, error) {
	parent := filepath.Dir(basedOn)
	stem := strings.TrimSuffix(filepath.Base(basedOn), filepath.Ext(basedOn))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir, err := os.MkdirTemp(parent, ".omt-scratch-*")
	if err != nil {
		return "", fmt.Errorf("create intermediate dir for %s: %w", basedOn, err)
	}
	path := filepath.Join(dir, stem+ext)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("create intermediate file %s: %w", path, err)
	}

	m.mu.Lock()
	m.dirs[path] = dir
	m.mu.Unlock()
	return path, nil
}

// Release deletes one acquired artifact and its private directory. Paths the
// manager does not own are left alone.
func (m *Manager) Release(path string) {
	m.mu.Lock()
	dir, ok := m.dirs[path]
	if ok {
		delete(m.dirs, path)
	}
	m.mu.Unlock()
	if ok {
		_ = os.RemoveAll(dir)
	}
}

// ReleaseAll deletes every remaining artifact. The pipeline defers this so
// cleanup happens on all exit paths.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	dirs := m.dirs
	m.dirs = make(map[string]string)
	m.mu.Unlock()
	for _, dir := range dirs {
		_ = os.RemoveAll(dir)
	}
}

// Owned returns the artifact paths still held, for tests and diagnostics.
func (m *Manager) Owned() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.dirs))
	for p := range m.dirs {
		out = append(out, p)
	}
	return out
}
