// Package filesystem is the single entry point for file access.
//
// Everything except the database drivers goes through API so tests can swap in an in-memory backend.
package filesystem

import (
	"sync"

	"github.com/spf13/afero"
)

var (
	mu      sync.RWMutex
	backend = afero.Afero{Fs: afero.NewOsFs()}
)

// API returns the active backend.
func API() afero.Afero {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetFs replaces the backend.
func SetFs(fs afero.Fs) {
	mu.Lock()
	defer mu.Unlock()
	backend = afero.Afero{Fs: fs}
}

// SetOsFs restores the operating system backend.
func SetOsFs() {
	SetFs(afero.NewOsFs())
}

// SetMemMapFs installs a volatile in-memory backend.
func SetMemMapFs() {
	SetFs(afero.NewMemMapFs())
}
