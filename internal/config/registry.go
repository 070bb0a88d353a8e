package config

import (
	"path/filepath"
	"sync"
)

// Registry hands out one Store per file so every component sees the same
// in-memory view and write-backs do not race each other on disk.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// Open returns the shared Store for path, loading it on first use
func (r *Registry) Open(path string) (*Store, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[key]; ok {
		return s, nil
	}

	s, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	r.stores[key] = s
	return s, nil
}
