package service

import "sync"

// IconIndex maps coin ids to locally cached icon files.
type IconIndex struct {
	mu    sync.RWMutex
	paths map[string]string
}

// NewIconIndex creates an empty index
func NewIconIndex() *IconIndex {
	return &IconIndex{paths: make(map[string]string)}
}

// Load merges a batch of id -> path entries
func (x *IconIndex) Load(paths map[string]string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for id, p := range paths {
		x.paths[id] = p
	}
}

// Set records the icon path for one coin
func (x *IconIndex) Set(coinID, path string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.paths[coinID] = path
}

// Delete forgets the icon for one coin
func (x *IconIndex) Delete(coinID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	delete(x.paths, coinID)
}

// Lookup returns the icon path for a coin
func (x *IconIndex) Lookup(coinID string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	p, ok := x.paths[coinID]
	return p, ok
}

// Len returns the number of indexed icons
func (x *IconIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return len(x.paths)
}
