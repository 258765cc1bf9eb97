// Package selfwrite recognizes file-change notifications caused by our own writes.
package selfwrite

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sync"
)

// DefaultCapacity bounds the number of remembered paths.
const DefaultCapacity = 1024

// Fingerprint returns the hex-encoded SHA-256 digest of data.
func Fingerprint(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Registry maps an absolute file path to the fingerprint of the content last
// written (or last synced) there. When full, the least recently touched path
// is forgotten.
type Registry struct {
	mu    sync.Mutex
	cap   int
	seq   uint64
	items map[string]entry
}

type entry struct {
	hash string
	seq  uint64
}

// New creates a registry holding at most capacity paths (DefaultCapacity if <= 0).
func New(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{cap: capacity, items: make(map[string]entry)}
}

// Record remembers data as the content about to be written to path.
// It must be called before the write.
func (r *Registry) Record(path string, data []byte) {
	r.set(path, Fingerprint(data))
}

// Observe remembers data as the content just synced from path, so a repeated
// notification for the same content is ignored.
func (r *Registry) Observe(path string, data []byte) {
	r.set(path, Fingerprint(data))
}

// IsEcho reports whether data matches the last recorded fingerprint for path.
func (r *Registry) IsEcho(path string, data []byte) bool {
	key := filepath.Clean(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[key]
	return ok && e.hash == Fingerprint(data)
}

// Forget drops the entry for path.
func (r *Registry) Forget(path string) {
	r.mu.Lock()
	delete(r.items, filepath.Clean(path))
	r.mu.Unlock()
}

// size returns the number of remembered paths.
func (r *Registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Registry) set(path, hash string) {
	key := filepath.Clean(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.items[key] = entry{hash: hash, seq: r.seq}
	if len(r.items) > r.cap {
		r.evictOldest()
	}
}

// evictOldest is linear in the number of entries; the cap keeps that small.
func (r *Registry) evictOldest() {
	var (
		oldest string
		low    uint64
		first  = true
	)
	for k, e := range r.items {
		if first || e.seq < low {
			oldest, low, first = k, e.seq, false
		}
	}
	delete(r.items, oldest)
}
