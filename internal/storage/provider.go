// Package storage defines the journal file-system abstraction.
package storage

import "time"

// Entry describes one journal markdown file.
type Entry struct {
	Path      string    // absolute path
	Title     string    // base name without the .md extension
	UpdatedAt time.Time
}

// Provider is the interface for journal file operations. Paths may be
// relative to the journal root or absolute, as long as they resolve inside it.
type Provider interface {
	// Root returns the absolute journal directory.
	Root() string
	// Abs resolves path against the root, rejecting anything outside it.
	Abs(path string) (string, error)
	// List returns the markdown files directly inside the root, skipping
	// reserved names that start with "_".
	List() ([]Entry, error)
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
