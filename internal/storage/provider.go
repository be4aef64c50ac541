// Package storage defines the wallpaper file-system abstraction.
package storage

// Provider is the interface for wallpaper file operations. All paths are
// slash-separated and relative to the provider root.
type Provider interface {
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// ListDirs returns the names of the immediate subdirectories of dir,
	// skipping hidden ones. A missing dir yields an empty list.
	ListDirs(dir string) ([]string, error)
	// Abs resolves path to an absolute local path.
	Abs(path string) (string, error)
}
