// Package storage defines the output-directory abstraction the converter
// writes its artifacts through.
package storage

import "github.com/starford/oedify/internal/models"

// Provider is the interface for output file operations. Paths are relative
// to the provider root.
type Provider interface {
	// List returns metadata for every regular file under dir.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
