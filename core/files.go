package core

import "io"

// FileStore is any service that can persist uploaded media files.
type FileStore interface {
	// Save writes r under the given relative path and returns the stored path.
	Save(path string, r io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
	Exists(path string) (bool, error)
}
