package files

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/mwalimu/shule/core"
)

// Store persists media files under a single root directory. Callers deal in
// slash-separated paths relative to the root; the root itself never leaks out.
type Store struct {
	fs   afero.Fs
	root string
}

var _ core.FileStore = (*Store)(nil)

func NewStore(conf *core.Config) *Store {
	return &Store{fs: afero.NewOsFs(), root: conf.Media.Root}
}

// NewMemStore returns a Store backed by an in-memory filesystem, for tests.
func NewMemStore() *Store {
	return &Store{fs: afero.NewMemMapFs(), root: "/media"}
}

func (s *Store) abs(path string) (string, error) {
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")
	if path == "" || strings.Contains(path, "..") {
		return "", errors.Errorf("invalid media path %q", path)
	}
	return filepath.Join(s.root, filepath.FromSlash(path)), nil
}

func (s *Store) Save(path string, r io.Reader) (string, error) {
	abs, err := s.abs(path)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", errors.Wrap(err, "creating media directory")
	}
	if err := afero.WriteReader(s.fs, abs, r); err != nil {
		return "", errors.Wrap(err, "writing media file")
	}
	return strings.TrimPrefix(filepath.ToSlash(path), "/"), nil
}

func (s *Store) Open(path string) (io.ReadCloser, error) {
	abs, err := s.abs(path)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(abs)
	if err != nil {
		return nil, errors.Wrap(err, "opening media file")
	}
	return f, nil
}

func (s *Store) Remove(path string) error {
	abs, err := s.abs(path)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(abs); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing media file")
	}
	return nil
}

func (s *Store) Exists(path string) (bool, error) {
	abs, err := s.abs(path)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, abs)
}
