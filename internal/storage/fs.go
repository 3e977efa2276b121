package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FSStore keeps blobs as files under a base directory. Keys are
// slash-separated and may not leave the base.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "."
	}
	info, err := os.Stat(base)
	if err != nil {
		return nil, errors.Wrapf(err, "spreadsheet dir %s", base)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("spreadsheet dir %s is not a directory", base)
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if key == "" || clean == string(filepath.Separator) {
		return "", errors.New("empty key")
	}
	return filepath.Join(s.base, strings.TrimPrefix(clean, string(filepath.Separator))), nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", key)
	}
	return f, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	dst, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Wrap(err, "mkdir")
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", key)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", errors.Wrapf(err, "write %s", key)
	}
	return key, nil
}
