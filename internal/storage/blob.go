// Package storage gives read access to per-course workbooks that live next to
// the source store.
package storage

import (
	"io"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when no blob exists under the key.
var ErrNotFound = errors.New("blob not found")

type BlobStore interface {
	Get(key string) (io.ReadCloser, error)
	Put(key string, r io.Reader) (string, error) // returns canonical key
}
