package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_PutGet(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key, err := s.Put("course/more-fields-1.xlsx", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, "course/more-fields-1.xlsx", key)

	rc, err := s.Get(key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))
}

func TestFSStore_NotFound(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	_, err = s.Get("missing.xlsx")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_KeysStayInBase(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base")
	require.NoError(t, os.Mkdir(base, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret"), []byte("x"), 0o644))

	s, err := NewFSStore(base)
	require.NoError(t, err)
	_, err = s.Get("../secret")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get("")
	assert.Error(t, err)
}

func TestNewFSStore_RequiresDir(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(f, nil, 0o644))

	_, err := NewFSStore(f)
	assert.Error(t, err)
	_, err = NewFSStore(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestErrNotFound_SurvivesWrapping(t *testing.T) {
	err := errors.Wrapf(ErrNotFound, "spreadsheet %s", "more-fields-1.xlsx")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}
