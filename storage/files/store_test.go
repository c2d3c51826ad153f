package files

import (
	"io/ioutil"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveOpenRemove(t *testing.T) {
	s := NewMemStore()

	stored, err := s.Save("tc/TC-001/cert.pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, "tc/TC-001/cert.pdf", stored)

	ok, err := s.Exists(stored)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(stored)
	require.NoError(t, err)
	data, err := ioutil.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "pdf bytes", string(data))

	require.NoError(t, s.Remove(stored))
	ok, err = s.Exists(stored)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := NewMemStore()

	_, err := s.Save("docs/a.txt", strings.NewReader("old"))
	require.NoError(t, err)
	_, err = s.Save("docs/a.txt", strings.NewReader("new"))
	require.NoError(t, err)

	rc, err := s.Open("docs/a.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := ioutil.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestStore_LeadingSlashStripped(t *testing.T) {
	s := NewMemStore()

	stored, err := s.Save("/docs/b.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "docs/b.txt", stored)

	ok, err := s.Exists("docs/b.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_RejectsInvalidPaths(t *testing.T) {
	s := NewMemStore()

	for _, path := range []string{"", "/", "../etc/passwd", "docs/../../etc/passwd"} {
		_, err := s.Save(path, strings.NewReader("x"))
		assert.Error(t, err, "Save(%q)", path)

		_, err = s.Open(path)
		assert.Error(t, err, "Open(%q)", path)
	}
}

func TestStore_RemoveMissingFileIsNoop(t *testing.T) {
	s := NewMemStore()
	assert.NoError(t, s.Remove("docs/never-saved.txt"))
}

func TestStore_OpenMissingFile(t *testing.T) {
	s := NewMemStore()
	_, err := s.Open("docs/never-saved.txt")
	assert.Error(t, err)
}
