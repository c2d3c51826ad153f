package tc

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestResolver(t *testing.T, entries map[string][]byte) *archiveResolver {
	t.Helper()
	data := buildZip(t, entries)
	ar, err := newArchiveResolver(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return ar
}

func Test_archiveResolver_exactMatch(t *testing.T) {
	ar := newTestResolver(t, map[string][]byte{
		"tc001.pdf":       []byte("root copy"),
		"certs/tc001.pdf": []byte("nested copy"),
	})

	data, err := ar.lookup("certs/tc001.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("nested copy"), data)

	data, err = ar.lookup("tc001.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("root copy"), data)
}

func Test_archiveResolver_baseNameFallback(t *testing.T) {
	ar := newTestResolver(t, map[string][]byte{
		"2025/certs/tc002.pdf": []byte("pdf bytes"),
	})

	data, err := ar.lookup("tc002.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)
}

func Test_archiveResolver_ambiguousBaseName(t *testing.T) {
	ar := newTestResolver(t, map[string][]byte{
		"2024/tc003.pdf": []byte("old"),
		"2025/tc003.pdf": []byte("new"),
	})

	_, err := ar.lookup("tc003.pdf")
	assert.Equal(t, errAmbiguousDocument, err)
}

func Test_archiveResolver_notFound(t *testing.T) {
	ar := newTestResolver(t, map[string][]byte{"tc001.pdf": []byte("x")})

	_, err := ar.lookup("nope.pdf")
	assert.Equal(t, errDocumentNotFound, err)
}

func Test_archiveResolver_backslashNormalization(t *testing.T) {
	ar := newTestResolver(t, map[string][]byte{
		"certs/tc004.pdf": []byte("pdf bytes"),
	})

	data, err := ar.lookup(`certs\tc004.pdf`)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)
}

func Test_archiveResolver_skipsDirectories(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("certs/")
	require.NoError(t, err)
	w, err := zw.Create("certs/tc005.pdf")
	require.NoError(t, err)
	_, err = w.Write([]byte("pdf bytes"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	ar, err := newArchiveResolver(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	_, err = ar.lookup("certs")
	assert.Equal(t, errDocumentNotFound, err)

	data, err := ar.lookup("tc005.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)
}

func Test_newArchiveResolver_corruptArchive(t *testing.T) {
	junk := []byte("this is not a zip file at all")
	_, err := newArchiveResolver(bytes.NewReader(junk), int64(len(junk)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening archive")
}
