package annot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lh.test.annot")

	entries := []Entry{
		{Name: "unknown", R: 25, G: 5, B: 25},
		{Name: "precentral", R: 60, G: 20, B: 220},
		{Name: "postcentral", R: 220, G: 20, B: 20},
	}
	vertexEntries := []int32{0, 1, 1, 2, 0, 2}
	require.NoError(t, Save(path, vertexEntries, entries))

	p, err := Load(path)
	require.NoError(t, err)

	require.Len(t, p.Names, 3)
	assert.Equal(t, "precentral", p.Names[1])
	require.Len(t, p.Labels, len(vertexEntries))
	assert.Equal(t, vertexEntries, p.Labels)
}

func TestDecodeUnmatchedAnnotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rh.test.annot")

	entries := []Entry{{Name: "only", R: 1, G: 2, B: 3}}
	// Vertex 1 points outside the table and is written with annotation 0,
	// which no entry packs to
	require.NoError(t, Save(path, []int32{0, -1}, entries))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int32(0), p.Labels[0])
	assert.Equal(t, int32(-1), p.Labels[1])
}

func TestDecodeRejectsTruncated(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 2, 0, 0})
	assert.Error(t, err)
}
