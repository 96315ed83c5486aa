package gifti

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logP_contrast.gii")

	data := []float64{0.5, 1.2, math.NaN(), 2.5, 0}
	require.NoError(t, Save(path, data))

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, len(data))
	for i := range data {
		if math.IsNaN(data[i]) {
			assert.True(t, math.IsNaN(got[i]))
		} else {
			assert.InDelta(t, data[i], got[i], 1e-6)
		}
	}
}

func TestDecodeASCII(t *testing.T) {
	doc := `<GIFTI Version="1.0">
 <DataArray DataType="NIFTI_TYPE_FLOAT32" Dim0="3" Encoding="ASCII">
  <Data>1.5 2.0 -0.25</Data>
 </DataArray>
</GIFTI>`
	got, err := Decode([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.0, -0.25}, got)
}

func TestDecodeGzipBase64(t *testing.T) {
	raw := new(bytes.Buffer)
	require.NoError(t, binary.Write(raw, binary.LittleEndian, []float32{3.5, -1}))

	var zbuf bytes.Buffer
	zw := gzip.NewWriter(&zbuf)
	_, err := zw.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	doc := fmt.Sprintf(`<GIFTI Version="1.0">
 <DataArray DataType="NIFTI_TYPE_FLOAT32" Dim0="2" Encoding="GZipBase64Binary" Endian="LittleEndian">
  <Data>%s</Data>
 </DataArray>
</GIFTI>`, base64.StdEncoding.EncodeToString(zbuf.Bytes()))

	got, err := Decode([]byte(doc))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 3.5, got[0], 1e-6)
	assert.InDelta(t, -1.0, got[1], 1e-6)
}

func TestDecodeBase64WrappedAcrossLines(t *testing.T) {
	raw := new(bytes.Buffer)
	require.NoError(t, binary.Write(raw, binary.LittleEndian, []float32{1.25, -2, 0.5}))

	// Writers are free to wrap the payload inside <Data>
	enc := base64.StdEncoding.EncodeToString(raw.Bytes())
	wrapped := enc[:4] + "\n   " + enc[4:8] + "\n\t" + enc[8:]

	doc := fmt.Sprintf(`<GIFTI Version="1.0">
 <DataArray DataType="NIFTI_TYPE_FLOAT32" Dim0="3" Encoding="Base64Binary" Endian="LittleEndian">
  <Data>
%s
  </Data>
 </DataArray>
</GIFTI>`, wrapped)

	got, err := Decode([]byte(doc))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.InDelta(t, 1.25, got[0], 1e-6)
	assert.InDelta(t, -2.0, got[1], 1e-6)
	assert.InDelta(t, 0.5, got[2], 1e-6)
}

func TestDecodeEmptyDocument(t *testing.T) {
	_, err := Decode([]byte(`<GIFTI Version="1.0"></GIFTI>`))
	assert.Error(t, err)
}
