package nifti

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVolume() *Image {
	img := &Image{Dims: [3]int{3, 4, 2}}
	img.Data = make([]float64, 3*4*2)
	for i := range img.Data {
		img.Data[i] = float64(i)
	}
	img.Affine = [4][4]float64{
		{-1.5, 0, 0, 90},
		{0, 1.5, 0, -126},
		{0, 0, 1.5, -72},
		{0, 0, 0, 1},
	}
	return img
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spmT_0001.nii")

	orig := testVolume()
	orig.Data[5] = math.NaN()
	require.NoError(t, Save(path, orig))

	img, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, orig.Dims, img.Dims)
	require.Len(t, img.Data, len(orig.Data))
	for i := range orig.Data {
		if math.IsNaN(orig.Data[i]) {
			assert.True(t, math.IsNaN(img.Data[i]), "voxel %d should stay NaN", i)
		} else {
			assert.InDelta(t, orig.Data[i], img.Data[i], 1e-6)
		}
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			assert.InDelta(t, orig.Affine[r][c], img.Affine[r][c], 1e-6)
		}
	}
}

func TestIndexUnravel(t *testing.T) {
	img := testVolume()
	for idx := 0; idx < len(img.Data); idx++ {
		i, j, k := img.Unravel(idx)
		assert.Equal(t, idx, img.Index(i, j, k))
	}

	// Storage order is x fastest
	assert.Equal(t, 1, img.Index(1, 0, 0))
	assert.Equal(t, 3, img.Index(0, 1, 0))
	assert.Equal(t, 12, img.Index(0, 0, 1))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not a nifti file"))
	assert.Error(t, err)

	junk := make([]byte, 400)
	_, err = Decode(junk)
	assert.Error(t, err)
}
