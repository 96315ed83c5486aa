package plot

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

func volumeMap() *models.StatMap {
	m := &models.StatMap{Dims: [3]int{6, 6, 6}}
	m.Data = make([]float64, 216)
	for i := range m.Data {
		m.Data[i] = math.NaN()
	}
	m.Data[50] = 2.5
	m.Data[100] = 1.4
	return m
}

func TestKeyFormat(t *testing.T) {
	assert.Equal(t, "3_FWE_1.30", Key(3, "FWE", 1.30103))
	assert.Equal(t, "1_Double Threshold_0.00", Key(1, "Double Threshold", 0.0001))
}

func TestRenderVolumeProducesPNG(t *testing.T) {
	data, err := Render(volumeMap(), "Con 1: FWE (p < 0.05)", 1.30103, 2)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Greater(t, img.Bounds().Dy(), titleBarHeight)
}

func TestRenderSurfaceProducesPNG(t *testing.T) {
	data := make([]float64, 200)
	for i := range data {
		data[i] = math.NaN()
	}
	data[10] = 3.0
	data[150] = 1.5
	m := &models.StatMap{Data: data, Surface: true}

	out, err := Render(m, "Con 2: Uncorrected (p < 0.10)", 1.0, 1)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}

func TestRenderRejectsEmptyMap(t *testing.T) {
	_, err := Render(&models.StatMap{}, "empty", 1.0, 1)
	assert.Error(t, err)

	_, err = Render(&models.StatMap{Data: []float64{1}, Dims: [3]int{2, 2, 2}}, "short", 1.0, 1)
	assert.Error(t, err)
}

func TestCacheSingleAttemptPerKey(t *testing.T) {
	c := NewCache(1)
	key := Key(1, "FWE", 1.30103)

	// First attempt fails and must not be retried
	c.Render(key, &models.StatMap{}, "broken", 1.0)
	assert.False(t, c.Has(key))

	c.Render(key, volumeMap(), "now valid", 1.0)
	assert.False(t, c.Has(key), "failed key must stay absent")

	other := Key(2, "FWE", 1.30103)
	c.Render(other, volumeMap(), "valid", 1.0)
	assert.True(t, c.Has(other))
	assert.Equal(t, 1, c.Len())
	assert.NotEmpty(t, c.Images()[other])
}
