package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
	"github.com/MRI-Lab-Graz/cat-12/pkg/config"
	"github.com/MRI-Lab-Graz/cat-12/pkg/nifti"
)

// writeVolume drops a float32 NIfTI into dir with a single finite voxel at
// (1, 2, 1) and NaN everywhere else.
func writeVolume(t *testing.T, dir, name string, peak float64) {
	t.Helper()
	img := &nifti.Image{
		Dims: [3]int{4, 4, 4},
		Affine: [4][4]float64{
			{2, 0, 0, -3},
			{0, 2, 0, -3},
			{0, 0, 2, -3},
			{0, 0, 0, 1},
		},
		Data: make([]float64, 64),
	}
	for i := range img.Data {
		img.Data[i] = math.NaN()
	}
	img.Data[img.Index(1, 2, 1)] = peak
	require.NoError(t, nifti.Save(filepath.Join(dir, name), img))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	// Point the atlas base at an empty directory so no atlas resolves
	cfg.Atlas.BasePath = t.TempDir()
	cfg.Atlas.Volumetric = nil
	cfg.Atlas.Surface = nil
	cfg.Plot.Scale = 1
	return cfg
}

func setupResultsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeVolume(t, dir, "TFCE_log_pFWE_0001.nii", 2.5)
	writeVolume(t, dir, "spmT_0001.nii", 4.2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contrasts.yaml"),
		[]byte("- name: \"Group A > Group B\"\n  stat: T\n"), 0644))
	return dir
}

func TestProcessVolumePipeline(t *testing.T) {
	dir := setupResultsDir(t)
	out := filepath.Join(t.TempDir(), "report.html")

	gen := NewGenerator(&Params{
		ResultsDir: dir,
		OutputHTML: out,
		FilterMode: "all",
		Config:     testConfig(t),
	})
	require.NoError(t, gen.Process())

	recs := gen.Records()
	require.Len(t, recs, 3, "a 2.5 log-p peak passes all three thresholds")

	for _, rec := range recs {
		assert.Equal(t, 1, rec.ContrastIndex)
		assert.Equal(t, "Group A > Group B", rec.ContrastName)
		assert.Equal(t, "FWE", rec.Correction)
		assert.Equal(t, "Positive", rec.Direction)
		assert.Equal(t, 1, rec.SignificantCount)
		assert.InDelta(t, 2.5, rec.PeakLogP, 1e-6)
		assert.InDelta(t, 4.2, rec.PeakStat, 1e-4)
		require.NotNil(t, rec.PeakMNI)
		// Voxel (1, 2, 1) under diag(2) with -3 translation
		assert.InDelta(t, -1, rec.PeakMNI[0], 1e-6)
		assert.InDelta(t, 1, rec.PeakMNI[1], 1e-6)
		assert.InDelta(t, -1, rec.PeakMNI[2], 1e-6)
	}

	// Records come out ordered by ascending significance level
	assert.InDelta(t, 0.01, recs[0].PThreshold, 1e-9)
	assert.InDelta(t, 0.05, recs[1].PThreshold, 1e-9)
	assert.InDelta(t, 0.1, recs[2].PThreshold, 1e-9)

	html, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := string(html)
	assert.Contains(t, doc, "Group A &gt; Group B")
	assert.Contains(t, doc, "badge-fwe")
	assert.NotContains(t, doc, "No TFCE results found", "TFCE files are present")
}

func TestProcessDeterministic(t *testing.T) {
	dir := setupResultsDir(t)
	cfg := testConfig(t)

	run := func() []models.SignificanceRecord {
		gen := NewGenerator(&Params{
			ResultsDir: dir,
			OutputHTML: filepath.Join(t.TempDir(), "report.html"),
			Config:     cfg,
		})
		require.NoError(t, gen.Process())
		return gen.Records()
	}

	assert.Equal(t, run(), run())
}

func TestProcessMissingDir(t *testing.T) {
	gen := NewGenerator(&Params{
		ResultsDir: filepath.Join(t.TempDir(), "nope"),
		OutputHTML: filepath.Join(t.TempDir(), "report.html"),
		Config:     testConfig(t),
	})
	require.Error(t, gen.Process())
}

func TestProcessSPMTFilterExcludesTFCE(t *testing.T) {
	dir := t.TempDir()
	writeVolume(t, dir, "TFCE_log_pFWE_0001.nii", 2.5)

	gen := NewGenerator(&Params{
		ResultsDir: dir,
		OutputHTML: filepath.Join(t.TempDir(), "report.html"),
		FilterMode: "spmt",
		Config:     testConfig(t),
	})
	require.NoError(t, gen.Process())
	assert.Empty(t, gen.Records())
}

func TestProcessDoubleThresholdMode(t *testing.T) {
	dir := t.TempDir()
	writeVolume(t, dir, "logP_Main_effect_k50_pkFWE05_bi.nii", 2.5)
	// An ordinary FWE map must not surface in this mode
	writeVolume(t, dir, "TFCE_log_pFWE_0001.nii", 2.5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contrasts.yaml"),
		[]byte("- name: Main effect\n  stat: T\n"), 0644))

	gen := NewGenerator(&Params{
		ResultsDir: dir,
		OutputHTML: filepath.Join(t.TempDir(), "report.html"),
		FilterMode: "double_threshold",
		Config:     testConfig(t),
	})
	require.NoError(t, gen.Process())

	recs := gen.Records()
	require.Len(t, recs, 1, "one record at the level decoded from the name")

	rec := recs[0]
	assert.Equal(t, 1, rec.ContrastIndex)
	assert.Equal(t, "Main effect", rec.ContrastName)
	assert.Equal(t, "Double Threshold", rec.Correction)
	assert.Equal(t, models.CorrectionFWE, rec.OrigCorrection)
	assert.Equal(t, "Two-sided", rec.Direction)
	assert.InDelta(t, 0.05, rec.PThreshold, 1e-9)
	assert.Equal(t, "FWE (p < 0.05)", rec.PLabel)
	require.NotNil(t, rec.ClusterSize)
	assert.Equal(t, 50, *rec.ClusterSize)
	assert.Equal(t, 1, rec.SignificantCount)
	assert.InDelta(t, 2.5, rec.PeakLogP, 1e-6)
}

func TestProcessDoubleThresholdSkipsOneSidedFContrast(t *testing.T) {
	dir := t.TempDir()
	// One-sided map of an F contrast: sidedness mismatch, dropped
	writeVolume(t, dir, "logP_Interaction_k50_pkFWE05.nii", 2.5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contrasts.yaml"),
		[]byte("- name: Interaction\n  stat: F\n"), 0644))

	gen := NewGenerator(&Params{
		ResultsDir: dir,
		OutputHTML: filepath.Join(t.TempDir(), "report.html"),
		FilterMode: "double_threshold",
		Config:     testConfig(t),
	})
	require.NoError(t, gen.Process())
	assert.Empty(t, gen.Records())
}

func TestNormalizeFilterMode(t *testing.T) {
	assert.Equal(t, "all", NormalizeFilterMode(""))
	assert.Equal(t, "all", NormalizeFilterMode("ALL"))
	assert.Equal(t, "tfce", NormalizeFilterMode(" TFCE "))
	assert.Equal(t, "spmt", NormalizeFilterMode("spmt"))
	assert.Equal(t, "double_threshold", NormalizeFilterMode("double_threshold"))
	assert.Equal(t, "all", NormalizeFilterMode("bogus"))
}

func TestWriteXLSX(t *testing.T) {
	dir := setupResultsDir(t)
	xlsx := filepath.Join(t.TempDir(), "records.xlsx")

	gen := NewGenerator(&Params{
		ResultsDir: dir,
		OutputHTML: filepath.Join(t.TempDir(), "report.html"),
		XLSXPath:   xlsx,
		Config:     testConfig(t),
	})
	require.NoError(t, gen.Process())

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus three records")
	assert.Equal(t, "Contrast", rows[0][0])
	assert.Equal(t, "Group A > Group B", rows[1][1])
}

func TestRenderEmptyResults(t *testing.T) {
	dir := t.TempDir()
	// A stray non-statistical NIfTI keeps the directory valid but yields
	// no matches in any bucket
	writeVolume(t, dir, "mask.nii", 1.0)

	out := filepath.Join(t.TempDir(), "report.html")
	gen := NewGenerator(&Params{
		ResultsDir: dir,
		OutputHTML: out,
		Config:     testConfig(t),
	})
	require.NoError(t, gen.Process())
	assert.Empty(t, gen.Records())

	html, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(html), "No TFCE results found"))
}
