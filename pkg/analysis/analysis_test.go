package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

var testThresholds = []models.Threshold{
	{P: 0.01, LogP: 2.0, Label: "Significant (p < 0.01)"},
	{P: 0.05, LogP: 1.30103, Label: "Significant (p < 0.05)"},
	{P: 0.1, LogP: 1.0, Label: "Trend (p < 0.1)"},
}

func TestEvaluateSingleElementAtEachCutoff(t *testing.T) {
	for _, thr := range testThresholds {
		data := make([]float64, 10)
		for i := range data {
			data[i] = math.NaN()
		}
		data[4] = thr.LogP + 1e-6

		evals := Evaluate(data, []models.Threshold{thr}, nil)
		require.Len(t, evals, 1, "threshold %v", thr.P)
		assert.Equal(t, 1, evals[0].Count)
		assert.InDelta(t, thr.LogP+1e-6, evals[0].PeakLogP, 1e-12)
		assert.Equal(t, 4, evals[0].PeakIndex)
	}
}

func TestEvaluateEmptyMaskProducesNothing(t *testing.T) {
	data := []float64{0.5, math.NaN(), 0.1}
	evals := Evaluate(data, testThresholds, nil)
	assert.Empty(t, evals)
}

func TestEvaluateMultipleThresholds(t *testing.T) {
	// 2.5 exceeds all three cutoffs; 1.1 only the trend cutoff
	data := []float64{math.NaN(), 1.1, 2.5}
	evals := Evaluate(data, testThresholds, nil)
	require.Len(t, evals, 3)

	assert.Equal(t, 0.01, evals[0].P)
	assert.Equal(t, 1, evals[0].Count)
	assert.Equal(t, 2, evals[0].PeakIndex)

	assert.Equal(t, 0.1, evals[2].P)
	assert.Equal(t, 2, evals[2].Count)
	assert.InDelta(t, 2.5, evals[2].PeakLogP, 1e-12)
}

func TestEvaluatePeakTieBreaksFirstOccurrence(t *testing.T) {
	data := []float64{1.5, 2.5, 2.5, 2.5}
	evals := Evaluate(data, testThresholds[1:2], nil)
	require.Len(t, evals, 1)
	assert.Equal(t, 1, evals[0].PeakIndex)
}

func TestEvaluateDoubleThresholdMatchesOwnLevelOnly(t *testing.T) {
	level := 0.05
	rf := &models.ResultFile{CorrectedPLevel: &level}
	data := []float64{math.NaN(), 0.001, 2.2}

	evals := Evaluate(data, testThresholds, rf)
	require.Len(t, evals, 1)
	assert.Equal(t, 0.05, evals[0].P)
	assert.Equal(t, "FWE (p < 0.05)", evals[0].Label)
	// Already-thresholded data: pass-through cutoff keeps every surviving
	// element, not just those above the table cutoff
	assert.Equal(t, 2, evals[0].Count)
	assert.Equal(t, 2, evals[0].PeakIndex)
}

func TestEvaluateDoubleThresholdUnknownLevel(t *testing.T) {
	level := 0.2 // not in the table
	rf := &models.ResultFile{CorrectedPLevel: &level}
	evals := Evaluate([]float64{3.0}, testThresholds, rf)
	assert.Empty(t, evals)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, DirectionPositive, Direction("Group A > Group B", models.StatT))
	assert.Equal(t, DirectionNegative, Direction("Group A < Group B", models.StatT))
	assert.Equal(t, DirectionNegative, Direction("Negative effect of age", models.StatT))
	assert.Equal(t, DirectionNegative, Direction("GM decrease over time", models.StatT))
	assert.Equal(t, DirectionBidirectional, Direction("Main effect", models.StatF))
	// Negative wording wins over the F statistic
	assert.Equal(t, DirectionNegative, Direction("decrease (F)", models.StatF))
}

func TestSortRecords(t *testing.T) {
	records := []models.SignificanceRecord{
		{PThreshold: 0.05, Correction: "Uncorrected", ContrastIndex: 1},
		{PThreshold: 0.01, Correction: "FDR", ContrastIndex: 2},
		{PThreshold: 0.01, Correction: "FWE", ContrastIndex: 2},
		{PThreshold: 0.01, Correction: "FWE", ContrastIndex: 1},
		{PThreshold: 0.05, Correction: "Double Threshold", ContrastIndex: 1},
	}
	SortRecords(records)

	assert.Equal(t, "FWE", records[0].Correction)
	assert.Equal(t, 1, records[0].ContrastIndex)
	assert.Equal(t, "FWE", records[1].Correction)
	assert.Equal(t, 2, records[1].ContrastIndex)
	assert.Equal(t, "FDR", records[2].Correction)
	assert.Equal(t, "Uncorrected", records[3].Correction)
	assert.Equal(t, "Double Threshold", records[4].Correction)
}
