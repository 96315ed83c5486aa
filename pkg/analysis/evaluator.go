// Package analysis evaluates thresholds against loaded statistical maps and
// assembles significance records from the pieces the other packages supply.
package analysis

import (
	"fmt"
	"math"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

// doubleThresholdCutoff is the minimal pass-through cutoff applied to files
// that arrive already thresholded by the double-threshold tool.
const doubleThresholdCutoff = 1e-4

// levelTolerance is the float tolerance when matching a double-threshold
// file's decoded level against the threshold table.
const levelTolerance = 1e-3

// Evaluation is the outcome of one (file, threshold) pair with at least one
// significant element. Pairs with an empty mask produce no Evaluation.
type Evaluation struct {
	// P and LogP are the threshold applied; for double-threshold files LogP
	// is the pass-through cutoff
	P    float64
	LogP float64

	// Label is the human-readable significance level
	Label string

	// Count is the number of significant elements
	Count int

	// PeakLogP is the maximum value under the mask
	PeakLogP float64

	// PeakIndex is the flat index of the maximum, first occurrence in
	// storage order
	PeakIndex int
}

// Evaluate runs every configured threshold against a map. Double-threshold
// files are special-cased: they produce at most one evaluation, at the
// level decoded from their name, with the pass-through cutoff.
func Evaluate(data []float64, thresholds []models.Threshold, rf *models.ResultFile) []Evaluation {
	if rf != nil && rf.CorrectedPLevel != nil {
		return evaluateDoubleThreshold(data, thresholds, *rf.CorrectedPLevel)
	}

	var evals []Evaluation
	for _, t := range thresholds {
		count, peak, peakIdx := maskStats(data, t.LogP)
		if count == 0 {
			continue
		}
		evals = append(evals, Evaluation{
			P:         t.P,
			LogP:      t.LogP,
			Label:     t.Label,
			Count:     count,
			PeakLogP:  peak,
			PeakIndex: peakIdx,
		})
	}
	return evals
}

func evaluateDoubleThreshold(data []float64, thresholds []models.Threshold, level float64) []Evaluation {
	matched := false
	for _, t := range thresholds {
		if math.Abs(t.P-level) <= levelTolerance {
			matched = true
			break
		}
	}
	if !matched {
		return nil
	}

	count, peak, peakIdx := maskStats(data, doubleThresholdCutoff)
	if count == 0 {
		return nil
	}
	return []Evaluation{{
		P:         level,
		LogP:      doubleThresholdCutoff,
		Label:     fmt.Sprintf("FWE (p < %g)", level),
		Count:     count,
		PeakLogP:  peak,
		PeakIndex: peakIdx,
	}}
}

// maskStats computes the significance mask "not NaN and value >= cutoff"
// in one pass: element count, maximum and the index of its first
// occurrence in storage order.
func maskStats(data []float64, cutoff float64) (count int, peak float64, peakIdx int) {
	peak = math.Inf(-1)
	peakIdx = -1
	for i, v := range data {
		if math.IsNaN(v) || v < cutoff {
			continue
		}
		count++
		if v > peak {
			peak = v
			peakIdx = i
		}
	}
	return
}
