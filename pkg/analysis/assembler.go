package analysis

import (
	"sort"
	"strings"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

// Direction labels, assigned from contrast-name heuristics and the
// statistic kind.
const (
	DirectionPositive      = "Positive"
	DirectionNegative      = "Negative"
	DirectionBidirectional = "Bidirectional (F)"
	DirectionTwoSided      = "Two-sided"
)

// negativeSenseWords mark contrasts that test a decrease. The " < " token
// catches names like "Patients < Controls".
var negativeSenseWords = []string{"negative", "decrease", " < "}

// Direction classifies a contrast: negative on a negative-sense name,
// bidirectional for F statistics, positive otherwise.
func Direction(contrastName string, stat models.StatKind) string {
	lower := strings.ToLower(contrastName)
	for _, w := range negativeSenseWords {
		if strings.Contains(lower, w) {
			return DirectionNegative
		}
	}
	if stat == models.StatF {
		return DirectionBidirectional
	}
	return DirectionPositive
}

// correctionPriority orders the report: FWE first, then FDR, then
// Uncorrected, anything else (Double Threshold) last.
func correctionPriority(label string) int {
	switch label {
	case string(models.CorrectionFWE):
		return 0
	case string(models.CorrectionFDR):
		return 1
	case string(models.CorrectionUncorrected):
		return 2
	default:
		return 3
	}
}

// SortRecords imposes the deterministic report order: ascending p
// threshold, then correction priority, then contrast index.
func SortRecords(records []models.SignificanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := &records[i], &records[j]
		if a.PThreshold != b.PThreshold {
			return a.PThreshold < b.PThreshold
		}
		pa, pb := correctionPriority(a.Correction), correctionPriority(b.Correction)
		if pa != pb {
			return pa < pb
		}
		return a.ContrastIndex < b.ContrastIndex
	})
}
