package results

import (
	"regexp"
	"strconv"
	"strings"
)

// doubleThresholdMarker flags files produced by the cluster-extent plus
// peak-FWE thresholding tool.
const doubleThresholdMarker = "pkFWE"

// DoubleThresholdLabel is the correction label shown for such files when
// the run filters on them.
const DoubleThresholdLabel = "Double Threshold"

var (
	clusterSizeRe = regexp.MustCompile(`_k(\d+)_`)
	pkFWERe       = regexp.MustCompile(`pkFWE(\d+)`)
)

// DoubleThresholdInfo carries everything a double-threshold file name
// encodes: the cluster-extent threshold after the _k marker, the corrected
// significance level after the pkFWE marker (integer/100), and the
// bidirectionality marker.
type DoubleThresholdInfo struct {
	ClusterSize   *int
	Level         *float64
	Bidirectional bool
}

// ParseDoubleThreshold decodes the convention from a base filename. The
// second return value is false for ordinary result files.
func ParseDoubleThreshold(base string) (DoubleThresholdInfo, bool) {
	if !strings.Contains(base, doubleThresholdMarker) {
		return DoubleThresholdInfo{}, false
	}

	var info DoubleThresholdInfo
	if m := clusterSizeRe.FindStringSubmatch(base); m != nil {
		if k, err := strconv.Atoi(m[1]); err == nil {
			info.ClusterSize = &k
		}
	}
	if m := pkFWERe.FindStringSubmatch(base); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			level := float64(v) / 100.0
			info.Level = &level
		}
	}
	info.Bidirectional = strings.Contains(base, "_bi")
	return info, true
}
