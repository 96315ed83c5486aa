package results

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Resolver recovers the originating contrast index from a result filename.
type Resolver struct {
	Contrasts map[int]models.Contrast
}

// Resolve tries, in order: the positional numeric suffix of log-p style
// names, an exact substring match of the contrast name with spaces turned
// into underscores, and a fuzzy match with all non-alphanumeric characters
// normalized away. Returns false when no strategy matches; such files are
// skipped by the caller.
func (r *Resolver) Resolve(base, ext string) (int, bool) {
	if num, ok := positionalSuffix(base, ext); ok {
		return num, true
	}

	// The thresholding tool replaces spaces with underscores but keeps
	// other characters
	for _, num := range r.sortedIndices() {
		name := strings.ReplaceAll(r.Contrasts[num].Name, " ", "_")
		if name != "" && strings.Contains(base, name) {
			return num, true
		}
	}

	cleanBase := nonAlnumRe.ReplaceAllString(base, "_")
	for _, num := range r.sortedIndices() {
		cleanName := nonAlnumRe.ReplaceAllString(r.Contrasts[num].Name, "_")
		if cleanName != "" && strings.Contains(cleanBase, cleanName) {
			return num, true
		}
	}

	log.Warnf("Could not resolve %s to a contrast, skipping", base)
	return 0, false
}

// positionalSuffix parses the 4-digit zero-padded contrast number that
// follows a log-p infix, e.g. TFCE_log_pFWE_0003.nii.
func positionalSuffix(base, ext string) (int, bool) {
	if !strings.Contains(base, "TFCE_log_p") && !strings.Contains(base, "_log_p") {
		return 0, false
	}
	stem := strings.TrimSuffix(base, ext)
	parts := strings.Split(stem, "_")
	num, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, false
	}
	return num, true
}

// sortedIndices yields the contrast numbers in ascending order so that
// resolution is independent of map iteration order.
func (r *Resolver) sortedIndices() []int {
	indices := make([]int, 0, len(r.Contrasts))
	for num := range r.Contrasts {
		indices = append(indices, num)
	}
	sort.Ints(indices)
	return indices
}

// ContrastName returns the display name of a contrast, falling back to a
// positional label when the design metadata lacks it.
func (r *Resolver) ContrastName(num int) string {
	if c, ok := r.Contrasts[num]; ok && c.Name != "" {
		return c.Name
	}
	return "Contrast " + strconv.Itoa(num)
}

// ContrastStat returns the statistic kind of a contrast, defaulting to T.
func (r *Resolver) ContrastStat(num int) models.StatKind {
	if c, ok := r.Contrasts[num]; ok && c.Stat != "" {
		return c.Stat
	}
	return models.StatT
}
