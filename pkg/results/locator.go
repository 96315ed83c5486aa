// Package results discovers statistical result maps in an analysis output
// directory and associates each with the contrast that produced it.
//
// Discovery is driven by a declarative pattern table per correction method;
// contrast association tries a positional numeric suffix first, then exact
// and fuzzy name matching against the design metadata.
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
	"github.com/MRI-Lab-Graz/cat-12/pkg/config"
)

// Corrections is the fixed evaluation order of the correction buckets.
var Corrections = []models.Correction{
	models.CorrectionFWE,
	models.CorrectionFDR,
	models.CorrectionUncorrected,
}

// Locator enumerates candidate result maps per correction method.
type Locator struct {
	Dir      string
	Modality models.Modality

	cfg *config.Config
}

// NewLocator checks the results directory and infers the run modality: any
// .gii file switches the whole run to surface mode.
func NewLocator(dir string, cfg *config.Config) (*Locator, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	modality := models.Volume
	if surf, _ := filepath.Glob(filepath.Join(dir, "*.gii")); len(surf) > 0 {
		modality = models.Surface
	}

	return &Locator{Dir: dir, Modality: modality, cfg: cfg}, nil
}

// Ext returns the result file extension for the detected modality.
func (l *Locator) Ext() string {
	if l.Modality == models.Surface {
		return ".gii"
	}
	return ".nii"
}

// HasTFCE reports whether any TFCE output exists in the directory.
func (l *Locator) HasTFCE() bool {
	matches, _ := filepath.Glob(filepath.Join(l.Dir, "TFCE*"))
	return len(matches) > 0
}

// Locate returns the deduplicated, sorted candidate files for one
// correction bucket. Double-threshold (pkFWE) files only ever surface in
// the FWE bucket, whatever other pattern they happen to match.
func (l *Locator) Locate(corr models.Correction) []string {
	seen := make(map[string]bool)
	for _, pattern := range l.cfg.PatternsFor(corr) {
		matches, err := filepath.Glob(filepath.Join(l.Dir, pattern+l.Ext()))
		if err != nil {
			log.Warnf("Bad pattern %q for %s: %v", pattern, corr, err)
			continue
		}
		for _, m := range matches {
			seen[m] = true
		}
	}

	var files []string
	for f := range seen {
		if corr != models.CorrectionFWE && strings.Contains(filepath.Base(f), doubleThresholdMarker) {
			continue
		}
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Describe builds the immutable ResultFile for a discovered path.
func (l *Locator) Describe(path string, corr models.Correction) models.ResultFile {
	rf := models.ResultFile{
		Path:       path,
		Correction: corr,
		Modality:   l.Modality,
	}
	if dt, ok := ParseDoubleThreshold(filepath.Base(path)); ok {
		rf.ClusterSize = dt.ClusterSize
		rf.CorrectedPLevel = dt.Level
		rf.Bidirectional = dt.Bidirectional
	}
	return rf
}

// FindRawStatFile locates the unthresholded statistic map of a contrast,
// used to read the raw statistic value at the peak. Returns "" when absent.
func (l *Locator) FindRawStatFile(stat models.StatKind, contrast int) string {
	for _, prefix := range []string{fmt.Sprintf("spm%s_", stat), fmt.Sprintf("%s_", stat)} {
		p := filepath.Join(l.Dir, fmt.Sprintf("%s%04d%s", prefix, contrast, l.Ext()))
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
