// Package summary prints a quick significance table for the TFCE FWE maps
// of a results directory, one line per contrast at p < 0.05.
package summary

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/MRI-Lab-Graz/cat-12/pkg/design"
	"github.com/MRI-Lab-Graz/cat-12/pkg/nifti"
)

// significanceLogP is -log10(0.05), the single cutoff of the summary.
const significanceLogP = 1.30103

// Globs covering both TFCE naming conventions for FWE-corrected log-p maps.
var filePatterns = []string{"TFCE_log_p_FWE_*.nii", "TFCE_log_pFWE_*.nii"}

var contrastSuffixRe = regexp.MustCompile(`_(\d{4})\.nii$`)

// line is one evaluated map of the summary table.
type line struct {
	Contrast int
	Name     string
	MaxLogP  float64
	Voxels   int
}

// Run evaluates every TFCE FWE map in dir and writes the summary table to
// w. It reports whether any contrast reached significance.
func Run(dir string, w io.Writer) (bool, error) {
	var paths []string
	seen := map[string]bool{}
	for _, pattern := range filePatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return false, fmt.Errorf("scanning %s: %w", dir, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		fmt.Fprintln(w, "No TFCE_log_p_FWE_*.nii or TFCE_log_pFWE_*.nii files found.")
		return false, nil
	}

	contrasts := design.Load(dir)

	var lines []line
	for _, path := range paths {
		base := filepath.Base(path)
		m := contrastSuffixRe.FindStringSubmatch(base)
		if m == nil {
			log.Warnf("Skipping %s: no contrast suffix", base)
			continue
		}
		conNum, err := strconv.Atoi(m[1])
		if err != nil {
			log.Warnf("Skipping %s: %v", base, err)
			continue
		}

		img, err := nifti.Load(path)
		if err != nil {
			log.Warnf("Could not load %s: %v", base, err)
			continue
		}

		l := line{Contrast: conNum, Name: "Unknown", MaxLogP: math.Inf(-1)}
		if con, ok := contrasts[conNum]; ok && con.Name != "" {
			l.Name = con.Name
		}
		for _, v := range img.Data {
			if math.IsNaN(v) {
				continue
			}
			if v > l.MaxLogP {
				l.MaxLogP = v
			}
			if v >= significanceLogP {
				l.Voxels++
			}
		}
		if math.IsInf(l.MaxLogP, -1) {
			l.MaxLogP = 0
		}
		lines = append(lines, l)
	}

	fmt.Fprintf(w, "%-10s | %-40s | %-15s | %s\n",
		"Contrast", "Name", "Max -log10(p)", "Significant? (p<0.05)")
	fmt.Fprintln(w, strings.Repeat("-", 85))

	any := false
	for _, l := range lines {
		verdict := "no"
		if l.Voxels > 0 {
			any = true
			verdict = fmt.Sprintf("YES (%d voxels)", l.Voxels)
		}
		fmt.Fprintf(w, "%-10d | %-40s | %-15.4f | %s\n", l.Contrast, l.Name, l.MaxLogP, verdict)
	}

	fmt.Fprintln(w)
	if any {
		fmt.Fprintln(w, "Significant results found!")
	} else {
		fmt.Fprintln(w, "No significant results found at p < 0.05 FWE.")
	}
	return any, nil
}
