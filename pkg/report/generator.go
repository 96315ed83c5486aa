// Package report drives the post-stats pipeline and renders the final
// interactive document: locate result maps, resolve contrasts, evaluate
// thresholds, attribute peaks against the atlas registry, render plots and
// serialize everything into one self-contained HTML file.
package report

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
	"github.com/MRI-Lab-Graz/cat-12/pkg/analysis"
	"github.com/MRI-Lab-Graz/cat-12/pkg/atlas"
	"github.com/MRI-Lab-Graz/cat-12/pkg/config"
	"github.com/MRI-Lab-Graz/cat-12/pkg/design"
	"github.com/MRI-Lab-Graz/cat-12/pkg/plot"
	"github.com/MRI-Lab-Graz/cat-12/pkg/results"
)

// Filter modes restricting which result files enter the report.
const (
	FilterAll             = "all"
	FilterTFCE            = "tfce"
	FilterSPMT            = "spmt"
	FilterDoubleThreshold = "double_threshold"
)

// NormalizeFilterMode lowercases and validates a filter mode, falling back
// to "all" with a warning on anything unrecognized.
func NormalizeFilterMode(mode string) string {
	m := strings.ToLower(strings.TrimSpace(mode))
	if m == "" {
		return FilterAll
	}
	switch m {
	case FilterAll, FilterTFCE, FilterSPMT, FilterDoubleThreshold:
		return m
	}
	log.Warnf("Unknown filter_mode %q, defaulting to %q", mode, FilterAll)
	return FilterAll
}

// Params holds the report generation parameters.
type Params struct {
	// ResultsDir is the statistical analysis output directory
	ResultsDir string

	// OutputHTML is where the rendered report is written
	OutputHTML string

	// FilterMode restricts the included files (all, tfce, spmt,
	// double_threshold)
	FilterMode string

	// XLSXPath, when set, additionally exports the record table
	XLSXPath string

	// Config is the run configuration
	Config *config.Config
}

// Generator runs the report pipeline. The steps mirror the batch flow:
// one pass to locate and evaluate files, one pass over the plot cache,
// one final render.
type Generator struct {
	params *Params

	locator  *results.Locator
	resolver *results.Resolver
	registry *atlas.Registry
	cache    *plot.Cache

	records []models.SignificanceRecord
	hasTFCE bool
}

// NewGenerator creates a generator for the provided parameters.
func NewGenerator(params *Params) *Generator {
	return &Generator{params: params}
}

// Records returns the assembled record list after Process.
func (g *Generator) Records() []models.SignificanceRecord {
	return g.records
}

// Process runs the complete pipeline and writes the report.
func (g *Generator) Process() error {
	cfg := g.params.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	mode := NormalizeFilterMode(g.params.FilterMode)
	log.Infof("Generating post-stats report for: %s", g.params.ResultsDir)
	log.Infof("Filter mode: %s", mode)

	locator, err := results.NewLocator(g.params.ResultsDir, cfg)
	if err != nil {
		return err
	}
	g.locator = locator
	log.Infof("Mode: %s", locator.Modality)

	g.hasTFCE = locator.HasTFCE()
	if !g.hasTFCE {
		log.Warn("No TFCE files found in this directory.")
	}

	contrasts := design.Load(g.params.ResultsDir)
	g.resolver = &results.Resolver{Contrasts: contrasts}
	g.registry = atlas.NewRegistry(cfg, locator.Modality)
	if g.registry.Empty() {
		log.Warn("No atlas could be loaded; region columns will be empty.")
	}
	g.cache = plot.NewCache(cfg.Plot.Scale)

	if err := g.collect(cfg, mode); err != nil {
		return err
	}

	analysis.SortRecords(g.records)
	log.Infof("Collected %d significance records, %d plots", len(g.records), g.cache.Len())

	if err := g.render(contrasts); err != nil {
		return err
	}

	if g.params.XLSXPath != "" {
		if err := WriteXLSX(g.params.XLSXPath, g.records); err != nil {
			return fmt.Errorf("exporting XLSX: %w", err)
		}
		log.Infof("Record table exported to: %s", g.params.XLSXPath)
	}
	return nil
}

// collect walks the correction buckets and turns every resolvable file
// into significance records, rendering plots as it goes.
func (g *Generator) collect(cfg *config.Config, mode string) error {
	for _, corr := range results.Corrections {
		if mode == FilterDoubleThreshold && corr != models.CorrectionFWE {
			continue
		}
		for _, path := range g.locator.Locate(corr) {
			g.collectFile(cfg, mode, corr, path)
		}
	}
	return nil
}

func (g *Generator) collectFile(cfg *config.Config, mode string, corr models.Correction, path string) {
	base := filepath.Base(path)
	if mode == FilterTFCE && !strings.Contains(base, "TFCE") {
		return
	}
	if mode == FilterSPMT && strings.Contains(base, "TFCE") {
		return
	}

	rf := g.locator.Describe(path, corr)
	displayCorr := string(corr)
	if rf.DoubleThreshold() {
		if mode == FilterDoubleThreshold {
			displayCorr = results.DoubleThresholdLabel
		}
	} else if mode == FilterDoubleThreshold {
		return
	}

	conNum, ok := g.resolver.Resolve(base, g.locator.Ext())
	if !ok {
		return
	}
	conName := g.resolver.ContrastName(conNum)
	stat := g.resolver.ContrastStat(conNum)

	statMap, err := analysis.LoadMap(path, g.locator.Modality)
	if err != nil {
		log.Warnf("Could not load %s: %v", base, err)
		return
	}

	// The unthresholded statistic map supplies the raw peak value
	var rawData []float64
	if rawPath := g.locator.FindRawStatFile(stat, conNum); rawPath != "" {
		if rawMap, err := analysis.LoadMap(rawPath, g.locator.Modality); err == nil {
			rawData = rawMap.Data
		} else {
			log.Warnf("Could not load raw statistic map %s: %v", filepath.Base(rawPath), err)
		}
	}

	for _, eval := range analysis.Evaluate(statMap.Data, cfg.Thresholds, &rf) {
		rec, ok := g.assemble(mode, &rf, statMap, rawData, eval, conNum, conName, stat, displayCorr)
		if !ok {
			continue
		}

		title := fmt.Sprintf("Con %d: %s (p < %.2f)", conNum, displayCorr, math.Pow(10, -eval.LogP))
		g.cache.Render(rec.PlotKey, statMap, title, eval.LogP)
		g.records = append(g.records, rec)
	}
}

func (g *Generator) assemble(mode string, rf *models.ResultFile, statMap *models.StatMap,
	rawData []float64, eval analysis.Evaluation, conNum int, conName string,
	stat models.StatKind, displayCorr string) (models.SignificanceRecord, bool) {

	direction := analysis.Direction(conName, stat)
	if mode == FilterDoubleThreshold {
		if rf.Bidirectional {
			direction = analysis.DirectionTwoSided
		} else if direction == analysis.DirectionBidirectional {
			// A one-sided double-threshold map of an inherently two-sided
			// F contrast cannot be attributed a direction
			log.Warnf("Skipping %s: one-sided map of an F contrast", filepath.Base(rf.Path))
			return models.SignificanceRecord{}, false
		}
	}

	peakStat := 0.0
	if eval.PeakIndex >= 0 && eval.PeakIndex < len(rawData) {
		if v := rawData[eval.PeakIndex]; !math.IsNaN(v) {
			peakStat = v
		}
	}

	rec := models.SignificanceRecord{
		ContrastIndex:    conNum,
		ContrastName:     conName,
		Correction:       displayCorr,
		OrigCorrection:   rf.Correction,
		PThreshold:       eval.P,
		LogPThreshold:    eval.LogP,
		PLabel:           eval.Label,
		SignificantCount: eval.Count,
		PeakLogP:         eval.PeakLogP,
		PeakStat:         peakStat,
		Stat:             stat,
		Direction:        direction,
		ClusterSize:      rf.ClusterSize,
		SourceFile:       rf.Path,
		PlotKey:          plot.Key(conNum, displayCorr, eval.LogP),
	}

	if statMap.Surface {
		rec.Regions = g.registry.RegionsForVertex(eval.PeakIndex, len(statMap.Data))
	} else {
		i, j, k := unravel(statMap.Dims, eval.PeakIndex)
		mni := atlas.GridToMNI(statMap.Affine, i, j, k)
		for c := range mni {
			mni[c] = math.Round(mni[c]*100) / 100
		}
		rec.PeakMNI = &mni
		rec.Regions = g.registry.RegionsForMNI(mni)
	}
	return rec, true
}

func unravel(dims [3]int, idx int) (i, j, k int) {
	nx, ny := dims[0], dims[1]
	k = idx / (nx * ny)
	rem := idx % (nx * ny)
	j = rem / nx
	i = rem % nx
	return
}
