package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

//go:embed report.tmpl
var reportTemplate string

// contrastOption is one entry of the contrast filter dropdown.
type contrastOption struct {
	Index int
	Name  string
}

// row carries one record plus its precomputed display attributes.
type row struct {
	models.SignificanceRecord

	// RegionsJSON is the per-atlas region map for the data-regions attribute
	RegionsJSON string

	// BadgeClass / DirClass pick the CSS badge styles
	BadgeClass string
	DirClass   string

	// MNIDisplay is the formatted peak coordinate or "N/A"
	MNIDisplay string
}

// payload is the complete typed input of the report template.
type payload struct {
	ResultsDir  string
	Date        string
	Mode        string
	IsSurface   bool
	HasTFCE     bool
	ElementWord string
	Contrasts   []contrastOption
	AtlasNames  []string
	Rows        []row
	PlotsJSON   template.JS
	RecordsJSON template.JS
}

// render serializes records, plots and atlas names into the final document.
func (g *Generator) render(contrasts map[int]models.Contrast) error {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}

	p, err := g.buildPayload(contrasts)
	if err != nil {
		return err
	}

	// Render to a buffer first so a template error never leaves a
	// truncated report behind
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if err := os.WriteFile(g.params.OutputHTML, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Printf("Report saved to: %s\n", g.params.OutputHTML)
	return nil
}

func (g *Generator) buildPayload(contrasts map[int]models.Contrast) (*payload, error) {
	p := &payload{
		ResultsDir:  g.params.ResultsDir,
		Date:        time.Now().Format("2006-01-02 15:04:05"),
		Mode:        g.locator.Modality.String(),
		IsSurface:   g.locator.Modality == models.Surface,
		HasTFCE:     g.hasTFCE,
		ElementWord: "Voxels",
		AtlasNames:  g.registry.Names(),
	}
	if p.IsSurface {
		p.ElementWord = "Vertices"
	}

	var indices []int
	for num := range contrasts {
		indices = append(indices, num)
	}
	sort.Ints(indices)
	for _, num := range indices {
		p.Contrasts = append(p.Contrasts, contrastOption{Index: num, Name: contrasts[num].Name})
	}

	for _, rec := range g.records {
		regions, err := json.Marshal(rec.Regions)
		if err != nil {
			return nil, fmt.Errorf("encoding regions of %s: %w", rec.SourceFile, err)
		}
		r := row{
			SignificanceRecord: rec,
			RegionsJSON:        string(regions),
			BadgeClass:         classPrefix(rec.Correction),
			DirClass:           classPrefix(rec.Direction),
			MNIDisplay:         "N/A",
		}
		if rec.PeakMNI != nil {
			r.MNIDisplay = fmt.Sprintf("[%.2f, %.2f, %.2f]", rec.PeakMNI[0], rec.PeakMNI[1], rec.PeakMNI[2])
		}
		p.Rows = append(p.Rows, r)
	}

	plots, err := json.Marshal(g.cache.Images())
	if err != nil {
		return nil, fmt.Errorf("encoding plot cache: %w", err)
	}
	p.PlotsJSON = template.JS(plots)

	records, err := json.Marshal(g.records)
	if err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}
	p.RecordsJSON = template.JS(records)

	return p, nil
}

// classPrefix derives the CSS suffix used by the badge and direction
// styles from the first three letters of the label.
func classPrefix(label string) string {
	s := strings.ToLower(label)
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}
