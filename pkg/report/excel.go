package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

// WriteXLSX exports the assembled records as a flat spreadsheet, one row
// per record, with one region column per atlas seen in the batch.
func WriteXLSX(path string, records []models.SignificanceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Results"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("creating results sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	atlases := atlasColumns(records)

	headers := []string{
		"Contrast", "Name", "Correction", "P Threshold", "P Label",
		"Direction", "Significant Elements", "Peak Stat", "Peak -log10(p)",
		"MNI X", "MNI Y", "MNI Z", "Cluster Size", "File",
	}
	headers = append(headers, atlases...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for r, rec := range records {
		vals := []interface{}{
			rec.ContrastIndex, rec.ContrastName, rec.Correction,
			rec.PThreshold, rec.PLabel, rec.Direction,
			rec.SignificantCount, rec.PeakStat, rec.PeakLogP,
		}
		if rec.PeakMNI != nil {
			vals = append(vals, rec.PeakMNI[0], rec.PeakMNI[1], rec.PeakMNI[2])
		} else {
			vals = append(vals, "", "", "")
		}
		if rec.ClusterSize != nil {
			vals = append(vals, *rec.ClusterSize)
		} else {
			vals = append(vals, "")
		}
		vals = append(vals, rec.SourceFile)
		for _, name := range atlases {
			vals = append(vals, rec.Regions[name])
		}

		for c, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("writing row %d: %w", r+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving spreadsheet: %w", err)
	}
	return nil
}

// atlasColumns collects the union of atlas names across all records in a
// stable order.
func atlasColumns(records []models.SignificanceRecord) []string {
	seen := map[string]bool{}
	var names []string
	for _, rec := range records {
		for name := range rec.Regions {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
