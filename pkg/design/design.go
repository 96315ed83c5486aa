// Package design loads contrast metadata for a results directory.
//
// The batch layer that runs the model estimation exports a sidecar next to
// the design artifact listing, per contrast, a display name and the
// statistic kind. Either YAML or JSON is accepted. A missing or unreadable
// sidecar degrades to an empty mapping so the report falls back to
// positional contrast numbers.
package design

import (
	"encoding/json"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

// entry mirrors one contrast of the exported design metadata.
type entry struct {
	Name string `yaml:"name" json:"name"`
	Stat string `yaml:"stat" json:"stat"`
}

// Filenames probed inside the results directory, in order.
var sidecarNames = []string{"contrasts.yaml", "contrasts.json"}

// Load returns the contrast metadata for a results directory, keyed by
// 1-based contrast index. It never fails; any problem is logged and an
// empty mapping returned.
func Load(resultsDir string) map[int]models.Contrast {
	for _, name := range sidecarNames {
		path := filepath.Join(resultsDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		contrasts, err := loadFile(path)
		if err != nil {
			log.Warnf("Could not read design metadata %s: %v", path, err)
			return map[int]models.Contrast{}
		}
		return contrasts
	}
	log.Debugf("No design metadata found in %s", resultsDir)
	return map[int]models.Contrast{}
}

func loadFile(path string) (map[int]models.Contrast, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []entry
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(raw, &entries)
	} else {
		err = yaml.Unmarshal(raw, &entries)
	}
	if err != nil {
		return nil, err
	}

	contrasts := make(map[int]models.Contrast, len(entries))
	for i, e := range entries {
		stat := models.StatKind(e.Stat)
		if stat != models.StatT && stat != models.StatF {
			if e.Stat != "" {
				log.Warnf("Contrast %d has unknown statistic kind %q, assuming T", i+1, e.Stat)
			}
			stat = models.StatT
		}
		contrasts[i+1] = models.Contrast{Index: i + 1, Name: e.Name, Stat: stat}
	}
	return contrasts, nil
}
