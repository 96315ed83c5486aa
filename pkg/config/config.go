// Package config provides configuration loading and management for the
// post-stats report engine. It handles loading configuration from YAML files
// and provides default values matching the CAT12 toolbox installation layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

// VolumetricAtlasEntry names one volumetric atlas: a label image plus an
// id-to-name table in CSV, plain-text or XML form. Paths are relative to
// Atlas.BasePath unless absolute.
type VolumetricAtlasEntry struct {
	Name   string `yaml:"name"`
	Image  string `yaml:"image"`
	Labels string `yaml:"labels"`
}

// SurfaceAtlasEntry names one surface parcellation: a FreeSurfer annot
// file per hemisphere.
type SurfaceAtlasEntry struct {
	Name  string `yaml:"name"`
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// Config represents the run configuration loaded from YAML
type Config struct {
	// Atlas parameters
	Atlas struct {
		// BasePath is the root of the CAT12/SPM installation holding the
		// bundled atlas files
		BasePath string `yaml:"basePath"`

		// Volumetric lists the atlases used for volume-mode runs
		Volumetric []VolumetricAtlasEntry `yaml:"volumetric"`

		// Surface lists the parcellations used for surface-mode runs
		Surface []SurfaceAtlasEntry `yaml:"surface"`
	} `yaml:"atlas"`

	// Thresholds is the ordered significance threshold table
	Thresholds []models.Threshold `yaml:"thresholds"`

	// Patterns maps each correction method to its filename glob set.
	// Patterns carry no extension; the locator appends .nii or .gii.
	Patterns struct {
		FWE         []string `yaml:"fwe"`
		FDR         []string `yaml:"fdr"`
		Uncorrected []string `yaml:"uncorrected"`
	} `yaml:"patterns"`

	// Plot parameters
	Plot struct {
		// Scale is the pixel magnification of the rendered projections
		Scale int `yaml:"scale"`
	} `yaml:"plot"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Default atlas registry mirroring the CAT12 distribution
	cfg.Atlas.BasePath = "/data/local/software/cat-12/external/cat12/spm12_mcr/home/gaser/gaser/spm/spm12"
	cfg.Atlas.Volumetric = []VolumetricAtlasEntry{
		{Name: "AAL3", Image: "atlas/cat12_aal3.nii", Labels: "atlas/labels_cat12_aal3.xml"},
		{Name: "Neuromorphometrics", Image: "atlas/cat12_neuromorphometrics.nii", Labels: "atlas/labels_cat12_neuromorphometrics.xml"},
		{Name: "Hammers", Image: "atlas/cat12_hammers.nii", Labels: "atlas/labels_cat12_hammers.xml"},
		{Name: "Schaefer 100", Image: "atlas/cat12_Schaefer2018_100Parcels_17Networks_order.nii", Labels: "atlas/labels_cat12_Schaefer2018_100Parcels_17Networks_order.xml"},
		{Name: "JulichBrain", Image: "atlas/cat12_julichbrain.nii", Labels: "atlas/labels_cat12_julichbrain.xml"},
	}
	cfg.Atlas.Surface = []SurfaceAtlasEntry{
		{Name: "DK40", Left: "toolbox/cat12/atlases_surfaces_32k/lh.aparc_DK40.freesurfer.annot", Right: "toolbox/cat12/atlases_surfaces_32k/rh.aparc_DK40.freesurfer.annot"},
		{Name: "Destrieux", Left: "toolbox/cat12/atlases_surfaces_32k/lh.aparc_a2009s.freesurfer.annot", Right: "toolbox/cat12/atlases_surfaces_32k/rh.aparc_a2009s.freesurfer.annot"},
		{Name: "HCP MMP1", Left: "toolbox/cat12/atlases_surfaces_32k/lh.aparc_HCP_MMP1.freesurfer.annot", Right: "toolbox/cat12/atlases_surfaces_32k/rh.aparc_HCP_MMP1.freesurfer.annot"},
		{Name: "Schaefer 100", Left: "toolbox/cat12/atlases_surfaces_32k/lh.Schaefer2018_100Parcels_17Networks_order.annot", Right: "toolbox/cat12/atlases_surfaces_32k/rh.Schaefer2018_100Parcels_17Networks_order.annot"},
	}

	// Default threshold table: two significance levels plus a trend level
	cfg.Thresholds = []models.Threshold{
		{P: 0.01, LogP: 2.0, Label: "Significant (p < 0.01)"},
		{P: 0.05, LogP: 1.30103, Label: "Significant (p < 0.05)"},
		{P: 0.1, LogP: 1.0, Label: "Trend (p < 0.1)"},
	}

	// Default filename pattern table per correction method
	cfg.Patterns.FWE = []string{"TFCE_log_pFWE_*", "logP_*FWE*", "*_log_pFWE_*"}
	cfg.Patterns.FDR = []string{"TFCE_log_pFDR_*", "logP_*FDR*", "*_log_pFDR_*"}
	cfg.Patterns.Uncorrected = []string{"TFCE_log_p_*", "logP_*", "*_log_p_*"}

	cfg.Plot.Scale = 2

	return cfg
}

// PatternsFor returns the glob set configured for a correction method.
func (c *Config) PatternsFor(corr models.Correction) []string {
	switch corr {
	case models.CorrectionFWE:
		return c.Patterns.FWE
	case models.CorrectionFDR:
		return c.Patterns.FDR
	default:
		return c.Patterns.Uncorrected
	}
}

// AtlasPath resolves an atlas file path against the configured base path.
func (c *Config) AtlasPath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Atlas.BasePath, rel)
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
