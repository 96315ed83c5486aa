package models

// StatKind identifies the statistic behind a contrast map.
type StatKind string

const (
	StatT StatKind = "T"
	StatF StatKind = "F"
)

// Correction identifies a multiple-comparison correction regime.
type Correction string

const (
	CorrectionFWE         Correction = "FWE"
	CorrectionFDR         Correction = "FDR"
	CorrectionUncorrected Correction = "Uncorrected"
)

// Modality distinguishes voxel-wise volume results from vertex-wise
// surface results. A results directory is entirely one or the other.
type Modality int

const (
	Volume Modality = iota
	Surface
)

func (m Modality) String() string {
	if m == Surface {
		return "Surface"
	}
	return "Volume"
}

// Contrast describes one entry of the statistical design, as exported by
// the batch layer that ran the model estimation.
type Contrast struct {
	// Index is the 1-based contrast number within the design
	Index int

	// Name is the display name, e.g. "Group A > Group B"
	Name string

	// Stat is the statistic kind of the contrast (T or F)
	Stat StatKind
}

// Threshold is one row of the significance threshold table.
type Threshold struct {
	// P is the significance level, e.g. 0.05
	P float64 `yaml:"p"`

	// LogP is -log10(P), the cutoff applied to log-p maps
	LogP float64 `yaml:"logP"`

	// Label is the human-readable description shown in the report
	Label string `yaml:"label"`
}

// ResultFile is one discovered statistical map together with everything
// decoded from its name. Derived once per file and never mutated.
type ResultFile struct {
	// Path is the absolute path of the map on disk
	Path string

	// Correction is the bucket whose pattern set matched the file
	Correction Correction

	// Modality of the map (volume .nii or surface .gii)
	Modality Modality

	// ClusterSize is the cluster-extent threshold decoded from a
	// double-threshold name, nil for ordinary maps
	ClusterSize *int

	// CorrectedPLevel is the corrected significance level decoded from a
	// double-threshold name, nil for ordinary maps
	CorrectedPLevel *float64

	// Bidirectional reports the _bi marker of a double-threshold name
	Bidirectional bool
}

// DoubleThreshold reports whether the file follows the
// cluster-extent-plus-peak-FWE naming convention.
func (f *ResultFile) DoubleThreshold() bool {
	return f.CorrectedPLevel != nil || f.ClusterSize != nil
}

// StatMap is a loaded statistical map held in memory for the duration of
// one file's evaluation. For volumes the data is in file order (x fastest);
// for surfaces it is the flat vertex array with the left hemisphere in the
// first half.
type StatMap struct {
	// Data holds the map values; NaN marks elements outside the analysis mask
	Data []float64

	// Dims are the grid dimensions (volumes only)
	Dims [3]int

	// Affine maps grid indices to anatomical (MNI) coordinates (volumes only)
	Affine [4][4]float64

	// Surface is true for vertex-wise data
	Surface bool
}

// SignificanceRecord is the unit of report output: one resolved file at
// one satisfied threshold, fully attributed. Never mutated after assembly.
type SignificanceRecord struct {
	ContrastIndex int    `json:"con_num"`
	ContrastName  string `json:"con_name"`

	// Correction is the displayed label, which may be "Double Threshold"
	Correction string `json:"correction"`

	// OrigCorrection is the bucket the file was discovered under
	OrigCorrection Correction `json:"orig_correction"`

	PThreshold    float64 `json:"p_thresh"`
	LogPThreshold float64 `json:"log_p_thresh"`
	PLabel        string  `json:"p_label"`

	SignificantCount int     `json:"sig_elements"`
	PeakLogP         float64 `json:"max_logp"`
	PeakStat         float64 `json:"peak_stat"`
	Stat             StatKind `json:"stat_type"`
	Direction        string  `json:"direction"`

	// PeakMNI is the peak anatomical coordinate; nil for surface records
	PeakMNI *[3]float64 `json:"peak_mni,omitempty"`

	// Regions maps atlas name to the region containing the peak
	Regions map[string]string `json:"regions"`

	// ClusterSize is carried over from a double-threshold file name
	ClusterSize *int `json:"cluster_size,omitempty"`

	SourceFile string `json:"file_path"`

	// PlotKey looks the record's visualization up in the plot cache
	PlotKey string `json:"plot_key"`
}
