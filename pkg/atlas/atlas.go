// Package atlas resolves peak locations to anatomical region names.
//
// Two atlas representations are unified behind one attribution interface:
// volumetric label images paired with an id-to-name table, and surface
// parcellations given as one annot file per hemisphere. Atlases that fail
// to load are skipped with a warning; the registry never aborts a run.
package atlas

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
	"github.com/MRI-Lab-Graz/cat-12/pkg/annot"
	"github.com/MRI-Lab-Graz/cat-12/pkg/config"
	"github.com/MRI-Lab-Graz/cat-12/pkg/nifti"
)

// VolumetricAtlas is a fully loaded label image with its name table.
type VolumetricAtlas struct {
	Name   string
	Image  *nifti.Image
	Labels map[int]string

	inv *mat.Dense
}

// SurfaceAtlas is a fully loaded parcellation pair.
type SurfaceAtlas struct {
	Name  string
	Left  *annot.Parcellation
	Right *annot.Parcellation
}

// Registry holds every atlas that loaded completely, in configuration order.
type Registry struct {
	Volumetric []*VolumetricAtlas
	Surface    []*SurfaceAtlas
}

// NewRegistry loads the atlases configured for the run's modality. An atlas
// is either fully loaded or entirely absent; partial loads are discarded.
func NewRegistry(cfg *config.Config, modality models.Modality) *Registry {
	reg := &Registry{}

	if modality == models.Surface {
		for _, entry := range cfg.Atlas.Surface {
			atl, err := loadSurfaceAtlas(cfg, entry)
			if err != nil {
				log.Warnf("Could not load surface atlas %s: %v", entry.Name, err)
				continue
			}
			reg.Surface = append(reg.Surface, atl)
		}
		return reg
	}

	for _, entry := range cfg.Atlas.Volumetric {
		atl, err := loadVolumetricAtlas(cfg, entry)
		if err != nil {
			log.Warnf("Could not load atlas %s: %v", entry.Name, err)
			continue
		}
		reg.Volumetric = append(reg.Volumetric, atl)
	}
	return reg
}

func loadVolumetricAtlas(cfg *config.Config, entry config.VolumetricAtlasEntry) (*VolumetricAtlas, error) {
	img, err := nifti.Load(cfg.AtlasPath(entry.Image))
	if err != nil {
		return nil, fmt.Errorf("label image: %w", err)
	}
	labels, err := LoadLabelTable(cfg.AtlasPath(entry.Labels))
	if err != nil {
		return nil, fmt.Errorf("label table: %w", err)
	}
	inv, err := inverseAffine(img.Affine)
	if err != nil {
		return nil, err
	}
	return &VolumetricAtlas{Name: entry.Name, Image: img, Labels: labels, inv: inv}, nil
}

func loadSurfaceAtlas(cfg *config.Config, entry config.SurfaceAtlasEntry) (*SurfaceAtlas, error) {
	lh, err := annot.Load(cfg.AtlasPath(entry.Left))
	if err != nil {
		return nil, fmt.Errorf("left hemisphere: %w", err)
	}
	rh, err := annot.Load(cfg.AtlasPath(entry.Right))
	if err != nil {
		return nil, fmt.Errorf("right hemisphere: %w", err)
	}
	return &SurfaceAtlas{Name: entry.Name, Left: lh, Right: rh}, nil
}

// Names lists the loaded atlas names in configuration order.
func (r *Registry) Names() []string {
	var names []string
	for _, a := range r.Volumetric {
		names = append(names, a.Name)
	}
	for _, a := range r.Surface {
		names = append(names, a.Name)
	}
	return names
}

// Empty reports whether no atlas loaded.
func (r *Registry) Empty() bool {
	return len(r.Volumetric) == 0 && len(r.Surface) == 0
}

// RegionForMNI names the region containing an anatomical coordinate.
// Coordinates outside the atlas grid yield "Unknown"; labels without a
// table entry yield a synthesized name carrying the raw id.
func (a *VolumetricAtlas) RegionForMNI(mni [3]float64) string {
	i, j, k := gridFromMNI(a.inv, mni)
	if i < 0 || j < 0 || k < 0 ||
		i >= a.Image.Dims[0] || j >= a.Image.Dims[1] || k >= a.Image.Dims[2] {
		return "Unknown"
	}
	id := int(a.Image.Data[a.Image.Index(i, j, k)])
	if name, ok := a.Labels[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (ID: %d)", id)
}

// RegionForVertex names the region of a flat vertex index. The first half
// of the concatenated array is the left hemisphere.
func (a *SurfaceAtlas) RegionForVertex(vertex, totalVertices int) string {
	half := totalVertices / 2
	hemi := a.Left
	prefix := "LH: "
	idx := vertex
	if vertex >= half {
		hemi = a.Right
		prefix = "RH: "
		idx = vertex - half
	}

	if idx < 0 || idx >= len(hemi.Labels) {
		return "Unknown"
	}
	label := hemi.Labels[idx]
	if label < 0 || int(label) >= len(hemi.Names) {
		return "Unknown"
	}
	return prefix + hemi.Names[label]
}

// RegionsForMNI attributes a volumetric peak against every loaded atlas.
func (r *Registry) RegionsForMNI(mni [3]float64) map[string]string {
	regions := make(map[string]string, len(r.Volumetric))
	for _, a := range r.Volumetric {
		regions[a.Name] = a.RegionForMNI(mni)
	}
	return regions
}

// RegionsForVertex attributes a surface peak against every loaded atlas.
func (r *Registry) RegionsForVertex(vertex, totalVertices int) map[string]string {
	regions := make(map[string]string, len(r.Surface))
	for _, a := range r.Surface {
		regions[a.Name] = a.RegionForVertex(vertex, totalVertices)
	}
	return regions
}
