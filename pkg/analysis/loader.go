package analysis

import (
	"github.com/MRI-Lab-Graz/cat-12/internal/models"
	"github.com/MRI-Lab-Graz/cat-12/pkg/gifti"
	"github.com/MRI-Lab-Graz/cat-12/pkg/nifti"
)

// LoadMap reads a statistical map in the run's modality. The array is held
// in memory for the duration of that file's evaluation and reused across
// all thresholds.
func LoadMap(path string, modality models.Modality) (*models.StatMap, error) {
	if modality == models.Surface {
		data, err := gifti.Load(path)
		if err != nil {
			return nil, err
		}
		return &models.StatMap{Data: data, Surface: true}, nil
	}

	img, err := nifti.Load(path)
	if err != nil {
		return nil, err
	}
	return &models.StatMap{Data: img.Data, Dims: img.Dims, Affine: img.Affine}, nil
}
