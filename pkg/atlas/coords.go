package atlas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// GridToMNI converts a grid index to anatomical (MNI) coordinates by a
// homogeneous multiply with the image affine.
func GridToMNI(affine [4][4]float64, i, j, k int) [3]float64 {
	v := [4]float64{float64(i), float64(j), float64(k), 1}
	var out [3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			out[r] += affine[r][c] * v[c]
		}
	}
	return out
}

// inverseAffine computes the inverse of a 4x4 grid-to-MNI transform.
// A singular affine is a load error for the atlas carrying it.
func inverseAffine(affine [4][4]float64) (*mat.Dense, error) {
	flat := make([]float64, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			flat[r*4+c] = affine[r][c]
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(4, 4, flat)); err != nil {
		return nil, fmt.Errorf("affine is not invertible: %w", err)
	}
	return &inv, nil
}

// gridFromMNI applies an inverse affine and rounds to the nearest grid
// coordinate. Bounds are not checked here.
func gridFromMNI(inv *mat.Dense, mni [3]float64) (i, j, k int) {
	v := mat.NewVecDense(4, []float64{mni[0], mni[1], mni[2], 1})
	var out mat.VecDense
	out.MulVec(inv, v)
	i = int(math.Round(out.AtVec(0)))
	j = int(math.Round(out.AtVec(1)))
	k = int(math.Round(out.AtVec(2)))
	return
}
