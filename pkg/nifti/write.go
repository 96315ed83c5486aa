package nifti

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// Save writes a volume as an uncompressed float32 NIfTI-1 file with the
// image affine stored in the sform rows. Used for synthetic fixtures and
// intermediate exports.
func Save(path string, img *Image) error {
	n := img.Dims[0] * img.Dims[1] * img.Dims[2]
	if len(img.Data) != n {
		return fmt.Errorf("data length %d does not match dims %v", len(img.Data), img.Dims)
	}

	var hdr Header
	hdr.SizeOfHdr = 348
	hdr.Dim[0] = 3
	hdr.Dim[1] = int16(img.Dims[0])
	hdr.Dim[2] = int16(img.Dims[1])
	hdr.Dim[3] = int16(img.Dims[2])
	for i := 4; i < 8; i++ {
		hdr.Dim[i] = 1
	}
	hdr.DataType = typeFloat32
	hdr.BitPix = 32
	hdr.PixDim[0] = 1
	for i := 0; i < 3; i++ {
		hdr.PixDim[i+1] = 1
	}
	hdr.VoxOffset = 352
	hdr.SclSlope = 1
	hdr.SFormCode = 1
	for j := 0; j < 4; j++ {
		hdr.SRowX[j] = float32(img.Affine[0][j])
		hdr.SRowY[j] = float32(img.Affine[1][j])
		hdr.SRowZ[j] = float32(img.Affine[2][j])
	}
	hdr.Magic = [4]int8{'n', '+', '1', 0}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	// Pad to the voxel offset (4-byte extension flag)
	buf.Write([]byte{0, 0, 0, 0})

	vox := make([]float32, n)
	for i, v := range img.Data {
		vox[i] = float32(v)
	}
	if err := binary.Write(&buf, binary.LittleEndian, vox); err != nil {
		return fmt.Errorf("encoding voxels: %w", err)
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}
