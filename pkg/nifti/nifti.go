// Package nifti reads NIfTI-1 statistical volumes.
//
// Only the subset of the format produced by SPM/CAT12 is supported: single
// 3D volumes, scalar datatypes, optional gzip compression. The header layout
// follows the official nifti1.h definition.
package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	log "github.com/sirupsen/logrus"
)

// Header defines the structure of the 348-byte NIfTI-1 header.
type Header struct {
	SizeOfHdr          int32
	UnusedDataType     [10]int8
	UnusedDbName       [18]int8
	UnusedExtents      int32
	UnusedSessionError int16
	UnusedRegular      int8
	DimInfo            int8

	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	DataType      int16
	BitPix        int16
	SliceStart    int16
	PixDim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     int8
	XYZTUnits     int8
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	TOffset       float32
	UnusedGlmax   int32
	UnusedGlmin   int32

	Descrip [80]int8
	AuxFile [24]int8

	QFormCode int16
	SFormCode int16

	QuaternB float32
	QuaternC float32
	QuaternD float32
	QOffsetX float32
	QOffsetY float32
	QOffsetZ float32

	SRowX [4]float32
	SRowY [4]float32
	SRowZ [4]float32

	IntentName [16]int8
	Magic      [4]int8
}

// Datatype codes from nifti1.h
const (
	typeUint8   = 2
	typeInt16   = 4
	typeInt32   = 8
	typeFloat32 = 16
	typeFloat64 = 64
	typeInt8    = 256
	typeUint16  = 512
)

// Image is a loaded NIfTI volume. Data is stored in file order, x fastest.
type Image struct {
	Dims   [3]int
	Affine [4][4]float64
	Data   []float64
}

// Load reads a NIfTI-1 volume from disk. Gzip-compressed files are detected
// by magic bytes regardless of extension.
func Load(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream of %s: %w", path, err)
		}
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
	}

	return Decode(raw)
}

// Decode parses an uncompressed NIfTI-1 byte stream.
func Decode(raw []byte) (*Image, error) {
	if len(raw) < 348 {
		return nil, fmt.Errorf("file too short for a NIfTI-1 header (%d bytes)", len(raw))
	}

	var hdr Header
	var order binary.ByteOrder = binary.LittleEndian
	if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if hdr.SizeOfHdr != 348 {
		// Header written on a big-endian machine
		order = binary.BigEndian
		if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
			return nil, fmt.Errorf("parsing header: %w", err)
		}
		if hdr.SizeOfHdr != 348 {
			return nil, fmt.Errorf("not a NIfTI-1 file (sizeof_hdr=%d)", hdr.SizeOfHdr)
		}
	}

	nx, ny, nz := int(hdr.Dim[1]), int(hdr.Dim[2]), int(hdr.Dim[3])
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%dx%d", nx, ny, nz)
	}
	n := nx * ny * nz

	offset := int(hdr.VoxOffset)
	if offset < 348 {
		offset = 352
	}
	if offset > len(raw) {
		return nil, fmt.Errorf("voxel offset %d beyond file size %d", offset, len(raw))
	}

	data, err := decodeVoxels(raw[offset:], int(hdr.DataType), n, order)
	if err != nil {
		return nil, err
	}

	// Apply the value scaling from the header; slope 0 means unscaled
	slope := float64(hdr.SclSlope)
	inter := float64(hdr.SclInter)
	if slope != 0 && (slope != 1 || inter != 0) {
		for i := range data {
			data[i] = data[i]*slope + inter
		}
	}

	img := &Image{Dims: [3]int{nx, ny, nz}, Data: data, Affine: affineOf(&hdr)}
	return img, nil
}

func decodeVoxels(raw []byte, dtype, n int, order binary.ByteOrder) ([]float64, error) {
	data := make([]float64, n)
	need := func(bytesPer int) error {
		if len(raw) < n*bytesPer {
			return fmt.Errorf("truncated voxel data: need %d bytes, have %d", n*bytesPer, len(raw))
		}
		return nil
	}

	switch dtype {
	case typeUint8:
		if err := need(1); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			data[i] = float64(raw[i])
		}
	case typeInt8:
		if err := need(1); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			data[i] = float64(int8(raw[i]))
		}
	case typeInt16:
		if err := need(2); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			data[i] = float64(int16(order.Uint16(raw[i*2:])))
		}
	case typeUint16:
		if err := need(2); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			data[i] = float64(order.Uint16(raw[i*2:]))
		}
	case typeInt32:
		if err := need(4); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			data[i] = float64(int32(order.Uint32(raw[i*4:])))
		}
	case typeFloat32:
		if err := need(4); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			data[i] = float64(math.Float32frombits(order.Uint32(raw[i*4:])))
		}
	case typeFloat64:
		if err := need(8); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			data[i] = math.Float64frombits(order.Uint64(raw[i*8:]))
		}
	default:
		return nil, fmt.Errorf("unsupported NIfTI datatype %d", dtype)
	}
	return data, nil
}

// affineOf derives the grid-to-anatomical transform. The sform rows are
// preferred; without them the grid spacing from pixdim is used.
func affineOf(hdr *Header) [4][4]float64 {
	var a [4][4]float64
	a[3][3] = 1

	if hdr.SFormCode > 0 {
		for j := 0; j < 4; j++ {
			a[0][j] = float64(hdr.SRowX[j])
			a[1][j] = float64(hdr.SRowY[j])
			a[2][j] = float64(hdr.SRowZ[j])
		}
		return a
	}

	if hdr.QFormCode > 0 {
		log.Debug("nifti: qform present but unsupported, using pixdim scaling")
	}
	for i := 0; i < 3; i++ {
		d := float64(hdr.PixDim[i+1])
		if d == 0 {
			d = 1
		}
		a[i][i] = d
	}
	return a
}

// Index flattens a grid coordinate into Data (x fastest, NIfTI file order).
func (img *Image) Index(i, j, k int) int {
	return k*img.Dims[0]*img.Dims[1] + j*img.Dims[0] + i
}

// Unravel is the inverse of Index.
func (img *Image) Unravel(idx int) (i, j, k int) {
	nx, ny := img.Dims[0], img.Dims[1]
	k = idx / (nx * ny)
	rem := idx % (nx * ny)
	j = rem / nx
	i = rem % nx
	return
}
