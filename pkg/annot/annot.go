// Package annot reads FreeSurfer surface parcellation (.annot) files.
//
// An annot file stores one RGB-packed annotation value per vertex plus a
// color table naming each structure. Vertices are resolved to indices into
// the name table; vertices whose annotation has no table entry get -1.
package annot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// Parcellation is one hemisphere's loaded annotation.
type Parcellation struct {
	// Labels holds, per vertex, the index into Names, or -1 when the
	// vertex annotation is absent from the color table
	Labels []int32

	// Names are the structure names from the color table
	Names []string
}

// Load reads a .annot file.
func Load(path string) (*Parcellation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(raw)
}

type reader struct {
	r *bytes.Reader
}

func (rd *reader) int32() (int32, error) {
	var v int32
	err := binary.Read(rd.r, binary.BigEndian, &v)
	return v, err
}

func (rd *reader) bytes(n int32) ([]byte, error) {
	if n < 0 || int64(n) > int64(rd.r.Len()) {
		return nil, fmt.Errorf("invalid length %d", n)
	}
	buf := make([]byte, n)
	_, err := rd.r.Read(buf)
	return buf, err
}

// Decode parses the big-endian annot byte stream.
func Decode(raw []byte) (*Parcellation, error) {
	rd := &reader{r: bytes.NewReader(raw)}

	count, err := rd.int32()
	if err != nil {
		return nil, fmt.Errorf("reading vertex count: %w", err)
	}
	if count <= 0 {
		return nil, fmt.Errorf("invalid vertex count %d", count)
	}

	annots := make(map[int32]int32, count) // vertex -> packed annotation
	maxVertex := int32(-1)
	for i := int32(0); i < count; i++ {
		vtx, err := rd.int32()
		if err != nil {
			return nil, fmt.Errorf("reading vertex %d: %w", i, err)
		}
		val, err := rd.int32()
		if err != nil {
			return nil, fmt.Errorf("reading annotation %d: %w", i, err)
		}
		annots[vtx] = val
		if vtx > maxVertex {
			maxVertex = vtx
		}
	}

	tag, err := rd.int32()
	if err != nil || tag == 0 {
		return nil, fmt.Errorf("annot file carries no color table")
	}

	names, byValue, err := readColorTable(rd)
	if err != nil {
		return nil, err
	}

	labels := make([]int32, maxVertex+1)
	for i := range labels {
		labels[i] = -1
	}
	for vtx, val := range annots {
		if idx, ok := byValue[val]; ok {
			labels[vtx] = idx
		}
	}

	return &Parcellation{Labels: labels, Names: names}, nil
}

// readColorTable handles both the original format (positive version =
// entry count) and version -2.
func readColorTable(rd *reader) ([]string, map[int32]int32, error) {
	version, err := rd.int32()
	if err != nil {
		return nil, nil, fmt.Errorf("reading color table version: %w", err)
	}

	var entries int32
	if version > 0 {
		entries = version
	} else if version == -2 {
		// Maximum structure id, then the generating filename
		if _, err := rd.int32(); err != nil {
			return nil, nil, fmt.Errorf("reading structure count: %w", err)
		}
		flen, err := rd.int32()
		if err != nil {
			return nil, nil, err
		}
		if _, err := rd.bytes(flen); err != nil {
			return nil, nil, fmt.Errorf("reading table filename: %w", err)
		}
		entries, err = rd.int32()
		if err != nil {
			return nil, nil, fmt.Errorf("reading entry count: %w", err)
		}
	} else {
		return nil, nil, fmt.Errorf("unsupported color table version %d", version)
	}

	if version > 0 {
		// Old format also starts with the generating filename
		flen, err := rd.int32()
		if err != nil {
			return nil, nil, err
		}
		if _, err := rd.bytes(flen); err != nil {
			return nil, nil, fmt.Errorf("reading table filename: %w", err)
		}
	}

	names := make([]string, 0, entries)
	byValue := make(map[int32]int32, entries)
	for i := int32(0); i < entries; i++ {
		idx := i
		if version == -2 {
			v, err := rd.int32()
			if err != nil {
				return nil, nil, fmt.Errorf("reading structure index: %w", err)
			}
			idx = v
		}

		nlen, err := rd.int32()
		if err != nil {
			return nil, nil, fmt.Errorf("reading name length: %w", err)
		}
		nameBytes, err := rd.bytes(nlen)
		if err != nil {
			return nil, nil, fmt.Errorf("reading name: %w", err)
		}
		name := string(bytes.TrimRight(nameBytes, "\x00"))

		var rgba [4]int32
		for c := 0; c < 4; c++ {
			rgba[c], err = rd.int32()
			if err != nil {
				return nil, nil, fmt.Errorf("reading color of %q: %w", name, err)
			}
		}

		for int32(len(names)) <= idx {
			names = append(names, "")
		}
		names[idx] = name
		packed := rgba[0] + rgba[1]<<8 + rgba[2]<<16
		byValue[packed] = idx
	}

	return names, byValue, nil
}
