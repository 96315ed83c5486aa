package annot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// Entry is one color-table structure used when writing fixtures.
type Entry struct {
	Name    string
	R, G, B int32
}

// PackedValue returns the annotation value vertices of this structure carry.
func (e Entry) PackedValue() int32 {
	return e.R + e.G<<8 + e.B<<16
}

// Save writes a version -2 annot file. vertexEntries maps each vertex to an
// index into entries. Used to build synthetic parcellations in tests.
func Save(path string, vertexEntries []int32, entries []Entry) error {
	buf := new(bytes.Buffer)
	w := func(v int32) {
		binary.Write(buf, binary.BigEndian, v)
	}

	w(int32(len(vertexEntries)))
	for vtx, idx := range vertexEntries {
		w(int32(vtx))
		if idx >= 0 && int(idx) < len(entries) {
			w(entries[idx].PackedValue())
		} else {
			w(0)
		}
	}

	w(1) // color table present
	w(-2)
	w(int32(len(entries)))
	fname := "synthetic.ctab"
	w(int32(len(fname)))
	buf.WriteString(fname)
	w(int32(len(entries)))
	for i, e := range entries {
		w(int32(i))
		name := e.Name + "\x00"
		w(int32(len(name)))
		buf.WriteString(name)
		w(e.R)
		w(e.G)
		w(e.B)
		w(0)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
