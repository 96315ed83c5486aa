// Package gifti reads GIfTI (.gii) surface data files.
//
// Only scalar data arrays are handled, which is all CAT12 surface statistics
// need: one flat per-vertex array, both hemispheres concatenated with the
// left hemisphere first.
package gifti

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"
)

type document struct {
	XMLName    xml.Name    `xml:"GIFTI"`
	DataArrays []dataArray `xml:"DataArray"`
}

type dataArray struct {
	DataType string `xml:"DataType,attr"`
	Encoding string `xml:"Encoding,attr"`
	Endian   string `xml:"Endian,attr"`
	Dim0     string `xml:"Dim0,attr"`
	Data     string `xml:"Data"`
}

// Load reads the first data array of a GIfTI file as float64 values.
func Load(path string) ([]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(raw)
}

// Decode parses a GIfTI XML document and returns its first data array.
func Decode(raw []byte) ([]float64, error) {
	var doc document
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing GIfTI XML: %w", err)
	}
	if len(doc.DataArrays) == 0 {
		return nil, fmt.Errorf("GIfTI file contains no data arrays")
	}
	return decodeArray(&doc.DataArrays[0])
}

func decodeArray(da *dataArray) ([]float64, error) {
	n := 0
	if da.Dim0 != "" {
		v, err := strconv.Atoi(strings.TrimSpace(da.Dim0))
		if err != nil {
			return nil, fmt.Errorf("invalid Dim0 %q", da.Dim0)
		}
		n = v
	}

	if strings.EqualFold(da.Encoding, "ASCII") {
		return decodeASCII(da.Data, n)
	}

	// The <Data> element may wrap its base64 payload across lines
	payload, err := base64.StdEncoding.DecodeString(stripWhitespace(da.Data))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 payload: %w", err)
	}
	if strings.EqualFold(da.Encoding, "GZipBase64Binary") {
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("opening gzip payload: %w", err)
		}
		payload, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decompressing payload: %w", err)
		}
	} else if !strings.EqualFold(da.Encoding, "Base64Binary") {
		return nil, fmt.Errorf("unsupported GIfTI encoding %q", da.Encoding)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if strings.EqualFold(da.Endian, "BigEndian") {
		order = binary.BigEndian
	}

	switch da.DataType {
	case "NIFTI_TYPE_FLOAT32", "":
		m := len(payload) / 4
		if n > 0 && m > n {
			m = n
		}
		out := make([]float64, m)
		for i := 0; i < m; i++ {
			out[i] = float64(math.Float32frombits(order.Uint32(payload[i*4:])))
		}
		return out, nil
	case "NIFTI_TYPE_FLOAT64":
		m := len(payload) / 8
		if n > 0 && m > n {
			m = n
		}
		out := make([]float64, m)
		for i := 0; i < m; i++ {
			out[i] = math.Float64frombits(order.Uint64(payload[i*8:]))
		}
		return out, nil
	case "NIFTI_TYPE_INT32":
		m := len(payload) / 4
		if n > 0 && m > n {
			m = n
		}
		out := make([]float64, m)
		for i := 0; i < m; i++ {
			out[i] = float64(int32(order.Uint32(payload[i*4:])))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported GIfTI datatype %q", da.DataType)
	}
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func decodeASCII(text string, n int) ([]float64, error) {
	fields := strings.Fields(text)
	if n > 0 && len(fields) > n {
		fields = fields[:n]
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing ASCII value %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}

// Save writes a float32 Base64Binary GIfTI file. Used for synthetic fixtures.
func Save(path string, data []float64) error {
	buf := new(bytes.Buffer)
	vox := make([]float32, len(data))
	for i, v := range data {
		vox[i] = float32(v)
	}
	if err := binary.Write(buf, binary.LittleEndian, vox); err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	payload := base64.StdEncoding.EncodeToString(buf.Bytes())

	var doc strings.Builder
	doc.WriteString(xml.Header)
	doc.WriteString("<GIFTI Version=\"1.0\" NumberOfDataArrays=\"1\">\n")
	fmt.Fprintf(&doc, " <DataArray Intent=\"NIFTI_INTENT_NONE\" DataType=\"NIFTI_TYPE_FLOAT32\" ArrayIndexingOrder=\"RowMajorOrder\" Dimensionality=\"1\" Dim0=\"%d\" Encoding=\"Base64Binary\" Endian=\"LittleEndian\">\n", len(data))
	doc.WriteString("  <Data>")
	doc.WriteString(payload)
	doc.WriteString("</Data>\n </DataArray>\n</GIFTI>\n")

	return os.WriteFile(path, []byte(doc.String()), 0644)
}
