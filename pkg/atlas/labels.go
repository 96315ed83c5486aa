package atlas

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// LoadLabelTable reads an id-to-name table in any of the three supported
// conventions, chosen by file extension: semicolon-delimited CSV with
// ROIid/ROIname columns, whitespace-delimited "id name..." text, or a CAT12
// XML label list.
func LoadLabelTable(path string) (map[int]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSVLabels(raw)
	case ".txt":
		return parseTextLabels(raw), nil
	case ".xml":
		return parseXMLLabels(raw)
	default:
		return nil, fmt.Errorf("unsupported label table format %q", filepath.Ext(path))
	}
}

func parseCSVLabels(raw []byte) (map[int]string, error) {
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.Comma = ';'
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV label table: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("empty CSV label table")
	}

	idCol, nameCol := -1, -1
	for i, col := range rows[0] {
		switch strings.TrimSpace(col) {
		case "ROIid":
			idCol = i
		case "ROIname":
			nameCol = i
		}
	}
	if idCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("CSV label table lacks ROIid/ROIname columns")
	}

	labels := make(map[int]string)
	for _, row := range rows[1:] {
		if len(row) <= idCol || len(row) <= nameCol {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[idCol]))
		if err != nil {
			continue
		}
		labels[id] = strings.TrimSpace(row[nameCol])
	}
	return labels, nil
}

func parseTextLabels(raw []byte) map[int]string {
	labels := make(map[int]string)
	for _, line := range strings.Split(string(raw), "\n") {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		id, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		labels[id] = strings.Join(parts[1:], " ")
	}
	return labels
}

// xmlEntities are the references allowed to keep their ampersand.
var xmlEntities = []string{"&amp;", "&lt;", "&gt;", "&apos;", "&quot;"}

// SanitizeAmpersands escapes every bare "&" that does not already start one
// of the five predefined XML entities. CAT12 label files regularly contain
// raw ampersands in region names.
func SanitizeAmpersands(raw []byte) []byte {
	var out []byte
	for i := 0; i < len(raw); i++ {
		if raw[i] != '&' {
			out = append(out, raw[i])
			continue
		}
		escaped := false
		for _, ent := range xmlEntities {
			if i+len(ent) <= len(raw) && string(raw[i:i+len(ent)]) == ent {
				escaped = true
				break
			}
		}
		if escaped {
			out = append(out, '&')
		} else {
			out = append(out, []byte("&amp;")...)
		}
	}
	return out
}

func parseXMLLabels(raw []byte) (map[int]string, error) {
	dec := xml.NewDecoder(strings.NewReader(string(SanitizeAmpersands(raw))))
	// CAT12 ships ISO-8859-1 encoded label lists
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "iso-8859-1", "latin1", "windows-1252":
			return charmap.ISO8859_1.NewDecoder().Reader(input), nil
		default:
			return input, nil
		}
	}

	labels := make(map[int]string)
	var inLabel bool
	var index *int
	var name *string
	var current string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing XML label table: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "label":
				inLabel = true
				index, name = nil, nil
			case "index", "name":
				current = t.Name.Local
			}
		case xml.CharData:
			if !inLabel {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch current {
			case "index":
				if v, err := strconv.Atoi(text); err == nil {
					index = &v
				}
			case "name":
				n := text
				name = &n
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "index", "name":
				current = ""
			case "label":
				if index != nil && name != nil {
					labels[*index] = *name
				}
				inLabel = false
			}
		}
	}
	return labels, nil
}
