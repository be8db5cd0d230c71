package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Cell is one (header, value) pair of a ResultRow.
type Cell struct {
	Header string
	Value  string
}

// ResultRow is an ordered mapping from column header to cell value.
// Headers are unique within a row; setting an existing header replaces its
// value but keeps its original position.
type ResultRow struct {
	cells []Cell
}

func NewResultRow(cells ...Cell) ResultRow {
	row := ResultRow{cells: make([]Cell, 0, len(cells))}
	for _, c := range cells {
		row.set(c.Header, c.Value)
	}
	return row
}

// zipRow pairs headers and values positionally, stopping at the shorter of
// the two. Headers without a value are absent from the row, not empty.
func zipRow(headers []string, values []string) ResultRow {
	n := min(len(headers), len(values))
	row := ResultRow{cells: make([]Cell, 0, n)}
	for i := 0; i < n; i++ {
		row.set(headers[i], values[i])
	}
	return row
}

func (r *ResultRow) set(header, value string) {
	for i := range r.cells {
		if r.cells[i].Header == header {
			r.cells[i].Value = value
			return
		}
	}
	r.cells = append(r.cells, Cell{Header: header, Value: value})
}

// Get returns the value stored under header and whether it is present.
func (r ResultRow) Get(header string) (string, bool) {
	for _, c := range r.cells {
		if c.Header == header {
			return c.Value, true
		}
	}
	return "", false
}

func (r ResultRow) Cells() []Cell {
	cells := make([]Cell, len(r.cells))
	copy(cells, r.cells)
	return cells
}

func (r ResultRow) Headers() []string {
	headers := make([]string, len(r.cells))
	for i, c := range r.cells {
		headers[i] = c.Header
	}
	return headers
}

func (r ResultRow) Len() int {
	return len(r.cells)
}

// MarshalJSON encodes the row as a JSON object whose keys follow column order.
func (r ResultRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Header)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order of the input.
// String values are kept verbatim, null becomes "" and any other value is
// kept as its compact JSON text (e.g. 85 becomes "85").
func (r *ResultRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("result row must be a JSON object, got %v", tok)
	}

	row := ResultRow{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected result row key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		row.set(key, cellText(raw))
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = row
	return nil
}

func cellText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}
