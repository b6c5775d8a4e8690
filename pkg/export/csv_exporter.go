package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVRenderer writes the header row followed by the table rows.
type CSVRenderer struct{}

// ContentType implements Renderer.
func (CSVRenderer) ContentType() string { return "text/csv; charset=utf-8" }

// Extension implements Renderer.
func (CSVRenderer) Extension() string { return FormatCSV }

// Render implements Renderer.
func (CSVRenderer) Render(t Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
