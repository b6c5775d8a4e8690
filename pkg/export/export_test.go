package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agenda() Table {
	return Table{
		Title:   "Upcoming events",
		Columns: []string{"Date", "Time", "Title", "Type"},
		Rows: [][]string{
			{"2024-10-02", "09:00", "Science Fair", "academic"},
			{"2024-10-05", "", "Parent Meeting, Grade 10", "meeting"},
		},
	}
}

func TestCSVRenderer(t *testing.T) {
	out, err := CSVRenderer{}.Render(agenda())
	require.NoError(t, err)
	assert.Equal(t, "Date,Time,Title,Type\n2024-10-02,09:00,Science Fair,academic\n2024-10-05,,\"Parent Meeting, Grade 10\",meeting\n", string(out))
}

func TestPDFRenderer(t *testing.T) {
	out, err := PDFRenderer{}.Render(agenda())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	empty := agenda()
	empty.Rows = nil
	out, err = PDFRenderer{}.Render(empty)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	table := agenda()
	table.Rows = append(table.Rows, []string{"only one"})
	_, err := CSVRenderer{}.Render(table)
	assert.Error(t, err)

	_, err = PDFRenderer{}.Render(Table{})
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	r, err := ForFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", r.ContentType())

	r, err = ForFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, r.Extension())

	_, err = ForFormat("xlsx")
	assert.Error(t, err)
}
