package export

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

var sample = entity.ShiftRecord{
	SourceSegmentID: "detail_view_3_canvas.png",
	EmployeeName:    "John D",
	StoreNumber:     "#1234",
	Weekday:         "Mon",
	Month:           "Jul",
	DayOfMonth:      15,
	ShiftStart:      "9:00 AM",
	MealStart:       "12:00 PM",
	MealEnd:         "12:30 PM",
	ShiftEnd:        "5:00 PM",
	Department:      "001 - Lumber",
}

func TestWriteStructuredHeaderIsExact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStructured(&buf, []entity.ShiftRecord{sample}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "png_filename,username,store_number,weekday,month,date,shift_start,meal_start,meal_end,shift_end,department", lines[0])
	assert.Equal(t, "detail_view_3_canvas.png,John D,#1234,Mon,Jul,15,9:00 AM,12:00 PM,12:30 PM,5:00 PM,001 - Lumber", lines[1])
}

func TestStructuredRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocr_results_structured.csv")
	require.NoError(t, WriteStructuredFile(path, []entity.ShiftRecord{sample}))

	recs, skipped, err := ReadStructuredFile(path)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, recs, 1)
	assert.Equal(t, sample, recs[0])
}

func TestReadStructuredSkipsBadRows(t *testing.T) {
	in := "\ufeffpng_filename,username,store_number,weekday,month,date,shift_start,meal_start,meal_end,shift_end,department\n" +
		"a.png,,,,Jul,15,9:00 AM,,,5:00 PM,\n" +
		"b.png,,,,Jul,x,9:00 AM,,,5:00 PM,\n" +
		"c.png,,,,,16,9:00 AM,,,5:00 PM,\n" +
		"d.png,,,,Jul,17,9:00 AM\n"
	recs, skipped, err := ReadStructured(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a.png", recs[0].SourceSegmentID)
	require.Len(t, skipped, 3)
	assert.Equal(t, 3, skipped[0].Line)
	assert.Equal(t, 4, skipped[1].Line)
	assert.Equal(t, 5, skipped[2].Line)
}

func TestReadStructuredMissingColumn(t *testing.T) {
	_, _, err := ReadStructured(strings.NewReader("png_filename,month\n"))
	assert.ErrorContains(t, err, "missing column")
}

func TestRawRoundTripFlattensText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRaw(&buf, []entity.RawOCRResult{
		{SegmentID: "detail_view_1_canvas.png", Text: "John D\n#1234, Mon\nJul 15\n"},
	}))
	got, err := ReadRaw(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "detail_view_1_canvas.png", got[0].SegmentID)
	assert.Equal(t, "John D #1234, Mon Jul 15", got[0].Text)
}

func TestWriteAllText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAllText(&buf, []entity.RawOCRResult{{Text: "a"}, {Text: "b"}}))
	assert.Equal(t, "--- OCR Result 1 ---\na\n"+strings.Repeat("-", 40)+"\n--- OCR Result 2 ---\nb\n"+strings.Repeat("-", 40)+"\n", buf.String())
}

func TestShiftsXLSX(t *testing.T) {
	b, err := NewService(nil).ShiftsXLSX(context.Background(), []entity.ShiftRecord{sample})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Shifts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "png_filename", rows[0][0])
	assert.Equal(t, "department", rows[0][10])
	assert.Equal(t, "15", rows[1][5])
	assert.Equal(t, "001 - Lumber", rows[1][10])
}
