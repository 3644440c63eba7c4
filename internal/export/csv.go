package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/shift-sync/constants"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
	"github.com/joseph-ayodele/shift-sync/internal/ocr"
)

// RowError is a structured CSV row that could not be loaded.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

// WriteRaw writes one flattened row per OCR result.
func WriteRaw(w io.Writer, results []entity.RawOCRResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(constants.RawColumns); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{r.SegmentID, ocr.Flatten(r.Text)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRaw loads a raw OCR CSV. Columns are matched by header name.
func ReadRaw(r io.Reader) ([]entity.RawOCRResult, error) {
	rows, idx, err := readAll(r, constants.RawColumns)
	if err != nil {
		return nil, err
	}
	out := make([]entity.RawOCRResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.RawOCRResult{
			SegmentID: row[idx["filename"]],
			Text:      row[idx["ocr_text"]],
		})
	}
	return out, nil
}

// WriteStructured writes records in the fixed structured column order.
func WriteStructured(w io.Writer, recs []entity.ShiftRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(constants.StructuredColumns); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(structuredRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func structuredRow(r entity.ShiftRecord) []string {
	date := ""
	if r.DayOfMonth > 0 {
		date = strconv.Itoa(r.DayOfMonth)
	}
	return []string{
		r.SourceSegmentID, r.EmployeeName, r.StoreNumber, r.Weekday, r.Month, date,
		r.ShiftStart, r.MealStart, r.MealEnd, r.ShiftEnd, r.Department,
	}
}

// ReadStructured loads a structured CSV. Rows missing a required field or with a
// non-numeric date are returned as RowErrors and skipped.
func ReadStructured(r io.Reader) ([]entity.ShiftRecord, []RowError, error) {
	rows, idx, err := readAll(r, constants.StructuredColumns)
	if err != nil {
		return nil, nil, err
	}
	var (
		out     []entity.ShiftRecord
		skipped []RowError
	)
	for i, row := range rows {
		get := func(col string) string { return strings.TrimSpace(row[idx[col]]) }
		line := i + 2 // header is line 1

		rec := entity.ShiftRecord{
			SourceSegmentID: get("png_filename"),
			EmployeeName:    get("username"),
			StoreNumber:     get("store_number"),
			Weekday:         get("weekday"),
			Month:           get("month"),
			ShiftStart:      get("shift_start"),
			MealStart:       get("meal_start"),
			MealEnd:         get("meal_end"),
			ShiftEnd:        get("shift_end"),
			Department:      get("department"),
		}
		if d := get("date"); d != "" {
			n, err := strconv.Atoi(d)
			if err != nil {
				skipped = append(skipped, RowError{Line: line, Err: fmt.Errorf("date %q: %w", d, err)})
				continue
			}
			rec.DayOfMonth = n
		}
		if !rec.Valid() {
			skipped = append(skipped, RowError{Line: line, Err: errors.New("missing date or shift times")})
			continue
		}
		out = append(out, rec)
	}
	return out, skipped, nil
}

func readAll(r io.Reader, want []string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	for _, col := range want {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", col)
		}
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	for i, row := range rows {
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			rows[i] = padded
		}
	}
	return rows, idx, nil
}

// WriteAllText writes every result as a titled block, for reading OCR output by eye.
func WriteAllText(w io.Writer, results []entity.RawOCRResult) error {
	sep := strings.Repeat("-", 40)
	for i, r := range results {
		if _, err := fmt.Fprintf(w, "--- OCR Result %d ---\n%s\n%s\n", i+1, r.Text, sep); err != nil {
			return err
		}
	}
	return nil
}

// writeFile runs write against a freshly created file at path.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func WriteRawFile(path string, results []entity.RawOCRResult) error {
	return writeFile(path, func(w io.Writer) error { return WriteRaw(w, results) })
}

func WriteStructuredFile(path string, recs []entity.ShiftRecord) error {
	return writeFile(path, func(w io.Writer) error { return WriteStructured(w, recs) })
}

func WriteAllTextFile(path string, results []entity.RawOCRResult) error {
	return writeFile(path, func(w io.Writer) error { return WriteAllText(w, results) })
}

func ReadRawFile(path string) ([]entity.RawOCRResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRaw(f)
}

func ReadStructuredFile(path string) ([]entity.ShiftRecord, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadStructured(f)
}
