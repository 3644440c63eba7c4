package constants

// StructuredColumns is the column order of the structured shift CSV.
// Downstream consumers depend on this order; do not reorder or rename.
var StructuredColumns = []string{
	"png_filename", "username", "store_number", "weekday", "month", "date",
	"shift_start", "meal_start", "meal_end", "shift_end", "department",
}

// RawColumns is the column order of the raw OCR CSV.
var RawColumns = []string{"filename", "ocr_text"}
