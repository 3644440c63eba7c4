package constants

import "strings"

// ImageExtensions holds the snapshot extensions accepted for offline OCR and watch mode.
var ImageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// Output artifact names written into the screenshot directory.
const (
	RawCSVName        = "ocr_results.csv"
	StructuredCSVName = "ocr_results_structured.csv"
	AllOCRTextName    = "all_ocr_results.txt"
	StructuredXLSX    = "ocr_results_structured.xlsx"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (with or without the dot) is an accepted snapshot format.
func IsImageExt(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}
