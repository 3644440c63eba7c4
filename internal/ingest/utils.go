package ingest

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/shift-sync/constants"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

var detailName = regexp.MustCompile(`^detail_view_(\d+)_canvas\.[A-Za-z]+$`)

// SegmentFromPath recognizes a detail snapshot by its file name.
// The returned segment keeps the path; its image is read lazily by the OCR adapter.
func SegmentFromPath(path string) (entity.ImageSegment, bool) {
	base := filepath.Base(path)
	if !constants.IsImageExt(filepath.Ext(base)) {
		return entity.ImageSegment{}, false
	}
	m := detailName.FindStringSubmatch(base)
	if m == nil {
		return entity.ImageSegment{}, false
	}
	row, err := strconv.Atoi(m[1])
	if err != nil || row < 1 {
		return entity.ImageSegment{}, false
	}
	return entity.ImageSegment{Tag: constants.TagDetail, Row: row, Path: path}, true
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
