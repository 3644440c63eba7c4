package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/shift-sync/internal/common"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// ScanDir collects the detail snapshots saved under root, ordered by row.
// Weekly summaries, diagnostic snapshots and anything that is not an image are skipped.
func ScanDir(root string, skipHidden bool) ([]entity.ImageSegment, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, fmt.Errorf("snapshot dir is required: %w", common.ErrInvalidInput)
	}

	var (
		segs  []entity.ImageSegment
		stats DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != root && skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++

		seg, ok := SegmentFromPath(path)
		if !ok {
			stats.Skipped++
			return nil
		}
		stats.Matched++
		segs = append(segs, seg)
		return nil
	})
	if err != nil {
		return segs, stats, fmt.Errorf("walk: %w", err)
	}

	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Row < segs[j].Row })
	for i := range segs {
		segs[i].Seq = i
	}
	return segs, stats, nil
}
