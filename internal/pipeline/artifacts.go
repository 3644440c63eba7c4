package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/shift-sync/constants"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
	"github.com/joseph-ayodele/shift-sync/internal/export"
)

// writeArtifacts writes the raw CSV, the OCR text dump, the structured CSV and,
// when enabled, the XLSX workbook into dir. It returns the written paths.
func (p *Processor) writeArtifacts(ctx context.Context, dir string, results []entity.RawOCRResult, recs []entity.ShiftRecord) ([]string, error) {
	var written []string

	steps := []struct {
		name  string
		write func(path string) error
	}{
		{constants.AllOCRTextName, func(path string) error { return export.WriteAllTextFile(path, results) }},
		{constants.RawCSVName, func(path string) error { return export.WriteRawFile(path, results) }},
		{constants.StructuredCSVName, func(path string) error { return export.WriteStructuredFile(path, recs) }},
	}
	for _, s := range steps {
		path := filepath.Join(dir, s.name)
		if err := s.write(path); err != nil {
			return written, fmt.Errorf("write %s: %w", s.name, err)
		}
		written = append(written, path)
	}

	if p.Cfg.XLSX {
		data, err := p.Export.ShiftsXLSX(ctx, recs)
		if err != nil {
			return written, fmt.Errorf("render xlsx: %w", err)
		}
		path := filepath.Join(dir, constants.StructuredXLSX)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", constants.StructuredXLSX, err)
		}
		written = append(written, path)
	}

	p.Logger.Info("artifacts.written", "dir", dir, "files", len(written))
	return written, nil
}
