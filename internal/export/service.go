package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/shift-sync/constants"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// Service renders shift records into spreadsheet exports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ShiftsXLSX returns an XLSX workbook (as bytes) with one row per record, in the
// structured CSV column order.
func (s *Service) ShiftsXLSX(ctx context.Context, recs []entity.ShiftRecord) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Shifts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range constants.StructuredColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for r, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := structuredRow(rec)
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			// date stays numeric so the sheet sorts and filters on it
			if c == 5 && rec.DayOfMonth > 0 {
				_ = f.SetCellValue(sheet, cell, rec.DayOfMonth)
				continue
			}
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // png_filename
	_ = f.SetColWidth(sheet, "B", "D", 12) // username, store, weekday
	_ = f.SetColWidth(sheet, "G", "J", 11) // times
	_ = f.SetColWidth(sheet, "K", "K", 24) // department

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
