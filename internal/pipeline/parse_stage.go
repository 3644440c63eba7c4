package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shift-sync/internal/entity"
	"github.com/joseph-ayodele/shift-sync/internal/parser"
	"github.com/joseph-ayodele/shift-sync/internal/repository"
)

type ParseStage struct {
	Parser *parser.Parser
	Shifts repository.ShiftRepository
	Logger *slog.Logger
}

func NewParseStage(p *parser.Parser, shifts repository.ShiftRepository, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Parser: p, Shifts: shifts, Logger: logger}
}

// Run reconstructs records from results and persists the accepted ones under runID.
func (p *ParseStage) Run(ctx context.Context, runID uuid.UUID, results []entity.RawOCRResult) ([]entity.ShiftRecord, map[parser.Verdict]int, error) {
	recs, verdicts := p.Parser.ParseAll(results)
	if len(recs) == 0 {
		p.Logger.Warn("parse.no_records", "run_id", runID, "segments", len(results))
		return recs, verdicts, nil
	}
	if err := p.Shifts.SaveRecords(ctx, runID, recs); err != nil {
		return recs, verdicts, fmt.Errorf("save records: %w", err)
	}
	return recs, verdicts, nil
}
