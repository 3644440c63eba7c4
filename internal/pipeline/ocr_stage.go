package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/shift-sync/internal/entity"
	"github.com/joseph-ayodele/shift-sync/internal/extract"
	"github.com/joseph-ayodele/shift-sync/internal/ocr"
	"github.com/joseph-ayodele/shift-sync/internal/repository"
)

type OCRStage struct {
	Recognizer extract.TextRecognizer
	Shifts     repository.ShiftRepository
	Workers    int
	Logger     *slog.Logger
}

func NewOCRStage(rec extract.TextRecognizer, shifts repository.ShiftRepository, workers int, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	return &OCRStage{Recognizer: rec, Shifts: shifts, Workers: workers, Logger: logger}
}

// Run recognizes segs with up to Workers in flight and persists every result under runID.
// A segment whose OCR fails is logged and left out; results keep segment order.
// It returns the number of failed segments alongside the results.
func (s *OCRStage) Run(ctx context.Context, runID uuid.UUID, segs []entity.ImageSegment) ([]entity.RawOCRResult, int, error) {
	slots := make([]*entity.RawOCRResult, len(segs))
	var failed atomic.Int32

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for i, seg := range segs {
		g.Go(func() error {
			start := time.Now()
			res, err := s.Recognizer.Recognize(gCtx, seg)
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				failed.Add(1)
				s.Logger.Warn("ocr.segment.failed", "run_id", runID, "segment", seg.Name(), "error", err)
				return nil
			}
			if err := s.Shifts.SaveOCRResult(gCtx, runID, seg.Path, res); err != nil {
				return err
			}
			slots[i] = &res
			s.Logger.Debug("ocr.segment.ok",
				"run_id", runID,
				"segment", res.SegmentID,
				"chars", len(res.Text),
				"confidence", res.Confidence,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			if res.Confidence > 0 && res.Confidence < ocr.ImageConfidenceThreshold {
				s.Logger.Warn("ocr.segment.low_confidence", "segment", res.SegmentID, "confidence", res.Confidence)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, int(failed.Load()), err
	}

	out := make([]entity.RawOCRResult, 0, len(segs))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	s.Logger.Info("ocr.done", "run_id", runID, "segments", len(segs), "recognized", len(out), "failed", failed.Load())
	return out, int(failed.Load()), nil
}
