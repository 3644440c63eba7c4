package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/shift-sync/internal/entity"
	"github.com/joseph-ayodele/shift-sync/internal/ocr"
)

type OCRAdapter struct {
	extractor *ocr.Extractor
	logger    *slog.Logger
}

func NewOCRAdapter(e *ocr.Extractor, l *slog.Logger) *OCRAdapter {
	if l == nil {
		l = slog.Default()
	}
	return &OCRAdapter{
		extractor: e,
		logger:    l,
	}
}

// Recognize reads the segment from disk when it was persisted, from memory otherwise.
func (a *OCRAdapter) Recognize(ctx context.Context, seg entity.ImageSegment) (entity.RawOCRResult, error) {
	var (
		r   ocr.ExtractionResult
		err error
	)
	switch {
	case seg.Path != "":
		r, err = a.extractor.Extract(ctx, seg.Path)
	case len(seg.Image) > 0:
		r, err = a.extractor.ExtractBytes(ctx, seg.Image)
	default:
		return entity.RawOCRResult{}, fmt.Errorf("segment %s has no image", seg.Name())
	}
	if err != nil {
		return entity.RawOCRResult{}, fmt.Errorf("recognize %s: %w", seg.Name(), err)
	}
	for _, w := range r.Warnings {
		a.logger.Warn("ocr.warning", "segment", seg.Name(), "warning", w)
	}
	return entity.RawOCRResult{
		SegmentID:  seg.Name(),
		Text:       r.Text,
		Confidence: r.Confidence,
	}, nil
}
