package extract

import (
	"context"

	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// TextRecognizer is Stage 1: captured segment -> raw text.
type TextRecognizer interface {
	Recognize(ctx context.Context, seg entity.ImageSegment) (entity.RawOCRResult, error)
}
