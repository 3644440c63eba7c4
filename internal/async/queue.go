package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one snapshot waiting for OCR and parsing.
type Job struct {
	RunID       uuid.UUID
	Path        string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
