package entity

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one extraction run for data transfer between layers.
type Run struct {
	ID            uuid.UUID  `json:"id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Status        string     `json:"status"`
	RowsCompleted int        `json:"rows_completed"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
}

// SyncResult records the outcome of upserting one shift record.
type SyncResult struct {
	RunID        uuid.UUID `json:"run_id"`
	SegmentID    string    `json:"segment_id"`
	EventID      string    `json:"event_id"`
	CalendarID   string    `json:"calendar_id"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	SyncedAt     time.Time `json:"synced_at"`
}
