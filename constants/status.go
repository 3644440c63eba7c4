package constants

// RunStatus is the canonical status for rows in the runs table.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning   RunStatus = "RUNNING"   // traversal in progress
	RunStatusCaptured  RunStatus = "CAPTURED"  // all rows captured, OCR pending
	RunStatusParsed    RunStatus = "PARSED"    // OCR + parse done
	RunStatusCompleted RunStatus = "COMPLETED" // sync done (or skipped)
	RunStatusFailed    RunStatus = "FAILED"    // terminal failure
)

// SyncStatus is the per-record outcome stored in sync_results.
type SyncStatus string

const (
	SyncStatusUpserted SyncStatus = "UPSERTED"
	SyncStatusFailed   SyncStatus = "FAILED"
)
