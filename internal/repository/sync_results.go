package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shift-sync/internal/common"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

type SyncResultRepository interface {
	Save(ctx context.Context, res entity.SyncResult) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.SyncResult, error)
}

type syncResultRepo struct {
	db  *DB
	log *slog.Logger
}

func NewSyncResultRepository(db *DB, log *slog.Logger) SyncResultRepository {
	if log == nil {
		log = slog.Default()
	}
	return &syncResultRepo{db: db, log: log}
}

func (r *syncResultRepo) Save(ctx context.Context, res entity.SyncResult) error {
	_, err := r.db.exec(ctx,
		`INSERT INTO sync_results (run_id, segment_id, event_id, calendar_id, status, error_message, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, segment_id, calendar_id) DO UPDATE SET
		   event_id = excluded.event_id, status = excluded.status,
		   error_message = excluded.error_message, synced_at = excluded.synced_at`,
		res.RunID.String(), res.SegmentID, res.EventID, res.CalendarID, res.Status, res.ErrorMessage, res.SyncedAt.UTC())
	if err != nil {
		r.log.Error("save sync result failed", "run_id", res.RunID, "segment", res.SegmentID, "err", err)
		return common.NewAppError("DB_ERROR", "save sync result", errors.Join(common.ErrDatabase, err))
	}
	return nil
}

func (r *syncResultRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.SyncResult, error) {
	rows, err := r.db.query(ctx,
		`SELECT segment_id, event_id, calendar_id, status, error_message, synced_at
		 FROM sync_results WHERE run_id = ? ORDER BY segment_id`, runID.String())
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "list sync results", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []entity.SyncResult
	for rows.Next() {
		res := entity.SyncResult{RunID: runID}
		if err := rows.Scan(&res.SegmentID, &res.EventID, &res.CalendarID, &res.Status, &res.ErrorMessage, &res.SyncedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
