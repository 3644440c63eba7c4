package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shift-sync/internal/common"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// ShiftRepository persists what a run recognized and reconstructed.
type ShiftRepository interface {
	SaveOCRResult(ctx context.Context, runID uuid.UUID, path string, res entity.RawOCRResult) error
	ListOCRResults(ctx context.Context, runID uuid.UUID) ([]entity.RawOCRResult, error)
	SaveRecords(ctx context.Context, runID uuid.UUID, recs []entity.ShiftRecord) error
	ListRecords(ctx context.Context, runID uuid.UUID) ([]entity.ShiftRecord, error)
}

type shiftRepo struct {
	db  *DB
	log *slog.Logger
}

func NewShiftRepository(db *DB, log *slog.Logger) ShiftRepository {
	if log == nil {
		log = slog.Default()
	}
	return &shiftRepo{db: db, log: log}
}

func (r *shiftRepo) SaveOCRResult(ctx context.Context, runID uuid.UUID, path string, res entity.RawOCRResult) error {
	_, err := r.db.exec(ctx,
		`INSERT INTO ocr_results (run_id, segment_id, path, ocr_text, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, segment_id) DO UPDATE SET
		   path = excluded.path, ocr_text = excluded.ocr_text, confidence = excluded.confidence`,
		runID.String(), res.SegmentID, path, res.Text, float64(res.Confidence), time.Now().UTC())
	if err != nil {
		r.log.Error("save ocr result failed", "run_id", runID, "segment", res.SegmentID, "err", err)
		return common.NewAppError("DB_ERROR", "save ocr result", errors.Join(common.ErrDatabase, err))
	}
	return nil
}

func (r *shiftRepo) ListOCRResults(ctx context.Context, runID uuid.UUID) ([]entity.RawOCRResult, error) {
	rows, err := r.db.query(ctx,
		`SELECT segment_id, ocr_text, confidence FROM ocr_results WHERE run_id = ? ORDER BY created_at, segment_id`,
		runID.String())
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "list ocr results", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []entity.RawOCRResult
	for rows.Next() {
		var (
			res  entity.RawOCRResult
			conf float64
		)
		if err := rows.Scan(&res.SegmentID, &res.Text, &conf); err != nil {
			return nil, err
		}
		res.Confidence = float32(conf)
		out = append(out, res)
	}
	return out, rows.Err()
}

// SaveRecords upserts recs for runID in one transaction, keyed by source segment.
func (r *shiftRepo) SaveRecords(ctx context.Context, runID uuid.UUID, recs []entity.ShiftRecord) error {
	tx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("DB_ERROR", "begin", errors.Join(common.ErrDatabase, err))
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, r.db.rebind(
		`INSERT INTO shift_records (run_id, segment_id, username, store_number, weekday, month, day_of_month,
		   year, shift_start, meal_start, meal_end, shift_end, department)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, segment_id) DO UPDATE SET
		   username = excluded.username, store_number = excluded.store_number, weekday = excluded.weekday,
		   month = excluded.month, day_of_month = excluded.day_of_month, year = excluded.year,
		   shift_start = excluded.shift_start, meal_start = excluded.meal_start, meal_end = excluded.meal_end,
		   shift_end = excluded.shift_end, department = excluded.department`))
	if err != nil {
		return common.NewAppError("DB_ERROR", "prepare", errors.Join(common.ErrDatabase, err))
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, runID.String(), rec.SourceSegmentID, rec.EmployeeName, rec.StoreNumber,
			rec.Weekday, rec.Month, rec.DayOfMonth, rec.Year, rec.ShiftStart, rec.MealStart, rec.MealEnd,
			rec.ShiftEnd, rec.Department); err != nil {
			r.log.Error("save shift record failed", "run_id", runID, "segment", rec.SourceSegmentID, "err", err)
			return common.NewAppError("DB_ERROR", "save record", errors.Join(common.ErrDatabase, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError("DB_ERROR", "commit", errors.Join(common.ErrDatabase, err))
	}
	r.log.Debug("shift records saved", "run_id", runID, "count", len(recs))
	return nil
}

func (r *shiftRepo) ListRecords(ctx context.Context, runID uuid.UUID) ([]entity.ShiftRecord, error) {
	rows, err := r.db.query(ctx,
		`SELECT segment_id, username, store_number, weekday, month, day_of_month, year,
		        shift_start, meal_start, meal_end, shift_end, department
		 FROM shift_records WHERE run_id = ? ORDER BY segment_id`, runID.String())
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "list records", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []entity.ShiftRecord
	for rows.Next() {
		var rec entity.ShiftRecord
		if err := rows.Scan(&rec.SourceSegmentID, &rec.EmployeeName, &rec.StoreNumber, &rec.Weekday, &rec.Month,
			&rec.DayOfMonth, &rec.Year, &rec.ShiftStart, &rec.MealStart, &rec.MealEnd, &rec.ShiftEnd,
			&rec.Department); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
