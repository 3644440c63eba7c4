package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shift-sync/constants"
	"github.com/joseph-ayodele/shift-sync/internal/common"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

type RunRepository interface {
	Start(ctx context.Context) (*entity.Run, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.RunStatus, rowsCompleted int) error
	Finish(ctx context.Context, id uuid.UUID, status constants.RunStatus, rowsCompleted int, failure error) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	List(ctx context.Context, limit int) ([]*entity.Run, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log}
}

func (r *runRepo) Start(ctx context.Context) (*entity.Run, error) {
	run := &entity.Run{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		Status:    string(constants.RunStatusRunning),
	}
	_, err := r.db.exec(ctx,
		`INSERT INTO runs (id, started_at, status, rows_completed) VALUES (?, ?, ?, 0)`,
		run.ID.String(), run.StartedAt, run.Status)
	if err != nil {
		r.log.Error("run start failed", "err", err)
		return nil, common.NewAppError("DB_ERROR", "start run", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("run started", "run_id", run.ID)
	return run, nil
}

func (r *runRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.RunStatus, rowsCompleted int) error {
	res, err := r.db.exec(ctx,
		`UPDATE runs SET status = ?, rows_completed = ? WHERE id = ?`,
		string(status), rowsCompleted, id.String())
	if err != nil {
		return common.NewAppError("DB_ERROR", "update run", errors.Join(common.ErrDatabase, err))
	}
	return mustAffect(res, "run", id)
}

func (r *runRepo) Finish(ctx context.Context, id uuid.UUID, status constants.RunStatus, rowsCompleted int, failure error) error {
	var msg sql.NullString
	if failure != nil {
		msg = sql.NullString{String: failure.Error(), Valid: true}
	}
	res, err := r.db.exec(ctx,
		`UPDATE runs SET status = ?, rows_completed = ?, finished_at = ?, error_message = ? WHERE id = ?`,
		string(status), rowsCompleted, time.Now().UTC(), msg, id.String())
	if err != nil {
		r.log.Error("run finish failed", "run_id", id, "err", err)
		return common.NewAppError("DB_ERROR", "finish run", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("run finished", "run_id", id, "status", status, "rows_completed", rowsCompleted)
	return mustAffect(res, "run", id)
}

func (r *runRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	row := r.db.queryRow(ctx,
		`SELECT id, started_at, finished_at, status, rows_completed, error_message FROM runs WHERE id = ?`,
		id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", fmt.Sprintf("run %s", id), common.ErrNotFound)
	}
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "get run", errors.Join(common.ErrDatabase, err))
	}
	return run, nil
}

func (r *runRepo) List(ctx context.Context, limit int) ([]*entity.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.query(ctx,
		`SELECT id, started_at, finished_at, status, rows_completed, error_message
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "list runs", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []*entity.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*entity.Run, error) {
	var (
		id       string
		run      entity.Run
		finished sql.NullTime
		msg      sql.NullString
	)
	if err := s.Scan(&id, &run.StartedAt, &finished, &run.Status, &run.RowsCompleted, &msg); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("run id %q: %w", id, err)
	}
	run.ID = parsed
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	if msg.Valid {
		run.ErrorMessage = &msg.String
	}
	return &run, nil
}

func mustAffect(res sql.Result, what string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return common.NewAppError("NOT_FOUND", fmt.Sprintf("%s %s", what, id), common.ErrNotFound)
	}
	return nil
}
