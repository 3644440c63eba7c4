package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shift-sync/constants"
	"github.com/joseph-ayodele/shift-sync/internal/calendar"
	"github.com/joseph-ayodele/shift-sync/internal/capture"
	"github.com/joseph-ayodele/shift-sync/internal/common"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
	"github.com/joseph-ayodele/shift-sync/internal/export"
	"github.com/joseph-ayodele/shift-sync/internal/ingest"
	"github.com/joseph-ayodele/shift-sync/internal/parser"
	"github.com/joseph-ayodele/shift-sync/internal/repository"
	"github.com/joseph-ayodele/shift-sync/internal/traversal"
)

// Browser is the capture session an extract run drives.
type Browser interface {
	traversal.Driver
	Open(ctx context.Context, url string) error
	WaitForSurface(ctx context.Context, timeout time.Duration) error
	Close() error
}

// LaunchFunc starts a browser for one run.
type LaunchFunc func(ctx context.Context) (Browser, error)

// Syncer pushes records to a calendar.
type Syncer interface {
	Sync(ctx context.Context, records []entity.ShiftRecord) (calendar.Summary, error)
}

type Config struct {
	URL          string
	LoginTimeout time.Duration
	OutputDir    string
	Profile      traversal.Profile
	XLSX         bool
	CalendarID   string
}

// Report is what a run produced.
type Report struct {
	RunID         uuid.UUID
	RowsCompleted int
	Segments      int
	OCRFailed     int
	Verdicts      map[parser.Verdict]int
	Records       []entity.ShiftRecord
	Artifacts     []string
	Sync          *calendar.Summary
}

// Processor coordinates capture, OCR, parse, export and sync, recording each run in the store.
type Processor struct {
	Logger *slog.Logger
	Cfg    Config
	Runs   repository.RunRepository
	Synced repository.SyncResultRepository
	OCR    *OCRStage
	Parse  *ParseStage
	Export *export.Service
	Launch LaunchFunc
	Syncer Syncer
	Clock  func() time.Time
}

func NewProcessor(
	logger *slog.Logger,
	cfg Config,
	runs repository.RunRepository,
	synced repository.SyncResultRepository,
	ocrStage *OCRStage,
	parseStage *ParseStage,
	exp *export.Service,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger: logger,
		Cfg:    cfg,
		Runs:   runs,
		Synced: synced,
		OCR:    ocrStage,
		Parse:  parseStage,
		Export: exp,
		Clock:  time.Now,
	}
}

// Extract performs a full run: it clears the output dir, captures every row through the
// browser, then OCRs, parses and exports the detail segments. With sync set, records are
// pushed to the calendar as well.
func (p *Processor) Extract(ctx context.Context, sync bool) (Report, error) {
	if p.Launch == nil {
		return Report{}, errors.New("no browser launcher configured")
	}
	if sync && p.Syncer == nil {
		return Report{}, errors.New("sync requested without a calendar")
	}
	run, err := p.Runs.Start(ctx)
	if err != nil {
		return Report{}, err
	}
	rep := Report{RunID: run.ID}
	log := p.Logger.With("run_id", run.ID)

	if err := capture.ResetDir(p.Cfg.OutputDir); err != nil {
		return rep, p.fail(ctx, run.ID, 0, err)
	}
	sink, err := capture.NewDirSink(p.Cfg.OutputDir)
	if err != nil {
		return rep, p.fail(ctx, run.ID, 0, err)
	}

	browser, err := p.Launch(ctx)
	if err != nil {
		return rep, p.fail(ctx, run.ID, 0, fmt.Errorf("launch browser: %w", err))
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.Warn("browser close failed", "error", err)
		}
	}()

	if err := browser.Open(ctx, p.Cfg.URL); err != nil {
		return rep, p.fail(ctx, run.ID, 0, err)
	}
	log.Info("extract.awaiting_login", "url", p.Cfg.URL, "timeout", p.Cfg.LoginTimeout)
	if err := browser.WaitForSurface(ctx, p.Cfg.LoginTimeout); err != nil {
		return rep, p.fail(ctx, run.ID, 0, fmt.Errorf("wait for schedule: %w", err))
	}

	ctrl := traversal.NewController(browser, p.Cfg.Profile, p.Logger, traversal.WithSink(sink))
	res, err := ctrl.Run(ctx)
	rep.RowsCompleted = res.RowsCompleted
	rep.Segments = len(res.Segments)
	if err != nil {
		var terr *traversal.Error
		if errors.As(err, &terr) {
			rep.RowsCompleted = terr.RowsCompleted
		}
		return rep, p.fail(ctx, run.ID, rep.RowsCompleted, err)
	}
	if err := p.Runs.SetStatus(ctx, run.ID, constants.RunStatusCaptured, rep.RowsCompleted); err != nil {
		return rep, err
	}

	if err := p.process(ctx, &rep, p.Cfg.OutputDir, res.Details(), sync); err != nil {
		return rep, p.fail(ctx, run.ID, rep.RowsCompleted, err)
	}
	return rep, p.finish(ctx, rep)
}

// ProcessDir OCRs the detail snapshots already saved in dir and writes the artifacts next to them.
func (p *Processor) ProcessDir(ctx context.Context, dir string, sync bool) (Report, error) {
	if sync && p.Syncer == nil {
		return Report{}, errors.New("sync requested without a calendar")
	}
	segs, stats, err := ingest.ScanDir(dir, true)
	if err != nil {
		return Report{}, err
	}
	p.Logger.Info("snapshots.scanned", "dir", dir, "matched", stats.Matched, "skipped", stats.Skipped)
	if len(segs) == 0 {
		return Report{}, fmt.Errorf("no detail snapshots in %s", dir)
	}

	run, err := p.Runs.Start(ctx)
	if err != nil {
		return Report{}, err
	}
	rep := Report{RunID: run.ID, Segments: len(segs), RowsCompleted: len(segs)}
	if err := p.process(ctx, &rep, dir, segs, sync); err != nil {
		return rep, p.fail(ctx, run.ID, rep.RowsCompleted, err)
	}
	return rep, p.finish(ctx, rep)
}

// ParseFile turns a raw OCR CSV into a structured CSV at out.
func (p *Processor) ParseFile(ctx context.Context, in, out string) (Report, error) {
	results, err := export.ReadRawFile(in)
	if err != nil {
		return Report{}, fmt.Errorf("read %s: %w", in, err)
	}
	run, err := p.Runs.Start(ctx)
	if err != nil {
		return Report{}, err
	}
	rep := Report{RunID: run.ID, Segments: len(results)}

	rep.Records, rep.Verdicts, err = p.Parse.Run(ctx, run.ID, results)
	if err != nil {
		return rep, p.fail(ctx, run.ID, 0, err)
	}
	if err := export.WriteStructuredFile(out, rep.Records); err != nil {
		return rep, p.fail(ctx, run.ID, 0, fmt.Errorf("write %s: %w", out, err))
	}
	rep.Artifacts = []string{out}
	return rep, p.finish(ctx, rep)
}

// SyncFile pushes the records of a structured CSV to the calendar.
// Rows that fail to load are logged and skipped.
func (p *Processor) SyncFile(ctx context.Context, path string) (Report, error) {
	if p.Syncer == nil {
		return Report{}, errors.New("no calendar configured")
	}
	recs, rowErrs, err := export.ReadStructuredFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read %s: %w", path, err)
	}
	for _, re := range rowErrs {
		p.Logger.Warn("sync.row.skipped", "file", filepath.Base(path), "line", re.Line, "error", re.Err)
	}

	run, err := p.Runs.Start(ctx)
	if err != nil {
		return Report{}, err
	}
	rep := Report{RunID: run.ID, Records: recs}
	if err := p.sync(ctx, &rep); err != nil {
		return rep, p.fail(ctx, run.ID, 0, err)
	}
	return rep, p.finish(ctx, rep)
}

// StartSession opens a run that ProcessSnapshot calls attach to.
func (p *Processor) StartSession(ctx context.Context) (uuid.UUID, error) {
	run, err := p.Runs.Start(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return run.ID, nil
}

// EndSession closes a run opened by StartSession.
func (p *Processor) EndSession(ctx context.Context, runID uuid.UUID, processed int, cause error) error {
	status := constants.RunStatusCompleted
	if cause != nil {
		status = constants.RunStatusFailed
	}
	return p.Runs.Finish(ctx, runID, status, processed, cause)
}

// ProcessSnapshot OCRs and parses a single detail snapshot into runID.
func (p *Processor) ProcessSnapshot(ctx context.Context, runID uuid.UUID, path string) (*entity.ShiftRecord, error) {
	seg, ok := ingest.SegmentFromPath(path)
	if !ok {
		return nil, fmt.Errorf("not a detail snapshot: %s", path)
	}
	results, failed, err := p.OCR.Run(ctx, runID, []entity.ImageSegment{seg})
	if err != nil {
		return nil, err
	}
	if failed > 0 || len(results) == 0 {
		return nil, fmt.Errorf("ocr failed for %s", seg.Name())
	}
	recs, _, err := p.Parse.Run(ctx, runID, results)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

func (p *Processor) process(ctx context.Context, rep *Report, dir string, segs []entity.ImageSegment, sync bool) error {
	results, failed, err := p.OCR.Run(ctx, rep.RunID, segs)
	rep.OCRFailed = failed
	if err != nil {
		return fmt.Errorf("ocr: %w", err)
	}

	rep.Records, rep.Verdicts, err = p.Parse.Run(ctx, rep.RunID, results)
	if err != nil {
		return err
	}
	if err := p.Runs.SetStatus(ctx, rep.RunID, constants.RunStatusParsed, rep.RowsCompleted); err != nil {
		return err
	}

	rep.Artifacts, err = p.writeArtifacts(ctx, dir, results, rep.Records)
	if err != nil {
		return err
	}
	if !sync {
		return nil
	}
	return p.sync(ctx, rep)
}

// sync pushes rep.Records and records one sync result per record.
func (p *Processor) sync(ctx context.Context, rep *Report) error {
	sum, err := p.Syncer.Sync(common.WithRunID(ctx, rep.RunID), rep.Records)
	rep.Sync = &sum
	now := p.Clock().UTC()
	for _, r := range sum.Results {
		row := entity.SyncResult{
			RunID:      rep.RunID,
			SegmentID:  r.Record.SourceSegmentID,
			EventID:    r.EventID,
			CalendarID: p.Cfg.CalendarID,
			Status:     string(constants.SyncStatusUpserted),
			SyncedAt:   now,
		}
		if r.Err != nil {
			row.Status = string(constants.SyncStatusFailed)
			row.ErrorMessage = fmt.Sprintf("%s: %v", r.Class, r.Err)
		}
		if serr := p.Synced.Save(ctx, row); serr != nil {
			p.Logger.Error("sync.result.save_failed", "segment", row.SegmentID, "error", serr)
		}
	}
	return err
}

func (p *Processor) finish(ctx context.Context, rep Report) error {
	return p.Runs.Finish(ctx, rep.RunID, constants.RunStatusCompleted, rep.RowsCompleted, nil)
}

// fail marks the run failed and returns cause. The run is closed even if ctx was cancelled.
func (p *Processor) fail(ctx context.Context, runID uuid.UUID, rows int, cause error) error {
	if err := p.Runs.Finish(context.WithoutCancel(ctx), runID, constants.RunStatusFailed, rows, cause); err != nil {
		p.Logger.Error("run.finish_failed", "run_id", runID, "error", err)
	}
	p.Logger.Error("run.failed", "run_id", runID, "rows_completed", rows, "error", cause)
	return cause
}
