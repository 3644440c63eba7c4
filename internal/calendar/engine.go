package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/shift-sync/internal/common"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// FallbackTimeZone applies when the calendar's zone cannot be read.
const FallbackTimeZone = "America/New_York"

// Options configure an Engine.
type Options struct {
	CalendarID string
	Title      string
	// Location overrides the calendar's declared time zone when set.
	Location *time.Location
	// Year applies to records that carry none.
	Year        int
	Concurrency int
}

// Result is the outcome of syncing one record.
type Result struct {
	Record  entity.ShiftRecord
	EventID string
	Event   Event
	Err     error
	Class   ErrorClass
}

// Summary totals a Sync call. Results follow input order.
type Summary struct {
	Attempted int
	Succeeded int
	Failed    int
	Results   []Result
}

// Engine upserts shift records as calendar events under derived ids, so running it
// twice over the same records updates rather than duplicates.
type Engine struct {
	svc    Service
	opts   Options
	logger *slog.Logger
}

func NewEngine(svc Service, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Engine{svc: svc, opts: opts, logger: logger}
}

// Location resolves the zone events are built in.
func (e *Engine) Location(ctx context.Context) *time.Location {
	if e.opts.Location != nil {
		return e.opts.Location
	}
	name, err := e.svc.TimeZone(ctx, e.opts.CalendarID)
	if err != nil || name == "" {
		e.logger.Warn("sync.timezone.fallback", "calendar_id", e.opts.CalendarID, "zone", FallbackTimeZone, "error", err)
		name = FallbackTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		e.logger.Warn("sync.timezone.unknown", "zone", name, "error", err)
		return time.UTC
	}
	e.logger.Info("sync.timezone", "calendar_id", e.opts.CalendarID, "zone", loc.String())
	return loc
}

// Sync upserts every record. A failing record is reported in its Result and never stops
// the others; the returned error is non-nil only when ctx ends first.
func (e *Engine) Sync(ctx context.Context, records []entity.ShiftRecord) (Summary, error) {
	loc := e.Location(ctx)
	results := make([]Result, len(records))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			results[i] = e.syncOne(gCtx, rec, loc)
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{Attempted: len(records), Results: results}
	for _, r := range results {
		if r.Err != nil {
			sum.Failed++
		} else {
			sum.Succeeded++
		}
	}
	e.logger.Info("sync.done",
		"calendar_id", e.opts.CalendarID,
		"attempted", sum.Attempted,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
	)
	return sum, ctx.Err()
}

func (e *Engine) syncOne(ctx context.Context, rec entity.ShiftRecord, loc *time.Location) Result {
	res := Result{Record: rec}
	logger := e.logger
	if id, ok := common.RunIDFromContext(ctx); ok {
		logger = logger.With("run_id", id)
	}
	if err := ctx.Err(); err != nil {
		res.Err, res.Class = err, ClassOther
		return res
	}

	ev, err := BuildEvent(rec, e.opts.Title, e.opts.CalendarID, e.opts.Year, loc)
	if err != nil {
		res.Err = &InvalidRecordError{SegmentID: rec.SourceSegmentID, Err: err}
		res.Class = ClassInvalid
		logger.Warn("sync.record.invalid", "segment", rec.SourceSegmentID, "error", err)
		return res
	}
	res.EventID = ev.ID
	if partialMeal(rec) {
		logger.Warn("sync.meal.partial",
			"segment", rec.SourceSegmentID,
			"meal_start", rec.MealStart,
			"meal_end", rec.MealEnd,
		)
	}

	saved, err := e.svc.Upsert(ctx, e.opts.CalendarID, ev)
	if err != nil {
		res.Err = fmt.Errorf("upsert %s: %w", ev.ID, err)
		res.Class = Classify(err)
		logger.Error("sync.event.failed",
			"segment", rec.SourceSegmentID,
			"event_id", ev.ID,
			"class", string(res.Class),
			"hint", res.Class.Hint(e.opts.CalendarID),
			"error", err,
		)
		return res
	}
	res.Event = saved
	logger.Info("sync.event.upserted",
		"segment", rec.SourceSegmentID,
		"event_id", ev.ID,
		"start", ev.Start.Format(time.RFC3339),
		"link", saved.HTMLLink,
	)
	return res
}

// Find lists events titled like the engine's events in [from, to).
func (e *Engine) Find(ctx context.Context, from, to time.Time) ([]Event, error) {
	evs, err := e.svc.List(ctx, e.opts.CalendarID, ListQuery{Title: e.opts.Title, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return evs, nil
}

// DeleteSummary totals a Delete call.
type DeleteSummary struct {
	Deleted int
	Failed  int
}

// Delete removes evs one by one, continuing past failures.
func (e *Engine) Delete(ctx context.Context, evs []Event) (DeleteSummary, error) {
	var sum DeleteSummary
	for _, ev := range evs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := e.svc.Delete(ctx, e.opts.CalendarID, ev.ID); err != nil {
			sum.Failed++
			e.logger.Error("sync.event.delete_failed", "event_id", ev.ID, "error", err)
			continue
		}
		sum.Deleted++
		e.logger.Info("sync.event.deleted", "event_id", ev.ID, "start", ev.Start.Format(time.RFC3339))
	}
	return sum, nil
}
