package traversal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/shift-sync/constants"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// Surface is a resolved handle on the capture canvas. Coordinates are relative to
// its top-left corner.
type Surface interface {
	Screenshot(ctx context.Context) ([]byte, error)
	Click(ctx context.Context, x, y float64) error
	Wheel(ctx context.Context, deltaY, x, y float64) error
}

// Driver resolves the capture surface and navigates the page hosting it.
type Driver interface {
	// Locate blocks until the surface is visible or ctx is done.
	Locate(ctx context.Context) (Surface, error)
	// Back returns from a row's detail view to the list.
	Back(ctx context.Context) error
}

// Sink receives images as they are captured.
type Sink interface {
	Segment(ctx context.Context, seg *entity.ImageSegment) error
	Snapshot(ctx context.Context, name string, img []byte) error
}

// Result is the ordered output of a traversal.
type Result struct {
	Segments      []entity.ImageSegment
	RowsCompleted int
}

// Details returns only the detail segments, in row order.
func (r Result) Details() []entity.ImageSegment {
	out := make([]entity.ImageSegment, 0, r.RowsCompleted)
	for _, s := range r.Segments {
		if s.Tag == constants.TagDetail {
			out = append(out, s)
		}
	}
	return out
}

// Controller walks every row of the virtualized day list exactly once.
type Controller struct {
	driver  Driver
	profile Profile
	sink    Sink
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithSink streams segments and diagnostic snapshots to s as they are captured.
func WithSink(s Sink) Option {
	return func(c *Controller) { c.sink = s }
}

func NewController(driver Driver, profile Profile, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		driver:  driver,
		profile: profile,
		logger:  logger,
		sleep:   sleepCtx,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// run is the mutable state threaded through the step functions.
type run struct {
	rows    int
	row     int
	step    Step
	surface Surface
	seq     int
	result  Result
}

// Run executes the preamble, then every row of the profile. Capture is unconditional:
// exactly Rows detail segments are produced on success. Any failure aborts with *Error.
func (c *Controller) Run(ctx context.Context) (Result, error) {
	if err := c.profile.Check(); err != nil {
		return Result{}, err
	}
	r := &run{rows: c.profile.Rows, step: StepLocate}

	surface, err := c.locate(ctx)
	if err != nil {
		return r.result, c.fail(r, err)
	}
	r.surface = surface

	r.step = StepPreamble
	if err := c.preamble(ctx, r); err != nil {
		return r.result, c.fail(r, err)
	}

	start := time.Now()
	r.step = entry(0)
	for r.step != StepDone {
		if err := ctx.Err(); err != nil {
			return r.result, c.fail(r, err)
		}
		if err := c.exec(ctx, r); err != nil {
			return r.result, c.fail(r, err)
		}
		r.step = next(r)
	}
	c.logger.Info("traversal.done",
		"rows", r.result.RowsCompleted,
		"segments", len(r.result.Segments),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return r.result, nil
}

// entry is the first step of row i.
func entry(i int) Step {
	if i%constants.DaysPerWeek == 0 {
		return StepSummaryCapture
	}
	return StepSelectRow
}

// next is the transition function of the row state machine.
func next(r *run) Step {
	switch r.step {
	case StepSummaryCapture:
		return StepSummaryAdvance
	case StepSummaryAdvance:
		return StepSelectRow
	case StepSelectRow:
		return StepCaptureDetail
	case StepCaptureDetail:
		return StepReturnToList
	case StepReturnToList:
		return StepReacquire
	case StepReacquire:
		return StepAdvance
	case StepAdvance:
		r.row++
		if r.row >= r.rows {
			return StepDone
		}
		return entry(r.row)
	}
	return StepDone
}

func (c *Controller) exec(ctx context.Context, r *run) error {
	p := c.profile
	switch r.step {
	case StepSummaryCapture:
		return c.capture(ctx, r, constants.TagWeeklySummary, r.row)

	case StepSummaryAdvance:
		delta := p.SummaryAdvance.Later
		if r.row == 0 {
			delta = p.SummaryAdvance.First
		}
		if err := c.wheel(ctx, r.surface, delta, p.SummaryAdvance.At.X, p.SummaryAdvance.At.Y); err != nil {
			return err
		}
		if p.AfterSummarySnapshots {
			if err := c.snapshot(ctx, r, fmt.Sprintf("after_summary_%d_canvas.png", r.row)); err != nil {
				return err
			}
		}
		return c.sleep(ctx, p.Delays.AfterSummaryAdvance)

	case StepSelectRow:
		if err := c.click(ctx, r.surface, p.Select.X, p.Select.Y); err != nil {
			return err
		}
		return c.sleep(ctx, p.Delays.AfterSelect)

	case StepCaptureDetail:
		if err := c.capture(ctx, r, constants.TagDetail, r.row+1); err != nil {
			return err
		}
		r.result.RowsCompleted++
		c.logger.Info("traversal.row.ok", "row", r.row+1, "of", p.Rows)
		return nil

	case StepReturnToList:
		sctx, cancel := context.WithTimeout(ctx, p.StepTimeout)
		defer cancel()
		if err := c.driver.Back(sctx); err != nil {
			return fmt.Errorf("navigate back: %w", err)
		}
		return c.sleep(ctx, p.Delays.AfterBack)

	case StepReacquire:
		// the page may rebuild the canvas after navigation; never reuse the old handle
		s, err := c.locate(ctx)
		if err != nil {
			return err
		}
		r.surface = s
		return nil

	case StepAdvance:
		if err := c.wheel(ctx, r.surface, p.RowAdvance.Delta, p.RowAdvance.At.X, p.RowAdvance.At.Y); err != nil {
			return err
		}
		return c.sleep(ctx, p.Delays.AfterAdvance)
	}
	return fmt.Errorf("unknown step %v", r.step)
}

func (c *Controller) preamble(ctx context.Context, r *run) error {
	for i, a := range c.profile.Preamble {
		var err error
		switch a.Kind {
		case ActionClick:
			if err = c.click(ctx, r.surface, a.X, a.Y); err == nil {
				err = c.sleep(ctx, c.profile.Delays.AfterClick)
			}
		case ActionWheel:
			steps := a.Steps
			if steps == 0 {
				steps = 1
			}
			for n := 0; n < steps && err == nil; n++ {
				if err = c.wheel(ctx, r.surface, a.DeltaY, a.X, a.Y); err == nil {
					err = c.sleep(ctx, c.profile.Delays.BetweenWheelSteps)
				}
			}
		case ActionSnapshot:
			err = c.snapshot(ctx, r, a.Name+"_snapshot.png")
		case ActionWait:
			err = c.sleep(ctx, a.Wait)
		default:
			err = fmt.Errorf("unknown action %q", a.Kind)
		}
		if err != nil {
			return fmt.Errorf("preamble[%d] %s: %w", i, a.Kind, err)
		}
		c.logger.Debug("traversal.preamble.ok", "index", i, "action", a.Kind)
	}
	return nil
}

func (c *Controller) locate(ctx context.Context) (Surface, error) {
	lctx, cancel := context.WithTimeout(ctx, c.profile.LocateTimeout)
	defer cancel()
	s, err := c.driver.Locate(lctx)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", c.profile.Locator, err)
	}
	if s == nil {
		return nil, fmt.Errorf("locate %s: no surface", c.profile.Locator)
	}
	return s, nil
}

func (c *Controller) click(ctx context.Context, s Surface, x, y float64) error {
	sctx, cancel := context.WithTimeout(ctx, c.profile.StepTimeout)
	defer cancel()
	if err := s.Click(sctx, x, y); err != nil {
		return fmt.Errorf("click (%.0f,%.0f): %w", x, y, err)
	}
	return nil
}

func (c *Controller) wheel(ctx context.Context, s Surface, deltaY, x, y float64) error {
	sctx, cancel := context.WithTimeout(ctx, c.profile.StepTimeout)
	defer cancel()
	if err := s.Wheel(sctx, deltaY, x, y); err != nil {
		return fmt.Errorf("wheel %.0f at (%.0f,%.0f): %w", deltaY, x, y, err)
	}
	return nil
}

func (c *Controller) screenshot(ctx context.Context, s Surface) ([]byte, error) {
	sctx, cancel := context.WithTimeout(ctx, c.profile.StepTimeout)
	defer cancel()
	img, err := s.Screenshot(sctx)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return img, nil
}

func (c *Controller) capture(ctx context.Context, r *run, tag constants.SegmentTag, row int) error {
	img, err := c.screenshot(ctx, r.surface)
	if err != nil {
		return err
	}
	seg := entity.ImageSegment{Seq: r.seq, Tag: tag, Row: row, Image: img}
	if c.sink != nil {
		if err := c.sink.Segment(ctx, &seg); err != nil {
			return fmt.Errorf("store segment %s: %w", seg.Name(), err)
		}
	}
	r.seq++
	r.result.Segments = append(r.result.Segments, seg)
	c.logger.Debug("traversal.segment.captured", "seq", seg.Seq, "tag", tag, "row", row, "bytes", len(img))
	return nil
}

func (c *Controller) snapshot(ctx context.Context, r *run, name string) error {
	if c.sink == nil {
		return nil
	}
	img, err := c.screenshot(ctx, r.surface)
	if err != nil {
		return err
	}
	if err := c.sink.Snapshot(ctx, name, img); err != nil {
		return fmt.Errorf("store snapshot %s: %w", name, err)
	}
	return nil
}

func (c *Controller) fail(r *run, err error) error {
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	e := &Error{Row: r.row, Step: r.step, RowsCompleted: r.result.RowsCompleted, Err: err}
	c.logger.Error("traversal.aborted",
		"row", r.row,
		"step", r.step.String(),
		"rows_completed", e.RowsCompleted,
		"error", err,
	)
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
