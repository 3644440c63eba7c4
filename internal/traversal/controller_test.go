package traversal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shift-sync/constants"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// fakeDriver records every interaction as a line in calls.
type fakeDriver struct {
	mu        sync.Mutex
	calls     []string
	locates   int
	failAfter int // fail the Nth Locate (1-based); 0 never fails
	backErr   error
}

type fakeSurface struct {
	d  *fakeDriver
	id int
}

func (d *fakeDriver) record(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDriver) Locate(ctx context.Context) (Surface, error) {
	d.mu.Lock()
	d.locates++
	n := d.locates
	d.mu.Unlock()
	if d.failAfter > 0 && n >= d.failAfter {
		return nil, context.DeadlineExceeded
	}
	d.record("locate")
	return &fakeSurface{d: d, id: n}, nil
}

func (d *fakeDriver) Back(ctx context.Context) error {
	if d.backErr != nil {
		return d.backErr
	}
	d.record("back")
	return nil
}

func (s *fakeSurface) Screenshot(ctx context.Context) ([]byte, error) {
	s.d.record("shot")
	return []byte(fmt.Sprintf("png-%d", s.id)), nil
}

func (s *fakeSurface) Click(ctx context.Context, x, y float64) error {
	s.d.record("click %.0f,%.0f", x, y)
	return nil
}

func (s *fakeSurface) Wheel(ctx context.Context, deltaY, x, y float64) error {
	s.d.record("wheel %.0f at %.0f,%.0f", deltaY, x, y)
	return nil
}

type memSink struct {
	segments  []string
	snapshots []string
}

func (m *memSink) Segment(ctx context.Context, seg *entity.ImageSegment) error {
	seg.Path = "/tmp/" + seg.Name()
	m.segments = append(m.segments, seg.Name())
	return nil
}

func (m *memSink) Snapshot(ctx context.Context, name string, img []byte) error {
	m.snapshots = append(m.snapshots, name)
	return nil
}

func testProfile(rows int) Profile {
	p := DefaultProfile()
	p.Rows = rows
	p.Delays = Delays{}
	p.Preamble = nil
	p.AfterSummarySnapshots = false
	p.LocateTimeout = time.Second
	p.StepTimeout = time.Second
	return p
}

func TestRunEmitsExactlyNDetailSegments(t *testing.T) {
	for _, rows := range []int{1, 6, 7, 8, 14, 21, 22} {
		t.Run(fmt.Sprintf("rows=%d", rows), func(t *testing.T) {
			res, err := NewController(&fakeDriver{}, testProfile(rows), nil).Run(context.Background())
			require.NoError(t, err)

			details := res.Details()
			require.Len(t, details, rows)
			for i, s := range details {
				assert.Equal(t, i+1, s.Row)
			}
			assert.Equal(t, rows, res.RowsCompleted)

			var summaries []int
			for i, s := range res.Segments {
				assert.Equal(t, i, s.Seq, "sequence must be dense")
				if s.Tag == constants.TagWeeklySummary {
					summaries = append(summaries, s.Row)
				}
			}
			var want []int
			for i := 0; i < rows; i++ {
				if i%7 == 0 {
					want = append(want, i)
				}
			}
			assert.Equal(t, want, summaries)
		})
	}
}

func TestRunInteractionOrder(t *testing.T) {
	d := &fakeDriver{}
	_, err := NewController(d, testProfile(2), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"locate",
		// row 0 opens the first week
		"shot",
		"wheel 100 at 1200,195",
		"click 1200,195",
		"shot",
		"back",
		"locate",
		"wheel 114 at 1200,290",
		// row 1
		"click 1200,195",
		"shot",
		"back",
		"locate",
		"wheel 114 at 1200,290",
	}, d.calls)
}

func TestRunLaterWeeksUseLaterSummaryAdvance(t *testing.T) {
	d := &fakeDriver{}
	_, err := NewController(d, testProfile(8), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, d.calls, "wheel 100 at 1200,195")
	assert.Contains(t, d.calls, "wheel 150 at 1200,195")
}

func TestRunUsesReacquiredSurface(t *testing.T) {
	res, err := NewController(&fakeDriver{}, testProfile(3), nil).Run(context.Background())
	require.NoError(t, err)
	details := res.Details()
	// each detail shot is taken on the surface located after the previous row's return
	assert.Equal(t, "png-1", string(details[0].Image))
	assert.Equal(t, "png-2", string(details[1].Image))
	assert.Equal(t, "png-3", string(details[2].Image))
}

func TestRunAbortsOnReacquireFailure(t *testing.T) {
	// initial locate succeeds, rows 1..3 re-acquire, the 5th locate fails
	d := &fakeDriver{failAfter: 5}
	res, err := NewController(d, testProfile(10), nil).Run(context.Background())
	require.Error(t, err)

	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StepReacquire, te.Step)
	assert.Equal(t, 3, te.Row)
	assert.Equal(t, 4, te.RowsCompleted)
	assert.Equal(t, 4, res.RowsCompleted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, res.Details(), 4)
}

func TestRunAbortsOnBackFailure(t *testing.T) {
	boom := errors.New("history empty")
	_, err := NewController(&fakeDriver{backErr: boom}, testProfile(5), nil).Run(context.Background())

	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StepReturnToList, te.Step)
	assert.Equal(t, 0, te.Row)
	assert.Equal(t, 1, te.RowsCompleted)
	assert.ErrorIs(t, err, boom)
}

func TestRunInitialLocateFailure(t *testing.T) {
	_, err := NewController(&fakeDriver{failAfter: 1}, testProfile(3), nil).Run(context.Background())
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StepLocate, te.Step)
	assert.Equal(t, 0, te.RowsCompleted)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewController(&fakeDriver{}, testProfile(3), nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunPreambleAndSink(t *testing.T) {
	p := testProfile(1)
	p.AfterSummarySnapshots = true
	p.Preamble = []Action{
		{Kind: ActionSnapshot, Name: "dashboard"},
		{Kind: ActionClick, X: 300, Y: 300},
		{Kind: ActionWheel, X: 1200, Y: 350, DeltaY: -120, Steps: 3},
		{Kind: ActionWait},
	}
	d := &fakeDriver{}
	sink := &memSink{}
	res, err := NewController(d, p, nil, WithSink(sink)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"locate",
		"shot",
		"click 300,300",
		"wheel -120 at 1200,350",
		"wheel -120 at 1200,350",
		"wheel -120 at 1200,350",
	}, d.calls[:6])
	assert.Equal(t, []string{"dashboard_snapshot.png", "after_summary_0_canvas.png"}, sink.snapshots)
	assert.Equal(t, []string{"weekly_summary_0_canvas.png", "detail_view_1_canvas.png"}, sink.segments)
	assert.Equal(t, "/tmp/detail_view_1_canvas.png", res.Details()[0].Path)
}

func TestRunRejectsBadProfile(t *testing.T) {
	_, err := NewController(&fakeDriver{}, testProfile(0), nil).Run(context.Background())
	require.Error(t, err)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "reacquire", StepReacquire.String())
	assert.Equal(t, "step(42)", Step(42).String())
}
