package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joseph-ayodele/shift-sync/constants"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("png"), 0o644))
	return p
}

func TestSegmentFromPath(t *testing.T) {
	tests := []struct {
		name string
		row  int
		ok   bool
	}{
		{"detail_view_1_canvas.png", 1, true},
		{"detail_view_21_canvas.PNG", 21, true},
		{"detail_view_3_canvas.jpg", 3, true},
		{"detail_view_0_canvas.png", 0, false},
		{"weekly_summary_7_canvas.png", 0, false},
		{"dashboard_snapshot.png", 0, false},
		{"detail_view_4_canvas.txt", 0, false},
		{"ocr_results.csv", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, ok := SegmentFromPath(filepath.Join("/snaps", tt.name))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.row, seg.Row)
				assert.Equal(t, constants.TagDetail, seg.Tag)
				assert.Equal(t, filepath.Join("/snaps", tt.name), seg.Path)
			}
		})
	}
}

func TestScanDirOrdersByRow(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "detail_view_10_canvas.png")
	touch(t, dir, "detail_view_2_canvas.png")
	touch(t, dir, "detail_view_1_canvas.png")
	touch(t, dir, "weekly_summary_0_canvas.png")
	touch(t, dir, "after_summary_0_canvas.png")
	touch(t, dir, ".detail_view_5_canvas.png")

	segs, stats, err := ScanDir(dir, true)
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{segs[0].Row, segs[1].Row, segs[2].Row})
	assert.Equal(t, []int{0, 1, 2}, []int{segs[0].Seq, segs[1].Seq, segs[2].Seq})
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Skipped)
}

func TestScanDirRequiresRoot(t *testing.T) {
	_, _, err := ScanDir("  ", false)
	assert.Error(t, err)
}

func TestWatcherEmitsDetailSnapshots(t *testing.T) {
	dir := t.TempDir()
	existing := touch(t, dir, "detail_view_1_canvas.png")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Dir: dir, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, existing, p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan not emitted")
	}

	touch(t, dir, "weekly_summary_0_canvas.png")
	created := touch(t, dir, "detail_view_2_canvas.png")

	select {
	case p := <-events:
		assert.Equal(t, created, p)
	case <-time.After(2 * time.Second):
		t.Fatal("new snapshot not emitted")
	}

	cancel()
	for range events {
	}
}

func TestWatcherRejectsMissingDir(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)

	_, _, err = StartWatcher(context.Background(), WatchConfig{Dir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
