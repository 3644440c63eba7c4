package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls  [][]string
	stdout string
	tsv    string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	if args[len(args)-1] == "tsv" {
		return []byte(f.tsv), nil, nil
	}
	return []byte(f.stdout), nil, nil
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))
	return path
}

func TestExtractRunsTesseract(t *testing.T) {
	r := &fakeRunner{stdout: "John D\r\n#1234\t\tMon Jul 15\n\n\n\n9:00 AM   5:00 PM\n-----\n"}
	e := NewExtractorWithRunner(Config{PSM: 6, TessdataDir: "/td"}, r, nil)
	path := writeImage(t, "detail_view_1_canvas.png")

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "John D\n#1234 Mon Jul 15\n\n9:00 AM 5:00 PM", res.Text)
	assert.Equal(t, "eng", res.Language)
	assert.Greater(t, res.Confidence, float32(0.5))

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"tesseract", path, "stdout", "-l", "eng", "--psm", "6", "--tessdata-dir", "/td"}, r.calls[0])
}

func TestExtractBlendsTSVConfidence(t *testing.T) {
	tsv := strings.Join([]string{
		"level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext",
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t",
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tJul",
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\t15",
	}, "\n")
	r := &fakeRunner{stdout: "Jul 15", tsv: tsv}
	e := NewExtractorWithRunner(Config{EnableTSVConfidence: true}, r, nil)

	res, err := e.Extract(context.Background(), writeImage(t, "a.png"))
	require.NoError(t, err)
	require.Len(t, r.calls, 2)
	assert.Equal(t, "tsv", r.calls[1][len(r.calls[1])-1])

	heur := heuristicConfidence("Jul 15")
	assert.InDelta(t, 0.7*0.8+0.3*heur, res.Confidence, 1e-4)
}

func TestExtractErrors(t *testing.T) {
	e := NewExtractorWithRunner(Config{}, &fakeRunner{err: errors.New("exit 1")}, nil)
	_, err := e.Extract(context.Background(), writeImage(t, "a.png"))
	assert.ErrorContains(t, err, "tesseract")

	_, err = e.Extract(context.Background(), writeImage(t, "a.pdf"))
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestExtractBytesCleansUp(t *testing.T) {
	r := &fakeRunner{stdout: "Jul 15 9:00 AM"}
	e := NewExtractorWithRunner(Config{}, r, nil)
	res, err := e.ExtractBytes(context.Background(), []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "Jul 15 9:00 AM", res.Text)

	staged := r.calls[0][1]
	_, statErr := os.Stat(staged)
	assert.True(t, os.IsNotExist(statErr))
}

func TestHeuristicConfidence(t *testing.T) {
	empty := heuristicConfidence("")
	full := heuristicConfidence("John D #1234 Mon Jul 15 9:00 AM 12:00 PM 12:30 PM 5:00 PM 001 - Lumber")
	assert.InDelta(t, 0.2, empty, 1e-5)
	assert.InDelta(t, 0.95, full, 1e-5)
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "a b  c", Flatten("\n a\nb\n\nc \n"))
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, _, err := ExecRunner{}.Run(context.Background(), "shiftsync-no-such-binary")
	require.Error(t, err)

	_, err = LookupBinary("shiftsync-no-such-binary")
	assert.ErrorContains(t, err, "TESSERACT_BIN")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 5))
	assert.Equal(t, "ab...(truncated)", clip("abcd", 2))
}
