package traversal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shift-sync/internal/common"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	require.NoError(t, p.Check())
	assert.Equal(t, 21, p.Rows)
	assert.Equal(t, Point{X: 1200, Y: 195}, p.Select)
	assert.Equal(t, 100.0, p.SummaryAdvance.First)
	assert.Equal(t, 150.0, p.SummaryAdvance.Later)
	assert.Equal(t, 114.0, p.RowAdvance.Delta)
	assert.Equal(t, Point{X: 1200, Y: 290}, p.RowAdvance.At)
}

func TestParseProfileOverridesDefaults(t *testing.T) {
	p, err := ParseProfile([]byte(`
rows: 28
row_advance:
  delta: 120
delays:
  after_back: 3s
preamble:
  - action: click
    x: 10
    y: 20
  - action: wait
    wait: 500ms
`))
	require.NoError(t, err)
	assert.Equal(t, 28, p.Rows)
	assert.Equal(t, 120.0, p.RowAdvance.Delta)
	assert.Equal(t, Point{X: 1200, Y: 290}, p.RowAdvance.At, "unset keys keep defaults")
	assert.Equal(t, 3*time.Second, p.Delays.AfterBack)
	assert.Equal(t, time.Second, p.Delays.AfterSelect)
	require.Len(t, p.Preamble, 2)
	assert.Equal(t, ActionWait, p.Preamble[1].Kind)
	assert.Equal(t, 500*time.Millisecond, p.Preamble[1].Wait)
}

func TestParseProfileSchemaViolations(t *testing.T) {
	tests := map[string]string{
		"zero rows":      "rows: 0\n",
		"unknown key":    "rowz: 3\n",
		"bad action":     "preamble:\n  - action: drag\n",
		"bad duration":   "step_timeout: soon\n",
		"negative point": "select:\n  x: -1\n  y: 2\n",
		"string rows":    "rows: many\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProfile([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rows: 7\n"), 0o644))
	p, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Rows)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCheckFlagsValidationErrors(t *testing.T) {
	p := DefaultProfile()
	p.Locator = ""
	err := p.Check()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))

	_, err = ParseProfile([]byte("rows: 0\n"))
	assert.True(t, errors.Is(err, common.ErrValidation))
}
