package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Runner lets us stub the tesseract binary in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

const stderrLogCap = 4 << 10

// ExecRunner shells out to a real binary.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		// the image path is the first argument; that is enough to find the failing segment
		var target string
		if len(args) > 0 {
			target = args[0]
		}
		logger.Error("ocr.exec.failed", "cmd", name, "target", target, "duration_ms", elapsed,
			"error", err, "stderr", clip(errb.String(), stderrLogCap))
		return out.Bytes(), errb.Bytes(), err
	}
	logger.Debug("ocr.exec.ok", "cmd", name, "duration_ms", elapsed, "stdout_bytes", out.Len())
	return out.Bytes(), errb.Bytes(), nil
}

// LookupBinary reports whether the configured tesseract binary can be found.
func LookupBinary(name string) (string, error) {
	if name == "" {
		name = "tesseract"
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("tesseract not found (set TESSERACT_BIN): %w", err)
	}
	return p, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
