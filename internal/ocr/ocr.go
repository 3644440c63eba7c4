package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/shift-sync/constants"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"

	TessdataDir         string
	EnableTSVConfidence bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

type ExtractionResult struct {
	Text       string
	Method     string // "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return NewExtractorWithRunner(cfg, ExecRunner{Logger: logger}, logger)
}

// NewExtractorWithRunner is NewExtractor with the command runner swapped out.
func NewExtractorWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// Extract recognizes the text of a snapshot image on disk.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsImageExt(ext) {
		e.logger.Error("ocr.extension.unsupported", "path", path, "extension", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	e.logger.Debug("ocr.extract.start", "path", path)
	res, err := e.extractImage(ctx, path)
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	e.logger.Debug("ocr.extract.ok",
		"path", path,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// ExtractBytes recognizes an in-memory PNG by staging it in a temporary file.
func (e *Extractor) ExtractBytes(ctx context.Context, img []byte) (ExtractionResult, error) {
	f, err := os.CreateTemp("", "shiftsync-ocr-*.png")
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("stage image: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if _, err := f.Write(img); err != nil {
		_ = f.Close()
		return ExtractionResult{}, fmt.Errorf("stage image: %w", err)
	}
	if err := f.Close(); err != nil {
		return ExtractionResult{}, fmt.Errorf("stage image: %w", err)
	}
	return e.Extract(ctx, f.Name())
}
