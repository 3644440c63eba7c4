package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/shift-sync/internal/common"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
	"github.com/joseph-ayodele/shift-sync/internal/extract"
	"github.com/joseph-ayodele/shift-sync/internal/ingest"
	"github.com/joseph-ayodele/shift-sync/internal/ocr"
	"github.com/joseph-ayodele/shift-sync/internal/parser"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	year := flag.Int("year", time.Now().Year(), "year stamped into the parsed record")
	psm := flag.Int("psm", 0, "tesseract page segmentation mode (0 keeps the default)")
	flag.Parse()

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runocr [-year 2025] [-psm 6] <detail_view_N_canvas.png>")
		os.Exit(2)
	}
	path := flag.Arg(0)
	seg, ok := ingest.SegmentFromPath(path)
	if !ok {
		// any image is accepted; the name only matters for the segment id
		seg = entity.ImageSegment{Path: path}
	}

	cfg := common.LoadConfig()
	if *psm > 0 {
		cfg.OCR.PSM = *psm
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ocrx := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		TesseractLang:       cfg.OCR.Lang,
		TessdataDir:         cfg.OCR.TessdataDir,
		EnableTSVConfidence: cfg.OCR.EnableTSVConfidence,
		PSM:                 cfg.OCR.PSM,
		OEM:                 cfg.OCR.OEM,
	}, logger)
	recognizer := extract.NewOCRAdapter(ocrx, logger)

	start := time.Now()
	res, err := recognizer.Recognize(ctx, seg)
	dur := time.Since(start)
	if err != nil {
		logger.Error("ocr failed", "path", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}
	logger.Info("ocr ok",
		"segment", res.SegmentID,
		"bytes", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", dur.Milliseconds(),
	)

	rec, verdict := parser.New(parser.Options{Year: *year}, logger).Parse(res)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	out := struct {
		Text    string              `json:"text"`
		Verdict parser.Verdict      `json:"verdict"`
		Record  *entity.ShiftRecord `json:"record,omitempty"`
	}{Text: ocr.Normalize(res.Text), Verdict: verdict}
	if verdict == parser.Accepted {
		out.Record = &rec
	}
	if err := enc.Encode(out); err != nil {
		logger.Error("write result", "error", err)
		os.Exit(1)
	}
}
