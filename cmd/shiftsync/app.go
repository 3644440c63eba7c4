package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"google.golang.org/api/option"

	"github.com/joseph-ayodele/shift-sync/internal/calendar"
	"github.com/joseph-ayodele/shift-sync/internal/calendar/google"
	"github.com/joseph-ayodele/shift-sync/internal/capture"
	"github.com/joseph-ayodele/shift-sync/internal/common"
	"github.com/joseph-ayodele/shift-sync/internal/export"
	"github.com/joseph-ayodele/shift-sync/internal/extract"
	"github.com/joseph-ayodele/shift-sync/internal/ocr"
	"github.com/joseph-ayodele/shift-sync/internal/parser"
	"github.com/joseph-ayodele/shift-sync/internal/pipeline"
	"github.com/joseph-ayodele/shift-sync/internal/repository"
	"github.com/joseph-ayodele/shift-sync/internal/traversal"
)

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(lc common.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func openStore(ctx context.Context) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        10,
		MaxConnLifetime: 30 * time.Minute,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func loadProfile() (traversal.Profile, error) {
	if cfg.Traversal.ProfilePath == "" {
		return traversal.DefaultProfile(), nil
	}
	p, err := traversal.LoadProfile(cfg.Traversal.ProfilePath)
	if err != nil {
		return traversal.Profile{}, fmt.Errorf("traversal profile %s: %w", cfg.Traversal.ProfilePath, err)
	}
	logger.Info("traversal profile loaded", "path", cfg.Traversal.ProfilePath, "rows", p.Rows)
	return p, nil
}

func newExtractor() *ocr.Extractor {
	return ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		TesseractLang:       cfg.OCR.Lang,
		TessdataDir:         cfg.OCR.TessdataDir,
		EnableTSVConfidence: cfg.OCR.EnableTSVConfidence,
		PSM:                 cfg.OCR.PSM,
		OEM:                 cfg.OCR.OEM,
	}, logger)
}

// newProcessor wires the pipeline over db. Browser launch uses the current config.
func newProcessor(db *repository.DB, profile traversal.Profile, xlsx bool) *pipeline.Processor {
	shifts := repository.NewShiftRepository(db, logger)
	proc := pipeline.NewProcessor(logger,
		pipeline.Config{
			URL:          cfg.Browser.URL,
			LoginTimeout: cfg.Browser.LoginTimeout,
			OutputDir:    cfg.Output.ScreenshotDir,
			Profile:      profile,
			XLSX:         xlsx,
			CalendarID:   cfg.Calendar.CalendarID,
		},
		repository.NewRunRepository(db, logger),
		repository.NewSyncResultRepository(db, logger),
		pipeline.NewOCRStage(extract.NewOCRAdapter(newExtractor(), logger), shifts, cfg.OCR.Workers, logger),
		pipeline.NewParseStage(parser.New(parser.Options{Year: year}, logger), shifts, logger),
		export.NewService(logger),
	)
	proc.Launch = func(ctx context.Context) (pipeline.Browser, error) {
		s, err := capture.Launch(ctx, capture.Options{
			Bin:         cfg.Browser.ChromeBin,
			UserDataDir: cfg.Browser.UserDataDir,
			Headless:    cfg.Browser.Headless,
			Locator:     profile.Locator,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return proc
}

// newEngine authorizes against Google Calendar and returns a sync engine for CALENDAR_ID.
func newEngine(ctx context.Context) (*calendar.Engine, error) {
	if err := cfg.ValidateCalendar(); err != nil {
		return nil, err
	}
	auth := &google.Authorizer{
		CredentialsFile: cfg.Calendar.CredentialsFile,
		TokenFile:       cfg.Calendar.TokenFile,
		Out:             os.Stderr,
		Logger:          logger,
	}
	hc, err := auth.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorize calendar: %w", err)
	}
	client, err := google.New(ctx, logger, option.WithHTTPClient(hc))
	if err != nil {
		return nil, err
	}

	var loc *time.Location
	if cfg.Calendar.TimeZone != "" {
		if loc, err = time.LoadLocation(cfg.Calendar.TimeZone); err != nil {
			return nil, common.NewAppError("CONFIG_ERROR", "CALENDAR_TIMEZONE: "+err.Error(), common.ErrConfig)
		}
	}
	return calendar.NewEngine(client, calendar.Options{
		CalendarID:  cfg.Calendar.CalendarID,
		Title:       cfg.Calendar.EventTitle,
		Location:    loc,
		Year:        year,
		Concurrency: cfg.Calendar.Workers,
	}, logger), nil
}
