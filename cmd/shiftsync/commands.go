package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/shift-sync/constants"
	"github.com/joseph-ayodele/shift-sync/internal/async"
	"github.com/joseph-ayodele/shift-sync/internal/ingest"
	"github.com/joseph-ayodele/shift-sync/internal/pipeline"
	"github.com/joseph-ayodele/shift-sync/internal/repository"
	"github.com/joseph-ayodele/shift-sync/internal/traversal"
)

// --- extract ---

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Capture the schedule in a browser, OCR it and write the CSVs",
	Long: `Open the schedule in Chrome and wait for the operator to log in. Once the schedule
surface shows up, every day row is captured, OCR'd and parsed.

Examples:
  shiftsync extract
  shiftsync extract --xlsx --sync
  shiftsync extract --profile ./layout.yaml --login-timeout 15m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("url") {
			cfg.Browser.URL, _ = f.GetString("url")
		}
		if f.Changed("profile") {
			cfg.Traversal.ProfilePath, _ = f.GetString("profile")
		}
		if f.Changed("headless") {
			cfg.Browser.Headless, _ = f.GetBool("headless")
		}
		if f.Changed("login-timeout") {
			cfg.Browser.LoginTimeout, _ = f.GetDuration("login-timeout")
		}
		xlsx, _ := f.GetBool("xlsx")
		sync, _ := f.GetBool("sync")

		profile, err := loadProfile()
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		proc := newProcessor(db, profile, xlsx)
		if sync {
			if proc.Syncer, err = newEngine(cmd.Context()); err != nil {
				return err
			}
		}

		printStep("Opening %s; log in within %s", cfg.Browser.URL, cfg.Browser.LoginTimeout)
		rep, err := proc.Extract(cmd.Context(), sync)
		if err != nil {
			var terr *traversal.Error
			if errors.As(err, &terr) {
				printWarning("Captured %d of %d rows before the traversal stopped; run `shiftsync ocr` to process them",
					terr.RowsCompleted, profile.Rows)
			}
			return err
		}
		printReport(rep)
		return nil
	},
}

func init() {
	extractCmd.Flags().String("url", "", "schedule URL (SHIFTSYNC_URL)")
	extractCmd.Flags().String("profile", "", "traversal profile YAML (TRAVERSAL_PROFILE)")
	extractCmd.Flags().Bool("headless", false, "run Chrome headless (BROWSER_HEADLESS)")
	extractCmd.Flags().Duration("login-timeout", 0, "how long to wait for login (LOGIN_TIMEOUT)")
	extractCmd.Flags().Bool("xlsx", false, "also write "+constants.StructuredXLSX)
	extractCmd.Flags().Bool("sync", false, "sync the records to the calendar after parsing")
}

// --- ocr ---

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "OCR the detail snapshots already saved in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Output.ScreenshotDir
		}
		xlsx, _ := cmd.Flags().GetBool("xlsx")
		sync, _ := cmd.Flags().GetBool("sync")

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		proc := newProcessor(db, traversal.DefaultProfile(), xlsx)
		if sync {
			if proc.Syncer, err = newEngine(cmd.Context()); err != nil {
				return err
			}
		}
		rep, err := proc.ProcessDir(cmd.Context(), dir, sync)
		if err != nil {
			return err
		}
		printReport(rep)
		return nil
	},
}

func init() {
	ocrCmd.Flags().String("dir", "", "snapshot directory (defaults to SCREENSHOT_OUTPUT_DIR)")
	ocrCmd.Flags().Bool("xlsx", false, "also write "+constants.StructuredXLSX)
	ocrCmd.Flags().Bool("sync", false, "sync the records to the calendar after parsing")
}

// --- parse ---

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Turn a raw OCR CSV into the structured shift CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		out, _ := cmd.Flags().GetString("to")
		if in == "" {
			in = filepath.Join(cfg.Output.ScreenshotDir, constants.RawCSVName)
		}
		if out == "" {
			out = filepath.Join(filepath.Dir(in), constants.StructuredCSVName)
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		rep, err := newProcessor(db, traversal.DefaultProfile(), false).ParseFile(cmd.Context(), in, out)
		if err != nil {
			return err
		}
		printReport(rep)
		return nil
	},
}

func init() {
	parseCmd.Flags().String("in", "", "raw CSV (defaults to <out>/"+constants.RawCSVName+")")
	parseCmd.Flags().String("to", "", "structured CSV to write (defaults next to --in)")
}

// --- sync ---

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create or update calendar events from the structured shift CSV",
	Long: `Create or update one calendar event per shift. Event ids are derived from the
title, start, end and calendar, so syncing the same file twice updates in place.

Examples:
  shiftsync sync
  shiftsync sync --file ./ocr_results_structured.csv --calendar work@group.calendar.google.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		applyCalendarFlags(cmd)
		path, _ := f.GetString("file")
		if path == "" {
			path = filepath.Join(cfg.Output.ScreenshotDir, constants.StructuredCSVName)
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		proc := newProcessor(db, traversal.DefaultProfile(), false)
		if proc.Syncer, err = newEngine(cmd.Context()); err != nil {
			return err
		}
		rep, err := proc.SyncFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		printReport(rep)
		if rep.Sync != nil && rep.Sync.Failed > 0 {
			return fmt.Errorf("%d of %d events failed", rep.Sync.Failed, rep.Sync.Attempted)
		}
		return nil
	},
}

func addCalendarFlags(cmd *cobra.Command) {
	cmd.Flags().String("calendar", "", "calendar id (CALENDAR_ID)")
	cmd.Flags().String("title", "", "event title (CALENDAR_EVENT_TITLE)")
}

func applyCalendarFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("calendar") {
		cfg.Calendar.CalendarID, _ = f.GetString("calendar")
	}
	if f.Changed("title") {
		cfg.Calendar.EventTitle, _ = f.GetString("title")
	}
	if f.Lookup("workers") != nil && f.Changed("workers") {
		cfg.Calendar.Workers, _ = f.GetInt("workers")
	}
}

func init() {
	syncCmd.Flags().String("file", "", "structured CSV (defaults to <out>/"+constants.StructuredCSVName+")")
	syncCmd.Flags().Int("workers", 0, "concurrent calendar requests (SYNC_WORKERS)")
	addCalendarFlags(syncCmd)
}

// --- events ---

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List or delete synced shift events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shift events from 30 days ago up to --days ahead",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCalendarFlags(cmd)
		days, _ := cmd.Flags().GetInt("days")

		engine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		from, to := eventWindow(time.Now(), days)
		evs, err := engine.Find(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		printEvents(evs)
		return nil
	},
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete shift events from 30 days ago up to --days ahead",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCalendarFlags(cmd)
		days, _ := cmd.Flags().GetInt("days")
		yes, _ := cmd.Flags().GetBool("yes")

		engine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		from, to := eventWindow(time.Now(), days)
		evs, err := engine.Find(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		if len(evs) == 0 {
			printSuccess("No %q events between %s and %s", cfg.Calendar.EventTitle, from.Format(time.DateOnly), to.Format(time.DateOnly))
			return nil
		}
		printEvents(evs)
		if !yes {
			printWarning("Re-run with --yes to delete these %d events", len(evs))
			return nil
		}

		sum, err := engine.Delete(cmd.Context(), evs)
		if err != nil {
			return err
		}
		printSuccess("Deleted %d events", sum.Deleted)
		if sum.Failed > 0 {
			return fmt.Errorf("%d events could not be deleted", sum.Failed)
		}
		return nil
	},
}

// eventWindow is the search window of the events commands: 30 days back, days ahead.
func eventWindow(now time.Time, days int) (time.Time, time.Time) {
	return now.AddDate(0, 0, -30), now.AddDate(0, 0, days)
}

func init() {
	for _, c := range []*cobra.Command{eventsListCmd, eventsDeleteCmd} {
		c.Flags().Int("days", 30, "days ahead of today to include")
		addCalendarFlags(c)
	}
	eventsDeleteCmd.Flags().Bool("yes", false, "delete without asking")
	eventsCmd.AddCommand(eventsListCmd, eventsDeleteCmd)
}

// --- watch ---

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "OCR and parse detail snapshots as they appear in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Output.ScreenshotDir
		}
		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = cfg.OCR.Workers
		}
		initial, _ := cmd.Flags().GetBool("initial")

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		proc := newProcessor(db, traversal.DefaultProfile(), false)
		runID, err := proc.StartSession(ctx)
		if err != nil {
			return err
		}

		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Dir:         dir,
			InitialScan: initial,
			Debounce:    500 * time.Millisecond,
			Logger:      logger,
		})
		if err != nil {
			_ = proc.EndSession(ctx, runID, 0, err)
			return err
		}
		q := async.NewProcessorQueue(proc, logger, async.WithWorkers(workers))

		printStep("Watching %s (run %s); Ctrl-C to stop", dir, runID)
		for events != nil || errs != nil {
			select {
			case path, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if err := q.Enqueue(ctx, async.Job{RunID: runID, Path: path}); err != nil {
					logger.Warn("watch.enqueue.failed", "path", path, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				printWarning("watcher: %v", err)
			}
		}

		drain, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()
		q.Shutdown(drain)

		st := q.Stats()
		if err := proc.EndSession(drain, runID, int(st.Processed), nil); err != nil {
			return err
		}
		printSuccess("Processed %d snapshots: %d records, %d failures", st.Processed, st.Records, st.Failed)
		return nil
	},
}

func init() {
	watchCmd.Flags().String("dir", "", "snapshot directory (defaults to SCREENSHOT_OUTPUT_DIR)")
	watchCmd.Flags().Int("workers", 0, "concurrent OCR workers (OCR_WORKERS)")
	watchCmd.Flags().Bool("initial", true, "process snapshots already in the directory")
}

// --- runs ---

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent runs recorded in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := repository.NewRunRepository(db, logger).List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		printRuns(runs)
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "number of runs to show")
}

var _ async.SnapshotProcessor = (*pipeline.Processor)(nil)
