package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/shift-sync/internal/common"
)

var (
	cfg    *common.Config
	logger *slog.Logger

	year int
)

var rootCmd = &cobra.Command{
	Use:   "shiftsync",
	Short: "Capture a work schedule, read it with OCR and sync it to a calendar",
	Long: `shiftsync drives the schedule web app in a browser, captures every day of the
schedule as an image, reads the images with tesseract and turns them into shift
records that are written to CSV and synchronized into Google Calendar.

Settings come from the environment (DB_URL, SCREENSHOT_OUTPUT_DIR, CALENDAR_ID, ...);
flags override them for a single invocation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = common.LoadConfig()
		applyRootFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger = newLogger(cfg.Log, os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("log-level", "", "log level: debug, info, warn, error (LOG_LEVEL)")
	f.String("log-format", "", "log format: text or json (LOG_FORMAT)")
	f.String("db", "", "database DSN; postgres:// selects postgres, anything else is a sqlite path (DB_URL)")
	f.String("out", "", "screenshot and artifact directory (SCREENSHOT_OUTPUT_DIR)")
	f.IntVar(&year, "year", time.Now().Year(), "year the captured schedule belongs to")

	rootCmd.AddCommand(extractCmd, ocrCmd, parseCmd, syncCmd, eventsCmd, watchCmd, runsCmd)
}

// applyRootFlags lets explicitly set persistent flags win over the environment.
func applyRootFlags(cmd *cobra.Command, c *common.Config) {
	f := cmd.Flags()
	if f.Changed("log-level") {
		c.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		c.Log.Format, _ = f.GetString("log-format")
	}
	if f.Changed("db") {
		c.Database.DSN, _ = f.GetString("db")
	}
	if f.Changed("out") {
		c.Output.ScreenshotDir, _ = f.GetString("out")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
