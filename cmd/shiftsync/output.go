package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/joseph-ayodele/shift-sync/internal/calendar"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
	"github.com/joseph-ayodele/shift-sync/internal/parser"
	"github.com/joseph-ayodele/shift-sync/internal/pipeline"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

var noColor = os.Getenv("NO_COLOR") != ""

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

func printReport(rep pipeline.Report) {
	printSuccess("Run %s complete", rep.RunID)
	if rep.RowsCompleted > 0 {
		printStatus("Rows captured", "%d", rep.RowsCompleted)
	}
	if rep.Segments > 0 {
		printStatus("Segments", "%d (%d OCR failures)", rep.Segments, rep.OCRFailed)
	}
	if rep.Verdicts != nil {
		printStatus("Parsed", "%d accepted, %d not scheduled, %d incomplete",
			rep.Verdicts[parser.Accepted], rep.Verdicts[parser.NotScheduled], rep.Verdicts[parser.Incomplete])
	}
	printStatus("Records", "%d", len(rep.Records))
	for _, a := range rep.Artifacts {
		printStatus("Wrote", "%s", a)
	}
	if rep.Sync != nil {
		printSync(*rep.Sync)
	}
}

func printSync(sum calendar.Summary) {
	printStatus("Synced", "%d of %d events", sum.Succeeded, sum.Attempted)
	for _, r := range sum.Results {
		if r.Err == nil {
			continue
		}
		printError("%s: %v", r.Record.SourceSegmentID, r.Err)
		if hint := r.Class.Hint(cfg.Calendar.CalendarID); hint != "" {
			printStatus("Hint", "%s", hint)
		}
	}
}

func printEvents(evs []calendar.Event) {
	writeEvents(os.Stdout, evs)
}

func writeEvents(w io.Writer, evs []calendar.Event) {
	sort.Slice(evs, func(i, j int) bool { return evs[i].Start.Before(evs[j].Start) })
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tTITLE\tID")
	for _, ev := range evs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			ev.Start.Format("Mon Jan 2 2006 3:04 PM"), ev.End.Format("3:04 PM"), ev.Summary, ev.ID)
	}
	_ = tw.Flush()
}

func printRuns(runs []*entity.Run) {
	writeRuns(os.Stdout, runs)
}

func writeRuns(w io.Writer, runs []*entity.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tROWS\tDURATION\tERROR")
	for _, r := range runs {
		dur := "-"
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		msg := ""
		if r.ErrorMessage != nil {
			msg = *r.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.RowsCompleted, dur, msg)
	}
	_ = tw.Flush()
}
