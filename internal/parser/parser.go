package parser

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// Verdict reports what Parse did with a segment.
type Verdict string

const (
	Accepted     Verdict = "accepted"
	NotScheduled Verdict = "not_scheduled"
	Incomplete   Verdict = "incomplete"
)

var (
	reName       = regexp.MustCompile(`\b([A-Z][a-zA-Z]*) ([A-Z])\b`)
	reStore      = regexp.MustCompile(`#\d{4}`)
	reWeekday    = regexp.MustCompile(`\b(Mon|Tue|Wed|Thu|Fri|Sat|Sun)\b`)
	reMonth      = regexp.MustCompile(`\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\b`)
	reDay        = regexp.MustCompile(`\b([12][0-9]|3[01]|[1-9])\b`)
	reTime       = regexp.MustCompile(`(?i)\d{1,2}:\d{2}\s*[AP]M`)
	reDepartment = regexp.MustCompile(`0\d{2}\s*-\s*[A-Za-z &]+`)
)

var unassignedMarkers = []string{"not assigned", "not scheduled"}

var flattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Options tune record reconstruction.
type Options struct {
	// Year is stamped into every record; month/day alone do not carry one.
	Year int
}

// Parser turns recognized detail-view text into shift records.
type Parser struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{opts: opts, logger: logger}
}

// Parse reconstructs at most one record from res. The record is only meaningful
// when the verdict is Accepted.
func (p *Parser) Parse(res entity.RawOCRResult) (entity.ShiftRecord, Verdict) {
	text := flattener.Replace(res.Text)

	lower := strings.ToLower(text)
	for _, m := range unassignedMarkers {
		if strings.Contains(lower, m) {
			p.logger.Debug("parse.segment.not_scheduled", "segment", res.SegmentID)
			return entity.ShiftRecord{}, NotScheduled
		}
	}

	rec := entity.ShiftRecord{
		SourceSegmentID: res.SegmentID,
		EmployeeName:    employeeName(text),
		StoreNumber:     reStore.FindString(text),
		Weekday:         reWeekday.FindString(text),
		Month:           reMonth.FindString(text),
		Year:            p.opts.Year,
		Department:      strings.TrimSpace(reDepartment.FindString(text)),
	}
	if d := reDay.FindString(text); d != "" {
		rec.DayOfMonth, _ = strconv.Atoi(d)
	}

	times := reTime.FindAllString(text, -1)
	if len(times) > 0 {
		rec.ShiftStart = times[0]
		rec.ShiftEnd = times[len(times)-1]
	}
	if len(times) > 1 {
		rec.MealStart = times[1]
		rec.MealEnd = mealEnd(rec.MealStart, times[2:])
	}

	if !rec.Valid() {
		p.logger.Debug("parse.segment.incomplete",
			"segment", res.SegmentID,
			"month", rec.Month,
			"date", rec.DayOfMonth,
			"times", len(times),
		)
		return entity.ShiftRecord{}, Incomplete
	}
	p.logger.Debug("parse.segment.ok", "segment", res.SegmentID, "month", rec.Month, "date", rec.DayOfMonth)
	return rec, Accepted
}

// ParseAll keeps the accepted records in input order and counts each verdict.
func (p *Parser) ParseAll(results []entity.RawOCRResult) ([]entity.ShiftRecord, map[Verdict]int) {
	counts := make(map[Verdict]int, 3)
	var out []entity.ShiftRecord
	for _, r := range results {
		rec, v := p.Parse(r)
		counts[v]++
		if v == Accepted {
			out = append(out, rec)
		}
	}
	p.logger.Info("parse.done",
		"segments", len(results),
		"accepted", counts[Accepted],
		"not_scheduled", counts[NotScheduled],
		"incomplete", counts[Incomplete],
	)
	return out, counts
}

func employeeName(text string) string {
	m := reName.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + " " + m[2]
}

// mealEnd picks the first candidate exactly 30 or 60 minutes after start.
// When a token cannot be read as a clock time the third time token is used as is.
func mealEnd(start string, candidates []string) string {
	fallback := ""
	if len(candidates) > 0 {
		fallback = candidates[0]
	}
	s, err := entity.ParseClock(start)
	if err != nil {
		return fallback
	}
	for _, c := range candidates {
		v, err := entity.ParseClock(c)
		if err != nil {
			return fallback
		}
		if diff := v - s; diff == 30 || diff == 60 {
			return c
		}
	}
	return ""
}
