package constants

import "fmt"

// SegmentTag labels a captured image segment.
type SegmentTag string

const (
	TagWeeklySummary SegmentTag = "weekly-summary"
	TagDetail        SegmentTag = "detail"
)

// DaysPerWeek is the row period at which a weekly summary band appears in the day list.
const DaysPerWeek = 7

// SegmentFileName returns the diagnostic PNG name used for a segment.
// Detail rows are 1-based, summary rows carry the 0-based row index that opened the week.
func SegmentFileName(tag SegmentTag, row int) string {
	switch tag {
	case TagWeeklySummary:
		return fmt.Sprintf("weekly_summary_%d_canvas.png", row)
	default:
		return fmt.Sprintf("detail_view_%d_canvas.png", row)
	}
}
