package traversal

import "fmt"

// Step is a state of the row state machine.
type Step int

const (
	StepLocate Step = iota
	StepPreamble
	StepSummaryCapture
	StepSummaryAdvance
	StepSelectRow
	StepCaptureDetail
	StepReturnToList
	StepReacquire
	StepAdvance
	StepDone
)

var stepNames = [...]string{
	StepLocate:         "locate",
	StepPreamble:       "preamble",
	StepSummaryCapture: "summary_capture",
	StepSummaryAdvance: "summary_advance",
	StepSelectRow:      "select_row",
	StepCaptureDetail:  "capture_detail",
	StepReturnToList:   "return_to_list",
	StepReacquire:      "reacquire",
	StepAdvance:        "advance",
	StepDone:           "done",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Error aborts a traversal. Rows before RowsCompleted have their detail segment captured.
type Error struct {
	Row           int
	Step          Step
	RowsCompleted int
	Err           error
}

func (e *Error) Error() string {
	return fmt.Sprintf("traversal aborted at row %d (%s) after %d rows: %v", e.Row, e.Step, e.RowsCompleted, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
