package entity

import "github.com/joseph-ayodele/shift-sync/constants"

// ImageSegment is one captured image of the schedule surface.
type ImageSegment struct {
	Seq   int                  `json:"seq"` // dense, 0-based, across all segments of a run
	Tag   constants.SegmentTag `json:"tag"`
	Row   int                  `json:"row"` // detail: i+1; weekly summary: i
	Image []byte               `json:"-"`
	Path  string               `json:"path,omitempty"` // set once persisted
}

// Name is the diagnostic file name of the segment and its identifier downstream.
func (s ImageSegment) Name() string {
	return constants.SegmentFileName(s.Tag, s.Row)
}

// RawOCRResult is the recognized text of a single segment.
type RawOCRResult struct {
	SegmentID  string  `json:"segment_id"`
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence,omitempty"`
}
