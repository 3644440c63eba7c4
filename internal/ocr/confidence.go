package ocr

import (
	"regexp"
	"strings"
)

var (
	reClockToken = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*[ap]m\b`)
	reMonthToken = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\b`)
	reDayToken   = regexp.MustCompile(`(?i)\b(mon|tue|wed|thu|fri|sat|sun)\b`)
	reStoreToken = regexp.MustCompile(`#\d{4}`)
)

// ImageConfidenceThreshold is the confidence under which a detail view is worth a second look.
const ImageConfidenceThreshold float32 = 0.55

// naive heuristic confidence based on how much of a detail view survived OCR
func heuristicConfidence(txt string) float32 {
	score := float32(0.2) // base
	if reClockToken.MatchString(txt) {
		score += 0.2
	}
	if len(reClockToken.FindAllString(txt, 2)) == 2 {
		score += 0.1
	}
	if reMonthToken.MatchString(txt) {
		score += 0.15
	}
	if reDayToken.MatchString(txt) {
		score += 0.1
	}
	if reStoreToken.MatchString(txt) {
		score += 0.1
	}
	if len(strings.TrimSpace(txt)) > 60 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
