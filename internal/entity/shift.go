package entity

import (
	"fmt"
	"strconv"
	"time"
)

// ShiftRecord is one scheduled day reconstructed from OCR text.
// Times are the recognized tokens ("9:00 AM"); use ParseClock to compute with them.
type ShiftRecord struct {
	SourceSegmentID string `json:"png_filename"`
	EmployeeName    string `json:"username,omitempty"`
	StoreNumber     string `json:"store_number,omitempty"`
	Weekday         string `json:"weekday,omitempty"`
	Month           string `json:"month"`
	DayOfMonth      int    `json:"date"`
	Year            int    `json:"year,omitempty"`
	ShiftStart      string `json:"shift_start"`
	MealStart       string `json:"meal_start,omitempty"`
	MealEnd         string `json:"meal_end,omitempty"`
	ShiftEnd        string `json:"shift_end"`
	Department      string `json:"department,omitempty"`
}

// Valid reports whether the fields required downstream are all present.
func (r ShiftRecord) Valid() bool {
	return r.Month != "" && r.DayOfMonth > 0 && r.ShiftStart != "" && r.ShiftEnd != ""
}

// Date returns the calendar date of the shift in loc at midnight.
// The record's own Year wins; fallbackYear is used for records loaded without one.
func (r ShiftRecord) Date(fallbackYear int, loc *time.Location) (time.Time, error) {
	m, err := ParseMonth(r.Month)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	year := r.Year
	if year == 0 {
		year = fallbackYear
	}
	if year == 0 {
		return time.Time{}, fmt.Errorf("no year for %s %d", r.Month, r.DayOfMonth)
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > daysIn(m, year) {
		return time.Time{}, fmt.Errorf("invalid day %d for %s %d", r.DayOfMonth, m, year)
	}
	return time.Date(year, m, r.DayOfMonth, 0, 0, 0, 0, loc), nil
}

// DateString renders DayOfMonth the way the structured CSV stores it.
func (r ShiftRecord) DateString() string {
	if r.DayOfMonth == 0 {
		return ""
	}
	return strconv.Itoa(r.DayOfMonth)
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
