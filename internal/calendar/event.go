package calendar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// DefaultTitle is the summary every shift event carries.
const DefaultTitle = "THD"

// ICalUIDSuffix qualifies derived ids into iCalendar UIDs.
const ICalUIDSuffix = "@shift-sync"

// Event is a calendar event built from a shift record.
type Event struct {
	ID          string
	ICalUID     string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
	HTMLLink    string
}

// DeriveEventID derives the event identifier from what makes an event logically the same.
// Instants are rendered in UTC so the id depends only on the instant, not its zone.
// The result is lowercase hex, which is valid base32hex for the calendar API.
func DeriveEventID(title string, start, end time.Time, calendarID string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		title,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
		calendarID,
	}, "|")))
	return hex.EncodeToString(sum[:])
}

// BuildEvent turns rec into an event on calendarID. A shift whose end reads earlier
// than its start crosses midnight and ends on the next day.
func BuildEvent(rec entity.ShiftRecord, title, calendarID string, year int, loc *time.Location) (Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := rec.Date(year, loc)
	if err != nil {
		return Event{}, err
	}
	start, err := entity.At(day, rec.ShiftStart)
	if err != nil {
		return Event{}, fmt.Errorf("shift start: %w", err)
	}
	end, err := entity.At(day, rec.ShiftEnd)
	if err != nil {
		return Event{}, fmt.Errorf("shift end: %w", err)
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}

	id := DeriveEventID(title, start, end, calendarID)
	return Event{
		ID:          id,
		ICalUID:     id + ICalUIDSuffix,
		Summary:     title,
		Description: mealDescription(rec),
		Start:       start,
		End:         end,
		TimeZone:    loc.String(),
	}, nil
}

func mealDescription(rec entity.ShiftRecord) string {
	if rec.MealStart == "" || rec.MealEnd == "" {
		return ""
	}
	return fmt.Sprintf("Meal: %s - %s", rec.MealStart, rec.MealEnd)
}

// partialMeal reports a meal with only one side known.
func partialMeal(rec entity.ShiftRecord) bool {
	return (rec.MealStart == "") != (rec.MealEnd == "")
}
