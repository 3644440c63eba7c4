package entity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reClock = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AP]M)$`)

// ParseClock converts a 12-hour token such as "9:00 AM" or "12:30pm" into minutes after midnight.
func ParseClock(tok string) (int, error) {
	m := reClock.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(tok)))
	if m == nil {
		return 0, fmt.Errorf("invalid clock time %q", tok)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, fmt.Errorf("clock time out of range %q", tok)
	}
	hour %= 12
	if m[3] == "PM" {
		hour += 12
	}
	return hour*60 + minute, nil
}

// At returns day (a midnight instant) moved to the clock token's wall time.
func At(day time.Time, tok string) (time.Time, error) {
	mins, err := ParseClock(tok)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), mins/60, mins%60, 0, 0, day.Location()), nil
}

// ParseMonth accepts three-letter and full English month names in any case.
func ParseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	for m := time.January; m <= time.December; m++ {
		full := m.String()
		if strings.EqualFold(s, full) || strings.EqualFold(s, full[:3]) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid month %q", s)
}
