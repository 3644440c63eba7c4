package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

func newTestParser() *Parser {
	return New(Options{Year: 2025}, nil)
}

func TestParseFullDetailView(t *testing.T) {
	rec, v := newTestParser().Parse(entity.RawOCRResult{
		SegmentID: "detail_view_3_canvas.png",
		Text:      "John D #1234 Mon Jul 15 9:00 AM 12:00 PM 12:30 PM 5:00 PM 001 - Lumber",
	})
	require.Equal(t, Accepted, v)
	assert.Equal(t, entity.ShiftRecord{
		SourceSegmentID: "detail_view_3_canvas.png",
		EmployeeName:    "John D",
		StoreNumber:     "#1234",
		Weekday:         "Mon",
		Month:           "Jul",
		DayOfMonth:      15,
		Year:            2025,
		ShiftStart:      "9:00 AM",
		MealStart:       "12:00 PM",
		MealEnd:         "12:30 PM",
		ShiftEnd:        "5:00 PM",
		Department:      "001 - Lumber",
	}, rec)
}

func TestParseTwoTimesNoMeal(t *testing.T) {
	rec, v := newTestParser().Parse(entity.RawOCRResult{
		SegmentID: "detail_view_1_canvas.png",
		Text:      "Tue Aug 6\n7:00 AM\nshift\n3:30 PM",
	})
	require.Equal(t, Accepted, v)
	assert.Equal(t, "7:00 AM", rec.ShiftStart)
	assert.Equal(t, "3:30 PM", rec.ShiftEnd)
	assert.Equal(t, "Aug", rec.Month)
	assert.Equal(t, 6, rec.DayOfMonth)
	assert.Empty(t, rec.MealEnd)
	// the second token doubles as meal start and shift end
	assert.Equal(t, "3:30 PM", rec.MealStart)
	assert.True(t, rec.Valid())
}

func TestParseUnassignedMarkers(t *testing.T) {
	p := newTestParser()
	for _, text := range []string{
		"John D #1234 Mon Jul 15 Not Scheduled 9:00 AM 5:00 PM",
		"NOT ASSIGNED Jul 15 9:00 AM 5:00 PM",
		"Wed Jul 17\nnot scheduled",
	} {
		_, v := p.Parse(entity.RawOCRResult{SegmentID: "x.png", Text: text})
		assert.Equal(t, NotScheduled, v, text)
	}
}

func TestParseIncomplete(t *testing.T) {
	p := newTestParser()
	tests := map[string]string{
		"no times":  "John D #1234 Mon Jul 15",
		"no month":  "John D #1234 Mon 15 9:00 AM 5:00 PM",
		"full name": "July 15 9:00 AM 5:00 PM",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, v := p.Parse(entity.RawOCRResult{SegmentID: "x.png", Text: text})
			assert.Equal(t, Incomplete, v)
		})
	}
}

func TestParseSingleTimeIsValid(t *testing.T) {
	rec, v := newTestParser().Parse(entity.RawOCRResult{Text: "Sep 3 10:00 AM"})
	require.Equal(t, Accepted, v)
	assert.Equal(t, "10:00 AM", rec.ShiftStart)
	assert.Equal(t, "10:00 AM", rec.ShiftEnd)
	assert.Empty(t, rec.MealStart)
}

func TestMealEnd(t *testing.T) {
	tests := []struct {
		name       string
		start      string
		candidates []string
		want       string
	}{
		{"thirty minutes", "12:00 PM", []string{"12:30 PM", "5:00 PM"}, "12:30 PM"},
		{"sixty minutes", "12:00 PM", []string{"1:00 PM", "5:00 PM"}, "1:00 PM"},
		{"first match wins", "11:00 AM", []string{"4:00 PM", "11:30 AM", "12:00 PM"}, "11:30 AM"},
		{"no corroboration", "12:00 PM", []string{"12:45 PM", "5:00 PM"}, ""},
		{"earlier is not a match", "12:00 PM", []string{"11:30 AM"}, ""},
		{"no candidates", "12:00 PM", nil, ""},
		{"lower case tokens", "12:00pm", []string{"12:30pm"}, "12:30pm"},
		{"unreadable start", "19:00 PM", []string{"7:30 PM", "9:00 PM"}, "7:30 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mealEnd(tt.start, tt.candidates))
		})
	}
}

func TestParseDepartmentAndDayBoundaries(t *testing.T) {
	rec, v := newTestParser().Parse(entity.RawOCRResult{
		Text: "Amy K  #0420  Sat  Dec 31  6:00 AM  10:00 AM  11:00 AM  2:30 PM  024 -  Garden & Patio 8",
	})
	require.Equal(t, Accepted, v)
	assert.Equal(t, 31, rec.DayOfMonth)
	assert.Equal(t, "Amy K", rec.EmployeeName)
	assert.Equal(t, "11:00 AM", rec.MealEnd)
	assert.Equal(t, "024 -  Garden & Patio", rec.Department)
}

func TestParseAll(t *testing.T) {
	recs, counts := newTestParser().ParseAll([]entity.RawOCRResult{
		{SegmentID: "a", Text: "Mon Jul 15 9:00 AM 5:00 PM"},
		{SegmentID: "b", Text: "Tue Jul 16 Not Scheduled"},
		{SegmentID: "c", Text: "garbage"},
		{SegmentID: "d", Text: "Wed Jul 17 8:00 AM 4:00 PM"},
	})
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].SourceSegmentID)
	assert.Equal(t, "d", recs[1].SourceSegmentID)
	assert.Equal(t, 2, counts[Accepted])
	assert.Equal(t, 1, counts[NotScheduled])
	assert.Equal(t, 1, counts[Incomplete])
}
