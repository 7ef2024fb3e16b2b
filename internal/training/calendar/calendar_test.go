package calendar

import (
	"testing"
	"time"

	"github.com/2beens/trainlog/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	// friday
	return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
}

func testSessions() []training.Session {
	return []training.Session{
		{
			ID:          "s1",
			Date:        "2024-03-15",
			Category:    training.CategoryClimbing,
			Subcategory: "Bouldering",
			Details:     training.Details{Type: training.FieldTypeBouldering, Bouldering: &training.BoulderingDetails{}},
		},
		{
			ID:          "s2",
			Date:        "2024-03-02",
			Category:    training.CategoryRunning,
			Subcategory: "Road",
			Details:     training.Details{Type: training.FieldTypeRunning, Running: &training.RunningDetails{}},
		},
		{
			ID:          "s3",
			Date:        "2024-04-01",
			Category:    training.CategoryOther,
			Subcategory: "Yoga",
			Details:     training.Details{Type: training.FieldTypeGeneric, Generic: &training.GenericDetails{}},
		},
	}
}

func TestCalendar_RenderMonth(t *testing.T) {
	cal := New(fixedNow)
	view := cal.RenderMonth(testSessions())

	assert.Equal(t, "March 2024", view.Title)
	// 2024-03-01 is a friday
	assert.Equal(t, 5, view.LeadingBlanks)
	require.Len(t, view.Cells, 31)

	// session dated 2024-03-15 shows up only in the cell for day 15
	for _, cell := range view.Cells {
		switch cell.Day {
		case 15:
			require.Len(t, cell.Sessions, 1)
			assert.Equal(t, "s1", cell.Sessions[0].ID)
			assert.Equal(t, "Bouldering", cell.Sessions[0].Subcategory)
			assert.True(t, cell.Today)
		case 2:
			require.Len(t, cell.Sessions, 1)
			assert.Equal(t, "s2", cell.Sessions[0].ID)
			assert.False(t, cell.Today)
		default:
			assert.Empty(t, cell.Sessions, "day %d", cell.Day)
			assert.False(t, cell.Today, "day %d", cell.Day)
		}
	}
}

func TestCalendar_RenderWeek(t *testing.T) {
	cal := New(fixedNow)
	cal.SetMode(ModeWeek)
	view := cal.RenderWeek(testSessions())

	require.Len(t, view.Days, 7)
	// week containing friday march 15 runs sunday 10 - saturday 16
	assert.Equal(t, training.DateKey("2024-03-10"), view.Days[0].Date)
	assert.Equal(t, training.DateKey("2024-03-16"), view.Days[6].Date)

	var found bool
	for _, day := range view.Days {
		if day.Date == "2024-03-15" {
			found = true
			require.Len(t, day.Sessions, 1)
			assert.Equal(t, "s1", day.Sessions[0].ID)
			assert.True(t, day.Today)
		} else {
			assert.Empty(t, day.Sessions)
		}
	}
	assert.True(t, found)
}

func TestCalendar_RenderDay(t *testing.T) {
	cal := New(fixedNow)
	wellness := []training.WellnessEntry{
		{Date: "2024-03-15", Sleep: float64Ptr(7.5)},
		{Date: "2024-03-14", Sleep: float64Ptr(6)},
	}

	view := cal.RenderDay(testSessions(), wellness)

	assert.Equal(t, training.DateKey("2024-03-15"), view.Date)
	assert.True(t, view.Today)
	require.NotNil(t, view.Wellness)
	assert.Equal(t, 7.5, *view.Wellness.Sleep)
	require.Len(t, view.Sessions, 1)
	assert.Equal(t, "s1", view.Sessions[0].ID)
}

func TestCalendar_Navigation(t *testing.T) {
	cal := New(fixedNow)

	cal.Next()
	assert.Equal(t, training.DateKey("2024-04-01"), cal.Cursor())
	cal.Prev()
	cal.Prev()
	assert.Equal(t, training.DateKey("2024-02-01"), cal.Cursor())

	require.NoError(t, cal.SetCursor("2024-03-15"))
	cal.SetMode(ModeWeek)
	cal.Next()
	assert.Equal(t, training.DateKey("2024-03-22"), cal.Cursor())

	cal.SetMode(ModeDay)
	cal.Prev()
	assert.Equal(t, training.DateKey("2024-03-21"), cal.Cursor())
}

// switching render modes keeps the cursor date
func TestCalendar_ModeSwitchKeepsCursor(t *testing.T) {
	cal := New(fixedNow)
	require.NoError(t, cal.SetCursor("2024-03-15"))

	cal.SetMode(ModeWeek)
	assert.Equal(t, training.DateKey("2024-03-15"), cal.Cursor())
	cal.SetMode(ModeDay)
	assert.Equal(t, training.DateKey("2024-03-15"), cal.Cursor())
	cal.SetMode(ModeMonth)
	assert.Equal(t, training.DateKey("2024-03-15"), cal.Cursor())
}

func TestCalendar_MonthOverflow(t *testing.T) {
	cal := New(func() time.Time {
		return time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	})

	// navigating from jan 31 must land in february, not march
	cal.Next()
	assert.Equal(t, training.DateKey("2024-02-01"), cal.Cursor())
}

func TestCategoryColor(t *testing.T) {
	assert.NotEmpty(t, CategoryColor(training.CategoryClimbing))
	assert.NotEqual(t,
		CategoryColor(training.CategoryClimbing),
		CategoryColor(training.CategoryRunning),
	)
	assert.Equal(t, "#95a5a6", CategoryColor("Swimming"))
}

func float64Ptr(v float64) *float64 { return &v }
