// Package calendar derives month, week and day view models from the
// current session and wellness snapshots.
package calendar

import (
	"fmt"
	"time"

	"github.com/2beens/trainlog/internal/training"
)

type Mode string

const (
	ModeMonth Mode = "month"
	ModeWeek  Mode = "week"
	ModeDay   Mode = "day"
)

// SessionDot is one session shown inside a day cell.
type SessionDot struct {
	ID          string            `json:"id"`
	Category    training.Category `json:"category"`
	Subcategory string            `json:"subcategory"`
	Color       string            `json:"color"`
}

type DayCell struct {
	Day      int              `json:"day"`
	Date     training.DateKey `json:"date"`
	Today    bool             `json:"today"`
	Sessions []SessionDot     `json:"sessions,omitempty"`
}

// MonthView is a 7-column grid; LeadingBlanks pads the first row up to
// the weekday of the 1st (weeks start on Sunday).
type MonthView struct {
	Title         string    `json:"title"`
	LeadingBlanks int       `json:"leadingBlanks"`
	Cells         []DayCell `json:"cells"`
}

type WeekView struct {
	Title string    `json:"title"`
	Days  []DayCell `json:"days"`
}

// SessionDetail is the full per-session listing of the day view.
type SessionDetail struct {
	ID          string            `json:"id"`
	Category    training.Category `json:"category"`
	Subcategory string            `json:"subcategory"`
	Color       string            `json:"color"`
	Rating      *int              `json:"rating,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Duration    *float64          `json:"duration,omitempty"`
}

type DayView struct {
	Date     training.DateKey        `json:"date"`
	Title    string                  `json:"title"`
	Today    bool                    `json:"today"`
	Wellness *training.WellnessEntry `json:"wellness,omitempty"`
	Sessions []SessionDetail         `json:"sessions"`
}

var categoryColors = map[training.Category]string{
	training.CategoryClimbing: "#e74c3c",
	training.CategoryWeights:  "#3498db",
	training.CategoryRunning:  "#2ecc71",
	training.CategoryOther:    "#9b59b6",
}

// CategoryColor returns the dot color for a category; unknown
// categories get a neutral grey.
func CategoryColor(category training.Category) string {
	if color, ok := categoryColors[category]; ok {
		return color
	}
	return "#95a5a6"
}

// Calendar tracks the cursor date and render mode for one user.
// Switching modes keeps the cursor; navigation shifts it by one
// month, week or day depending on the active mode.
type Calendar struct {
	mode   Mode
	cursor time.Time
	now    func() time.Time
}

func New(now func() time.Time) *Calendar {
	if now == nil {
		now = time.Now
	}
	return &Calendar{
		mode:   ModeMonth,
		cursor: now(),
		now:    now,
	}
}

func (c *Calendar) Mode() Mode {
	return c.mode
}

func (c *Calendar) SetMode(mode Mode) {
	c.mode = mode
}

func (c *Calendar) Cursor() training.DateKey {
	return training.NewDateKey(c.cursor)
}

func (c *Calendar) SetCursor(date training.DateKey) error {
	t, err := date.Time()
	if err != nil {
		return err
	}
	c.cursor = t
	return nil
}

func (c *Calendar) Prev() {
	c.shift(-1)
}

func (c *Calendar) Next() {
	c.shift(1)
}

func (c *Calendar) shift(direction int) {
	switch c.mode {
	case ModeMonth:
		// anchor to the 1st so a day-31 cursor cannot overflow into
		// the month after next
		first := time.Date(c.cursor.Year(), c.cursor.Month(), 1, 0, 0, 0, 0, c.cursor.Location())
		c.cursor = first.AddDate(0, direction, 0)
	case ModeWeek:
		c.cursor = c.cursor.AddDate(0, 0, 7*direction)
	case ModeDay:
		c.cursor = c.cursor.AddDate(0, 0, direction)
	}
}

// RenderMonth builds the grid for the cursor's month.
func (c *Calendar) RenderMonth(sessions []training.Session) MonthView {
	first := time.Date(c.cursor.Year(), c.cursor.Month(), 1, 0, 0, 0, 0, c.cursor.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()
	today := training.NewDateKey(c.now())
	byDate := bucketSessions(sessions)

	view := MonthView{
		Title:         first.Format("January 2006"),
		LeadingBlanks: int(first.Weekday()),
	}
	for day := 1; day <= daysInMonth; day++ {
		date := training.NewDateKey(first.AddDate(0, 0, day-1))
		view.Cells = append(view.Cells, DayCell{
			Day:      day,
			Date:     date,
			Today:    date == today,
			Sessions: dots(byDate[date]),
		})
	}
	return view
}

// RenderWeek builds the rows for the week containing the cursor.
func (c *Calendar) RenderWeek(sessions []training.Session) WeekView {
	weekStart := c.cursor.AddDate(0, 0, -int(c.cursor.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 6)
	today := training.NewDateKey(c.now())
	byDate := bucketSessions(sessions)

	view := WeekView{
		Title: fmt.Sprintf("%s – %s", weekStart.Format("Jan 2"), weekEnd.Format("Jan 2, 2006")),
	}
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		date := training.NewDateKey(day)
		view.Days = append(view.Days, DayCell{
			Day:      day.Day(),
			Date:     date,
			Today:    date == today,
			Sessions: dots(byDate[date]),
		})
	}
	return view
}

// RenderDay builds the single-day detail for the cursor date.
func (c *Calendar) RenderDay(sessions []training.Session, wellness []training.WellnessEntry) DayView {
	date := training.NewDateKey(c.cursor)
	view := DayView{
		Date:     date,
		Title:    c.cursor.Format("Monday, January 2, 2006"),
		Today:    date == training.NewDateKey(c.now()),
		Sessions: make([]SessionDetail, 0),
	}

	for i := range wellness {
		if wellness[i].Date == date {
			entry := wellness[i]
			view.Wellness = &entry
			break
		}
	}

	for _, s := range bucketSessions(sessions)[date] {
		view.Sessions = append(view.Sessions, SessionDetail{
			ID:          s.ID,
			Category:    s.Category,
			Subcategory: s.Subcategory,
			Color:       CategoryColor(s.Category),
			Rating:      s.Rating,
			Notes:       s.Notes,
			Duration:    s.Details.Duration(),
		})
	}
	return view
}

func bucketSessions(sessions []training.Session) map[training.DateKey][]training.Session {
	byDate := make(map[training.DateKey][]training.Session)
	for _, s := range sessions {
		byDate[s.Date] = append(byDate[s.Date], s)
	}
	return byDate
}

func dots(sessions []training.Session) []SessionDot {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]SessionDot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionDot{
			ID:          s.ID,
			Category:    s.Category,
			Subcategory: s.Subcategory,
			Color:       CategoryColor(s.Category),
		})
	}
	return out
}
