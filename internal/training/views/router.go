// Package views tracks the active view and derives its view model
// from the current store snapshot.
package views

import (
	"fmt"
	"sync"
	"time"

	"github.com/2beens/trainlog/internal/training"
	"github.com/2beens/trainlog/internal/training/calendar"
	"github.com/2beens/trainlog/internal/training/charts"
	"github.com/2beens/trainlog/internal/training/forms"
)

type View string

const (
	ViewLog       View = "log"
	ViewCalendar  View = "calendar"
	ViewHistory   View = "history"
	ViewDashboard View = "dashboard"
)

var viewTitles = map[View]string{
	ViewLog:       "Log Session",
	ViewCalendar:  "Calendar",
	ViewHistory:   "History",
	ViewDashboard: "Dashboard",
}

// Context is the optional navigation payload: a session id opens the
// log view in edit mode, a date pre-fills a new entry's date.
type Context struct {
	SessionID string           `json:"sessionId,omitempty"`
	Date      training.DateKey `json:"date,omitempty"`
}

type Store interface {
	ListSessions() ([]training.Session, error)
	ListWellness() ([]training.WellnessEntry, error)
	GetSession(sessionID string) (*training.Session, error)
}

type Model struct {
	View    View   `json:"view"`
	Title   string `json:"title"`
	Content any    `json:"content"`
}

type LogModel struct {
	Mode          string            `json:"mode"` // "create" or "edit"
	SessionID     string            `json:"sessionId,omitempty"`
	Date          training.DateKey  `json:"date"`
	Category      training.Category `json:"category"`
	Subcategory   string            `json:"subcategory"`
	Rating        *int              `json:"rating,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Categories    []training.Category `json:"categories"`
	Subcategories []string            `json:"subcategories"`
	Form          *forms.Form         `json:"form"`
}

type HistoryItem struct {
	ID          string            `json:"id"`
	Date        training.DateKey  `json:"date"`
	Category    training.Category `json:"category"`
	Subcategory string            `json:"subcategory"`
	Color       string            `json:"color"`
	Rating      *int              `json:"rating,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Duration    *float64          `json:"duration,omitempty"`
	Planned     bool              `json:"planned"`
}

type HistoryModel struct {
	Sessions []HistoryItem `json:"sessions"`
}

type CalendarModel struct {
	Mode   calendar.Mode       `json:"mode"`
	Cursor training.DateKey    `json:"cursor"`
	Month  *calendar.MonthView `json:"month,omitempty"`
	Week   *calendar.WeekView  `json:"week,omitempty"`
	Day    *calendar.DayView   `json:"day,omitempty"`
}

// Router renders exactly one active view at a time. A store change
// notification re-renders the active view with an empty context, so
// an in-progress edit falls back to create mode on background
// refresh. Known tradeoff, kept for predictability.
type Router struct {
	store Store
	now   func() time.Time

	mu       sync.Mutex
	cal      *calendar.Calendar
	active   View
	current  Model
	renderFn map[View]func(Context) (any, error)
}

func NewRouter(store Store, now func() time.Time) *Router {
	if now == nil {
		now = time.Now
	}
	r := &Router{
		store: store,
		now:   now,
		cal:   calendar.New(now),
	}
	r.renderFn = map[View]func(Context) (any, error){
		ViewLog:       r.renderLog,
		ViewCalendar:  r.renderCalendar,
		ViewHistory:   r.renderHistory,
		ViewDashboard: r.renderDashboard,
	}
	return r
}

// SwitchView activates the view and renders it with the given context.
func (r *Router) SwitchView(view View, ctx Context) (Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	render, ok := r.renderFn[view]
	if !ok {
		return Model{}, fmt.Errorf("unknown view: %q", view)
	}

	content, err := render(ctx)
	if err != nil {
		return Model{}, err
	}

	r.active = view
	r.current = Model{
		View:    view,
		Title:   viewTitles[view],
		Content: content,
	}
	return r.current, nil
}

// Refresh re-renders the active view with no context. No-op while no
// view is active yet.
func (r *Router) Refresh() (Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == "" {
		return Model{}, nil
	}

	content, err := r.renderFn[r.active](Context{})
	if err != nil {
		return Model{}, err
	}

	r.current = Model{
		View:    r.active,
		Title:   viewTitles[r.active],
		Content: content,
	}
	return r.current, nil
}

// Current returns the last rendered model.
func (r *Router) Current() Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// CalendarNavigate shifts the calendar cursor by one unit of the
// active calendar mode and re-renders.
func (r *Router) CalendarNavigate(forward bool) (Model, error) {
	r.mu.Lock()
	if forward {
		r.cal.Next()
	} else {
		r.cal.Prev()
	}
	r.mu.Unlock()
	return r.SwitchView(ViewCalendar, Context{})
}

// SetCalendarMode switches between month, week and day rendering
// without losing the cursor date.
func (r *Router) SetCalendarMode(mode calendar.Mode) (Model, error) {
	switch mode {
	case calendar.ModeMonth, calendar.ModeWeek, calendar.ModeDay:
	default:
		return Model{}, fmt.Errorf("unknown calendar mode: %q", mode)
	}
	r.mu.Lock()
	r.cal.SetMode(mode)
	r.mu.Unlock()
	return r.SwitchView(ViewCalendar, Context{})
}

// OpenDay jumps the calendar to the single-day detail of the date.
func (r *Router) OpenDay(date training.DateKey) (Model, error) {
	r.mu.Lock()
	if err := r.cal.SetCursor(date); err != nil {
		r.mu.Unlock()
		return Model{}, err
	}
	r.cal.SetMode(calendar.ModeDay)
	r.mu.Unlock()
	return r.SwitchView(ViewCalendar, Context{})
}

func (r *Router) renderLog(ctx Context) (any, error) {
	cfg := training.DefaultConfig()

	if ctx.SessionID != "" {
		session, err := r.store.GetSession(ctx.SessionID)
		if err != nil {
			return nil, err
		}
		form, err := forms.Build(session.Category, session.Subcategory, &session.Details)
		if err != nil {
			return nil, err
		}
		return LogModel{
			Mode:          "edit",
			SessionID:     session.ID,
			Date:          session.Date,
			Category:      session.Category,
			Subcategory:   session.Subcategory,
			Rating:        session.Rating,
			Notes:         session.Notes,
			Categories:    cfg.Categories(),
			Subcategories: cfg.Subcategories(session.Category),
			Form:          form,
		}, nil
	}

	category := cfg.Categories()[0]
	subcategory := cfg.Subcategories(category)[0]
	form, err := forms.Build(category, subcategory, nil)
	if err != nil {
		return nil, err
	}

	date := ctx.Date
	if date == "" {
		date = training.NewDateKey(r.now())
	}

	return LogModel{
		Mode:          "create",
		Date:          date,
		Category:      category,
		Subcategory:   subcategory,
		Categories:    cfg.Categories(),
		Subcategories: cfg.Subcategories(category),
		Form:          form,
	}, nil
}

func (r *Router) renderHistory(_ Context) (any, error) {
	sessions, err := r.store.ListSessions()
	if err != nil {
		return nil, err
	}

	today := training.NewDateKey(r.now())
	model := HistoryModel{Sessions: make([]HistoryItem, 0, len(sessions))}
	for _, s := range sessions {
		model.Sessions = append(model.Sessions, HistoryItem{
			ID:          s.ID,
			Date:        s.Date,
			Category:    s.Category,
			Subcategory: s.Subcategory,
			Color:       calendar.CategoryColor(s.Category),
			Rating:      s.Rating,
			Notes:       s.Notes,
			Duration:    s.Details.Duration(),
			Planned:     s.Date > today,
		})
	}
	return model, nil
}

func (r *Router) renderCalendar(_ Context) (any, error) {
	sessions, err := r.store.ListSessions()
	if err != nil {
		return nil, err
	}

	model := CalendarModel{
		Mode:   r.cal.Mode(),
		Cursor: r.cal.Cursor(),
	}
	switch r.cal.Mode() {
	case calendar.ModeMonth:
		month := r.cal.RenderMonth(sessions)
		model.Month = &month
	case calendar.ModeWeek:
		week := r.cal.RenderWeek(sessions)
		model.Week = &week
	case calendar.ModeDay:
		wellness, err := r.store.ListWellness()
		if err != nil {
			return nil, err
		}
		day := r.cal.RenderDay(sessions, wellness)
		model.Day = &day
	}
	return model, nil
}

func (r *Router) renderDashboard(_ Context) (any, error) {
	sessions, err := r.store.ListSessions()
	if err != nil {
		return nil, err
	}
	wellness, err := r.store.ListWellness()
	if err != nil {
		return nil, err
	}
	return charts.Build(r.now(), sessions, wellness), nil
}
