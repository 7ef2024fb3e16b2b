package views

import (
	"testing"
	"time"

	"github.com/2beens/trainlog/internal/training"
	"github.com/2beens/trainlog/internal/training/calendar"
	"github.com/2beens/trainlog/internal/training/charts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }

type storeFake struct {
	sessions []training.Session
	wellness []training.WellnessEntry
}

func (f *storeFake) ListSessions() ([]training.Session, error) {
	return f.sessions, nil
}

func (f *storeFake) ListWellness() ([]training.WellnessEntry, error) {
	return f.wellness, nil
}

func (f *storeFake) GetSession(sessionID string) (*training.Session, error) {
	for i := range f.sessions {
		if f.sessions[i].ID == sessionID {
			return &f.sessions[i], nil
		}
	}
	return nil, training.ErrSessionNotFound
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
}

func testStore() *storeFake {
	return &storeFake{
		sessions: []training.Session{
			{
				ID:          "s1",
				Date:        "2024-03-20", // in the future, planned
				Category:    training.CategoryRunning,
				Subcategory: "Road",
				Details: training.Details{
					Type:    training.FieldTypeRunning,
					Running: &training.RunningDetails{Duration: float64Ptr(40)},
				},
			},
			{
				ID:          "s2",
				Date:        "2024-03-10",
				Category:    training.CategoryWeights,
				Subcategory: "Strength",
				Details: training.Details{
					Type: training.FieldTypeWeights,
					Weights: &training.WeightsDetails{
						Duration: float64Ptr(60),
						Exercises: []training.ExerciseRow{
							{Name: "squat", Sets: float64Ptr(5)},
						},
					},
				},
			},
		},
	}
}

func TestRouter_SwitchView_Unknown(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)
	_, err := router.SwitchView("settings", Context{})
	require.Error(t, err)
}

func TestRouter_LogView_CreateMode(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)

	model, err := router.SwitchView(ViewLog, Context{})
	require.NoError(t, err)
	assert.Equal(t, ViewLog, model.View)
	assert.Equal(t, "Log Session", model.Title)

	logModel, ok := model.Content.(LogModel)
	require.True(t, ok)
	assert.Equal(t, "create", logModel.Mode)
	// a new entry defaults to today
	assert.Equal(t, training.DateKey("2024-03-15"), logModel.Date)
	assert.Equal(t, training.CategoryClimbing, logModel.Category)
	assert.Equal(t, "Bouldering", logModel.Subcategory)
	require.NotNil(t, logModel.Form)
}

func TestRouter_LogView_DatePreFill(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)

	model, err := router.SwitchView(ViewLog, Context{Date: "2024-03-22"})
	require.NoError(t, err)

	logModel := model.Content.(LogModel)
	assert.Equal(t, "create", logModel.Mode)
	assert.Equal(t, training.DateKey("2024-03-22"), logModel.Date)
}

func TestRouter_LogView_EditMode(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)

	model, err := router.SwitchView(ViewLog, Context{SessionID: "s2"})
	require.NoError(t, err)

	logModel := model.Content.(LogModel)
	assert.Equal(t, "edit", logModel.Mode)
	assert.Equal(t, "s2", logModel.SessionID)
	assert.Equal(t, training.CategoryWeights, logModel.Category)
	require.NotNil(t, logModel.Form)
	require.Len(t, logModel.Form.Sections, 1)
	require.Len(t, logModel.Form.Sections[0].Rows, 1)
	assert.Equal(t, "squat", logModel.Form.Sections[0].Rows[0].Fields[0].Value)
}

func TestRouter_LogView_EditNotFound(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)
	_, err := router.SwitchView(ViewLog, Context{SessionID: "nope"})
	require.ErrorIs(t, err, training.ErrSessionNotFound)
}

// a background refresh re-renders the active view with no context,
// an in-progress edit falls back to create mode
func TestRouter_Refresh_DropsEditContext(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)

	model, err := router.SwitchView(ViewLog, Context{SessionID: "s2"})
	require.NoError(t, err)
	require.Equal(t, "edit", model.Content.(LogModel).Mode)

	refreshed, err := router.Refresh()
	require.NoError(t, err)
	assert.Equal(t, ViewLog, refreshed.View)
	assert.Equal(t, "create", refreshed.Content.(LogModel).Mode)

	assert.Equal(t, refreshed, router.Current())
}

func TestRouter_Refresh_NoActiveView(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)
	model, err := router.Refresh()
	require.NoError(t, err)
	assert.Empty(t, model.View)
}

func TestRouter_HistoryView(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)

	model, err := router.SwitchView(ViewHistory, Context{})
	require.NoError(t, err)

	historyModel, ok := model.Content.(HistoryModel)
	require.True(t, ok)
	require.Len(t, historyModel.Sessions, 2)

	// the future session is flagged as planned
	assert.Equal(t, "s1", historyModel.Sessions[0].ID)
	assert.True(t, historyModel.Sessions[0].Planned)
	assert.Equal(t, float64Ptr(40), historyModel.Sessions[0].Duration)

	assert.Equal(t, "s2", historyModel.Sessions[1].ID)
	assert.False(t, historyModel.Sessions[1].Planned)
}

func TestRouter_CalendarView(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)

	model, err := router.SwitchView(ViewCalendar, Context{})
	require.NoError(t, err)

	calModel, ok := model.Content.(CalendarModel)
	require.True(t, ok)
	assert.Equal(t, calendar.ModeMonth, calModel.Mode)
	require.NotNil(t, calModel.Month)
	assert.Nil(t, calModel.Week)
	assert.Nil(t, calModel.Day)
}

func TestRouter_CalendarModeAndNavigation(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)

	model, err := router.SetCalendarMode(calendar.ModeWeek)
	require.NoError(t, err)
	calModel := model.Content.(CalendarModel)
	assert.Equal(t, calendar.ModeWeek, calModel.Mode)
	require.NotNil(t, calModel.Week)

	// navigation shifts by one week in week mode
	model, err = router.CalendarNavigate(true)
	require.NoError(t, err)
	calModel = model.Content.(CalendarModel)
	assert.Equal(t, training.DateKey("2024-03-22"), calModel.Cursor)

	_, err = router.SetCalendarMode("year")
	require.Error(t, err)
}

func TestRouter_OpenDay(t *testing.T) {
	store := testStore()
	store.wellness = []training.WellnessEntry{
		{Date: "2024-03-10", Sleep: float64Ptr(8)},
	}
	router := NewRouter(store, fixedNow)

	model, err := router.OpenDay("2024-03-10")
	require.NoError(t, err)

	calModel := model.Content.(CalendarModel)
	assert.Equal(t, calendar.ModeDay, calModel.Mode)
	require.NotNil(t, calModel.Day)
	assert.Equal(t, training.DateKey("2024-03-10"), calModel.Day.Date)
	require.NotNil(t, calModel.Day.Wellness)
	require.Len(t, calModel.Day.Sessions, 1)
	assert.Equal(t, "s2", calModel.Day.Sessions[0].ID)

	_, err = router.OpenDay("10.03.2024")
	require.Error(t, err)
}

func TestRouter_DashboardView(t *testing.T) {
	router := NewRouter(testStore(), fixedNow)

	model, err := router.SwitchView(ViewDashboard, Context{})
	require.NoError(t, err)
	assert.Equal(t, "Dashboard", model.Title)

	dashboard, ok := model.Content.(charts.Dashboard)
	require.True(t, ok)
	require.Len(t, dashboard.Labels, 30)
	require.Len(t, dashboard.Volume, 4)
	require.Len(t, dashboard.Wellness, 3)
}
