package charts

import (
	"testing"
	"time"

	"github.com/2beens/trainlog/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }

func TestMovingAverage(t *testing.T) {
	volumes := []float64{0, 0, 10, 0, 0, 0, 0, 20}
	averaged := MovingAverage(volumes, 7)
	require.Len(t, averaged, 8)

	// window shrinks at the start of the range
	assert.Equal(t, float64(0), averaged[0])
	assert.InDelta(t, 10.0/3, averaged[2], 1e-9)
	assert.InDelta(t, 10.0/7, averaged[6], 1e-9)
	// at index 7 the window covers indices 1-7
	assert.InDelta(t, 30.0/7, averaged[7], 1e-9)
}

func TestMovingAverage_Empty(t *testing.T) {
	assert.Empty(t, MovingAverage(nil, 7))
}

func TestBuild(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

	sessions := []training.Session{
		{
			ID:          "s1",
			Date:        "2024-03-15",
			Category:    training.CategoryRunning,
			Subcategory: "Road",
			Details: training.Details{
				Type:    training.FieldTypeRunning,
				Running: &training.RunningDetails{Duration: float64Ptr(40)},
			},
		},
		{
			ID:          "s2",
			Date:        "2024-03-15",
			Category:    training.CategoryRunning,
			Subcategory: "Trail",
			Details: training.Details{
				Type:    training.FieldTypeRunning,
				Running: &training.RunningDetails{Duration: float64Ptr(30)},
			},
		},
		{
			// no duration, contributes zero
			ID:          "s3",
			Date:        "2024-03-14",
			Category:    training.CategoryRunning,
			Subcategory: "Road",
			Details: training.Details{
				Type:    training.FieldTypeRunning,
				Running: &training.RunningDetails{},
			},
		},
		{
			// outside the 30 day window
			ID:          "s4",
			Date:        "2024-01-01",
			Category:    training.CategoryRunning,
			Subcategory: "Road",
			Details: training.Details{
				Type:    training.FieldTypeRunning,
				Running: &training.RunningDetails{Duration: float64Ptr(999)},
			},
		},
	}
	wellness := []training.WellnessEntry{
		{Date: "2024-03-15", Sleep: float64Ptr(7), Weight: float64Ptr(72.5)},
		{Date: "2024-03-10", Calories: float64Ptr(2400)},
	}

	dashboard := Build(now, sessions, wellness)

	require.Len(t, dashboard.Labels, 30)
	assert.Equal(t, training.DateKey("2024-02-15"), dashboard.Labels[0])
	assert.Equal(t, training.DateKey("2024-03-15"), dashboard.Labels[29])

	require.Len(t, dashboard.Volume, 4)
	var running Series
	for _, series := range dashboard.Volume {
		require.Len(t, series.Points, 30)
		if series.Label == string(training.CategoryRunning) {
			running = series
		}
	}
	require.NotNil(t, running.Points)

	// same-day durations add up; the last point's window covers the
	// trailing 7 days with only the 70 minutes of march 15 in it
	last := running.Points[29]
	require.NotNil(t, last)
	assert.InDelta(t, 70.0/7, *last, 1e-9)

	// climbing has no sessions, all points averaged to zero but present
	for _, series := range dashboard.Volume {
		if series.Label == string(training.CategoryClimbing) {
			for _, p := range series.Points {
				require.NotNil(t, p)
				assert.Equal(t, float64(0), *p)
			}
		}
	}

	require.Len(t, dashboard.Wellness, 3)
	sleep := dashboard.Wellness[0]
	require.Len(t, sleep.Points, 30)
	require.NotNil(t, sleep.Points[29])
	assert.Equal(t, float64(7), *sleep.Points[29])
	// gaps stay missing, not zero
	assert.Nil(t, sleep.Points[28])

	calories := dashboard.Wellness[2]
	require.NotNil(t, calories.Points[24]) // 2024-03-10
	assert.Equal(t, float64(2400), *calories.Points[24])
	assert.Nil(t, calories.Points[29])
}
