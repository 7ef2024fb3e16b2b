// Package charts aggregates the last 30 days of sessions and wellness
// into the labeled line series the dashboard plots.
package charts

import (
	"time"

	"github.com/2beens/trainlog/internal/training"
	"github.com/2beens/trainlog/internal/training/calendar"
)

const (
	windowDays      = 30
	movingAvgWindow = 7
)

// Series is one plottable line. Points align with the dashboard's
// date labels; nil marks a gap (no data for that day, not zero).
type Series struct {
	Label  string     `json:"label"`
	Color  string     `json:"color,omitempty"`
	Points []*float64 `json:"points"`
}

// Dashboard carries everything the plotting layer needs: a shared
// 30-label date axis, the per-category volume moving averages, and
// the three wellness series.
type Dashboard struct {
	Labels   []training.DateKey `json:"labels"`
	Volume   []Series           `json:"volume"`
	Wellness []Series           `json:"wellness"`
}

// Build computes the dashboard over the 30-day window ending today.
func Build(now time.Time, sessions []training.Session, wellness []training.WellnessEntry) Dashboard {
	labels := window(now)

	dashboard := Dashboard{Labels: labels}

	for _, category := range training.DefaultConfig().Categories() {
		volumes := dailyVolumes(labels, sessions, category)
		averaged := MovingAverage(volumes, movingAvgWindow)
		points := make([]*float64, len(averaged))
		for i := range averaged {
			v := averaged[i]
			points[i] = &v
		}
		dashboard.Volume = append(dashboard.Volume, Series{
			Label:  string(category),
			Color:  calendar.CategoryColor(category),
			Points: points,
		})
	}

	dashboard.Wellness = []Series{
		wellnessSeries("Sleep (h)", labels, wellness, func(e training.WellnessEntry) *float64 { return e.Sleep }),
		wellnessSeries("Weight (kg)", labels, wellness, func(e training.WellnessEntry) *float64 { return e.Weight }),
		wellnessSeries("Calories", labels, wellness, func(e training.WellnessEntry) *float64 { return e.Calories }),
	}

	return dashboard
}

// window returns the date keys of the last windowDays days, oldest
// first, ending today.
func window(now time.Time) []training.DateKey {
	labels := make([]training.DateKey, windowDays)
	for i := 0; i < windowDays; i++ {
		labels[i] = training.NewDateKey(now.AddDate(0, 0, i-windowDays+1))
	}
	return labels
}

// dailyVolumes sums session durations in minutes per day for one
// category; sessions without a duration contribute zero.
func dailyVolumes(labels []training.DateKey, sessions []training.Session, category training.Category) []float64 {
	byDate := make(map[training.DateKey]float64)
	for _, s := range sessions {
		if s.Category != category {
			continue
		}
		if duration := s.Details.Duration(); duration != nil {
			byDate[s.Date] += *duration
		}
	}

	volumes := make([]float64, len(labels))
	for i, label := range labels {
		volumes[i] = byDate[label]
	}
	return volumes
}

// MovingAverage computes a trailing mean; the window shrinks at the
// start of the range, day i averages over min(window, i+1) days.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i := range values {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		n := window
		if i+1 < window {
			n = i + 1
		}
		out[i] = sum / float64(n)
	}
	return out
}

func wellnessSeries(
	label string,
	labels []training.DateKey,
	wellness []training.WellnessEntry,
	value func(training.WellnessEntry) *float64,
) Series {
	byDate := make(map[training.DateKey]*float64)
	for _, e := range wellness {
		byDate[e.Date] = value(e)
	}

	points := make([]*float64, len(labels))
	for i, date := range labels {
		points[i] = byDate[date]
	}

	return Series{
		Label:  label,
		Points: points,
	}
}
