package training

import (
	"fmt"
)

// WellnessEntry holds the daily metrics; one row per user per day.
// Saving the same date again merges the non-nil fields into the
// existing row instead of replacing it.
type WellnessEntry struct {
	Date     DateKey  `json:"date"`
	Sleep    *float64 `json:"sleep,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Calories *float64 `json:"calories,omitempty"`
}

func (w *WellnessEntry) Validate() error {
	if !w.Date.Valid() {
		return fmt.Errorf("bad wellness date %q", w.Date)
	}
	return nil
}

// Merge overlays the non-nil fields of other onto w.
func (w *WellnessEntry) Merge(other WellnessEntry) {
	if other.Sleep != nil {
		w.Sleep = other.Sleep
	}
	if other.Weight != nil {
		w.Weight = other.Weight
	}
	if other.Calories != nil {
		w.Calories = other.Calories
	}
}
