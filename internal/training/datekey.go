package training

import (
	"fmt"
	"time"
)

// dateKeyLayout is the locale-stable calendar date key used for all
// bucketing; display formatting is a separate concern applied to labels.
const dateKeyLayout = "2006-01-02"

// DateKey is a calendar date in YYYY-MM-DD form, with no time component.
type DateKey string

func NewDateKey(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

func (d DateKey) String() string {
	return string(d)
}

func (d DateKey) Time() (time.Time, error) {
	t, err := time.Parse(dateKeyLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", d, err)
	}
	return t, nil
}

func (d DateKey) Valid() bool {
	_, err := d.Time()
	return err == nil
}
