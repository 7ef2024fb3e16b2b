package forms

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/2beens/trainlog/internal/training"
)

// Parse turns submitted form values into a details record shaped by
// the pair's field type. Repeatable rows are submitted with indexed
// names ("exercises.0.name"); indices may be sparse after row removal
// and are read in ascending order. Unrecognized values are ignored,
// malformed numbers become absent.
func Parse(category training.Category, subcategory string, values url.Values) (training.Details, error) {
	fieldType, ok := training.DefaultConfig().FieldTypeFor(category, subcategory)
	if !ok {
		return training.Details{}, fmt.Errorf("unknown category/subcategory pair %q/%q", category, subcategory)
	}

	details := training.Details{Type: fieldType}

	switch fieldType {
	case training.FieldTypeGeneric:
		details.Generic = &training.GenericDetails{
			Duration: parseNumber(values.Get("duration")),
		}
	case training.FieldTypeRunning:
		details.Running = &training.RunningDetails{
			Distance:      parseNumber(values.Get("distance")),
			Duration:      parseNumber(values.Get("duration")),
			Pace:          values.Get("pace"),
			AvgHR:         parseNumber(values.Get("avgHR")),
			ElevationGain: parseNumber(values.Get("elevationGain")),
		}
	case training.FieldTypeWeights:
		d := &training.WeightsDetails{
			Duration: parseNumber(values.Get("duration")),
		}
		for _, i := range rowIndices(values, "exercises") {
			d.Exercises = append(d.Exercises, training.ExerciseRow{
				Name:   values.Get(rowKey("exercises", i, "name")),
				Sets:   parseNumber(values.Get(rowKey("exercises", i, "sets"))),
				Reps:   parseNumber(values.Get(rowKey("exercises", i, "reps"))),
				Weight: parseNumber(values.Get(rowKey("exercises", i, "weight"))),
			})
		}
		details.Weights = d
	case training.FieldTypeBouldering:
		d := &training.BoulderingDetails{
			Duration: parseNumber(values.Get("duration")),
		}
		for _, i := range rowIndices(values, "grades") {
			d.Grades = append(d.Grades, training.GradeCount{
				Grade: values.Get(rowKey("grades", i, "grade")),
				Count: parseNumber(values.Get(rowKey("grades", i, "count"))),
			})
		}
		details.Bouldering = d
	case training.FieldTypeSport:
		d := &training.SportDetails{
			Duration:  parseNumber(values.Get("duration")),
			ClimbType: training.ClimbType(values.Get("type")),
		}
		for _, i := range rowIndices(values, "routes") {
			outcome := training.Outcome(values.Get(rowKey("routes", i, "outcome")))
			if outcome == "" {
				outcome = training.OutcomeAttempt
			}
			d.Routes = append(d.Routes, training.RouteRow{
				Grade:   values.Get(rowKey("routes", i, "grade")),
				Outcome: outcome,
			})
		}
		details.Sport = d
	default:
		return training.Details{}, fmt.Errorf("unknown field type: %q", fieldType)
	}

	if category == training.CategoryClimbing {
		details.Climbing = parseClimbingExtras(values)
	}

	return details, nil
}

func parseClimbingExtras(values url.Values) *training.ClimbingExtras {
	extras := &training.ClimbingExtras{
		Venue: training.Venue(values.Get("venue")),
	}

	warmup := training.Warmup{
		Pullups: training.WarmupSet{
			Sets:   parseNumber(values.Get("warmup.pullups.sets")),
			Reps:   parseNumber(values.Get("warmup.pullups.reps")),
			Weight: parseNumber(values.Get("warmup.pullups.weight")),
		},
		Fingerboard: training.WarmupSet{
			Sets:   parseNumber(values.Get("warmup.fingerboard.sets")),
			Reps:   parseNumber(values.Get("warmup.fingerboard.reps")),
			Weight: parseNumber(values.Get("warmup.fingerboard.weight")),
		},
	}
	if warmup != (training.Warmup{}) {
		extras.Warmup = &warmup
	}

	return extras
}

func rowKey(section string, index int, field string) string {
	return fmt.Sprintf("%s.%d.%s", section, index, field)
}

// rowIndices collects the distinct row indices present for a section,
// ascending.
func rowIndices(values url.Values, section string) []int {
	prefix := section + "."
	seen := map[int]bool{}
	for key := range values {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		dot := strings.Index(rest, ".")
		if dot < 0 {
			continue
		}
		i, err := strconv.Atoi(rest[:dot])
		if err != nil {
			continue
		}
		seen[i] = true
	}

	indices := make([]int, 0, len(seen))
	for i := range seen {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}
