package forms

import (
	"fmt"

	"github.com/2beens/trainlog/internal/training"
)

// Build produces the input layout for the pair. details is nil in
// create mode; in edit mode every field is pre-filled from it and the
// repeatable sections get one row per existing element, in order.
func Build(category training.Category, subcategory string, details *training.Details) (*Form, error) {
	fieldType, ok := training.DefaultConfig().FieldTypeFor(category, subcategory)
	if !ok {
		return nil, fmt.Errorf("unknown category/subcategory pair %q/%q", category, subcategory)
	}
	if details != nil && details.Type != fieldType {
		return nil, fmt.Errorf("details shape %q does not match %s/%s", details.Type, category, subcategory)
	}

	form := &Form{
		Category:    category,
		Subcategory: subcategory,
	}

	if category == training.CategoryClimbing {
		buildClimbingExtras(form, details)
	}

	switch fieldType {
	case training.FieldTypeGeneric:
		buildGeneric(form, details)
	case training.FieldTypeRunning:
		buildRunning(form, details)
	case training.FieldTypeWeights:
		buildWeights(form, details)
	case training.FieldTypeBouldering:
		buildBouldering(form, details)
	case training.FieldTypeSport:
		buildSport(form, details)
	default:
		return nil, fmt.Errorf("unknown field type: %q", fieldType)
	}

	return form, nil
}

func buildClimbingExtras(form *Form, details *training.Details) {
	var extras *training.ClimbingExtras
	if details != nil {
		extras = details.Climbing
	}

	venue := Field{
		Name:    "venue",
		Label:   "Venue",
		Kind:    FieldKindSelect,
		Options: []string{string(training.VenueIndoors), string(training.VenueOutdoors)},
	}
	if extras != nil {
		venue.Value = string(extras.Venue)
	}
	form.Fields = append(form.Fields, venue)

	warmupRow := func(exercise string, set training.WarmupSet) Row {
		prefix := "warmup." + exercise
		return Row{Fields: []Field{
			{Name: prefix + ".sets", Label: "Sets", Kind: FieldKindNumber, Value: formatNumber(set.Sets)},
			{Name: prefix + ".reps", Label: "Reps", Kind: FieldKindNumber, Value: formatNumber(set.Reps)},
			{Name: prefix + ".weight", Label: "Weight", Kind: FieldKindNumber, Value: formatNumber(set.Weight)},
		}}
	}

	var warmup training.Warmup
	if extras != nil && extras.Warmup != nil {
		warmup = *extras.Warmup
	}
	form.Warmup = []Row{
		warmupRow("pullups", warmup.Pullups),
		warmupRow("fingerboard", warmup.Fingerboard),
	}
}

func buildGeneric(form *Form, details *training.Details) {
	duration := Field{Name: "duration", Label: "Duration (min)", Kind: FieldKindNumber}
	if details != nil && details.Generic != nil {
		duration.Value = formatNumber(details.Generic.Duration)
	}
	form.Fields = append(form.Fields, duration)
}

func buildRunning(form *Form, details *training.Details) {
	var d training.RunningDetails
	if details != nil && details.Running != nil {
		d = *details.Running
	}
	form.Fields = append(form.Fields,
		Field{Name: "distance", Label: "Distance (km)", Kind: FieldKindNumber, Value: formatNumber(d.Distance)},
		Field{Name: "duration", Label: "Duration (min)", Kind: FieldKindNumber, Value: formatNumber(d.Duration)},
		Field{Name: "pace", Label: "Pace (min/km)", Kind: FieldKindText, Value: d.Pace},
		Field{Name: "avgHR", Label: "Avg. Heart Rate", Kind: FieldKindNumber, Value: formatNumber(d.AvgHR)},
		Field{Name: "elevationGain", Label: "Elevation Gain (m)", Kind: FieldKindNumber, Value: formatNumber(d.ElevationGain)},
	)
}

func buildWeights(form *Form, details *training.Details) {
	var d training.WeightsDetails
	if details != nil && details.Weights != nil {
		d = *details.Weights
	}
	form.Fields = append(form.Fields,
		Field{Name: "duration", Label: "Duration (min)", Kind: FieldKindNumber, Value: formatNumber(d.Duration)},
	)

	template := []Field{
		{Name: "name", Label: "Exercise", Kind: FieldKindText},
		{Name: "sets", Label: "Sets", Kind: FieldKindNumber},
		{Name: "reps", Label: "Reps", Kind: FieldKindNumber},
		{Name: "weight", Label: "Weight (kg)", Kind: FieldKindNumber},
	}
	section := Section{Name: "exercises", Label: "Exercises", Template: template}
	for _, e := range d.Exercises {
		section.Rows = append(section.Rows, Row{Fields: []Field{
			{Name: "name", Label: "Exercise", Kind: FieldKindText, Value: e.Name},
			{Name: "sets", Label: "Sets", Kind: FieldKindNumber, Value: formatNumber(e.Sets)},
			{Name: "reps", Label: "Reps", Kind: FieldKindNumber, Value: formatNumber(e.Reps)},
			{Name: "weight", Label: "Weight (kg)", Kind: FieldKindNumber, Value: formatNumber(e.Weight)},
		}})
	}
	if len(section.Rows) == 0 {
		section.Rows = append(section.Rows, Row{Fields: template})
	}
	form.Sections = append(form.Sections, section)
}

func buildBouldering(form *Form, details *training.Details) {
	var d training.BoulderingDetails
	if details != nil && details.Bouldering != nil {
		d = *details.Bouldering
	}
	form.Fields = append(form.Fields,
		Field{Name: "duration", Label: "Duration (min)", Kind: FieldKindNumber, Value: formatNumber(d.Duration)},
	)

	template := []Field{
		{Name: "grade", Label: "Grade", Kind: FieldKindText},
		{Name: "count", Label: "Count", Kind: FieldKindNumber},
	}
	section := Section{Name: "grades", Label: "Grades", Template: template}
	for _, g := range d.Grades {
		section.Rows = append(section.Rows, Row{Fields: []Field{
			{Name: "grade", Label: "Grade", Kind: FieldKindText, Value: g.Grade},
			{Name: "count", Label: "Count", Kind: FieldKindNumber, Value: formatNumber(g.Count)},
		}})
	}
	if len(section.Rows) == 0 {
		section.Rows = append(section.Rows, Row{Fields: template})
	}
	form.Sections = append(form.Sections, section)
}

func buildSport(form *Form, details *training.Details) {
	var d training.SportDetails
	if details != nil && details.Sport != nil {
		d = *details.Sport
	}
	form.Fields = append(form.Fields,
		Field{Name: "duration", Label: "Duration (min)", Kind: FieldKindNumber, Value: formatNumber(d.Duration)},
		Field{
			Name:    "type",
			Label:   "Climb Type",
			Kind:    FieldKindSelect,
			Value:   string(d.ClimbType),
			Options: []string{string(training.ClimbTypeLead), string(training.ClimbTypeTopRope)},
		},
	)

	outcomes := []string{
		string(training.OutcomeOnsight),
		string(training.OutcomeFlash),
		string(training.OutcomeRedpoint),
		string(training.OutcomeAttempt),
	}
	template := []Field{
		{Name: "grade", Label: "Grade", Kind: FieldKindText},
		{Name: "outcome", Label: "Outcome", Kind: FieldKindSelect, Value: string(training.OutcomeAttempt), Options: outcomes},
	}
	section := Section{Name: "routes", Label: "Routes", Template: template}
	for _, route := range d.Routes {
		section.Rows = append(section.Rows, Row{Fields: []Field{
			{Name: "grade", Label: "Grade", Kind: FieldKindText, Value: route.Grade},
			{Name: "outcome", Label: "Outcome", Kind: FieldKindSelect, Value: string(route.Outcome), Options: outcomes},
		}})
	}
	if len(section.Rows) == 0 {
		section.Rows = append(section.Rows, Row{Fields: template})
	}
	form.Sections = append(form.Sections, section)
}
