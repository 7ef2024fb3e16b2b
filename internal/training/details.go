package training

import (
	"encoding/json"
	"fmt"
)

type Venue string

const (
	VenueIndoors  Venue = "Indoors"
	VenueOutdoors Venue = "Outdoors"
)

type ClimbType string

const (
	ClimbTypeLead    ClimbType = "Lead"
	ClimbTypeTopRope ClimbType = "Top Rope"
)

type Outcome string

const (
	OutcomeOnsight  Outcome = "Onsight"
	OutcomeFlash    Outcome = "Flash"
	OutcomeRedpoint Outcome = "Redpoint"
	OutcomeAttempt  Outcome = "Attempt"
)

type GenericDetails struct {
	Duration *float64 `json:"duration,omitempty"`
}

type RunningDetails struct {
	Distance      *float64 `json:"distance,omitempty"`
	Duration      *float64 `json:"duration,omitempty"`
	Pace          string   `json:"pace,omitempty"`
	AvgHR         *float64 `json:"avgHR,omitempty"`
	ElevationGain *float64 `json:"elevationGain,omitempty"`
}

type ExerciseRow struct {
	Name   string   `json:"name"`
	Sets   *float64 `json:"sets,omitempty"`
	Reps   *float64 `json:"reps,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

type WeightsDetails struct {
	Duration  *float64      `json:"duration,omitempty"`
	Exercises []ExerciseRow `json:"exercises,omitempty"`
}

type GradeCount struct {
	Grade string   `json:"grade"`
	Count *float64 `json:"count,omitempty"`
}

type BoulderingDetails struct {
	Duration *float64     `json:"duration,omitempty"`
	Grades   []GradeCount `json:"grades,omitempty"`
}

type RouteRow struct {
	Grade   string  `json:"grade"`
	Outcome Outcome `json:"outcome"`
}

type SportDetails struct {
	Duration  *float64   `json:"duration,omitempty"`
	ClimbType ClimbType  `json:"type,omitempty"`
	Routes    []RouteRow `json:"routes,omitempty"`
}

type WarmupSet struct {
	Sets   *float64 `json:"sets,omitempty"`
	Reps   *float64 `json:"reps,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

type Warmup struct {
	Pullups     WarmupSet `json:"pullups"`
	Fingerboard WarmupSet `json:"fingerboard"`
}

// ClimbingExtras always accompany climbing sessions,
// regardless of the sub-category's field type.
type ClimbingExtras struct {
	Venue  Venue   `json:"venue,omitempty"`
	Warmup *Warmup `json:"warmup,omitempty"`
}

// Details is the variant part of a session, tagged by Type.
// Exactly one of the variant pointers matching Type is set;
// Climbing is set iff the session's category is Climbing.
type Details struct {
	Type     FieldType
	Climbing *ClimbingExtras

	Generic    *GenericDetails
	Running    *RunningDetails
	Weights    *WeightsDetails
	Bouldering *BoulderingDetails
	Sport      *SportDetails
}

// Duration returns the session duration in minutes, or nil when not set.
func (d Details) Duration() *float64 {
	switch d.Type {
	case FieldTypeGeneric:
		if d.Generic != nil {
			return d.Generic.Duration
		}
	case FieldTypeRunning:
		if d.Running != nil {
			return d.Running.Duration
		}
	case FieldTypeWeights:
		if d.Weights != nil {
			return d.Weights.Duration
		}
	case FieldTypeBouldering:
		if d.Bouldering != nil {
			return d.Bouldering.Duration
		}
	case FieldTypeSport:
		if d.Sport != nil {
			return d.Sport.Duration
		}
	}
	return nil
}

func (d Details) variant() (any, error) {
	switch d.Type {
	case FieldTypeGeneric:
		return d.Generic, nil
	case FieldTypeRunning:
		return d.Running, nil
	case FieldTypeWeights:
		return d.Weights, nil
	case FieldTypeBouldering:
		return d.Bouldering, nil
	case FieldTypeSport:
		return d.Sport, nil
	default:
		return nil, fmt.Errorf("unknown details field type: %q", d.Type)
	}
}

// MarshalJSON flattens the active variant and the climbing extras
// into a single details object, the shape the frontend works with.
func (d Details) MarshalJSON() ([]byte, error) {
	variant, err := d.variant()
	if err != nil {
		return nil, err
	}

	flat := map[string]json.RawMessage{}
	mergeInto := func(v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &flat)
	}

	if variant != nil {
		if err := mergeInto(variant); err != nil {
			return nil, fmt.Errorf("marshal %s details: %w", d.Type, err)
		}
	}
	if d.Climbing != nil {
		if err := mergeInto(d.Climbing); err != nil {
			return nil, fmt.Errorf("marshal climbing extras: %w", err)
		}
	}

	return json.Marshal(flat)
}

// UnmarshalDetails parses a flattened details object into the variant
// declared by fieldType; withClimbingExtras selects whether the
// venue/warmup fields are read too (category == Climbing).
func UnmarshalDetails(fieldType FieldType, withClimbingExtras bool, data []byte) (Details, error) {
	d := Details{Type: fieldType}
	if len(data) == 0 {
		data = []byte("{}")
	}

	var err error
	switch fieldType {
	case FieldTypeGeneric:
		d.Generic = &GenericDetails{}
		err = json.Unmarshal(data, d.Generic)
	case FieldTypeRunning:
		d.Running = &RunningDetails{}
		err = json.Unmarshal(data, d.Running)
	case FieldTypeWeights:
		d.Weights = &WeightsDetails{}
		err = json.Unmarshal(data, d.Weights)
	case FieldTypeBouldering:
		d.Bouldering = &BoulderingDetails{}
		err = json.Unmarshal(data, d.Bouldering)
	case FieldTypeSport:
		d.Sport = &SportDetails{}
		err = json.Unmarshal(data, d.Sport)
	default:
		return Details{}, fmt.Errorf("unknown details field type: %q", fieldType)
	}
	if err != nil {
		return Details{}, fmt.Errorf("unmarshal %s details: %w", fieldType, err)
	}

	if withClimbingExtras {
		d.Climbing = &ClimbingExtras{}
		if err := json.Unmarshal(data, d.Climbing); err != nil {
			return Details{}, fmt.Errorf("unmarshal climbing extras: %w", err)
		}
	}

	return d, nil
}
