// Package forms builds the input layout for a category/sub-category
// pair and parses submitted values back into session details.
package forms

import (
	"strconv"

	"github.com/2beens/trainlog/internal/training"
)

type FieldKind string

const (
	FieldKindNumber FieldKind = "number"
	FieldKindText   FieldKind = "text"
	FieldKindSelect FieldKind = "select"
)

// Field is one input in the form. Value carries the pre-filled content
// in edit mode, empty otherwise.
type Field struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Value   string    `json:"value,omitempty"`
	Options []string  `json:"options,omitempty"`
}

// Row is one entry of a repeatable section.
type Row struct {
	Fields []Field `json:"fields"`
}

// Section is a repeatable list of rows. Rows can be added (a copy of
// Template with empty values) and removed freely before submission;
// the initial single row is a render default, not a submit constraint.
type Section struct {
	Name     string  `json:"name"`
	Label    string  `json:"label"`
	Rows     []Row   `json:"rows"`
	Template []Field `json:"template"`
}

// Form is the complete input layout for one category/sub-category
// pair. Fields are ordered; for climbing the venue and warmup inputs
// come ahead of the tag-specific ones.
type Form struct {
	Category    training.Category `json:"category"`
	Subcategory string            `json:"subcategory"`
	Fields      []Field           `json:"fields"`
	Warmup      []Row             `json:"warmup,omitempty"`
	Sections    []Section         `json:"sections,omitempty"`
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// parseNumber coerces the raw input to a number; empty or malformed
// input becomes absent, never an error.
func parseNumber(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
