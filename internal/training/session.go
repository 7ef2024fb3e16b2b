package training

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("invalid session")
)

type Session struct {
	ID          string    `json:"id"`
	Date        DateKey   `json:"date"`
	Category    Category  `json:"category"`
	Subcategory string    `json:"subcategory"`
	Rating      *int      `json:"rating,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Details     Details   `json:"details"`
	CreatedAt   time.Time `json:"createdAt"`
}

// sessionAlias avoids recursing into Session.UnmarshalJSON while still
// letting the details blob be decoded after the category is known.
type sessionAlias struct {
	ID          string          `json:"id"`
	Date        DateKey         `json:"date"`
	Category    Category        `json:"category"`
	Subcategory string          `json:"subcategory"`
	Rating      *int            `json:"rating,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	Details     json.RawMessage `json:"details"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var alias sessionAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	fieldType, ok := DefaultConfig().FieldTypeFor(alias.Category, alias.Subcategory)
	if !ok {
		return fmt.Errorf("%w: unknown category/subcategory pair %q/%q",
			ErrInvalidSession, alias.Category, alias.Subcategory)
	}

	details, err := UnmarshalDetails(fieldType, alias.Category == CategoryClimbing, alias.Details)
	if err != nil {
		return err
	}

	s.ID = alias.ID
	s.Date = alias.Date
	s.Category = alias.Category
	s.Subcategory = alias.Subcategory
	s.Rating = alias.Rating
	s.Notes = alias.Notes
	s.Details = details
	s.CreatedAt = alias.CreatedAt
	return nil
}

func (s *Session) Validate() error {
	if !s.Date.Valid() {
		return fmt.Errorf("%w: bad date %q", ErrInvalidSession, s.Date)
	}
	fieldType, ok := DefaultConfig().FieldTypeFor(s.Category, s.Subcategory)
	if !ok {
		return fmt.Errorf("%w: unknown category/subcategory pair %q/%q",
			ErrInvalidSession, s.Category, s.Subcategory)
	}
	if s.Details.Type != fieldType {
		return fmt.Errorf("%w: details shape %q does not match %s/%s",
			ErrInvalidSession, s.Details.Type, s.Category, s.Subcategory)
	}
	if wantExtras := s.Category == CategoryClimbing; wantExtras != (s.Details.Climbing != nil) {
		return fmt.Errorf("%w: climbing extras mismatch for category %q", ErrInvalidSession, s.Category)
	}
	if s.Rating != nil && (*s.Rating < 1 || *s.Rating > 10) {
		return fmt.Errorf("%w: rating %d out of range", ErrInvalidSession, *s.Rating)
	}
	return nil
}
