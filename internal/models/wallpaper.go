// Package models defines the domain types for wallhub.
package models

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DateLayout is the layout of entry dates and date directory names.
const DateLayout = "2006-01-02"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Meta is the record persisted as meta.json next to each wallpaper.
type Meta struct {
	Date         string `json:"date"`
	Title        string `json:"title"`
	Copyright    string `json:"copyright"`
	ImageURL     string `json:"image_url"`
	Photographer string `json:"photographer,omitempty"`
	HasStory     bool   `json:"has_story"`
}

// Validate checks the fields every meta record must carry.
func (m *Meta) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Date, validation.Required, validation.Match(dateRe), validation.By(isCalendarDate)),
		validation.Field(&m.ImageURL, validation.Required),
	)
}

// TitleOr returns the title, or fallback when the title is empty.
func (m *Meta) TitleOr(fallback string) string {
	if m.Title == "" {
		return fallback
	}
	return m.Title
}

func isCalendarDate(value interface{}) error {
	s, _ := value.(string)
	if _, err := time.Parse(DateLayout, s); err != nil {
		return validation.NewError("validation_date", "must be a calendar date")
	}
	return nil
}

// Run summarises one command execution for the ledger.
type Run struct {
	ID         int64     `json:"id"`
	Command    string    `json:"command"`
	Source     string    `json:"source,omitempty"`
	Target     string    `json:"target,omitempty"`
	Created    int       `json:"created"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
