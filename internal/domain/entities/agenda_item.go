package entities

import (
	"fmt"
	"strings"
)

// AgendaItem is one normalized row of the source table. Identity is the
// item's ordinal among the loaded rows; skipped blank or decoration rows do
// not consume an index. Items are never persisted beyond a run.
type AgendaItem struct {
	Index       int    `json:"index"`
	MeetingDate string `json:"meeting_date"`
	Section     string `json:"section"`
	Title       string `json:"title"`
	Notes       string `json:"notes"`

	// Included is the default selection state derived from the source's
	// inclusion column. The selector may override it; every other field is
	// read-only after loading.
	Included bool `json:"included"`
}

// Logical field names resolvable by a HeaderMapping.
const (
	FieldMeetingDate = "meeting_date"
	FieldSection     = "section"
	FieldItem        = "item"
	FieldNotes       = "notes"
	FieldInclude     = "include"
)

// HeaderMapping maps logical field names to the literal column headers
// expected in the source table. Header matching is case-sensitive.
type HeaderMapping struct {
	Date    string `json:"date" mapstructure:"date" validate:"required"`
	Section string `json:"section" mapstructure:"section" validate:"required"`
	Item    string `json:"item" mapstructure:"item" validate:"required"`
	Notes   string `json:"notes" mapstructure:"notes" validate:"required"`

	// Include is optional; when empty every loaded item defaults to included.
	Include string `json:"include" mapstructure:"include"`
}

// DefaultHeaderMapping returns the column names the source spreadsheets have
// historically used.
func DefaultHeaderMapping() HeaderMapping {
	return HeaderMapping{
		Date:    "MEETING DATE",
		Section: "AGENDA SECTION",
		Item:    "AGENDA ITEM",
		Notes:   "NOTES",
		Include: "Include in Summary for Mayor",
	}
}

// RequiredColumns returns the literal headers that must be present in the
// source, in a stable order. The include column is never required: when it is
// absent every item defaults to included.
func (m HeaderMapping) RequiredColumns() []string {
	return []string{m.Date, m.Section, m.Item, m.Notes}
}

// Validate checks that every logical field required by the prompt builder
// resolves to exactly one mapped column.
func (m HeaderMapping) Validate() error {
	required := map[string]string{
		FieldMeetingDate: m.Date,
		FieldSection:     m.Section,
		FieldItem:        m.Item,
		FieldNotes:       m.Notes,
	}
	for _, field := range []string{FieldMeetingDate, FieldSection, FieldItem, FieldNotes} {
		if strings.TrimSpace(required[field]) == "" {
			return fmt.Errorf("header mapping: logical field %q has no column", field)
		}
	}
	seen := map[string]string{}
	for field, col := range required {
		if col == "" {
			continue
		}
		if prev, ok := seen[col]; ok {
			return fmt.Errorf("header mapping: column %q mapped by both %q and %q", col, prev, field)
		}
		seen[col] = field
	}
	if m.Include != "" {
		if prev, ok := seen[m.Include]; ok {
			return fmt.Errorf("header mapping: column %q mapped by both %q and %q", m.Include, prev, FieldInclude)
		}
	}
	return nil
}

// IncludedValue coerces an inclusion-flag cell to a boolean. "Y" and "Yes"
// match case-insensitively; everything else means excluded.
func IncludedValue(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
