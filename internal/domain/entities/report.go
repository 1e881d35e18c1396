package entities

import "time"

// ReportSection is one ordered item section of the final report. Placeholder
// sections carry a fixed literal body that the model never supplies.
type ReportSection struct {
	Heading     string `json:"heading"`
	Body        string `json:"body"`
	ItemIndex   int    `json:"item_index"`
	Placeholder bool   `json:"placeholder"`
}

// Report is the final structured output: ordered item sections, the pass-2
// prose body, and fixed placeholders left for human completion. It is written
// once to a document file and not retained afterwards.
type Report struct {
	Title        string          `json:"title"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Body         string          `json:"body"`
	Sections     []ReportSection `json:"sections"`
	MeetingDates []string        `json:"meeting_dates"`
}

// PlaceholderText is the literal marker inserted where content is
// intentionally left for human completion.
const PlaceholderText = "[Placeholder for user to manually enter items.]"

// TBDText marks a section the model was not expected to fill.
const TBDText = "TBD"
