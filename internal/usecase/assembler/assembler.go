package assembler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	docx "github.com/fumiama/go-docx"
	"go.uber.org/zap"

	apperrors "github.com/clerkdesk/agenda-report/errors"
	"github.com/clerkdesk/agenda-report/internal/domain/entities"
)

// Fixed structural strings. These are literal, never model-generated.
const (
	titlePrefix    = "Major Council Agenda Items, Tentative for "
	tentativeNote  = "Note: This is a Tentative Agenda Listing. Dates of items are subject to change " +
		"up to the last minute for a variety of reasons. In addition, this listing does not " +
		"necessarily report all items, just ones that are noteworthy. The City Manager typically " +
		"reviews the tentative agenda items list in more detail with each Councilmember during " +
		"individual meetings."
	itemSummariesHeading = "Item Summaries:"
	tbdHeading           = "TBD:"
	completedSinceFormat = "Significant Items Completed Since %s:"
)

// horizontalRule separates the report's structural blocks.
var horizontalRule = strings.Repeat("_", 78)

// sectionHeaders are the agenda section names the report body uses; lines
// starting with one of these are section headers, not date headers.
var sectionHeaders = []string{
	"Study Session:",
	"Closed Session:",
	"Special Presentations:",
	"Consent:",
	"Consideration or Public Hearing:",
}

// Run font sizes in half-points.
const (
	sizeBody  = "22" // 11pt
	sizeDate  = "28" // 14pt
	sizeTitle = "32" // 16pt
)

// Assembler renders a Report into a styled word-processing document. The
// structural styling is identical regardless of how many items were
// included; zero items still produce the full header and placeholder
// skeleton.
type Assembler struct {
	logger *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New constructs an Assembler.
func New(logger *zap.Logger) *Assembler {
	return &Assembler{logger: logger, now: time.Now}
}

// BuildReport shapes the generated material into the final report value.
func (a *Assembler) BuildReport(body string, sections []entities.ReportSection, meetingDates []string) entities.Report {
	return entities.Report{
		Title:        titlePrefix + monthRange(meetingDates, a.now()),
		UpdatedAt:    a.now(),
		Body:         body,
		Sections:     sections,
		MeetingDates: meetingDates,
	}
}

// Write renders the report and writes it atomically: the document is built
// in a temporary file in the destination directory and moved into place only
// on success, so a failed assembly never leaves a partial document at the
// destination path.
func (a *Assembler) Write(report entities.Report, path string) error {
	doc := a.render(report)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".agenda-report-*.docx")
	if err != nil {
		return apperrors.ErrAssemblyFailure(path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := doc.WriteTo(tmp); err != nil {
		cleanup()
		return apperrors.ErrAssemblyFailure(path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return apperrors.ErrAssemblyFailure(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.ErrAssemblyFailure(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.ErrAssemblyFailure(path, err)
	}

	if a.logger != nil {
		a.logger.Info("report document written",
			zap.String("path", path),
			zap.Int("sections", len(report.Sections)),
		)
	}
	return nil
}

// render builds the document structure.
func (a *Assembler) render(report entities.Report) *docx.Docx {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph()
	doc.AddParagraph().AddText("Updated " + report.UpdatedAt.Format("January 2, 2006")).Size(sizeBody)

	doc.AddParagraph().AddText(report.Title).Size(sizeTitle).Bold()
	doc.AddParagraph().AddText(tentativeNote).Size(sizeBody).Italic()
	doc.AddParagraph().AddText(horizontalRule)

	a.renderBody(doc, report.Body)

	doc.AddParagraph().AddText(horizontalRule)
	a.renderSections(doc, report.Sections)

	doc.AddParagraph().AddText(horizontalRule)
	doc.AddParagraph().AddText(tbdHeading).Bold()
	doc.AddParagraph().AddText(entities.PlaceholderText)
	doc.AddParagraph()

	since := report.UpdatedAt.AddDate(0, 0, -60).Format("January 2, 2006")
	doc.AddParagraph().AddText(fmt.Sprintf(completedSinceFormat, since)).Bold()
	doc.AddParagraph().AddText(entities.PlaceholderText)

	return doc
}

// renderBody classifies each body line as a date header, a section header or
// a bullet item and styles it accordingly.
func (a *Assembler) renderBody(doc *docx.Docx, body string) {
	firstDate := true
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "- "):
			doc.AddParagraph().AddText("        " + line).Size(sizeBody)
		case isSectionHeader(line):
			doc.AddParagraph().AddText("    " + line).Size(sizeBody)
		default:
			// Date header.
			if !firstDate {
				doc.AddParagraph().AddText(horizontalRule)
			}
			firstDate = false
			doc.AddParagraph().AddText(line).Size(sizeDate).Bold()
		}
	}
}

// renderSections emits the ordered per-item sections. Placeholder sections
// carry their fixed literal body.
func (a *Assembler) renderSections(doc *docx.Docx, sections []entities.ReportSection) {
	doc.AddParagraph().AddText(itemSummariesHeading).Bold()
	for _, s := range sections {
		doc.AddParagraph().AddText(s.Heading).Size(sizeBody).Bold()
		body := s.Body
		if body == "" {
			body = entities.TBDText
		}
		for _, ln := range strings.Split(body, "\n") {
			if ln = strings.TrimSpace(ln); ln != "" {
				doc.AddParagraph().AddText("    " + ln).Size(sizeBody)
			}
		}
	}
}

func isSectionHeader(line string) bool {
	for _, h := range sectionHeaders {
		if strings.HasPrefix(line, h) {
			return true
		}
	}
	return false
}

// monthRange renders the human-readable month span of the meeting dates for
// the title, e.g. "September 2025", "July - September, 2025" or
// "December 2025 - January 2026". Source dates look like "8-Sep"; the
// current year is assumed, with year-end crossover handled.
func monthRange(dates []string, now time.Time) string {
	fallback := now.Format("January 2006")
	if len(dates) == 0 {
		return fallback
	}

	parsed := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		t, err := time.Parse("2-Jan-2006", fmt.Sprintf("%s-%d", strings.TrimSpace(d), now.Year()))
		if err != nil {
			return fallback
		}
		parsed = append(parsed, t)
	}

	// The source dates carry no year. A span wider than six months means the
	// run straddles a year boundary; early months belong to the next year.
	lo, hi := parsed[0].Month(), parsed[0].Month()
	for _, t := range parsed[1:] {
		if t.Month() < lo {
			lo = t.Month()
		}
		if t.Month() > hi {
			hi = t.Month()
		}
	}
	if hi-lo > 6 {
		for i, t := range parsed {
			if t.Month() <= time.June {
				parsed[i] = t.AddDate(1, 0, 0)
			}
		}
	}

	min, max := parsed[0], parsed[0]
	for _, t := range parsed[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}

	switch {
	case min.Format("January 2006") == max.Format("January 2006"):
		return min.Format("January 2006")
	case min.Year() != max.Year():
		return min.Format("January 2006") + " - " + max.Format("January 2006")
	default:
		return min.Format("January") + " - " + max.Format("January, 2006")
	}
}
