package loader

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	apperrors "github.com/clerkdesk/agenda-report/errors"
	"github.com/clerkdesk/agenda-report/internal/domain/entities"
)

// Loader reads a tabular source into an ordered sequence of AgendaItem. The
// source is only ever read; one source row maps to at most one item.
type Loader struct {
	logger *zap.Logger
}

// Options tunes loading behavior.
type Options struct {
	// Sheet selects the table when the source format supports several
	// (xlsx). Empty means the workbook's first sheet. Ignored for csv.
	Sheet string

	// SkipDecorationRows drops rows whose meeting-date cell does not start
	// with a digit. Real source spreadsheets interleave month-label banner
	// rows with agenda rows.
	SkipDecorationRows bool
}

// New constructs a Loader.
func New(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the table at path and normalizes it against the header mapping.
// Row order is preserved; blank rows are skipped.
func (l *Loader) Load(path string, mapping entities.HeaderMapping, opts Options) ([]entities.AgendaItem, error) {
	if err := mapping.Validate(); err != nil {
		return nil, apperrors.ErrConfigInvalid("header mapping", err)
	}

	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path, opts.Sheet)
	default:
		return nil, apperrors.ErrSourceUnreadable(path, fmt.Errorf("unsupported source format %q", ext))
	}
	if err != nil {
		return nil, err
	}

	items, err := normalize(rows, mapping, opts)
	if err != nil {
		return nil, err
	}

	if l.logger != nil {
		l.logger.Info("source table loaded",
			zap.String("path", path),
			zap.Int("rows", len(rows)),
			zap.Int("items", len(items)),
		)
	}
	return items, nil
}

// Sheets lists the named tables of a workbook so the caller can resolve
// table selection before loading. CSV sources have a single unnamed table.
func (l *Loader) Sheets(path string) ([]string, error) {
	if strings.ToLower(filepath.Ext(path)) != ".xlsx" {
		return nil, nil
	}
	return sheetNames(path)
}

// normalize validates headers and converts data rows to items. The first
// expected column missing from the header row fails the whole load.
func normalize(rows [][]string, mapping entities.HeaderMapping, opts Options) ([]entities.AgendaItem, error) {
	if len(rows) == 0 {
		return nil, apperrors.ErrSchemaMismatch(mapping.RequiredColumns()[0], nil)
	}

	headers := rows[0]
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, ok := index[h]; !ok {
			index[h] = i
		}
	}

	// Case-sensitive literal match against the configured header strings.
	for _, col := range mapping.RequiredColumns() {
		if _, ok := index[col]; !ok {
			return nil, apperrors.ErrSchemaMismatch(col, headers)
		}
	}

	includeCol, hasInclude := -1, false
	if mapping.Include != "" {
		if i, ok := index[mapping.Include]; ok {
			includeCol, hasInclude = i, true
		}
	}

	var items []entities.AgendaItem
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		date := cell(row, index[mapping.Date])
		if opts.SkipDecorationRows && !startsWithDigit(date) {
			continue
		}

		item := entities.AgendaItem{
			Index:       len(items),
			MeetingDate: date,
			Section:     cell(row, index[mapping.Section]),
			Title:       cell(row, index[mapping.Item]),
			Notes:       cell(row, index[mapping.Notes]),
			Included:    true,
		}
		if hasInclude {
			item.Included = entities.IncludedValue(cell(row, includeCol))
		}
		items = append(items, item)
	}
	return items, nil
}

// cell returns the trimmed value at col, tolerant of ragged rows.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func startsWithDigit(s string) bool {
	for _, r := range s {
		return unicode.IsDigit(r)
	}
	return false
}
