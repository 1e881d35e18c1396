package loader

import (
	"encoding/csv"
	"os"

	apperrors "github.com/clerkdesk/agenda-report/errors"
)

// readCSV reads a delimited-text table. Source files in the wild carry
// ragged rows, so per-record field counting is disabled.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.ErrSourceUnreadable(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.ErrSourceUnreadable(path, err)
	}
	return rows, nil
}
