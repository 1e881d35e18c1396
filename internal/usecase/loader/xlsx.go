package loader

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/clerkdesk/agenda-report/errors"
)

// readXLSX reads one sheet of a workbook. An empty sheet name resolves to the
// workbook's first sheet; selecting among several is the caller's duty.
func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.ErrSourceUnreadable(path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, apperrors.ErrSourceUnreadable(path, fmt.Errorf("sheet %q not found", sheet))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.ErrSourceUnreadable(path, err)
	}
	return rows, nil
}

// sheetNames lists the workbook's sheets in order.
func sheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.ErrSourceUnreadable(path, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
