package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/schedulefa/fareport/internal/valuation"
)

const (
	sheetReports   = "REPORTS"
	sheetLongTerm  = "LTCG"
	sheetShortTerm = "STCG"
)

// XLSXWriter implements RunWriter by writing a local XLSX workbook.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer targeting the given file path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write renders the run into REPORTS, LTCG and STCG sheets and saves
// the workbook.
func (w *XLSXWriter) Write(_ context.Context, run *valuation.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, sheetReports, buildReportRows(run)); err != nil {
		return err
	}
	if err := writeSheet(f, sheetLongTerm, buildGainRows(run.LongTerm)); err != nil {
		return err
	}
	if err := writeSheet(f, sheetShortTerm, buildGainRows(run.ShortTerm)); err != nil {
		return err
	}

	// Replace the default sheet with REPORTS as the front page.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(sheetReports)
	if err != nil {
		return fmt.Errorf("finding reports sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook to %s: %w", w.path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell coordinates for %s row %d: %w", name, i+1, err)
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}
