package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/pbaille/ulasan/internal/domain"
)

const sheetName = "reviews"

// WriteXLSX writes d to a single-sheet workbook
func WriteXLSX(path string, d domain.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range d {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Username, r.Rating, r.Review, r.Date, r.ThumbsUp, string(r.Sentiment)}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}
