// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/bibclean/pkg/types"
)

// SheetName is the worksheet that holds the records.
const SheetName = "Records"

// WriteXLSXFile writes records to a workbook with one header row. Cells
// hold the same text as the CSV output.
func WriteXLSXFile(path string, recs []types.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	for col, name := range types.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, name); err != nil {
			return err
		}
	}

	for i := range recs {
		for col, name := range types.Columns {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, Cell(*recs[i].Column(name))); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
