// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/bibclean/pkg/types"
)

// Cell renders a field as CSV cell text: lists as list literals, text
// verbatim, missing as empty. Other JSON values are written with
// FormatValue, falling back to their JSON text.
func Cell(f types.Field) string {
	switch f.Kind {
	case types.FieldText:
		return f.Text
	case types.FieldList:
		return FormatList(f.Items)
	case types.FieldOther:
		if v, err := FormatValue(f.Raw); err == nil {
			return v
		}
		return string(f.Raw)
	}
	return ""
}

// ParseCell is the inverse of Cell for the shapes a cleaned CSV holds.
// Text that parses as a list literal becomes a list.
func ParseCell(s string) types.Field {
	if s == "" {
		return types.Missing()
	}
	if strings.HasPrefix(strings.TrimSpace(s), "[") {
		if items, err := ParseList(s); err == nil {
			return types.List(items...)
		}
	}
	return types.Text(s)
}

// WriteCSV writes records with a header row in types.Columns order.
func WriteCSV(w io.Writer, recs []types.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.Columns); err != nil {
		return err
	}
	row := make([]string, len(types.Columns))
	for i := range recs {
		for j, col := range types.Columns {
			row[j] = Cell(*recs[i].Column(col))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes records to path, creating parent directories.
func WriteCSVFile(path string, recs []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(f, recs); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV reads records from a CSV with a header row. Columns are matched
// by name; unknown columns are ignored and absent ones stay missing.
func ReadCSV(r io.Reader) ([]types.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var recs []types.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		var rec types.Record
		for i, name := range header {
			if i >= len(row) {
				break
			}
			if f := rec.Column(name); f != nil {
				*f = ParseCell(row[i])
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ReadCSVFile reads records from a CSV file.
func ReadCSVFile(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	recs, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}
