package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Table is a header plus string rows, written out as CSV or XLSX.
type Table struct {
	Header []string
	Rows   [][]string
}

func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// xlsxSheet is the sheet a new excelize workbook starts with.
const xlsxSheet = "Sheet1"

func (t Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := xlsxSheet
	if err := f.SetSheetRow(sheet, "A1", &t.Header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// ReadTable reads the first sheet of an XLSX file, or a CSV, into rows.
// The first row is the header.
func ReadTable(r io.Reader, xlsx bool) (Table, error) {
	var rows [][]string
	if xlsx {
		f, err := excelize.OpenReader(r)
		if err != nil {
			return Table{}, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, fmt.Errorf("workbook has no sheets")
		}
		rows, err = f.GetRows(sheets[0])
		if err != nil {
			return Table{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
		}
	} else {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		var err error
		rows, err = cr.ReadAll()
		if err != nil {
			return Table{}, fmt.Errorf("read csv: %w", err)
		}
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("file is empty")
	}
	return Table{Header: rows[0], Rows: rows[1:]}, nil
}
