package excel

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var ErrSheetNotFound = errors.New("sheet not found")

func OpenReader(r io.Reader) (*excelize.File, error) {
	return excelize.OpenReader(r)
}

// ReadSheet returns every row of the named sheet, header first.
func ReadSheet(f *excelize.File, sheetName string) ([][]string, error) {
	idx, err := f.GetSheetIndex(sheetName)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrSheetNotFound, sheetName, f.GetSheetList())
	}
	return f.GetRows(sheetName)
}

// ReadXLS reads the named sheet of a legacy BIFF workbook.
func ReadXLS(data []byte, sheetName string) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}

	var names []string
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		names = append(names, sheet.Name)
		if sheet.Name != sheetName {
			continue
		}

		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: %q (have %v)", ErrSheetNotFound, sheetName, names)
}

// WriteTable writes header and rows as a single-sheet workbook to w. The
// workbook's default sheet is renamed, so sheetName is the only sheet.
func WriteTable(w io.Writer, sheetName string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if first := f.GetSheetName(0); first != sheetName {
		if err := f.SetSheetName(first, sheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}
	if err := streamRow(sw, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := streamRow(sw, i+2, r); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func streamRow(sw *excelize.StreamWriter, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return sw.SetRow(cell, row)
}
