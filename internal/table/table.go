// Package table projects filtered rows onto the display columns and renders
// them for download.
package table

import (
	"bytes"
	"encoding/csv"
	"io"

	"account-explorer/internal/excel"
	"account-explorer/internal/models"
)

const (
	CSVFileName  = "Filtered_Accounts.csv"
	XLSXFileName = "Filtered_Accounts.xlsx"
	SheetName    = "Filtered Accounts"
)

// BaseColumns always lead the table.
var BaseColumns = []string{models.ColCustomer, models.ColSAM, models.ColState, models.ColZip}

// StakeholderColumns is the catalog of opt-in contact columns, in display order.
var StakeholderColumns = []string{
	"WSC_SAM",
	"WSC_VP_Sales",
	"WSC_RM",
	"WSC_Title",
	"WSC_Contact",
	"Siding_Specialist",
	"Regional / Market VP/SVP",
	"Area Manager / District Manager / Market Manager",
	"General Manager / MP",
	"Email",
	"Phone",
}

// DisplayOnlyColumns are appended whenever the dataset has them.
var DisplayOnlyColumns = []string{"City", "Address", "Branch", "Region", "Division"}

// StakeholderOptions lists the catalog columns the dataset actually has.
func StakeholderOptions(ds *models.Dataset) []string {
	var out []string
	for _, c := range StakeholderColumns {
		if ds.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}

// DisplayColumns resolves the table columns for the chosen stakeholders. When
// the dataset lacks any base column the table falls back to every column.
func DisplayColumns(ds *models.Dataset, stakeholders []string) []string {
	for _, c := range BaseColumns {
		if !ds.HasColumn(c) {
			out := make([]string, len(ds.Columns))
			copy(out, ds.Columns)
			return out
		}
	}

	chosen := make(map[string]bool, len(stakeholders))
	for _, s := range stakeholders {
		chosen[s] = true
	}

	cols := append([]string(nil), BaseColumns...)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	add := func(c string) {
		if ds.HasColumn(c) && !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, c := range StakeholderColumns {
		if chosen[c] {
			add(c)
		}
	}
	for _, c := range DisplayOnlyColumns {
		add(c)
	}
	return cols
}

type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (t Table) Len() int {
	return len(t.Rows)
}

// Project copies the named columns out of rows. Unknown columns project as
// empty cells.
func Project(ds *models.Dataset, rows []models.Record, columns []string) Table {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := ds.ColumnIndex(c)
		if !ok {
			j = -1
		}
		idx[i] = j
	}

	out := Table{Columns: columns, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		cells := make([]string, len(idx))
		for i, j := range idx {
			cells[i] = r.Cell(j)
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// WriteCSV writes a header row followed by the table rows.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func CSVBytes(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func XLSXBytes(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := excel.WriteTable(&buf, SheetName, t.Columns, t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
