package models

import (
	"fmt"
	"strings"
)

// Canonical column names after normalization.
const (
	ColCustomer = "Customer"
	ColSAM      = "WSC_SAM"
	ColState    = "State"
	ColZip      = "Zip"
)

// Dimension is one of the four cascading filter dimensions. The numeric order
// is the dependency order: a dimension depends on every dimension before it.
type Dimension int

const (
	DimCustomer Dimension = iota
	DimSAM
	DimState
	DimZip
)

var Dimensions = []Dimension{DimCustomer, DimSAM, DimState, DimZip}

func (d Dimension) Column() string {
	switch d {
	case DimCustomer:
		return ColCustomer
	case DimSAM:
		return ColSAM
	case DimState:
		return ColState
	case DimZip:
		return ColZip
	}
	return ""
}

func (d Dimension) String() string {
	switch d {
	case DimCustomer:
		return "customer"
	case DimSAM:
		return "sam"
	case DimState:
		return "state"
	case DimZip:
		return "zip"
	}
	return fmt.Sprintf("dimension(%d)", int(d))
}

// Label is the widget caption shown for the dimension.
func (d Dimension) Label() string {
	switch d {
	case DimCustomer:
		return "Customer(s)"
	case DimSAM:
		return "SAM(s)"
	case DimState:
		return "State(s)"
	case DimZip:
		return "ZIP(s)"
	}
	return d.String()
}

// KeepsEmpty reports whether an empty cell is a selectable value. State and
// Zip are total after normalization; blank Customer and SAM cells are gaps.
func (d Dimension) KeepsEmpty() bool {
	return d == DimState || d == DimZip
}

func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "customers":
		return DimCustomer, nil
	case "sam", "sams", "wsc_sam":
		return DimSAM, nil
	case "state", "states":
		return DimState, nil
	case "zip", "zips", "zipcode":
		return DimZip, nil
	}
	return 0, fmt.Errorf("unknown dimension %q", s)
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record is one row. Cells are aligned with the owning Dataset's Columns.
type Record struct {
	Cells []string
}

func (r Record) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// Located pairs a record with its coordinates, if the ZIP resolved.
type Located struct {
	Record Record
	Zip    string
	Point  GeoPoint
	HasGeo bool
}

// Schema maps each dimension to its resolved column index, resolved once at
// load time. A missing entry means the dataset lacks that column.
type Schema struct {
	index map[Dimension]int
}

func (s Schema) Index(d Dimension) (int, bool) {
	i, ok := s.index[d]
	return i, ok
}

func (s Schema) Has(d Dimension) bool {
	_, ok := s.index[d]
	return ok
}

// Dataset is the normalized table. It is read-only once built.
type Dataset struct {
	Source  string
	Columns []string
	Rows    []Record
	Schema  Schema

	colIndex map[string]int
}

// NewDataset builds a Dataset over already-normalized columns and rows. Rows
// shorter than the header are padded with empty cells.
func NewDataset(source string, columns []string, rows [][]string) *Dataset {
	ds := &Dataset{
		Source:   source,
		Columns:  columns,
		Rows:     make([]Record, 0, len(rows)),
		colIndex: make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := ds.colIndex[c]; !dup {
			ds.colIndex[c] = i
		}
	}
	ds.Schema = Schema{index: make(map[Dimension]int, len(Dimensions))}
	for _, d := range Dimensions {
		if i, ok := ds.colIndex[d.Column()]; ok {
			ds.Schema.index[d] = i
		}
	}
	for _, row := range rows {
		cells := make([]string, len(columns))
		copy(cells, row)
		ds.Rows = append(ds.Rows, Record{Cells: cells})
	}
	return ds
}

func (ds *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := ds.colIndex[name]
	return i, ok
}

func (ds *Dataset) HasColumn(name string) bool {
	_, ok := ds.colIndex[name]
	return ok
}

// Value returns the cell of r under the named column.
func (ds *Dataset) Value(r Record, column string) (string, bool) {
	i, ok := ds.colIndex[column]
	if !ok {
		return "", false
	}
	return r.Cell(i), true
}

func (ds *Dataset) Len() int {
	return len(ds.Rows)
}
