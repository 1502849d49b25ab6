package table

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-explorer/internal/excel"
	"account-explorer/internal/models"
)

func fullDataset() *models.Dataset {
	return models.NewDataset("mem",
		[]string{"Customer", "WSC_SAM", "State", "Zip", "Phone", "Email", "City", "Notes", "Region"},
		[][]string{
			{"Acme", "Ann", "WI", "54401", "555-0100", "a@acme.test", "Wausau", "x", "North"},
			{"Beta", "Bob", "MN", "55401", "555-0101", "b@beta.test", "Minneapolis", "y", "West"},
		})
}

func TestStakeholderOptions(t *testing.T) {
	assert.Equal(t, []string{"WSC_SAM", "Email", "Phone"}, StakeholderOptions(fullDataset()))
}

func TestDisplayColumns(t *testing.T) {
	ds := fullDataset()

	assert.Equal(t,
		[]string{"Customer", "WSC_SAM", "State", "Zip", "City", "Region"},
		DisplayColumns(ds, nil))

	// Catalog order wins over selection order; base columns are not repeated;
	// unknown stakeholders are ignored.
	assert.Equal(t,
		[]string{"Customer", "WSC_SAM", "State", "Zip", "Email", "Phone", "City", "Region"},
		DisplayColumns(ds, []string{"Phone", "WSC_SAM", "Email", "WSC_RM"}))
}

func TestDisplayColumnsFallsBackToAll(t *testing.T) {
	ds := models.NewDataset("mem", []string{"Customer", "State", "Zip", "City"}, nil)
	assert.Equal(t, []string{"Customer", "State", "Zip", "City"}, DisplayColumns(ds, []string{"Email"}))
}

func TestProject(t *testing.T) {
	ds := fullDataset()
	tbl := Project(ds, ds.Rows[1:], []string{"Zip", "Customer", "Missing"})

	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, []string{"55401", "Beta", ""}, tbl.Rows[0])
}

func TestCSVBytes(t *testing.T) {
	ds := fullDataset()
	tbl := Project(ds, ds.Rows, DisplayColumns(ds, []string{"Email"}))

	data, err := CSVBytes(tbl)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, tbl.Columns, records[0])
	assert.Equal(t, tbl.Rows, records[1:])
}

func TestCSVBytesEmptyTable(t *testing.T) {
	data, err := CSVBytes(Table{Columns: []string{"Customer", "Zip"}})
	require.NoError(t, err)
	assert.Equal(t, "Customer,Zip\n", string(data))
}

func TestXLSXBytes(t *testing.T) {
	ds := fullDataset()
	tbl := Project(ds, ds.Rows, BaseColumns)

	data, err := XLSXBytes(tbl)
	require.NoError(t, err)

	f, err := excel.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := excel.ReadSheet(f, SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, BaseColumns, rows[0])
	assert.Equal(t, []string{"Acme", "Ann", "WI", "54401"}, rows[1])
}
