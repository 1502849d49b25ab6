package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTableRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	header := []string{"Customer", "State", "Zip"}
	rows := [][]string{
		{"Acme", "WI", "54401"},
		{"Beta", "MN", "55401"},
	}
	require.NoError(t, WriteTable(&buf, "Accounts", header, rows))

	f, err := OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Accounts"}, f.GetSheetList())

	got, err := ReadSheet(f, "Accounts")
	require.NoError(t, err)
	assert.Equal(t, append([][]string{header}, rows...), got)
}

func TestWriteTableDefaultSheetName(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, "Sheet1", []string{"A"}, [][]string{{"1"}}))

	f, err := OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}

func TestReadSheetMissing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, "Database", []string{"A"}, nil))

	f, err := OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	_, err = ReadSheet(f, "Nope")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestReadXLSRejectsGarbage(t *testing.T) {
	_, err := ReadXLS([]byte("not a workbook"), "Database")
	assert.Error(t, err)
}
