package dataset

import (
	"regexp"
	"strings"

	"account-explorer/internal/models"
)

// zipAliases are matched case-insensitively; the literal "Zip" is the fallback.
var zipAliases = []string{"zip", "zipcode", "postal", "postal_code"}

var (
	customerPattern = regexp.MustCompile(`(?i)customer|account|company`)
	zipPattern      = regexp.MustCompile(`\d{5}`)
)

// RawTable is a header row plus data rows as read from a source.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// TableFromRows splits the first row off as the header. Leading blank rows
// are skipped.
func TableFromRows(rows [][]string) RawTable {
	for len(rows) > 0 && isBlank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return RawTable{}
	}
	return RawTable{Header: rows[0], Rows: rows[1:]}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Normalize applies the column and key-field rules and returns the Dataset.
// Applying it to its own output is a no-op.
func Normalize(source string, raw RawTable) *models.Dataset {
	columns := make([]string, len(raw.Header))
	for i, h := range raw.Header {
		columns[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, len(raw.Rows))
	for i, r := range raw.Rows {
		row := make([]string, len(columns))
		copy(row, r)
		for j := range row {
			row[j] = strings.TrimSpace(row[j])
		}
		rows[i] = row
	}

	if i := indexOf(columns, models.ColState); i >= 0 {
		for _, row := range rows {
			row[i] = strings.ToUpper(row[i])
		}
	}

	if i := resolveZipColumn(columns); i >= 0 {
		for _, row := range rows {
			row[i] = ExtractZip(row[i])
		}
		columns[i] = models.ColZip
	}

	if indexOf(columns, models.ColCustomer) < 0 {
		for i, c := range columns {
			if customerPattern.MatchString(c) {
				columns[i] = models.ColCustomer
				break
			}
		}
	}

	return models.NewDataset(source, columns, rows)
}

// ExtractZip returns the first run of five digits in raw, or "".
func ExtractZip(raw string) string {
	return zipPattern.FindString(raw)
}

func resolveZipColumn(columns []string) int {
	for i, c := range columns {
		lc := strings.ToLower(c)
		for _, alias := range zipAliases {
			if lc == alias {
				return i
			}
		}
	}
	return indexOf(columns, models.ColZip)
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
