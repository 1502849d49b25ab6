package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// PostgresSource reads one table; the sheet name is the table, optionally
// schema-qualified ("sales.accounts").
type PostgresSource struct {
	dsn   string
	table string
}

func NewPostgresSource(dsn, table string) *PostgresSource {
	return &PostgresSource{dsn: dsn, table: table}
}

// Identity omits credentials.
func (s *PostgresSource) Identity() string {
	id := s.dsn
	if u, err := url.Parse(s.dsn); err == nil {
		id = u.Scheme + "://" + u.Host + u.Path
	}
	return id + "#" + s.table
}

func (s *PostgresSource) Sheet() string { return s.table }

func (s *PostgresSource) Fetch(ctx context.Context) (RawTable, error) {
	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: connect: %w", ErrSourceUnreadable, err)
	}
	defer conn.Close(context.Background())

	query := fmt.Sprintf("SELECT * FROM %s", tableIdentifier(s.table).Sanitize())
	rows, err := conn.Query(ctx, query)
	if err != nil {
		return RawTable{}, classifyPgError(s.table, err)
	}
	defer rows.Close()

	var header []string
	for _, fd := range rows.FieldDescriptions() {
		header = append(header, fd.Name)
	}

	var out [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return RawTable{}, fmt.Errorf("%w: scan: %w", ErrSourceUnreadable, err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = stringify(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return RawTable{}, classifyPgError(s.table, err)
	}

	return RawTable{Header: header, Rows: out}, nil
}

func tableIdentifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}

func classifyPgError(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, table)
	}
	return fmt.Errorf("%w: query: %w", ErrSourceUnreadable, err)
}

// stringify renders a driver value the way a spreadsheet cell would read.
// NULL becomes the empty string.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.DateOnly)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
