package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"account-explorer/internal/excel"
)

// Source yields the raw table of one named sheet. Identity must be stable for
// the same underlying data so the loader can cache by it.
type Source interface {
	Identity() string
	Sheet() string
	Fetch(ctx context.Context) (RawTable, error)
}

// Options carries what the remote sources need to connect.
type Options struct {
	S3Region   string
	S3Endpoint string
	S3Client   ObjectGetter
}

// SourceFor picks a Source by the scheme of uri: s3://, postgres:// or
// postgresql://, otherwise a local file path.
func SourceFor(ctx context.Context, uri, sheet string, opts Options) (Source, error) {
	u, err := url.Parse(uri)
	if err == nil {
		switch u.Scheme {
		case "s3":
			client := opts.S3Client
			if client == nil {
				client, err = NewS3Client(ctx, opts.S3Region, opts.S3Endpoint)
				if err != nil {
					return nil, err
				}
			}
			return NewS3Source(client, u.Host, strings.TrimPrefix(u.Path, "/"), sheet), nil
		case "postgres", "postgresql":
			return NewPostgresSource(uri, sheet), nil
		}
	}
	return NewFileSource(uri, sheet), nil
}

type FileSource struct {
	path  string
	sheet string
}

func NewFileSource(path, sheet string) *FileSource {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &FileSource{path: path, sheet: sheet}
}

func (s *FileSource) Identity() string { return "file:" + s.path + "#" + s.sheet }

func (s *FileSource) Sheet() string { return s.sheet }

func (s *FileSource) Fetch(_ context.Context) (RawTable, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	return Parse(s.path, data, s.sheet)
}

// Parse decodes a spreadsheet by the extension of name. CSV files have a
// single implicit sheet, so sheet is ignored for them.
func Parse(name string, data []byte, sheet string) (RawTable, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		f, openErr := excel.OpenReader(bytes.NewReader(data))
		if openErr != nil {
			return RawTable{}, fmt.Errorf("%w: %w", ErrSourceUnreadable, openErr)
		}
		defer f.Close()
		rows, err = excel.ReadSheet(f, sheet)
	case ".xls":
		rows, err = excel.ReadXLS(data, sheet)
	case ".csv":
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		rows, err = r.ReadAll()
	default:
		return RawTable{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, name)
	}
	if err != nil {
		return RawTable{}, err
	}
	return TableFromRows(rows), nil
}
