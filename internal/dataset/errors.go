package dataset

import (
	"errors"
	"fmt"

	"account-explorer/internal/excel"
)

var (
	// ErrSourceUnreadable indicates the source could not be opened or parsed.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrSheetNotFound indicates the named sheet or table is absent.
	ErrSheetNotFound = excel.ErrSheetNotFound

	// ErrUnsupportedSource indicates no reader exists for the source format.
	ErrUnsupportedSource = errors.New("unsupported source")
)

// DataLoadError is fatal to a view: nothing is rendered from a failed load.
type DataLoadError struct {
	Source string
	Sheet  string
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("load %s [%s]: %v", e.Source, e.Sheet, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

func newLoadError(source, sheet string, err error) *DataLoadError {
	if !errors.Is(err, ErrSheetNotFound) && !errors.Is(err, ErrSourceUnreadable) && !errors.Is(err, ErrUnsupportedSource) {
		err = fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	return &DataLoadError{Source: source, Sheet: sheet, Err: err}
}
