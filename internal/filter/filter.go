package filter

import (
	"sort"

	"account-explorer/internal/models"
)

// CandidateSet is the list of values offered for one dimension.
type CandidateSet struct {
	Dimension models.Dimension `json:"-"`
	Name      string           `json:"dimension"`
	Label     string           `json:"label"`
	Values    []string         `json:"values"`
	Available bool             `json:"available"`
}

// constraint is a resolved, non-empty selection on one present column.
type constraint struct {
	col    int
	values map[string]struct{}
}

// constraints resolves the non-empty selections of dims. Selections on columns
// the dataset lacks are dropped: that filter step is a no-op.
func constraints(ds *models.Dataset, sel models.FilterSelection, dims []models.Dimension) []constraint {
	var out []constraint
	for _, d := range dims {
		vals := sel.Values(d)
		if len(vals) == 0 {
			continue
		}
		col, ok := ds.Schema.Index(d)
		if !ok {
			continue
		}
		set := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			set[v] = struct{}{}
		}
		out = append(out, constraint{col: col, values: set})
	}
	return out
}

func satisfies(r models.Record, cs []constraint) bool {
	for _, c := range cs {
		if _, ok := c.values[r.Cell(c.col)]; !ok {
			return false
		}
	}
	return true
}

// Candidates returns the distinct values of dim, sorted ascending, over the rows that satisfy every upstream dimension's selection. The
// selection on dim itself and on downstream dimensions is ignored, so a later
// choice never narrows an earlier list. Blank cells are skipped unless the
// dimension keeps empty values.
func Candidates(ds *models.Dataset, dim models.Dimension, sel models.FilterSelection) []string {
	col, ok := ds.Schema.Index(dim)
	if !ok {
		return nil
	}
	cs := constraints(ds, sel, models.Dimensions[:dim])
	keepEmpty := dim.KeepsEmpty()

	seen := make(map[string]struct{})
	var out []string
	for _, r := range ds.Rows {
		if !satisfies(r, cs) {
			continue
		}
		v := r.Cell(col)
		if v == "" && !keepEmpty {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// AllCandidates computes the candidate list of every dimension in dependency order.
func AllCandidates(ds *models.Dataset, sel models.FilterSelection) []CandidateSet {
	out := make([]CandidateSet, 0, len(models.Dimensions))
	for _, d := range models.Dimensions {
		out = append(out, CandidateSet{
			Dimension: d,
			Name:      d.String(),
			Label:     d.Label(),
			Values:    Candidates(ds, d, sel),
			Available: ds.Schema.Has(d),
		})
	}
	return out
}

// DimensionRows returns the rows satisfying all four dimension selections.
func DimensionRows(ds *models.Dataset, sel models.FilterSelection) []models.Record {
	cs := constraints(ds, sel, models.Dimensions)
	out := make([]models.Record, 0, len(ds.Rows))
	for _, r := range ds.Rows {
		if satisfies(r, cs) {
			out = append(out, r)
		}
	}
	return out
}

// FilteredRows applies the dimension selections and then the search text,
// preserving dataset order.
func FilteredRows(ds *models.Dataset, sel models.FilterSelection) []models.Record {
	rows := DimensionRows(ds, sel)
	if sel.Search == "" {
		return rows
	}
	return scan(rows, func() func(models.Record) bool {
		return NewMatcher(sel.Search).Matches
	})
}
