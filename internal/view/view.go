// Package view runs one full recompute: candidates, filtered rows, map layer
// and table, for a dataset and a selection.
package view

import (
	"context"

	"account-explorer/internal/filter"
	"account-explorer/internal/geocode"
	"account-explorer/internal/mapview"
	"account-explorer/internal/metrics"
	"account-explorer/internal/models"
	"account-explorer/internal/table"
)

// Geocoder resolves a batch of ZIPs; *geocode.Cache satisfies it.
type Geocoder interface {
	Resolve(ctx context.Context, zips []string) map[string]models.GeoPoint
}

type View struct {
	Source       string                 `json:"source"`
	TotalRows    int                    `json:"total_rows"`
	Count        int                    `json:"count"`
	Selection    models.FilterSelection `json:"selection"`
	Candidates   []filter.CandidateSet  `json:"candidates"`
	Stakeholders []string               `json:"stakeholder_options"`
	Table        table.Table            `json:"table"`
	Map          mapview.Layer          `json:"map"`
}

type Options struct {
	// Geocoder may be nil, in which case the map is always empty.
	Geocoder         Geocoder
	DensityPrecision int
	// Surface labels the metrics sample (web, api, cli).
	Surface string
	// SkipMap leaves the map layer unbuilt, for exports.
	SkipMap bool
}

// Build recomputes everything derived from sel. The selection is not modified.
func Build(ctx context.Context, ds *models.Dataset, sel models.FilterSelection, opts Options) View {
	rows := filter.FilteredRows(ds, sel)

	v := View{
		Source:       ds.Source,
		TotalRows:    ds.Len(),
		Count:        len(rows),
		Selection:    sel,
		Candidates:   filter.AllCandidates(ds, sel),
		Stakeholders: table.StakeholderOptions(ds),
		Table:        table.Project(ds, rows, table.DisplayColumns(ds, sel.Stakeholders)),
	}

	if !opts.SkipMap {
		var points map[string]models.GeoPoint
		if opts.Geocoder != nil && len(rows) > 0 {
			points = opts.Geocoder.Resolve(ctx, geocode.Zips(ds, rows))
		}
		v.Map = mapview.Build(ds, sel.Mode(), geocode.Attach(ds, rows, points), opts.DensityPrecision)
	}

	surface := opts.Surface
	if surface == "" {
		surface = "web"
	}
	metrics.RecordView(surface, v.Count)
	return v
}

// CandidatesFor returns the candidate list computed for d.
func (v View) CandidatesFor(d models.Dimension) filter.CandidateSet {
	for _, c := range v.Candidates {
		if c.Dimension == d {
			return c
		}
	}
	return filter.CandidateSet{Dimension: d, Name: d.String(), Label: d.Label()}
}
