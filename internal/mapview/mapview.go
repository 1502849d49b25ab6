// Package mapview turns geocoded rows into the pin and density layers the
// dashboard draws.
package mapview

import (
	"math"
	"sort"

	"github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"

	"account-explorer/internal/calculator"
	"account-explorer/internal/models"
)

const (
	// NoLocationsNotice replaces the map when nothing can be plotted.
	NoLocationsNotice = "No mappable locations for current filters."

	DefaultZoom             = 3
	DefaultDensityPrecision = 4
	DensityRadius           = 12

	maxZoom = 12
	// equatorKm is the width of the world at zoom 0.
	equatorKm = 40075.0
)

// palette is assigned to customers in sorted order and wraps around.
var palette = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

type Marker struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Customer string  `json:"customer"`
	State    string  `json:"state"`
	Zip      string  `json:"zip"`
	SAM      string  `json:"sam,omitempty"`
	Color    string  `json:"color"`
}

// Bin is one geohash cell of the density surface.
type Bin struct {
	Geohash string  `json:"geohash"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Weight  int     `json:"weight"`
}

type Viewport struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Zoom      int     `json:"zoom"`
	South     float64 `json:"south"`
	West      float64 `json:"west"`
	North     float64 `json:"north"`
	East      float64 `json:"east"`
}

type Layer struct {
	Mode     models.MapMode    `json:"mode"`
	Empty    bool              `json:"empty"`
	Notice   string            `json:"notice,omitempty"`
	Markers  []Marker          `json:"markers,omitempty"`
	Bins     []Bin             `json:"bins,omitempty"`
	Radius   int               `json:"radius,omitempty"`
	Legend   map[string]string `json:"legend,omitempty"`
	Mapped   int               `json:"mapped"`
	Unmapped int               `json:"unmapped"`
	Viewport Viewport          `json:"viewport"`
}

// Build renders the layer for mode. Rows without coordinates are counted as
// unmapped and otherwise ignored.
func Build(ds *models.Dataset, mode models.MapMode, located []models.Located, precision int) Layer {
	var points []models.Located
	for _, l := range located {
		if l.HasGeo {
			points = append(points, l)
		}
	}

	layer := Layer{
		Mode:     mode,
		Mapped:   len(points),
		Unmapped: len(located) - len(points),
	}
	if len(points) == 0 {
		layer.Empty = true
		layer.Notice = NoLocationsNotice
		layer.Viewport = Viewport{Zoom: DefaultZoom}
		return layer
	}

	layer.Viewport = ViewportFor(points)
	switch mode {
	case models.MapDensity:
		layer.Bins = Density(points, precision)
		layer.Radius = DensityRadius
	default:
		layer.Markers, layer.Legend = Pins(ds, points)
	}
	return layer
}

// Pins emits one marker per row, colored by Customer.
func Pins(ds *models.Dataset, points []models.Located) ([]Marker, map[string]string) {
	colors := customerColors(ds, points)
	markers := make([]Marker, 0, len(points))
	for _, p := range points {
		customer, _ := ds.Value(p.Record, models.ColCustomer)
		state, _ := ds.Value(p.Record, models.ColState)
		sam, _ := ds.Value(p.Record, models.ColSAM)
		markers = append(markers, Marker{
			Lat:      p.Point.Lat,
			Lon:      p.Point.Lon,
			Customer: customer,
			State:    state,
			Zip:      p.Zip,
			SAM:      sam,
			Color:    colors[customer],
		})
	}
	return markers, colors
}

func customerColors(ds *models.Dataset, points []models.Located) map[string]string {
	seen := map[string]struct{}{}
	var names []string
	for _, p := range points {
		c, _ := ds.Value(p.Record, models.ColCustomer)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		names = append(names, c)
	}
	sort.Strings(names)
	colors := make(map[string]string, len(names))
	for i, n := range names {
		colors[n] = palette[i%len(palette)]
	}
	return colors
}

// Density bins points by geohash cell at the given precision. Each bin sits at
// the centroid of its points. Bins are ordered by geohash.
func Density(points []models.Located, precision int) []Bin {
	if precision <= 0 {
		precision = DefaultDensityPrecision
	}
	type acc struct {
		lat, lon float64
		n        int
	}
	cells := map[string]*acc{}
	for _, p := range points {
		h := geohash.EncodeWithPrecision(p.Point.Lat, p.Point.Lon, precision)
		a, ok := cells[h]
		if !ok {
			a = &acc{}
			cells[h] = a
		}
		a.lat += p.Point.Lat
		a.lon += p.Point.Lon
		a.n++
	}

	bins := make([]Bin, 0, len(cells))
	for h, a := range cells {
		bins = append(bins, Bin{
			Geohash: h,
			Lat:     a.lat / float64(a.n),
			Lon:     a.lon / float64(a.n),
			Weight:  a.n,
		})
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].Geohash < bins[j].Geohash })
	return bins
}

// ViewportFor fits the bounding rectangle of points and picks a zoom from
// its diagonal.
func ViewportFor(points []models.Located) Viewport {
	rect := s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Point.Lat, p.Point.Lon))
	}
	if rect.IsEmpty() {
		return Viewport{Zoom: DefaultZoom}
	}

	lo, hi, center := rect.Lo(), rect.Hi(), rect.Center()
	diag := calculator.Kilometers(
		models.GeoPoint{Lat: lo.Lat.Degrees(), Lon: lo.Lng.Degrees()},
		models.GeoPoint{Lat: hi.Lat.Degrees(), Lon: hi.Lng.Degrees()},
	)
	return Viewport{
		CenterLat: center.Lat.Degrees(),
		CenterLon: center.Lng.Degrees(),
		Zoom:      ZoomFor(diag),
		South:     lo.Lat.Degrees(),
		West:      lo.Lng.Degrees(),
		North:     hi.Lat.Degrees(),
		East:      hi.Lng.Degrees(),
	}
}

// ZoomFor maps a span in kilometers to a web-map zoom level.
func ZoomFor(spanKm float64) int {
	if spanKm <= 1 {
		return maxZoom
	}
	z := int(math.Floor(math.Log2(equatorKm / spanKm)))
	if z < 1 {
		return 1
	}
	if z > maxZoom {
		return maxZoom
	}
	return z
}
