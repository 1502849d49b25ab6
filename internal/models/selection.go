package models

import (
	"fmt"
	"sort"
	"strings"
)

type MapMode string

const (
	MapPin     MapMode = "pin"
	MapDensity MapMode = "density"
)

func ParseMapMode(s string) (MapMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pin", "pins", "pin map":
		return MapPin, nil
	case "density", "heat", "heatmap":
		return MapDensity, nil
	}
	return "", fmt.Errorf("unknown map mode %q", s)
}

// FilterSelection is the per-session state of the filter controls. The zero
// value is the reset state: no constraint on any dimension, no search text,
// no stakeholder columns, pin map.
type FilterSelection struct {
	Customers    []string `json:"customers"`
	SAMs         []string `json:"sams"`
	States       []string `json:"states"`
	Zips         []string `json:"zips"`
	Search       string   `json:"search"`
	Stakeholders []string `json:"stakeholders"`
	MapMode      MapMode  `json:"map_mode"`
}

func (s FilterSelection) Values(d Dimension) []string {
	switch d {
	case DimCustomer:
		return s.Customers
	case DimSAM:
		return s.SAMs
	case DimState:
		return s.States
	case DimZip:
		return s.Zips
	}
	return nil
}

// Set replaces the chosen values of d with the de-duplicated, sorted vals.
// The empty string survives only on dimensions where it is a real value.
func (s *FilterSelection) Set(d Dimension, vals []string) {
	set := normalizeSet(vals, d.KeepsEmpty())
	switch d {
	case DimCustomer:
		s.Customers = set
	case DimSAM:
		s.SAMs = set
	case DimState:
		s.States = set
	case DimZip:
		s.Zips = set
	}
}

func (s *FilterSelection) SetStakeholders(cols []string) {
	s.Stakeholders = NormalizeSet(cols)
}

// Mode returns the map mode, defaulting to pins.
func (s FilterSelection) Mode() MapMode {
	if s.MapMode == "" {
		return MapPin
	}
	return s.MapMode
}

// Clone returns a deep copy so callers never share slices with a session.
func (s FilterSelection) Clone() FilterSelection {
	out := s
	out.Customers = cloneStrings(s.Customers)
	out.SAMs = cloneStrings(s.SAMs)
	out.States = cloneStrings(s.States)
	out.Zips = cloneStrings(s.Zips)
	out.Stakeholders = cloneStrings(s.Stakeholders)
	return out
}

func (s FilterSelection) IsZero() bool {
	return len(s.Customers) == 0 && len(s.SAMs) == 0 && len(s.States) == 0 &&
		len(s.Zips) == 0 && s.Search == "" && len(s.Stakeholders) == 0 && s.Mode() == MapPin
}

// NormalizeSet drops empty entries, de-duplicates and sorts. Nil in, nil out.
func NormalizeSet(vals []string) []string {
	return normalizeSet(vals, false)
}

func normalizeSet(vals []string, keepEmpty bool) []string {
	if len(vals) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == "" && !keepEmpty {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
