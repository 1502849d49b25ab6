package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"account-explorer/internal/models"
)

func TestHaversine(t *testing.T) {
	wausau := models.GeoPoint{Lat: 44.9591, Lon: -89.6301}
	minneapolis := models.GeoPoint{Lat: 44.9835, Lon: -93.2683}

	assert.Zero(t, Haversine(wausau, wausau))
	// Roughly 286 km apart.
	assert.InDelta(t, 286, Kilometers(wausau, minneapolis), 3)
	assert.InDelta(t, Haversine(wausau, minneapolis), Haversine(minneapolis, wausau), 1e-6)
}

func TestHaversineAntipodes(t *testing.T) {
	a := models.GeoPoint{Lat: 0, Lon: 0}
	b := models.GeoPoint{Lat: 0, Lon: 180}
	assert.InDelta(t, 20015, Kilometers(a, b), 5)
}
