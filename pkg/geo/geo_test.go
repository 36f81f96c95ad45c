package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZero(t *testing.T) {
	abidjan := LatLng{Lat: 5.3600, Lng: -4.0083}
	assert.Zero(t, Distance(abidjan, abidjan))
}

func TestDistanceKnownPairs(t *testing.T) {
	abidjan := LatLng{Lat: 5.3600, Lng: -4.0083}
	yamoussoukro := LatLng{Lat: 6.8276, Lng: -5.2893}
	bouake := LatLng{Lat: 7.6906, Lng: -5.0303}

	// Abidjan-Yamoussoukro is roughly 212 km as the crow flies.
	assert.InDelta(t, 212, Distance(abidjan, yamoussoukro), 5)
	// Abidjan-Bouake is roughly 283 km.
	assert.InDelta(t, 283, Distance(abidjan, bouake), 5)
}

func TestDistanceSymmetry(t *testing.T) {
	a := LatLng{Lat: 5.3600, Lng: -4.0083}
	b := LatLng{Lat: 7.6906, Lng: -5.0303}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}
