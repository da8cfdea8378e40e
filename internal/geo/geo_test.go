package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineOneDegreeAtEquator(t *testing.T) {
	// One degree of longitude at the equator is ~111.195 km.
	d := Haversine(0, 0, 0, 1)
	assert.InDelta(t, 111195, d, 50)
}

func TestHaversineIdenticalPoints(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(39.9, 32.8, 39.9, 32.8))
}

func TestHaversineSymmetry(t *testing.T) {
	a := Haversine(39.85, 32.75, 39.98, 32.95)
	b := Haversine(39.98, 32.95, 39.85, 32.75)
	assert.InDelta(t, a, b, 1e-9)
	assert.Greater(t, a, 0.0)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(0.5, 1, 2))
	assert.Equal(t, 2.0, Clamp(2.5, 1, 2))
	assert.Equal(t, 1.5, Clamp(1.5, 1, 2))
}
