// Package simulator generates bounded random-walk device positions to
// drive the ingest pipeline without real hardware.
package simulator

import (
	"math"
	"math/rand"

	"github.com/itsatony/trackhub/internal/geo"
)

// Position is a device coordinate pair in decimal degrees.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Bounds is the bounding box the walk may never leave.
type Bounds struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// Generator produces random-walk positions inside a bounding box.
// It keeps no per-device state; callers hold the previous position for
// each device and pass it back in. With a fixed rand source the
// generated sequence is deterministic.
type Generator struct {
	bounds Bounds
	step   float64
	rng    *rand.Rand
}

// NewGenerator creates a generator for the given box and maximum
// per-axis step (degrees).
func NewGenerator(bounds Bounds, step float64, rng *rand.Rand) *Generator {
	return &Generator{bounds: bounds, step: step, rng: rng}
}

// Next returns the follow-up position for a device. A nil prev starts
// the walk at a uniform random point in the box; otherwise each axis
// moves by a uniform step in [-step, step] and is clamped back into
// the box independently, so the walk can neither escape nor fail.
func (g *Generator) Next(prev *Position) Position {
	if prev == nil {
		return Position{
			Latitude:  round6(g.bounds.LatMin + g.rng.Float64()*(g.bounds.LatMax-g.bounds.LatMin)),
			Longitude: round6(g.bounds.LonMin + g.rng.Float64()*(g.bounds.LonMax-g.bounds.LonMin)),
		}
	}

	lat := prev.Latitude + (g.rng.Float64()*2-1)*g.step
	lon := prev.Longitude + (g.rng.Float64()*2-1)*g.step

	return Position{
		Latitude:  round6(geo.Clamp(lat, g.bounds.LatMin, g.bounds.LatMax)),
		Longitude: round6(geo.Clamp(lon, g.bounds.LonMin, g.bounds.LonMax)),
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
