package forecast

import (
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// diurnalFactor returns the convective forcing factor in [0.3, 1.0] for a
// moment at a site: minimum overnight, rising through the morning to a
// midday/afternoon peak, computed from the actual sunrise and sunset at the
// site's coordinates. Deterministic per (lat, lon, date).
func diurnalFactor(t time.Time, lat, lon float64) float64 {
	t = t.UTC()
	rise, set := sunrise.SunriseSunset(lat, lon, t.Year(), t.Month(), t.Day())
	if rise.IsZero() || set.IsZero() {
		// Polar day or night: no usable cycle, use a flat mid value.
		return 0.65
	}
	if t.Before(rise) || t.After(set) {
		return 0.3
	}
	frac := float64(t.Sub(rise)) / float64(set.Sub(rise))
	return 0.3 + 0.7*math.Sin(math.Pi*frac)
}
