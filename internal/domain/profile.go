package domain

import "math"

// RegionType selects one of the two climate parameter bands.
type RegionType string

const (
	RegionTropical  RegionType = "tropical"
	RegionTemperate RegionType = "temperate"
)

// tropicalLatitudeDeg is the absolute-latitude threshold between the two bands.
const tropicalLatitudeDeg = 30.0

// RegionProfile bundles the motion and intensity parameter ranges used when
// fabricating features for a site. Profiles are immutable and carry no state.
type RegionProfile struct {
	Type RegionType

	// Storm intensity range on the reflectivity scale.
	IntensityMin float64
	IntensityMax float64

	// Movement speed range in km/h.
	SpeedMinKmh float64
	SpeedMaxKmh float64

	// Movement heading range, radians clockwise from north (direction the
	// feature moves toward).
	DirectionMinRad float64
	DirectionMaxRad float64

	// Convective instability and deep-layer shear, both in [0, 1].
	Instability float64
	Shear       float64
}

// ProfileForLatitude maps a site latitude to its region profile. Pure
// function: below 30° absolute latitude is tropical, everything else
// temperate.
func ProfileForLatitude(lat float64) RegionProfile {
	if math.Abs(lat) < tropicalLatitudeDeg {
		return RegionProfile{
			Type:            RegionTropical,
			IntensityMin:    90,
			IntensityMax:    150,
			SpeedMinKmh:     10,
			SpeedMaxKmh:     30,
			DirectionMinRad: degToRad(150),
			DirectionMaxRad: degToRad(210),
			Instability:     0.7,
			Shear:           0.3,
		}
	}
	return RegionProfile{
		Type:            RegionTemperate,
		IntensityMin:    70,
		IntensityMax:    120,
		SpeedMinKmh:     20,
		SpeedMaxKmh:     60,
		DirectionMinRad: degToRad(60),
		DirectionMaxRad: degToRad(120),
		Instability:     0.5,
		Shear:           0.5,
	}
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
