package domain

import (
	"math"
	"time"
)

// Structure is one of the six canonical precipitation archetypes.
type Structure string

const (
	StructureCircular   Structure = "circular"
	StructureLinear     Structure = "linear"
	StructureCluster    Structure = "cluster"
	StructureBanded     Structure = "banded"
	StructureSupercell  Structure = "supercell"
	StructureSquallLine Structure = "squall_line"
)

// Stage is the lifecycle phase a feature is currently in.
type Stage string

const (
	StageDeveloping  Stage = "developing"
	StageMature      Stage = "mature"
	StageDissipating Stage = "dissipating"
	StageSteady      Stage = "steady"
)

// StructureDetail carries the archetype-specific rendering parameters.
// Each archetype has its own concrete type so a feature never carries fields
// that do not apply to its structure.
type StructureDetail interface {
	Structure() Structure
}

// CircularDetail renders an anisotropic Gaussian blob; shape comes entirely
// from the feature's size, eccentricity, and orientation.
type CircularDetail struct{}

func (CircularDetail) Structure() Structure { return StructureCircular }

// LinearDetail renders a rotated rectangular band.
type LinearDetail struct {
	// LeadingEdgeBoost multiplies intensity on the leading half of the band.
	LeadingEdgeBoost float64
}

func (LinearDetail) Structure() Structure { return StructureLinear }

// SquallLineDetail is the longer, stronger variant of the linear band.
type SquallLineDetail struct {
	LeadingEdgeBoost float64
}

func (SquallLineDetail) Structure() Structure { return StructureSquallLine }

// SubCell is one convective element of a cluster, offset from the cluster
// centroid with its own intensity scale.
type SubCell struct {
	DXKm  float64
	DYKm  float64
	Scale float64
}

// ClusterDetail renders several circular sub-blobs at fixed offsets.
type ClusterDetail struct {
	Cells []SubCell
}

func (ClusterDetail) Structure() Structure { return StructureCluster }

// BandedDetail renders a radial Gaussian with concentric intensity rings.
type BandedDetail struct {
	RingSpacingKm float64
}

func (BandedDetail) Structure() Structure { return StructureBanded }

// SupercellDetail renders a radial Gaussian with spiral modulation and a
// hook echo in one angular sector.
type SupercellDetail struct {
	HookAngleRad float64
}

func (SupercellDetail) Structure() Structure { return StructureSupercell }

// TrackSample is one history entry of a tracked feature.
type TrackSample struct {
	Time      time.Time
	XKm       float64
	YKm       float64
	Intensity float64
	AreaKm2   float64
}

// maxTrackHistory bounds per-feature history so long-lived features do not
// grow without limit.
const maxTrackHistory = 20

// Feature is one discrete, trackable precipitation entity. Features are
// value types: evolution across forecast lead times constructs new Feature
// values from a base snapshot rather than mutating in place.
type Feature struct {
	ID string

	// Position in km east/north of the radar.
	XKm float64
	YKm float64

	// Shape.
	SizeKm         float64
	Eccentricity   float64
	OrientationRad float64

	// Kinematics in km/h.
	UKmh float64
	VKmh float64

	// Intensity on the reflectivity scale.
	MaxIntensity     float64
	CurrentIntensity float64

	// Lifecycle.
	Birth time.Time
	Peak  time.Time
	Death time.Time
	Stage Stage

	Detail StructureDetail

	// Derived rates.
	GrowthRate        float64
	AreaChangeRate    float64
	RotationRateRadH  float64
	ConvectiveDepthKm float64

	History []TrackSample
}

// Structure reports the archetype of the feature's detail variant.
func (f Feature) Structure() Structure {
	if f.Detail == nil {
		return StructureCircular
	}
	return f.Detail.Structure()
}

// LifecycleFactor returns the triangular intensity envelope at time t:
// progress^0.7 while rising, 1 − 0.7·progress while falling, and exactly
// zero outside [Birth, Death].
func (f Feature) LifecycleFactor(t time.Time) float64 {
	if t.Before(f.Birth) || t.After(f.Death) {
		return 0
	}
	if !t.After(f.Peak) {
		rise := f.Peak.Sub(f.Birth)
		if rise <= 0 {
			return 1
		}
		progress := float64(t.Sub(f.Birth)) / float64(rise)
		return math.Pow(progress, 0.7)
	}
	fall := f.Death.Sub(f.Peak)
	if fall <= 0 {
		return 0
	}
	progress := float64(t.Sub(f.Peak)) / float64(fall)
	return 1 - 0.7*progress
}

// WithSample returns a copy of the feature with one track sample appended,
// dropping the oldest entry once the history bound is reached.
func (f Feature) WithSample(s TrackSample) Feature {
	history := make([]TrackSample, 0, len(f.History)+1)
	history = append(history, f.History...)
	history = append(history, s)
	if len(history) > maxTrackHistory {
		history = history[len(history)-maxTrackHistory:]
	}
	f.History = history
	return f
}

// AreaKm2 approximates the feature's footprint area from its Gaussian size.
func (f Feature) AreaKm2() float64 {
	minor := f.SizeKm * (1 - 0.7*f.Eccentricity)
	return math.Pi * f.SizeKm * minor
}
