// Package domain models the simulated weather-radar data this service
// fabricates in place of the live inference backend.
//
// # Grid Conventions
//
// A reflectivity frame is a fixed 64×64 grid of intensity values. The value
// scale is offset composite reflectivity: 64 is the precipitation-free
// baseline and 150 the saturation ceiling, so every cell lies in [64, 150].
// Values above 70 count as precipitation for segmentation and motion
// matching.
//
// Cells are square with an edge of 4.6875 km, giving a 300 km domain and a
// 150 km effective radar range. The radar sits at fractional grid index
// (31.5, 31.5); physical positions are expressed in kilometres east (x) and
// north (y) of the radar. Row index grows northward, column index eastward:
//
//	column ix = x/4.6875 + 31.5
//	row    iy = y/4.6875 + 31.5
//
// # Determinism
//
// Every value in every frame derives from a single Park–Miller stream seeded
// from "<site_id>,<UTC date>". Two runs for the same site on the same UTC
// calendar day produce bit-identical bundles; the fabricated history is
// therefore stable for a whole day, which downstream caching and test
// fixtures rely on.
//
// # Features
//
// Precipitation is rendered from discrete features, each with a position,
// shape (size, eccentricity, orientation), velocity, and a triangular
// lifecycle: intensity rises as progress^0.7 from birth to peak, falls as
// 1 − 0.7·progress from peak to death, and is exactly zero outside
// [birth, death]. Six structural archetypes exist (circular, linear, cluster,
// banded, supercell, squall_line); archetype-specific parameters live in a
// per-archetype detail type rather than optional fields on Feature.
//
// # Region Profiles
//
// Sites below 30° absolute latitude get the tropical profile (intensity
// 90–150, slower and more southerly motion, high convective instability);
// all others get the temperate profile (intensity 70–120, faster zonal
// motion, moderate instability and shear). Profile selection is a pure
// function of latitude.
//
// # Confidence
//
// Two unrelated quantities share the word "confidence" upstream and are kept
// strictly separate here: MotionField carries per-cell block-match confidence
// (quality of the SSD match between two frames), while PredictionFrame
// carries a single scalar regime confidence for the whole lead-time step.
//
// # Output Bundles
//
// HistoricalBundle and PredictionBundle reproduce, field for field, the JSON
// shapes the dashboard expects from the production inference service,
// including the [lead][row][col][1] nesting of prediction_frames. Do not
// rename fields or reshape arrays without coordinating with the dashboard
// repo.
package domain
