package domain

import "time"

// Grid geometry and value-scale constants. See the package documentation for
// the coordinate conventions.
const (
	GridSize        = 64
	Baseline        = 64.0
	MaxIntensity    = 150.0
	PrecipThreshold = 70.0

	CellKm  = 4.6875
	RangeKm = 150.0

	// gridCenter is the fractional index of the radar location.
	gridCenter = 31.5
)

// Grid is one 64×64 scalar field. Reflectivity grids hold values in
// [Baseline, MaxIntensity]; the same type also carries uncertainty, spread,
// and motion components, which use their own scales.
type Grid [GridSize][GridSize]float64

// NewReflectivityGrid returns a grid filled with the precipitation-free baseline.
func NewReflectivityGrid() Grid {
	var g Grid
	for iy := range g {
		for ix := range g[iy] {
			g[iy][ix] = Baseline
		}
	}
	return g
}

// Clamp forces every cell into [Baseline, MaxIntensity].
func (g *Grid) Clamp() {
	for iy := range g {
		for ix := range g[iy] {
			if g[iy][ix] < Baseline {
				g[iy][ix] = Baseline
			} else if g[iy][ix] > MaxIntensity {
				g[iy][ix] = MaxIntensity
			}
		}
	}
}

// Max returns the largest cell value and its column/row indices. The first
// occurrence in row-major order wins on ties.
func (g *Grid) Max() (value float64, ix, iy int) {
	value = g[0][0]
	for y := range g {
		for x := range g[y] {
			if g[y][x] > value {
				value, ix, iy = g[y][x], x, y
			}
		}
	}
	return value, ix, iy
}

// AnomalySum returns the total positive anomaly mass above the baseline.
func (g *Grid) AnomalySum() float64 {
	var sum float64
	for iy := range g {
		for ix := range g[iy] {
			if a := g[iy][ix] - Baseline; a > 0 {
				sum += a
			}
		}
	}
	return sum
}

// Bilinear samples the grid at fractional indices (fx, fy), clamping
// coordinates to the domain so backward trajectories that leave the grid
// read the nearest edge cell.
func (g *Grid) Bilinear(fx, fy float64) float64 {
	fx = clampFloat(fx, 0, GridSize-1)
	fy = clampFloat(fy, 0, GridSize-1)

	x0 := int(fx)
	y0 := int(fy)
	x1 := ClampIndex(x0 + 1)
	y1 := ClampIndex(y0 + 1)
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	top := g[y0][x0]*(1-tx) + g[y0][x1]*tx
	bot := g[y1][x0]*(1-tx) + g[y1][x1]*tx
	return top*(1-ty) + bot*ty
}

// Rows converts the grid into the row-major nested slices used by the JSON
// output bundles.
func (g *Grid) Rows() [][]float64 {
	rows := make([][]float64, GridSize)
	for iy := range g {
		row := make([]float64, GridSize)
		copy(row, g[iy][:])
		rows[iy] = row
	}
	return rows
}

// ClampIndex restricts a grid index to [0, GridSize-1].
func ClampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i >= GridSize {
		return GridSize - 1
	}
	return i
}

// KmToCell converts a physical offset from the radar (km) to a fractional
// grid index.
func KmToCell(km float64) float64 {
	return km/CellKm + gridCenter
}

// CellToKm converts a grid index to a physical offset from the radar (km).
func CellToKm(i int) float64 {
	return (float64(i) - gridCenter) * CellKm
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Frame pairs one reflectivity grid with its valid time.
type Frame struct {
	Timestamp time.Time
	Data      Grid
	Quality   string
}

// MotionField is the per-cell apparent-motion estimate between two frames.
// U and V are km/h eastward and northward; Confidence is the block-match
// quality in [0, 1] and is unrelated to forecast regime confidence.
type MotionField struct {
	U          Grid
	V          Grid
	Confidence Grid
}

// ZeroMotionField returns the degenerate all-zero, zero-confidence field
// used when fewer than two frames are available.
func ZeroMotionField() MotionField {
	return MotionField{}
}
