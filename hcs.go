package gribcoll

// GridKind names the handful of GRIB1 grid projections this collection
// model distinguishes when the Schema Projector chooses between
// lat/lon and projected x/y coordinate variables.
type GridKind uint8

const (
	GridLatLon GridKind = iota
	GridGaussianLatLon
	GridLambertConformal
	GridPolarStereographic
	GridMercator
)

func (k GridKind) projected() bool {
	return k == GridLambertConformal || k == GridPolarStereographic || k == GridMercator
}

// HorizontalCoordSys describes the horizontal grid shared by every
// VariableIndex in a Group.
type HorizontalCoordSys struct {
	Kind GridKind

	Nx, Ny int

	StartX, StartY float64
	Dx, Dy float64

	// GaussLats, when non-nil, are the ny latitudes of a reduced/full
	// Gaussian grid; when nil, latitudes are computed arithmetically from
	// StartY/Dy.
	GaussLats []float64

	// ScanMode carries the GRIB1 scanning-mode flags needed by the
	// external codec to return grids in a consistent row-major order.
	ScanMode uint8

	// ProjParams carries the projection-specific parameters (standard
	// parallels, reference longitude, etc.) for projected grids; keyed by
	// GRIB1 field name. Unused for GridLatLon/GridGaussianLatLon.
	ProjParams map[string]float64

	// ProjName is a short, stable projection identifier surfaced as the
	// grid-mapping attribute name by the Schema Projector.
	ProjName string
}

// Lats returns the ny latitudes of the grid, computing them arithmetically
// from StartY/Dy when no Gaussian latitudes were supplied.
func (h *HorizontalCoordSys) Lats() []float64 {
	if len(h.GaussLats) > 0 {
		return h.GaussLats
	}
	out := make([]float64, h.Ny)
	for i := range out {
		out[i] = h.StartY + float64(i)*h.Dy
	}
	return out
}

// Lons returns the nx longitudes of the grid, computed arithmetically from
// StartX/Dx.
func (h *HorizontalCoordSys) Lons() []float64 {
	out := make([]float64, h.Nx)
	for i := range out {
		out[i] = h.StartX + float64(i)*h.Dx
	}
	return out
}
