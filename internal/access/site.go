package access

import "github.com/mcvalenti/BEOMAT/internal/transform"

const (
	// DefaultStationMaskDeg is the minimum elevation of a ground station.
	DefaultStationMaskDeg = 10.0
	// DefaultROIRadiusKm is the radius of a region of interest.
	DefaultROIRadiusKm = 5.0
)

// Kind distinguishes ground stations from regions of interest.
type Kind string

const (
	KindStation Kind = "station"
	KindROI     Kind = "roi"
)

// Site is a ground location with a minimum-elevation mask. Sites are plain
// values; build them with NewStation or NewROI.
type Site struct {
	Name            string  `json:"name" mapstructure:"name"`
	Kind            Kind    `json:"kind" mapstructure:"kind"`
	LatDeg          float64 `json:"lat_deg" mapstructure:"lat_deg"`
	LonDeg          float64 `json:"lon_deg" mapstructure:"lon_deg"`
	AltM            float64 `json:"alt_m" mapstructure:"alt_m"`
	MinElevationDeg float64 `json:"min_elevation_deg" mapstructure:"min_elevation_deg"`
	// RadiusKm is only meaningful for regions of interest.
	RadiusKm float64 `json:"radius_km,omitempty" mapstructure:"radius_km"`
}

// SiteOption adjusts a Site at construction.
type SiteOption func(*Site)

// WithMinElevation overrides the elevation mask in degrees.
func WithMinElevation(deg float64) SiteOption {
	return func(s *Site) { s.MinElevationDeg = deg }
}

// WithRadius overrides the region radius in km.
func WithRadius(km float64) SiteOption {
	return func(s *Site) { s.RadiusKm = km }
}

// NewStation returns a ground station with a 10° mask unless overridden.
func NewStation(name string, latDeg, lonDeg, altM float64, opts ...SiteOption) Site {
	s := Site{
		Name:            name,
		Kind:            KindStation,
		LatDeg:          latDeg,
		LonDeg:          lonDeg,
		AltM:            altM,
		MinElevationDeg: DefaultStationMaskDeg,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewROI returns a region of interest centred on the given point: mask 0°,
// radius 5 km unless overridden.
func NewROI(name string, latDeg, lonDeg float64, opts ...SiteOption) Site {
	s := Site{
		Name:     name,
		Kind:     KindROI,
		LatDeg:   latDeg,
		LonDeg:   lonDeg,
		RadiusKm: DefaultROIRadiusKm,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Observer returns the site's precomputed topocentric frame.
func (s Site) Observer() transform.Observer {
	return transform.NewObserver(s.LatDeg, s.LonDeg, s.AltM)
}
