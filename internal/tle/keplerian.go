package tle

import "math"

// Constants used for quick orbit characterization from mean motion.
const (
	MuKm3s2       = 398600.5 // km³/s²
	EarthRadiusKm = 6378.135
)

// Keplerian summarizes an element set without running the propagator.
type Keplerian struct {
	SemiMajorAxisKm float64
	AltitudeKm      float64
	// MeanMotion is in rad/s.
	MeanMotion   float64
	PeriodMin    float64
	Eccentricity float64
	Inclination  float64
	RAAN         float64
	ArgPerigee   float64
	MeanAnomaly  float64
	BStar        float64
}

// DeriveKeplerian computes a = (μ/n²)^(1/3) with n in rad/s and the mean
// altitude a − Re. Angles are copied from the canonical set, so both
// construction paths give identical results for the same orbit.
func DeriveKeplerian(es ElementSet) Keplerian {
	n := es.MeanMotion * 2 * math.Pi / 86400.0
	k := Keplerian{
		MeanMotion:   n,
		Eccentricity: es.Eccentricity,
		Inclination:  es.Inclination,
		RAAN:         es.RAAN,
		ArgPerigee:   es.ArgPerigee,
		MeanAnomaly:  es.MeanAnomaly,
		BStar:        es.BStar,
	}
	if n > 0 {
		k.SemiMajorAxisKm = math.Cbrt(MuKm3s2 / (n * n))
		k.AltitudeKm = k.SemiMajorAxisKm - EarthRadiusKm
		k.PeriodMin = 1440.0 / es.MeanMotion
	}
	return k
}
