// Package orbit has closed-form design helpers: period to semi-major axis,
// J2 nodal drift and a repeat ground track period correction.
package orbit

import (
	"fmt"
	"math"
)

const (
	// MuKm3s2 is the Earth gravitational parameter.
	MuKm3s2 = 398600.4415
	// EarthRadiusKm is the equatorial radius used for perigee radii.
	EarthRadiusKm = 6378.0
	// SiderealDayMin is one sidereal day in minutes.
	SiderealDayMin = 1436.068167
	// EarthRotationDegPerMin is the mean rotation rate of the Earth.
	EarthRotationDegPerMin = 0.25

	j2DriftCoeff = -2.06474e14
)

// SemiMajorAxisFromPeriod returns the semi-major axis in km for a period in
// minutes.
func SemiMajorAxisFromPeriod(periodMin float64) float64 {
	p := periodMin * 60
	return math.Cbrt(p * p * MuKm3s2 / (4 * math.Pi * math.Pi))
}

// PeriodFromSemiMajorAxis returns the period in minutes.
func PeriodFromSemiMajorAxis(aKm float64) float64 {
	return 2 * math.Pi * math.Sqrt(aKm*aKm*aKm/MuKm3s2) / 60
}

// NodalDriftDegPerDay returns the secular J2 drift of the ascending node in
// deg/day (Larson & Wertz). Prograde orbits drift westward (negative).
func NodalDriftDegPerDay(aKm, e, incDeg float64) float64 {
	return j2DriftCoeff * math.Pow(aKm, -3.5) * math.Cos(incDeg*math.Pi/180) / ((1 - e) * (1 - e))
}

// GroundTrack is the outcome of RepeatGroundTrack.
type GroundTrack struct {
	RevsPerDay          float64 `json:"revs_per_day"`
	InitialPeriodMin    float64 `json:"initial_period_min"`
	InitialSMAKm        float64 `json:"initial_sma_km"`
	Eccentricity        float64 `json:"eccentricity"`
	NodalDriftDegPerDay float64 `json:"nodal_drift_deg_per_day"`
	DeltaPeriodMin      float64 `json:"delta_period_min"`
	PeriodMin           float64 `json:"period_min"`
	SMAKm               float64 `json:"sma_km"`
}

// RepeatGroundTrack sizes an orbit that makes revsPerDay revolutions per
// sidereal day with the given perigee altitude, then applies one correction
// of the period for the time the Earth needs to rotate through the nodal
// drift accumulated in one revolution.
func RepeatGroundTrack(revsPerDay, perigeeAltKm, incDeg float64) (GroundTrack, error) {
	if !(revsPerDay > 0) {
		return GroundTrack{}, fmt.Errorf("revolutions per day must be positive, got %g", revsPerDay)
	}
	g := GroundTrack{RevsPerDay: revsPerDay}
	g.InitialPeriodMin = SiderealDayMin / revsPerDay
	g.InitialSMAKm = SemiMajorAxisFromPeriod(g.InitialPeriodMin)

	rp := perigeeAltKm + EarthRadiusKm
	ra := 2*g.InitialSMAKm - rp
	if rp <= 0 || ra < rp {
		return GroundTrack{}, fmt.Errorf("perigee radius %.3f km exceeds semi-major axis %.3f km", rp, g.InitialSMAKm)
	}
	b := math.Sqrt(ra * rp)
	g.Eccentricity = math.Sqrt(1 - b*b/(g.InitialSMAKm*g.InitialSMAKm))

	g.NodalDriftDegPerDay = NodalDriftDegPerDay(g.InitialSMAKm, g.Eccentricity, incDeg)
	g.DeltaPeriodMin = g.NodalDriftDegPerDay / 1440 * g.InitialPeriodMin / EarthRotationDegPerMin
	g.PeriodMin = g.InitialPeriodMin + g.DeltaPeriodMin
	g.SMAKm = SemiMajorAxisFromPeriod(g.PeriodMin)
	return g, nil
}
