package transform

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// j2000 is the Julian date of 2000-01-01 12:00.
	j2000 = 2451545.0
	// OmegaEarth is the Earth rotation rate in rad/s.
	OmegaEarth = 7.292115146706979e-5
)

// JulianDate returns the Julian date of t, read as UT.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// GMST returns Greenwich mean sidereal time in radians, [0, 2π), using the
// IAU 1982 expression in degrees (Meeus eq. 12.4) with UTC for UT1.
func GMST(t time.Time) float64 {
	d := JulianDate(t) - j2000
	c := d / 36525
	deg := 280.46061837 + 360.98564736629*d + c*c*(0.000387933-c/38710000)
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg * math.Pi / 180
}
