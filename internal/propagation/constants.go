package propagation

import "math"

const (
	twoPi   = 2 * math.Pi
	deg2rad = math.Pi / 180.0
	x2o3    = 2.0 / 3.0

	minutesPerDay = 1440.0
	// jd1950 is the Julian date of 1949 December 31 00:00 UT, the SGP4 epoch origin.
	jd1950 = 2433281.5
	// deepSpacePeriodMin splits SGP4 from SDP4.
	deepSpacePeriodMin = 225.0
)

// Gravity selects the Earth constants used by the model.
type Gravity int

const (
	// WGS72 is the model catalogs are generated with; it is the default.
	WGS72 Gravity = iota
	// WGS84 matches OMM records generated against the newer ellipsoid.
	WGS84
)

func (g Gravity) String() string {
	if g == WGS84 {
		return "wgs84"
	}
	return "wgs72"
}

// ParseGravity maps "wgs72" or "wgs84" to a Gravity value.
func ParseGravity(s string) (Gravity, bool) {
	switch s {
	case "wgs72", "WGS72", "":
		return WGS72, true
	case "wgs84", "WGS84":
		return WGS84, true
	}
	return WGS72, false
}

type gravConsts struct {
	mu            float64 // km³/s²
	radiusEarthKm float64
	xke           float64 // sqrt(mu) in Earth radii³/min²
	j2, j3, j4    float64
	j3oj2         float64
}

func (g Gravity) consts() gravConsts {
	var c gravConsts
	switch g {
	case WGS84:
		c.mu = 398600.5
		c.radiusEarthKm = 6378.137
		c.j2 = 0.00108262998905
		c.j3 = -0.00000253215306
		c.j4 = -0.00000161098761
	default:
		c.mu = 398600.8
		c.radiusEarthKm = 6378.135
		c.j2 = 0.001082616
		c.j3 = -0.00000253881
		c.j4 = -0.00000165597
	}
	c.xke = 60.0 / math.Sqrt(c.radiusEarthKm*c.radiusEarthKm*c.radiusEarthKm/c.mu)
	c.j3oj2 = c.j3 / c.j2
	return c
}

// gstime is the IAU-82 Greenwich mean sidereal time in radians for a UT1
// Julian date.
func gstime(jdut1 float64) float64 {
	tut1 := (jdut1 - 2451545.0) / 36525.0
	temp := -6.2e-6*tut1*tut1*tut1 + 0.093104*tut1*tut1 +
		(876600.0*3600+8640184.812866)*tut1 + 67310.54841
	temp = math.Mod(temp*deg2rad/240.0, twoPi)
	if temp < 0 {
		temp += twoPi
	}
	return temp
}
