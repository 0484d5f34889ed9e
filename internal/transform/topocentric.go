package transform

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mcvalenti/BEOMAT/internal/propagation"
)

// WGS-84 ellipsoid parameters, in kilometers.
const (
	wgs84A  = 6378.137              // semi-major axis
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

const rad2deg = 180.0 / math.Pi

// Observer is a ground location with its Earth-fixed position and local
// east/north/up axes precomputed for repeated look-angle evaluation.
type Observer struct {
	LatRad, LonRad float64
	AltKm          float64

	ECEF  r3.Vec // km
	east  r3.Vec
	north r3.Vec
	up    r3.Vec
}

// Look holds azimuth, elevation, and range from observer to satellite.
type Look struct {
	AzimuthDeg   float64 // 0 = North, clockwise, [0, 360)
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// NewObserver builds an Observer from geodetic latitude and longitude in
// degrees and altitude in meters above the WGS-84 ellipsoid.
func NewObserver(latDeg, lonDeg, altM float64) Observer {
	lat := latDeg / rad2deg
	lon := lonDeg / rad2deg
	altKm := altM / 1000.0

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Observer{
		LatRad: lat,
		LonRad: lon,
		AltKm:  altKm,
		ECEF: r3.Vec{
			X: (n + altKm) * cosLat * cosLon,
			Y: (n + altKm) * cosLat * sinLon,
			Z: (n*(1-wgs84E2) + altKm) * sinLat,
		},
		east:  r3.Vec{X: -sinLon, Y: cosLon},
		north: r3.Vec{X: -sinLat * cosLon, Y: -sinLat * sinLon, Z: cosLat},
		up:    r3.Vec{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat},
	}
}

// ElevationAzimuth returns the satellite's elevation and azimuth in degrees as
// seen from obs. TEME states are rotated to Earth-fixed at their own epoch.
func ElevationAzimuth(sv propagation.StateVector, obs Observer) (elDeg, azDeg float64) {
	la := LookAngles(sv, obs)
	return la.ElevationDeg, la.AzimuthDeg
}

// LookAngles is ElevationAzimuth plus slant range.
func LookAngles(sv propagation.StateVector, obs Observer) Look {
	sv = ToEarthFixed(sv, sv.Epoch)
	return lookFrom(obs, r3.Vec{X: sv.Position[0], Y: sv.Position[1], Z: sv.Position[2]})
}

// LookAnglesWithGMST evaluates a TEME position with a precomputed GMST.
func LookAnglesWithGMST(pos [3]float64, gmst float64, obs Observer) Look {
	ecef := rotateZ(pos, gmst)
	return lookFrom(obs, r3.Vec{X: ecef[0], Y: ecef[1], Z: ecef[2]})
}

func lookFrom(obs Observer, sat r3.Vec) Look {
	los := r3.Sub(sat, obs.ECEF)
	rng := r3.Norm(los)
	if rng == 0 {
		return Look{ElevationDeg: 90}
	}
	u := r3.Scale(1/rng, los)

	el := math.Asin(clamp(r3.Dot(u, obs.up), -1, 1))
	az := math.Atan2(r3.Dot(u, obs.east), r3.Dot(u, obs.north))
	if az < 0 {
		az += 2 * math.Pi
	}

	return Look{
		AzimuthDeg:   az * rad2deg,
		ElevationDeg: el * rad2deg,
		RangeKm:      rng,
	}
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Geodetic is a WGS-84 geodetic position.
type Geodetic struct {
	LatDeg, LonDeg float64
	AltKm          float64
}

// ToGeodetic converts an Earth-fixed position (km) to geodetic coordinates
// using the iterative Bowring method. Converges in 2-3 iterations for Earth
// orbits.
func ToGeodetic(pos [3]float64) Geodetic {
	x, y, z := pos[0], pos[1], pos[2]
	lon := math.Atan2(y, x)
	p := math.Hypot(x, y)

	lat := math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*n*sinLat, p)
	}

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		alt = math.Abs(z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return Geodetic{
		LatDeg: lat * rad2deg,
		LonDeg: lon * rad2deg,
		AltKm:  alt,
	}
}

// SubSatellitePoint returns the ground track point under a TEME state.
func SubSatellitePoint(sv propagation.StateVector) Geodetic {
	return ToGeodetic(ToEarthFixed(sv, sv.Epoch).Position)
}
