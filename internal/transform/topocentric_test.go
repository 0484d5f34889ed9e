package transform

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mcvalenti/BEOMAT/internal/propagation"
)

func ecefState(v r3.Vec) propagation.StateVector {
	return propagation.StateVector{
		Epoch:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Position: [3]float64{v.X, v.Y, v.Z},
		Frame:    propagation.FrameEarthFixed,
	}
}

func TestNewObserver_ECEFMagnitude(t *testing.T) {
	// WGS-84 equatorial radius is 6378.137 km.
	assert.InDelta(t, 6378.137, r3.Norm(NewObserver(0, 0, 0).ECEF), 1e-3)

	// Polar radius ~6356.752 km.
	assert.InDelta(t, 6356.7523, r3.Norm(NewObserver(90, 0, 0).ECEF), 1e-3)
}

func TestNewObserver_Altitude(t *testing.T) {
	diff := r3.Norm(NewObserver(0, 0, 100).ECEF) - r3.Norm(NewObserver(0, 0, 0).ECEF)
	assert.InDelta(t, 0.1, diff, 1e-5)
}

func TestElevationAzimuth_DirectlyOverhead(t *testing.T) {
	obs := NewObserver(0, 0, 0)
	sat := r3.Add(obs.ECEF, r3.Vec{X: 400})

	la := LookAngles(ecefState(sat), obs)
	assert.InDelta(t, 90.0, la.ElevationDeg, 1e-6)
	assert.InDelta(t, 400.0, la.RangeKm, 1e-6)
}

// TestElevationAzimuth_ObliqueGeometry checks an off-zenith case against the
// law of cosines in the plane of the equator.
func TestElevationAzimuth_ObliqueGeometry(t *testing.T) {
	obs := NewObserver(0, 0, 0)
	const r = 6378.137 + 550.0
	lon := 15.0 / rad2deg
	sat := r3.Vec{X: r * math.Cos(lon), Y: r * math.Sin(lon)}

	el, az := ElevationAzimuth(ecefState(sat), obs)

	// Triangle: geocenter, observer, satellite with central angle 15°.
	re := 6378.137
	rng := math.Sqrt(re*re + r*r - 2*re*r*math.Cos(lon))
	want := math.Asin((r*math.Cos(lon)-re)/rng) * rad2deg

	assert.InDelta(t, want, el, 1e-9)
	assert.InDelta(t, 90, az, 1e-9, "due east")
}

func TestElevationAzimuth_AzimuthDirections(t *testing.T) {
	obs := NewObserver(0, 0, 0)

	tests := []struct {
		name           string
		latDeg, lonDeg float64
		wantAz         float64
	}{
		{"north", 10, 0, 0},
		{"east", 0, 10, 90},
		{"south", -10, 0, 180},
		{"west", 0, -10, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sat := NewObserver(tt.latDeg, tt.lonDeg, 400000)
			_, az := ElevationAzimuth(ecefState(sat.ECEF), obs)
			d := math.Mod(math.Abs(az-tt.wantAz), 360)
			if d > 180 {
				d = 360 - d
			}
			assert.LessOrEqual(t, d, 1.0, "azimuth %.3f", az)
			assert.GreaterOrEqual(t, az, 0.0)
			assert.Less(t, az, 360.0)
		})
	}
}

func TestElevationAzimuth_BelowHorizon(t *testing.T) {
	obs := NewObserver(0, 0, 0)
	// Opposite side of the Earth.
	sat := r3.Vec{X: -6778}
	el, _ := ElevationAzimuth(ecefState(sat), obs)
	assert.InDelta(t, -90, el, 1e-6)
}

// TestLookAngles_TEMEInput verifies a TEME state is rotated before the
// topocentric step.
func TestLookAngles_TEMEInput(t *testing.T) {
	obs := NewObserver(-31.5, -64.2, 400)
	at := time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC)
	teme := propagation.StateVector{
		Epoch:    at,
		Position: [3]float64{-2000, -5600, -3600},
		Frame:    propagation.FrameTEME,
	}

	got := LookAngles(teme, obs)
	want := LookAngles(ToEarthFixed(teme, at), obs)
	assert.Equal(t, want, got)

	viaGMST := LookAnglesWithGMST(teme.Position, GMST(at), obs)
	assert.InDelta(t, got.ElevationDeg, viaGMST.ElevationDeg, 1e-12)
	assert.InDelta(t, got.AzimuthDeg, viaGMST.AzimuthDeg, 1e-12)
}

func TestToGeodetic_RoundTrip(t *testing.T) {
	tests := []struct {
		lat, lon, altM float64
	}{
		{0, 0, 0},
		{45, 10, 1000},
		{-31.5, -64.2, 400},
		{89.9, 120, 550000},
		{-60, -170, 35786000},
	}
	for _, tt := range tests {
		obs := NewObserver(tt.lat, tt.lon, tt.altM)
		g := ToGeodetic([3]float64{obs.ECEF.X, obs.ECEF.Y, obs.ECEF.Z})
		assert.InDelta(t, tt.lat, g.LatDeg, 1e-7, "lat %v", tt.lat)
		assert.InDelta(t, tt.lon, g.LonDeg, 1e-7, "lon %v", tt.lon)
		assert.InDelta(t, tt.altM/1000, g.AltKm, 1e-5, "alt %v", tt.altM)
	}
}

func BenchmarkLookAngles(b *testing.B) {
	obs := NewObserver(-31.5, -64.2, 400)
	sv := propagation.StateVector{
		Epoch:    time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC),
		Position: [3]float64{-2000, -5600, -3600},
	}
	for i := 0; i < b.N; i++ {
		LookAngles(sv, obs)
	}
}
