package orbit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemiMajorAxisFromPeriod(t *testing.T) {
	tests := []struct {
		name   string
		period float64
		want   float64
	}{
		{"90 min", 90, 6652.5557},
		{"geostationary", SiderealDayMin, 42164.1695},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SemiMajorAxisFromPeriod(tt.period), 1e-3)
		})
	}
}

func TestPeriodRoundTrip(t *testing.T) {
	for _, a := range []float64{6678, 7178, 26560, 42164} {
		got := SemiMajorAxisFromPeriod(PeriodFromSemiMajorAxis(a))
		assert.InDelta(t, a, got, 1e-8, "a=%g", a)
	}
}

func TestNodalDrift(t *testing.T) {
	// Sun-synchronous: about +0.9856 deg/day.
	assert.InDelta(t, 0.9873, NodalDriftDegPerDay(7178, 0.001, 98.6), 1e-3)
	assert.InDelta(t, 1.0013, NodalDriftDegPerDay(7000, 0, 98), 1e-3)

	assert.Less(t, NodalDriftDegPerDay(7000, 0, 45), 0.0)
	assert.InDelta(t, 0, NodalDriftDegPerDay(7000, 0, 90), 1e-12)
	assert.InDelta(t, -NodalDriftDegPerDay(7000, 0.01, 30), NodalDriftDegPerDay(7000, 0.01, 150), 1e-12)
}

func TestRepeatGroundTrack(t *testing.T) {
	g, err := RepeatGroundTrack(16, 120, 45)
	require.NoError(t, err)

	assert.InDelta(t, 89.75426, g.InitialPeriodMin, 1e-5)
	assert.InDelta(t, 6640.4406, g.InitialSMAKm, 1e-3)
	assert.InDelta(t, 0.021450, g.Eccentricity, 1e-6)
	assert.InDelta(t, -6.38992, g.NodalDriftDegPerDay, 1e-4)
	assert.InDelta(t, -1.59312, g.DeltaPeriodMin, 1e-4)
	assert.InDelta(t, 88.16114, g.PeriodMin, 1e-4)
	assert.InDelta(t, 6561.6287, g.SMAKm, 1e-3)
	assert.InDelta(t, g.InitialPeriodMin+g.DeltaPeriodMin, g.PeriodMin, 1e-12)
}

func TestRepeatGroundTrackErrors(t *testing.T) {
	_, err := RepeatGroundTrack(0, 120, 45)
	assert.Error(t, err)
	_, err = RepeatGroundTrack(math.NaN(), 120, 45)
	assert.Error(t, err)
	// 16 rev/day puts the semi-major axis near 262 km altitude.
	_, err = RepeatGroundTrack(16, 400, 45)
	assert.Error(t, err)
}
