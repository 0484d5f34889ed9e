package access

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcvalenti/BEOMAT/internal/propagation"
	"github.com/mcvalenti/BEOMAT/internal/tle"
	"github.com/mcvalenti/BEOMAT/internal/transform"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// circular550 is a near-circular 550 km orbit at 53° inclination.
func circular550(t *testing.T) tle.ElementSet {
	t.Helper()
	a := tle.EarthRadiusKm + 550.0
	n := math.Sqrt(tle.MuKm3s2/(a*a*a)) * 86400 / (2 * math.Pi)
	es, err := tle.FromFields(tle.Fields{
		Name:           "CIRC-550",
		NORADID:        90550,
		Epoch:          t0,
		Eccentricity:   0.0001,
		InclinationDeg: 53,
		RAANDeg:        40,
		MeanMotion:     n,
	})
	require.NoError(t, err)
	return es
}

func trajectory(t *testing.T, es tle.ElementSet, start time.Time, step, span time.Duration) *propagation.Trajectory {
	t.Helper()
	p, err := propagation.New(es)
	require.NoError(t, err)
	tr, err := propagation.GenerateTrajectory(p, start, step, span)
	require.NoError(t, err)
	return tr
}

func checkInvariants(t *testing.T, passes []Pass, mask float64) {
	t.Helper()
	for i, p := range passes {
		assert.True(t, p.AOS.Before(p.LOS), "pass %d: aos %v not before los %v", i, p.AOS, p.LOS)
		assert.Equal(t, p.LOS.Sub(p.AOS).Seconds(), p.DurationSec, "pass %d duration", i)
		assert.GreaterOrEqual(t, p.MaxElevation, mask, "pass %d max elevation below mask", i)
		if i > 0 {
			assert.False(t, passes[i-1].LOS.After(p.AOS), "pass %d overlaps previous", i)
		}
	}
}

// TestCircular550Scenario: 60 s samples over 90 minutes against a 10° station
// placed near the ground track yield a pass that is short and not overhead.
func TestCircular550Scenario(t *testing.T) {
	es := circular550(t)
	p, err := propagation.New(es)
	require.NoError(t, err)

	// Put the station 3° of longitude off the ground track point at +20 min.
	sv, err := p.Propagate(t0.Add(20 * time.Minute))
	require.NoError(t, err)
	sub := transform.SubSatellitePoint(sv)
	site := NewStation("near-track", sub.LatDeg, sub.LonDeg+3, 0)

	traj := trajectory(t, es, t0, time.Minute, 90*time.Minute)
	passes := ComputeAccess(traj, t0, site)
	require.NotEmpty(t, passes)
	checkInvariants(t, passes, site.MinElevationDeg)

	for i, ps := range passes {
		assert.Less(t, ps.MaxElevation, 90.0, "pass %d", i)
		assert.Less(t, ps.DurationSec, 15*60.0, "pass %d", i)
		assert.False(t, ps.Truncated, "pass %d: truncated under the drop policy", i)
	}
}

func TestPassInvariantsOverADay(t *testing.T) {
	es, err := tle.FromLines("ISS", issLine1, issLine2)
	require.NoError(t, err)
	traj := trajectory(t, es, es.Epoch, 30*time.Second, 24*time.Hour)

	sites := []Site{
		NewStation("cordoba", -31.52, -64.46, 730),
		NewStation("svalbard", 78.23, 15.39, 500, WithMinElevation(5)),
		NewROI("new-york", 40.71, -74.0),
	}
	for _, site := range sites {
		t.Run(site.Name, func(t *testing.T) {
			passes := ComputeAccess(traj, es.Epoch, site, WithOpenWindow(TruncateOpenWindow))
			checkInvariants(t, passes, site.MinElevationDeg)
		})
	}
}

// TestComputeAccessShiftsToStart: sample times are the start argument plus
// each sample's offset, whatever Start the trajectory itself carries.
func TestComputeAccessShiftsToStart(t *testing.T) {
	es, err := tle.FromLines("ISS", issLine1, issLine2)
	require.NoError(t, err)
	traj := trajectory(t, es, es.Epoch, time.Minute, 12*time.Hour)
	site := NewStation("cordoba", -31.52, -64.46, 730)

	base := ComputeAccess(traj, es.Epoch, site)
	require.NotEmpty(t, base)

	unanchored := *traj
	unanchored.Start = time.Time{}
	assert.Equal(t, base, ComputeAccess(&unanchored, es.Epoch, site))
}

func TestTrackerTieBreakIsVisible(t *testing.T) {
	tr := tracker{mask: 10}
	for i, el := range []float64{5, 10, 20, 10, 9.99} {
		tr.observe(t0.Add(time.Duration(i)*time.Minute), el)
	}
	passes := tr.finish(DropOpenWindow)
	require.Len(t, passes, 1)
	got := passes[0]
	assert.Equal(t, t0.Add(time.Minute), got.AOS, "aos at the sample equal to the mask")
	assert.Equal(t, t0.Add(4*time.Minute), got.LOS)
	assert.Equal(t, 20.0, got.MaxElevation)
	assert.Equal(t, 180.0, got.DurationSec)
}

func TestTrackerResetsMaxBetweenPasses(t *testing.T) {
	tr := tracker{mask: 0}
	for i, el := range []float64{40, -1, 12, 11, -5} {
		tr.observe(t0.Add(time.Duration(i)*time.Minute), el)
	}
	passes := tr.finish(DropOpenWindow)
	require.Len(t, passes, 2)
	assert.Equal(t, 40.0, passes[0].MaxElevation)
	assert.Equal(t, 12.0, passes[1].MaxElevation)
}

func TestOpenWindowPolicies(t *testing.T) {
	elevations := []float64{-3, 15, 30, 25}

	tests := []struct {
		name      string
		policy    OpenWindowPolicy
		wantCount int
	}{
		{"drop", DropOpenWindow, 0},
		{"truncate", TruncateOpenWindow, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tracker{mask: 10}
			for i, el := range elevations {
				tr.observe(t0.Add(time.Duration(i)*time.Minute), el)
			}
			passes := tr.finish(tt.policy)
			require.Len(t, passes, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}
			p := passes[0]
			assert.True(t, p.Truncated)
			assert.Equal(t, t0.Add(3*time.Minute), p.LOS, "los at last sample")
			assert.Equal(t, 30.0, p.MaxElevation)
			assert.Equal(t, 120.0, p.DurationSec)
		})
	}
}

// TestTruncateNeedsPositiveDuration: a window opened on the very last sample
// has no extent and is not emitted even when truncating.
func TestTruncateNeedsPositiveDuration(t *testing.T) {
	tr := tracker{mask: 10}
	tr.observe(t0, 0)
	tr.observe(t0.Add(time.Minute), 50)
	assert.Empty(t, tr.finish(TruncateOpenWindow))
}

func TestComputeAccessOpenWindow(t *testing.T) {
	es := circular550(t)
	p, err := propagation.New(es)
	require.NoError(t, err)
	sv, err := p.Propagate(t0.Add(20 * time.Minute))
	require.NoError(t, err)
	sub := transform.SubSatellitePoint(sv)
	site := NewStation("under-track", sub.LatDeg, sub.LonDeg+2, 0)

	// End the run while the satellite is overhead.
	traj := trajectory(t, es, t0, time.Minute, 20*time.Minute)

	assert.Empty(t, ComputeAccess(traj, t0, site), "drop policy")
	got := ComputeAccess(traj, t0, site, WithOpenWindow(TruncateOpenWindow))
	require.Len(t, got, 1)
	assert.True(t, got[0].Truncated)
	assert.Equal(t, t0.Add(20*time.Minute), got[0].LOS, "truncated los at end of trajectory")
}

func TestParseOpenWindowPolicy(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want OpenWindowPolicy
		ok   bool
	}{
		{"", DropOpenWindow, true},
		{"drop", DropOpenWindow, true},
		{"truncate", TruncateOpenWindow, true},
		{"extend", DropOpenWindow, false},
	} {
		got, ok := ParseOpenWindowPolicy(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestSiteConstructors(t *testing.T) {
	st := NewStation("gs", 1, 2, 3)
	assert.Equal(t, 10.0, st.MinElevationDeg)
	assert.Equal(t, KindStation, st.Kind)
	assert.Zero(t, st.RadiusKm)

	roi := NewROI("roi", 1, 2)
	assert.Zero(t, roi.MinElevationDeg)
	assert.Equal(t, 5.0, roi.RadiusKm)
	assert.Equal(t, KindROI, roi.Kind)

	roi = NewROI("roi", 1, 2, WithRadius(12), WithMinElevation(3))
	assert.Equal(t, 12.0, roi.RadiusKm)
	assert.Equal(t, 3.0, roi.MinElevationDeg)
}

func TestBatchMatchesSequential(t *testing.T) {
	es, err := tle.FromLines("ISS", issLine1, issLine2)
	require.NoError(t, err)
	traj := trajectory(t, es, es.Epoch, time.Minute, 12*time.Hour)
	sites := []Site{
		NewStation("cordoba", -31.52, -64.46, 730),
		NewStation("kiruna", 67.86, 20.96, 400),
		NewROI("singapore", 1.35, 103.82),
	}

	jobs := make([]Job, len(sites))
	for i, s := range sites {
		jobs[i] = Job{Trajectory: traj, Start: es.Epoch, Site: s}
	}
	results := Batch(context.Background(), jobs, 2)
	require.Len(t, results, len(jobs))
	for i, r := range results {
		require.NoError(t, r.Err, "job %d", i)
		assert.Equal(t, sites[i].Name, r.Site)
		assert.Equal(t, 25544, r.NORADID)
		assert.Equal(t, ComputeAccess(traj, es.Epoch, sites[i]), r.Passes, "job %d", i)
	}
}

func TestBatchCancelled(t *testing.T) {
	es := circular550(t)
	traj := trajectory(t, es, t0, time.Minute, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Batch(ctx, []Job{{Trajectory: traj, Start: t0, Site: NewStation("x", 0, 0, 0)}}, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestPredict(t *testing.T) {
	iss, err := tle.FromLines("ISS", issLine1, issLine2)
	require.NoError(t, err)
	bad, err := tle.FromFields(tle.Fields{NORADID: 99001, Epoch: iss.Epoch, MeanMotion: 0})
	require.NoError(t, err)

	req := Request{
		Sets: []tle.ElementSet{iss, bad},
		Sites: []Site{
			NewStation("new-york", 40.71, -74.0, 10),
			NewStation("cordoba", -31.52, -64.46, 730),
		},
		Start:   iss.Epoch,
		Span:    24 * time.Hour,
		Step:    30 * time.Second,
		Workers: 2,
	}
	results := Predict(context.Background(), req)
	require.Len(t, results, 2)

	ok := results[0]
	require.Empty(t, ok.Error)
	require.Len(t, ok.Sites, 2)
	total := 0
	for i, sp := range ok.Sites {
		assert.Equal(t, req.Sites[i].Name, sp.Site)
		checkInvariants(t, sp.Passes, req.Sites[i].MinElevationDeg)
		total += len(sp.Passes)
	}
	assert.NotZero(t, total, "expected ISS passes over at least one site in 24 h")

	assert.Equal(t, 99001, results[1].NORADID)
	assert.NotEmpty(t, results[1].Error)
}
