package access

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcvalenti/BEOMAT/internal/propagation"
	"github.com/mcvalenti/BEOMAT/internal/transform"
)

func TestReadTrajectory(t *testing.T) {
	in := `offset_s,x_km,y_km,z_km
# integrator output
0, 7000, 0, 0

30	6990.5	350.2	10
60;6962.1;699.0;20
`
	tr, err := ReadTrajectory(strings.NewReader(in), 90001, t0, propagation.FrameTEME)
	require.NoError(t, err)
	assert.Equal(t, 90001, tr.NORADID)
	assert.Equal(t, t0, tr.Start)
	assert.Equal(t, 30*time.Second, tr.Step)
	require.Len(t, tr.Samples, 3)
	assert.Equal(t, [3]float64{6990.5, 350.2, 10}, tr.Samples[1].Position)
	assert.Equal(t, t0.Add(time.Minute), tr.At(2))
}

func TestReadTrajectoryErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "# nothing\n", "no samples"},
		{"header only", "t x y z\n", "no samples"},
		{"offset repeats", "0 7000 0 0\n0 7000 1 0\n", "line 2: offset 0 not after 0"},
		{"offset decreases", "60 7000 0 0\n30 7000 1 0\n", "not after"},
		{"below the surface", "0 7000 0 0\n60 100 0 0\n", "line 2: implausible position"},
		{"not a number", "0 7000 0 0\n60 7000 x 0\n", "line 2"},
		{"short row", "0 7000 0 0\n60 7000 0\n", "got 3 columns"},
		{"second header", "a b\nc d\n0 7000 0 0\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTrajectory(strings.NewReader(tt.in), 1, t0, propagation.FrameTEME)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// TestReadTrajectoryEarthFixed: earth-fixed samples come back as the TEME
// positions they were rotated from.
func TestReadTrajectoryEarthFixed(t *testing.T) {
	es := circular550(t)
	teme := trajectory(t, es, t0, time.Minute, 30*time.Minute)

	var b strings.Builder
	for i, s := range teme.Samples {
		ecf := transform.ToEarthFixed(teme.State(i), teme.At(i))
		fmt.Fprintf(&b, "%.0f %.9f %.9f %.9f\n", s.Offset, ecf.Position[0], ecf.Position[1], ecf.Position[2])
	}

	got, err := ReadTrajectory(strings.NewReader(b.String()), es.NORADID, t0, propagation.FrameEarthFixed)
	require.NoError(t, err)
	require.Len(t, got.Samples, len(teme.Samples))
	for i := range teme.Samples {
		for k := 0; k < 3; k++ {
			assert.InDelta(t, teme.Samples[i].Position[k], got.Samples[i].Position[k], 1e-6, "sample %d axis %d", i, k)
		}
	}

	p, err := propagation.New(es)
	require.NoError(t, err)
	mid, err := p.Propagate(t0.Add(15 * time.Minute))
	require.NoError(t, err)
	sub := transform.SubSatellitePoint(mid)
	site := NewStation("under-track", sub.LatDeg, sub.LonDeg+2, 0)

	want := ComputeAccess(teme, t0, site, WithOpenWindow(TruncateOpenWindow))
	passes := ComputeAccess(got, t0, site, WithOpenWindow(TruncateOpenWindow))
	require.NotEmpty(t, want)
	require.Len(t, passes, len(want))
	for i := range want {
		assert.Equal(t, want[i].AOS, passes[i].AOS)
		assert.Equal(t, want[i].LOS, passes[i].LOS)
		assert.InDelta(t, want[i].MaxElevation, passes[i].MaxElevation, 1e-6)
	}
}

func TestLoadTrajectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.csv")
	require.NoError(t, os.WriteFile(path, []byte("0,7000,0,0\n10,6999,70,0\n"), 0o644))

	tr, err := LoadTrajectory(path, 7, t0, propagation.FrameTEME)
	require.NoError(t, err)
	assert.Len(t, tr.Samples, 2)
	assert.Equal(t, 10*time.Second, tr.Step)

	_, err = LoadTrajectory(filepath.Join(dir, "missing.csv"), 7, t0, propagation.FrameTEME)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("0,1,1,1\n"), 0o644))
	_, err = LoadTrajectory(bad, 7, t0, propagation.FrameTEME)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.csv")
}
