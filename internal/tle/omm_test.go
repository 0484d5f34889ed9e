package tle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const issOMM = `{
	"OBJECT_NAME": "ISS (ZARYA)",
	"OBJECT_ID": "1998-067A",
	"EPOCH": "2008-09-20T12:25:40.104192",
	"MEAN_MOTION": 15.72125391,
	"ECCENTRICITY": 0.0006703,
	"INCLINATION": 51.6416,
	"RA_OF_ASC_NODE": 247.4627,
	"ARG_OF_PERICENTER": 130.536,
	"MEAN_ANOMALY": 325.0288,
	"NORAD_CAT_ID": 25544,
	"BSTAR": -1.1606e-05,
	"MEAN_MOTION_DOT": -2.182e-05,
	"MEAN_MOTION_DDOT": 0
}`

func TestOMMMatchesLines(t *testing.T) {
	omms, err := ParseOMMs([]byte(issOMM))
	require.NoError(t, err)
	require.Len(t, omms, 1)

	fromOMM, err := omms[0].ElementSet()
	require.NoError(t, err)
	fromLines, err := FromLines(issName, issLine1, issLine2)
	require.NoError(t, err)

	assert.Equal(t, SourceFields, fromOMM.Source)
	assert.Equal(t, fromLines.NORADID, fromOMM.NORADID)
	assert.Equal(t, fromLines.Name, fromOMM.Name)
	assert.WithinDuration(t, fromLines.Epoch, fromOMM.Epoch, time.Millisecond)

	assert.Equal(t, fromLines.Eccentricity, fromOMM.Eccentricity)
	assert.Equal(t, fromLines.Inclination, fromOMM.Inclination)
	assert.Equal(t, fromLines.RAAN, fromOMM.RAAN)
	assert.Equal(t, fromLines.ArgPerigee, fromOMM.ArgPerigee)
	assert.Equal(t, fromLines.MeanAnomaly, fromOMM.MeanAnomaly)
	assert.Equal(t, fromLines.MeanMotion, fromOMM.MeanMotion)
	assert.InDelta(t, fromLines.BStar, fromOMM.BStar, 1e-15)
}

func TestOMMWithTLELinesUsesLines(t *testing.T) {
	o := OMM{ObjectName: issName, TLELine1: issLine1, TLELine2: issLine2}
	es, err := o.ElementSet()
	require.NoError(t, err)
	assert.Equal(t, SourceLines, es.Source)
	assert.Equal(t, 25544, es.NORADID)
}

func TestParseOMMEpoch(t *testing.T) {
	want := time.Date(2025, 5, 26, 13, 6, 57, 824640000, time.UTC)
	for _, s := range []string{
		"2025-05-26T13:06:57.824640",
		"2025-05-26T13:06:57.824640Z",
		"2025-05-26T15:06:57.824640+02:00",
		"2025-05-26 13:06:57.824640",
	} {
		t.Run(s, func(t *testing.T) {
			got, err := ParseOMMEpoch(s)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "got %v", got)
		})
	}

	_, err := ParseOMMEpoch("yesterday")
	assert.Error(t, err)
}

func TestDecodeDetectsFormat(t *testing.T) {
	sets, err := Decode([]byte("["+issOMM+"]"), testLogger)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, SourceFields, sets[0].Source)

	sets, err = Decode([]byte(issName+"\n"+issLine1+"\n"+issLine2+"\n"), testLogger)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, SourceLines, sets[0].Source)
}
