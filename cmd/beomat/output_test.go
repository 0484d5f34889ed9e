package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcvalenti/BEOMAT/internal/tle"
)

func TestPrintTablePlain(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, false, []string{"NORAD", "NAME"}, [][]string{{"25544", "ISS"}, {"8195", "MOLNIYA"}})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3, buf.String())
	assert.True(t, strings.HasPrefix(lines[0], "NORAD"), lines[0])
	assert.Contains(t, lines[1], "ISS")
	assert.NotContains(t, buf.String(), "\t", "plain output should be space aligned")
}

func TestPrintTableStyled(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, true, []string{"NORAD", "NAME"}, [][]string{{"25544", "ISS"}})
	out := buf.String()
	assert.Contains(t, out, "25544")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "─", "styled table has no border")
}

func TestSelectSets(t *testing.T) {
	iss, err := tle.FromLines("ISS",
		"1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927",
		"2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537")
	require.NoError(t, err)
	cat := tle.NewCatalog("test", []tle.ElementSet{iss})

	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr bool
	}{
		{"all", nil, 1, false},
		{"by id", []string{"25544"}, 1, false},
		{"unknown", []string{"1"}, 0, true},
		{"not a number", []string{"iss"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectSets(cat, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseTimeFlag(t *testing.T) {
	got, err := parseTimeFlag("2024-03-01T12:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, "UTC", got.Location().String())

	_, err = parseTimeFlag("tomorrow")
	assert.Error(t, err)
}
