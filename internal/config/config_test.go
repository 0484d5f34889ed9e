package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcvalenti/BEOMAT/internal/access"
	"github.com/mcvalenti/BEOMAT/internal/propagation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(NewViper(), testLogger())
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, runtime.NumCPU(), cfg.Propagation.Workers)
	assert.Equal(t, 60*time.Second, cfg.Propagation.Step)
	assert.Equal(t, 24*time.Hour, cfg.Propagation.Horizon)
	assert.Equal(t, propagation.WGS72, cfg.Propagation.Gravity)
	assert.Equal(t, access.DropOpenWindow, cfg.OpenWindow)
	assert.Empty(t, cfg.Sites)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BEOMAT_HTTP_ADDR", ":9090")
	t.Setenv("BEOMAT_LOG_LEVEL", "debug")
	t.Setenv("BEOMAT_PROPAGATION_WORKERS", "3")
	t.Setenv("BEOMAT_PROPAGATION_STEP", "30")
	t.Setenv("BEOMAT_PROPAGATION_HORIZON", "2h")
	t.Setenv("BEOMAT_PROPAGATION_GRAVITY", "wgs84")
	t.Setenv("BEOMAT_ACCESS_OPEN_WINDOW", "truncate")
	t.Setenv("BEOMAT_CATALOG_PATH", "/data/catalog.tle")
	t.Setenv("BEOMAT_AUTH_ENABLED", "true")
	t.Setenv("BEOMAT_AUTH_TOKEN", "s3cret")
	t.Setenv("BEOMAT_HTTP_TRUST_PROXY", "true")
	t.Setenv("BEOMAT_HTTP_MAX_CONCURRENT_PER_IP", "8")

	cfg, err := FromViper(NewViper(), testLogger())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3, cfg.Propagation.Workers)
	assert.Equal(t, 30*time.Second, cfg.Propagation.Step)
	assert.Equal(t, 2*time.Hour, cfg.Propagation.Horizon)
	assert.Equal(t, propagation.WGS84, cfg.Propagation.Gravity)
	assert.Equal(t, access.TruncateOpenWindow, cfg.OpenWindow)
	assert.Equal(t, "/data/catalog.tle", cfg.CatalogPath)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "s3cret", cfg.Auth.Token)
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, 8, cfg.MaxConcurrent)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("BEOMAT_PROPAGATION_WORKERS", "zero")
	t.Setenv("BEOMAT_PROPAGATION_STEP", "-5s")
	t.Setenv("BEOMAT_PROPAGATION_GRAVITY", "egm96")
	t.Setenv("BEOMAT_ACCESS_OPEN_WINDOW", "keep")
	t.Setenv("BEOMAT_LOG_LEVEL", "loud")

	cfg, err := FromViper(NewViper(), testLogger())
	require.NoError(t, err)

	assert.Equal(t, runtime.NumCPU(), cfg.Propagation.Workers)
	assert.Equal(t, 60*time.Second, cfg.Propagation.Step)
	assert.Equal(t, propagation.WGS72, cfg.Propagation.Gravity)
	assert.Equal(t, access.DropOpenWindow, cfg.OpenWindow)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestAuthErrors(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		t.Setenv("BEOMAT_AUTH_ENABLED", "1")
		_, err := FromViper(NewViper(), testLogger())
		assert.ErrorContains(t, err, "auth.token")
	})
	t.Run("not a bool", func(t *testing.T) {
		t.Setenv("BEOMAT_AUTH_ENABLED", "maybe")
		_, err := FromViper(NewViper(), testLogger())
		assert.ErrorContains(t, err, "boolean")
	})
}

const sampleYAML = `
http_addr: ":7000"
catalog:
  path: testdata/catalog.tle
propagation:
  workers: 2
  step: 10s
sites:
  - name: Cordoba
    lat_deg: -31.52
    lon_deg: -64.46
    alt_m: 730
  - name: Polar
    lat_deg: 78.2
    lon_deg: 15.4
    min_elevation_deg: 5
  - name: Field
    kind: roi
    lat_deg: -34.6
    lon_deg: -58.4
    radius_km: 12
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beomat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path, testLogger())
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "testdata/catalog.tle", cfg.CatalogPath)
	assert.Equal(t, 2, cfg.Propagation.Workers)
	assert.Equal(t, 10*time.Second, cfg.Propagation.Step)
	require.Len(t, cfg.Sites, 3)

	cordoba := cfg.Sites[0]
	assert.Equal(t, access.KindStation, cordoba.Kind)
	assert.Equal(t, access.DefaultStationMaskDeg, cordoba.MinElevationDeg)
	assert.Equal(t, 730.0, cordoba.AltM)

	assert.Equal(t, 5.0, cfg.Sites[1].MinElevationDeg)

	field := cfg.Sites[2]
	assert.Equal(t, access.KindROI, field.Kind)
	assert.Equal(t, 0.0, field.MinElevationDeg)
	assert.Equal(t, 12.0, field.RadiusKm)

	s, ok := cfg.Site("polar")
	require.True(t, ok)
	assert.Equal(t, "Polar", s.Name)
	_, ok = cfg.Site("nowhere")
	assert.False(t, ok)
}

func TestEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beomat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	t.Setenv("BEOMAT_PROPAGATION_WORKERS", "6")

	cfg, err := Load(path, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Propagation.Workers)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), testLogger())
	assert.Error(t, err)
}

func TestBadSites(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", "sites:\n  - lat_deg: 1\n", "name is required"},
		{"bad kind", "sites:\n  - name: A\n    kind: antenna\n", "unknown kind"},
		{"latitude", "sites:\n  - name: A\n    lat_deg: 95\n", "out of range"},
		{"duplicate", "sites:\n  - name: A\n  - name: a\n", "defined twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "beomat.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path, testLogger())
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"60", time.Minute},
		{"90s", 90 * time.Second},
		{"1h30m", 90 * time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseDuration("soon")
	assert.Error(t, err)
}
