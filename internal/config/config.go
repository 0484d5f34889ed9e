// Package config loads BEOMAT settings from defaults, an optional YAML file
// and BEOMAT_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mcvalenti/BEOMAT/internal/access"
	"github.com/mcvalenti/BEOMAT/internal/auth"
	"github.com/mcvalenti/BEOMAT/internal/propagation"
)

// EnvPrefix prefixes every environment override, e.g. BEOMAT_HTTP_ADDR or
// BEOMAT_PROPAGATION_WORKERS.
const EnvPrefix = "BEOMAT"

// Keys.
const (
	KeyLogLevel        = "log_level"
	KeyHTTPAddr        = "http_addr"
	KeyTrustProxy      = "http_trust_proxy"
	KeyMaxConcurrent   = "http_max_concurrent_per_ip"
	KeyAuthEnabled     = "auth.enabled"
	KeyAuthToken       = "auth.token"
	KeyCatalogPath     = "catalog.path"
	KeyAtmosphereTable = "atmosphere.table"
	KeyWorkers         = "propagation.workers"
	KeyStep            = "propagation.step"
	KeyHorizon         = "propagation.horizon"
	KeyGravity         = "propagation.gravity"
	KeyOpenWindow      = "access.open_window"
	KeySites           = "sites"
)

// Config is the resolved application configuration.
type Config struct {
	LogLevel        slog.Level
	HTTPAddr        string
	TrustProxy      bool
	MaxConcurrent   int
	Auth            auth.Config
	CatalogPath     string
	AtmosphereTable string
	Propagation     propagation.PropConfig
	OpenWindow      access.OpenWindowPolicy
	Sites           []access.Site
}

// Site looks up a configured site by name.
func (c Config) Site(name string) (access.Site, bool) {
	for _, s := range c.Sites {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return access.Site{}, false
}

type siteConfig struct {
	Name            string   `mapstructure:"name"`
	Kind            string   `mapstructure:"kind"`
	LatDeg          float64  `mapstructure:"lat_deg"`
	LonDeg          float64  `mapstructure:"lon_deg"`
	AltM            float64  `mapstructure:"alt_m"`
	MinElevationDeg *float64 `mapstructure:"min_elevation_deg"`
	RadiusKm        *float64 `mapstructure:"radius_km"`
}

// NewViper returns a viper instance with defaults and environment binding
// but no config file.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyTrustProxy, false)
	v.SetDefault(KeyMaxConcurrent, 4)
	v.SetDefault(KeyAuthEnabled, false)
	v.SetDefault(KeyAuthToken, "")
	v.SetDefault(KeyCatalogPath, "")
	v.SetDefault(KeyAtmosphereTable, "")
	v.SetDefault(KeyWorkers, runtime.NumCPU())
	v.SetDefault(KeyStep, "60s")
	v.SetDefault(KeyHorizon, "24h")
	v.SetDefault(KeyGravity, propagation.WGS72.String())
	v.SetDefault(KeyOpenWindow, access.DropOpenWindow.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, or ./beomat.yaml when path is empty and the file exists,
// and resolves the result.
func Load(path string, logger *slog.Logger) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("beomat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	} else {
		logger.Info("config file loaded", "component", "config", "path", v.ConfigFileUsed())
	}
	return FromViper(v, logger)
}

// FromViper resolves a Config. Malformed numeric and enum values are logged
// and replaced by their defaults; inconsistent auth settings and malformed
// sites are errors.
func FromViper(v *viper.Viper, logger *slog.Logger) (Config, error) {
	cfg := Config{
		HTTPAddr:        v.GetString(KeyHTTPAddr),
		CatalogPath:     v.GetString(KeyCatalogPath),
		AtmosphereTable: v.GetString(KeyAtmosphereTable),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		logger.Warn("invalid log level, using default", "value", v.GetString(KeyLogLevel), "default", "info")
		cfg.LogLevel = slog.LevelInfo
	}

	cfg.TrustProxy = v.GetBool(KeyTrustProxy)
	cfg.MaxConcurrent = 4
	if s := v.GetString(KeyMaxConcurrent); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			logger.Warn("invalid http_max_concurrent_per_ip value, using default", "value", s, "default", cfg.MaxConcurrent)
		} else {
			cfg.MaxConcurrent = n
		}
	}

	authCfg, err := loadAuth(v)
	if err != nil {
		return Config{}, err
	}
	cfg.Auth = authCfg

	cfg.Propagation = loadPropagation(v, logger)

	policy, ok := access.ParseOpenWindowPolicy(v.GetString(KeyOpenWindow))
	if !ok {
		logger.Warn("invalid open window policy, using default", "value", v.GetString(KeyOpenWindow), "default", access.DropOpenWindow.String())
		policy = access.DropOpenWindow
	}
	cfg.OpenWindow = policy

	sites, err := loadSites(v)
	if err != nil {
		return Config{}, err
	}
	cfg.Sites = sites

	logger.Info("propagation config",
		"component", "config",
		"workers", cfg.Propagation.Workers,
		"step_seconds", cfg.Propagation.Step.Seconds(),
		"horizon_seconds", cfg.Propagation.Horizon.Seconds(),
		"gravity", cfg.Propagation.Gravity.String(),
		"sites", len(cfg.Sites),
	)
	return cfg, nil
}

func loadAuth(v *viper.Viper) (auth.Config, error) {
	var cfg auth.Config
	if s := v.GetString(KeyAuthEnabled); s != "" {
		enabled, err := strconv.ParseBool(s)
		if err != nil {
			return cfg, errors.New("auth.enabled must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}
	if cfg.Enabled {
		cfg.Token = v.GetString(KeyAuthToken)
		if cfg.Token == "" {
			return cfg, errors.New("auth.token is required when auth is enabled")
		}
	}
	return cfg, nil
}

func loadPropagation(v *viper.Viper, logger *slog.Logger) propagation.PropConfig {
	cfg := propagation.PropConfig{
		Workers: runtime.NumCPU(),
		Step:    60 * time.Second,
		Horizon: 24 * time.Hour,
		Gravity: propagation.WGS72,
	}

	if s := v.GetString(KeyWorkers); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			logger.Warn("invalid propagation.workers value, using default", "value", s, "default", cfg.Workers)
		} else {
			cfg.Workers = n
		}
	}
	if d, ok := durationValue(v, KeyStep, logger); ok {
		cfg.Step = d
	}
	if d, ok := durationValue(v, KeyHorizon, logger); ok {
		cfg.Horizon = d
	}
	if s := v.GetString(KeyGravity); s != "" {
		g, ok := propagation.ParseGravity(s)
		if !ok {
			logger.Warn("invalid propagation.gravity value, using default", "value", s, "default", cfg.Gravity.String())
		} else {
			cfg.Gravity = g
		}
	}
	return cfg
}

// durationValue accepts Go durations ("90s", "2h") or a bare integer number
// of seconds.
func durationValue(v *viper.Viper, key string, logger *slog.Logger) (time.Duration, bool) {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return 0, false
	}
	d, err := ParseDuration(s)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration, using default", "key", key, "value", s)
		return 0, false
	}
	return d, true
}

// ParseDuration parses a Go duration or an integer number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func loadSites(v *viper.Viper) ([]access.Site, error) {
	var raw []siteConfig
	if err := v.UnmarshalKey(KeySites, &raw); err != nil {
		return nil, fmt.Errorf("decoding sites: %w", err)
	}

	sites := make([]access.Site, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, sc := range raw {
		if sc.Name == "" {
			return nil, fmt.Errorf("site %d: name is required", i+1)
		}
		key := strings.ToLower(sc.Name)
		if seen[key] {
			return nil, fmt.Errorf("site %q defined twice", sc.Name)
		}
		seen[key] = true
		if sc.LatDeg < -90 || sc.LatDeg > 90 || sc.LonDeg < -180 || sc.LonDeg > 360 {
			return nil, fmt.Errorf("site %q: coordinates out of range (lat %g, lon %g)", sc.Name, sc.LatDeg, sc.LonDeg)
		}

		var opts []access.SiteOption
		if sc.MinElevationDeg != nil {
			opts = append(opts, access.WithMinElevation(*sc.MinElevationDeg))
		}
		if sc.RadiusKm != nil {
			opts = append(opts, access.WithRadius(*sc.RadiusKm))
		}

		switch access.Kind(strings.ToLower(sc.Kind)) {
		case access.KindStation, "":
			sites = append(sites, access.NewStation(sc.Name, sc.LatDeg, sc.LonDeg, sc.AltM, opts...))
		case access.KindROI:
			sites = append(sites, access.NewROI(sc.Name, sc.LatDeg, sc.LonDeg, opts...))
		default:
			return nil, fmt.Errorf("site %q: unknown kind %q", sc.Name, sc.Kind)
		}
	}
	return sites, nil
}
