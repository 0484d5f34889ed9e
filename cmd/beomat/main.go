// Command beomat propagates element sets, predicts ground passes, estimates
// drag lifetime and serves the same operations over HTTP.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcvalenti/BEOMAT/internal/atmosphere"
	"github.com/mcvalenti/BEOMAT/internal/config"
	"github.com/mcvalenti/BEOMAT/internal/metrics"
	"github.com/mcvalenti/BEOMAT/internal/tle"
)

var (
	cfgPath     string
	catalogPath string
	outputFmt   string

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "beomat",
	Short: "Orbit propagation, access windows and decay estimates from TLE/OMM catalogs",
	Long: `beomat loads TLE or OMM catalogs and runs SGP4/SDP4 propagation, ground
station access prediction and drag lifetime estimates, either from the command
line or behind an HTTP API (beomat serve).

Settings come from beomat.yaml (or --config) and BEOMAT_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bootstrap := newLogger(os.Stderr, slog.LevelWarn)
		c, err := config.Load(cfgPath, bootstrap)
		if err != nil {
			return err
		}
		cfg = c
		if catalogPath != "" {
			cfg.CatalogPath = catalogPath
		}
		if cfg.AtmosphereTable != "" {
			atmosphere.SetDefaultPath(cfg.AtmosphereTable)
		}
		logger = newLogger(os.Stderr, cfg.LogLevel)
		return nil
	},
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadCatalog reads the configured catalog file.
func loadCatalog() (*tle.Catalog, error) {
	if cfg.CatalogPath == "" {
		return nil, fmt.Errorf("no catalog: pass --catalog or set catalog.path (BEOMAT_CATALOG_PATH)")
	}
	cat, err := tle.LoadFile(cfg.CatalogPath, logger)
	if err != nil {
		return nil, err
	}
	metrics.SetCatalogSize(len(cat.Sets))
	return cat, nil
}

// selectSets resolves NORAD id arguments against the catalog; no arguments
// selects every element set.
func selectSets(cat *tle.Catalog, args []string) ([]tle.ElementSet, error) {
	if len(args) == 0 {
		return cat.Sets, nil
	}
	sets := make([]tle.ElementSet, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid NORAD id %q", a)
		}
		es, ok := cat.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("satellite %d not in catalog %s", id, cat.Source)
		}
		sets = append(sets, es)
	}
	return sets, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ./beomat.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "TLE or OMM JSON catalog file (overrides catalog.path)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "output format: table or json")

	rootCmd.AddCommand(serveCmd, propagateCmd, passesCmd, decayCmd, elementsCmd, orbitCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
