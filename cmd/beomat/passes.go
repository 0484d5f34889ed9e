package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcvalenti/BEOMAT/internal/access"
	"github.com/mcvalenti/BEOMAT/internal/propagation"
)

var (
	passSite    string
	passLat     float64
	passLon     float64
	passAltM    float64
	passMinEl   float64
	passStart   string
	passHours   float64
	passStep    time.Duration
	passOpenWin string
	passTraj    string
	passTrajECF bool
	passTrajID  int
)

// resolveSites returns the configured site named by --site, an ad-hoc
// station when --lat/--lon are set, or every configured site.
func resolveSites(cmd *cobra.Command) ([]access.Site, error) {
	if passSite != "" {
		s, ok := cfg.Site(passSite)
		if !ok {
			return nil, fmt.Errorf("site %q not configured", passSite)
		}
		return []access.Site{s}, nil
	}
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		if passLat < -90 || passLat > 90 {
			return nil, fmt.Errorf("--lat %g out of range", passLat)
		}
		return []access.Site{access.NewStation("ad-hoc", passLat, passLon, passAltM, access.WithMinElevation(passMinEl))}, nil
	}
	if len(cfg.Sites) == 0 {
		return nil, fmt.Errorf("no sites: pass --site, --lat/--lon or configure sites")
	}
	return cfg.Sites, nil
}

var passesCmd = &cobra.Command{
	Use:     "passes [norad_id...]",
	Aliases: []string{"access"},
	Short:   "Predict access windows (AOS/LOS) over ground sites",
	Long: `Passes samples each satellite's trajectory from --start over --hours at --step
and reports every window in which the elevation stays at or above the site's
mask. A window still open at the end of the run is dropped unless
--open-window truncate is given, in which case it is closed at the last sample
and flagged.

With --trajectory the positions come from a file (offset seconds from --start,
then x y z in km, TEME unless --earth-fixed) instead of catalog elements.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := resolveSites(cmd)
		if err != nil {
			return err
		}
		start, err := parseTimeFlag(passStart)
		if err != nil {
			return err
		}
		if passHours <= 0 {
			return fmt.Errorf("--hours must be positive")
		}
		policy := cfg.OpenWindow
		if passOpenWin != "" {
			p, ok := access.ParseOpenWindowPolicy(passOpenWin)
			if !ok {
				return fmt.Errorf("invalid --open-window %q: want drop or truncate", passOpenWin)
			}
			policy = p
		}
		step := passStep
		if step <= 0 {
			step = cfg.Propagation.Step
		}

		var results []access.SatellitePasses
		if passTraj != "" {
			results, err = trajectoryPasses(cmd, sites, start, policy)
		} else {
			results, err = catalogPasses(cmd, args, sites, start, step, policy)
		}
		if err != nil {
			return err
		}

		return emit(results, func(w io.Writer, styled bool) {
			headers := []string{"NORAD", "NAME", "SITE", "AOS", "LOS", "MAX EL", "DURATION", "FLAG"}
			var rows [][]string
			for _, sat := range results {
				if sat.Error != "" {
					continue
				}
				for _, sp := range sat.Sites {
					for _, p := range sp.Passes {
						flag := ""
						if p.Truncated {
							flag = "truncated"
						}
						rows = append(rows, []string{
							strconv.Itoa(sat.NORADID), sat.Name, sp.Site,
							p.AOS.Format(time.RFC3339), p.LOS.Format(time.RFC3339),
							num(p.MaxElevation, 1),
							time.Duration(p.DurationSec * float64(time.Second)).Round(time.Second).String(),
							flag,
						})
					}
				}
			}
			printTable(w, styled, headers, rows)
			for _, sat := range results {
				if sat.Error != "" {
					printError(w, styled, fmt.Sprintf("%d %s: %s", sat.NORADID, sat.Name, sat.Error))
				}
			}
		})
	},
}

func catalogPasses(cmd *cobra.Command, args []string, sites []access.Site, start time.Time, step time.Duration, policy access.OpenWindowPolicy) ([]access.SatellitePasses, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	sets, err := selectSets(cat, args)
	if err != nil {
		return nil, err
	}
	return access.Predict(cmd.Context(), access.Request{
		Sets:    sets,
		Sites:   sites,
		Start:   start,
		Span:    time.Duration(passHours * float64(time.Hour)),
		Step:    step,
		Workers: cfg.Propagation.Workers,
		Gravity: cfg.Propagation.Gravity,
		Policy:  policy,
	}), nil
}

// trajectoryPasses evaluates an externally generated trajectory file against
// every site instead of propagating catalog elements.
func trajectoryPasses(cmd *cobra.Command, sites []access.Site, start time.Time, policy access.OpenWindowPolicy) ([]access.SatellitePasses, error) {
	frame := propagation.FrameTEME
	if passTrajECF {
		frame = propagation.FrameEarthFixed
	}
	traj, err := access.LoadTrajectory(passTraj, passTrajID, start, frame)
	if err != nil {
		return nil, err
	}
	logger.Debug("trajectory loaded", "component", "cli", "path", passTraj, "samples", len(traj.Samples), "step", traj.Step)

	jobs := make([]access.Job, 0, len(sites))
	for _, site := range sites {
		jobs = append(jobs, access.Job{Trajectory: traj, Start: start, Site: site})
	}
	out := access.SatellitePasses{NORADID: passTrajID, Name: filepath.Base(passTraj)}
	for _, res := range access.Batch(cmd.Context(), jobs, cfg.Propagation.Workers, access.WithOpenWindow(policy)) {
		if res.Err != nil {
			out.Error = res.Err.Error()
			break
		}
		out.Sites = append(out.Sites, access.SitePasses{Site: res.Site, Passes: res.Passes})
	}
	return []access.SatellitePasses{out}, nil
}

func init() {
	passesCmd.Flags().StringVar(&passSite, "site", "", "configured site name")
	passesCmd.Flags().Float64Var(&passLat, "lat", 0, "ad-hoc station latitude (deg)")
	passesCmd.Flags().Float64Var(&passLon, "lon", 0, "ad-hoc station longitude (deg)")
	passesCmd.Flags().Float64Var(&passAltM, "alt", 0, "ad-hoc station altitude (m)")
	passesCmd.Flags().Float64Var(&passMinEl, "min-el", access.DefaultStationMaskDeg, "ad-hoc station elevation mask (deg)")
	passesCmd.Flags().StringVar(&passStart, "start", "now", "window start (RFC3339)")
	passesCmd.Flags().Float64Var(&passHours, "hours", 24, "window length in hours")
	passesCmd.Flags().DurationVar(&passStep, "step", 0, "sampling step (default propagation.step)")
	passesCmd.Flags().StringVar(&passOpenWin, "open-window", "", "drop or truncate (default access.open_window)")
	passesCmd.Flags().StringVar(&passTraj, "trajectory", "", "evaluate this trajectory file (offset_s x y z km) instead of catalog elements")
	passesCmd.Flags().BoolVar(&passTrajECF, "earth-fixed", false, "trajectory positions are Earth-fixed rather than TEME")
	passesCmd.Flags().IntVar(&passTrajID, "norad", 0, "catalog number reported for --trajectory")
}
