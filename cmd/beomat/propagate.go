package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcvalenti/BEOMAT/internal/propagation"
	"github.com/mcvalenti/BEOMAT/internal/tle"
	"github.com/mcvalenti/BEOMAT/internal/transform"
)

var (
	propTime  string
	propFrame string
	propSpan  time.Duration
	propStep  time.Duration
)

type stateRow struct {
	NORADID     int        `json:"norad_id"`
	Name        string     `json:"name"`
	Time        time.Time  `json:"time"`
	Frame       string     `json:"frame"`
	PositionKm  [3]float64 `json:"position_km"`
	VelocityKmS [3]float64 `json:"velocity_km_s"`
	LatDeg      float64    `json:"latitude_deg"`
	LonDeg      float64    `json:"longitude_deg"`
	AltKm       float64    `json:"altitude_km"`
	Error       string     `json:"error,omitempty"`
}

func parseTimeFlag(s string) (time.Time, error) {
	if s == "" || s == "now" {
		return time.Now().UTC().Truncate(time.Second), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: must be RFC3339", s)
	}
	return t.UTC(), nil
}

func toRow(es tle.ElementSet, sv propagation.StateVector, frame string) stateRow {
	ecef := transform.ToEarthFixed(sv, sv.Epoch)
	geo := transform.ToGeodetic(ecef.Position)
	out := sv
	if frame == "ecef" {
		out = ecef
	}
	return stateRow{
		NORADID:     es.NORADID,
		Name:        es.Name,
		Time:        out.Epoch,
		Frame:       out.Frame.String(),
		PositionKm:  out.Position,
		VelocityKmS: out.Velocity,
		LatDeg:      geo.LatDeg,
		LonDeg:      geo.LonDeg,
		AltKm:       geo.AltKm,
	}
}

var propagateCmd = &cobra.Command{
	Use:   "propagate [norad_id...]",
	Short: "Propagate element sets to a time, or sample one over a span",
	Long: `Propagate evaluates SGP4/SDP4 for the given catalog numbers (all when none are
given) at --time. The batch runs on a worker pool sized by propagation.workers;
element sets that fail are reported per row.

With a single id and --span, the trajectory is sampled every --step instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if propFrame != "teme" && propFrame != "ecef" {
			return fmt.Errorf("invalid --frame %q: want teme or ecef", propFrame)
		}
		t, err := parseTimeFlag(propTime)
		if err != nil {
			return err
		}
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		sets, err := selectSets(cat, args)
		if err != nil {
			return err
		}
		gravity := propagation.WithGravity(cfg.Propagation.Gravity)

		var rows []stateRow
		if propSpan > 0 {
			if len(sets) != 1 {
				return fmt.Errorf("--span needs exactly one NORAD id")
			}
			step := propStep
			if step <= 0 {
				step = cfg.Propagation.Step
			}
			p, err := propagation.New(sets[0], gravity)
			if err != nil {
				return err
			}
			traj, err := propagation.GenerateTrajectory(p, t, step, propSpan)
			if err != nil {
				return err
			}
			for i := range traj.Samples {
				sv, err := p.Propagate(traj.At(i))
				if err != nil {
					return err
				}
				rows = append(rows, toRow(sets[0], sv, propFrame))
			}
		} else {
			pool := propagation.NewWorkerPool(cfg.Propagation.Workers, logger, gravity)
			results := pool.PropagateBatch(cmd.Context(), sets, t)
			for i, res := range results {
				if res.Err != nil {
					rows = append(rows, stateRow{NORADID: res.NORADID, Name: sets[i].Name, Time: t, Error: res.Err.Error()})
					continue
				}
				rows = append(rows, toRow(sets[i], res.State, propFrame))
			}
		}

		return emit(rows, func(w io.Writer, styled bool) {
			headers := []string{"NORAD", "NAME", "TIME", "FRAME", "X (km)", "Y (km)", "Z (km)", "LAT", "LON", "ALT (km)"}
			var tr [][]string
			var failed []stateRow
			for _, r := range rows {
				if r.Error != "" {
					failed = append(failed, r)
					continue
				}
				tr = append(tr, []string{
					strconv.Itoa(r.NORADID), r.Name, r.Time.Format(time.RFC3339), r.Frame,
					num(r.PositionKm[0], 3), num(r.PositionKm[1], 3), num(r.PositionKm[2], 3),
					num(r.LatDeg, 4), num(r.LonDeg, 4), num(r.AltKm, 3),
				})
			}
			printTable(w, styled, headers, tr)
			for _, r := range failed {
				printError(w, styled, fmt.Sprintf("%d %s: %s", r.NORADID, r.Name, r.Error))
			}
		})
	},
}

func init() {
	propagateCmd.Flags().StringVar(&propTime, "time", "now", "evaluation time (RFC3339)")
	propagateCmd.Flags().StringVar(&propFrame, "frame", "teme", "output frame: teme or ecef")
	propagateCmd.Flags().DurationVar(&propSpan, "span", 0, "sample a trajectory over this span")
	propagateCmd.Flags().DurationVar(&propStep, "step", 0, "trajectory step (default propagation.step)")
}
