package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mcvalenti/BEOMAT/internal/orbit"
)

var (
	rgtRevs    float64
	rgtPerigee float64
	rgtInc     float64
	smaPeriod  float64
)

var orbitCmd = &cobra.Command{
	Use:   "orbit",
	Short: "Closed-form orbit design helpers",
}

var rgtCmd = &cobra.Command{
	Use:   "rgt",
	Short: "Size a repeat ground track orbit and correct its period for nodal drift",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := orbit.RepeatGroundTrack(rgtRevs, rgtPerigee, rgtInc)
		if err != nil {
			return err
		}
		return emit(g, func(w io.Writer, styled bool) {
			printTable(w, styled, []string{"QUANTITY", "INITIAL", "CORRECTED"}, [][]string{
				{"period (min)", num(g.InitialPeriodMin, 4), num(g.PeriodMin, 4)},
				{"semi-major axis (km)", num(g.InitialSMAKm, 4), num(g.SMAKm, 4)},
				{"eccentricity", num(g.Eccentricity, 6), ""},
				{"nodal drift (deg/day)", num(g.NodalDriftDegPerDay, 4), ""},
				{"Δ period (min)", "", num(g.DeltaPeriodMin, 4)},
			})
		})
	},
}

var smaCmd = &cobra.Command{
	Use:   "sma",
	Short: "Semi-major axis for an orbital period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if smaPeriod <= 0 {
			return fmt.Errorf("--period must be positive")
		}
		a := orbit.SemiMajorAxisFromPeriod(smaPeriod)
		out := map[string]float64{"period_min": smaPeriod, "sma_km": a, "altitude_km": a - orbit.EarthRadiusKm}
		return emit(out, func(w io.Writer, styled bool) {
			printTable(w, styled, []string{"PERIOD (min)", "A (km)", "ALT (km)"}, [][]string{
				{num(smaPeriod, 4), num(a, 3), num(a-orbit.EarthRadiusKm, 3)},
			})
		})
	},
}

func init() {
	rgtCmd.Flags().Float64Var(&rgtRevs, "revs", 16, "revolutions per sidereal day")
	rgtCmd.Flags().Float64Var(&rgtPerigee, "perigee", 120, "perigee altitude (km)")
	rgtCmd.Flags().Float64Var(&rgtInc, "inc", 45, "inclination (deg)")
	smaCmd.Flags().Float64Var(&smaPeriod, "period", 0, "orbital period (min)")
	orbitCmd.AddCommand(rgtCmd, smaCmd)
}
