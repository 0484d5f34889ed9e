package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mcvalenti/BEOMAT/internal/atmosphere"
	"github.com/mcvalenti/BEOMAT/internal/metrics"
)

var (
	decayParams  atmosphere.Params
	decayStepped bool
	decayFloor   float64
	decayTable   string
)

type decayResult struct {
	Params        atmosphere.Params         `json:"params"`
	DecayPerRevKm float64                   `json:"decay_per_rev_km"`
	LifetimeDays  float64                   `json:"lifetime_days"`
	Stepped       *atmosphere.SteppedResult `json:"stepped,omitempty"`
}

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Estimate drag decay per revolution and orbital lifetime",
	Long: `Decay evaluates the exponential atmosphere at --alt and reports the loss of
semi-major axis per revolution and the constant-rate lifetime estimate. With
--stepped the orbit is also lowered one revolution at a time down to --floor.

Either --alt or --sma may be omitted; it is derived from the other.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, err := decayTableFor()
		if err != nil {
			return err
		}
		p := decayParams.Complete()

		res := decayResult{Params: p}
		res.DecayPerRevKm, err = tab.DecayPerRevolution(p)
		if err == nil {
			res.LifetimeDays, err = tab.EstimateLifetimeDays(p)
		}
		if err == nil && decayStepped {
			var st atmosphere.SteppedResult
			st, err = tab.SteppedLifetimeDays(p, atmosphere.StepOptions{FloorKm: decayFloor})
			res.Stepped = &st
		}
		metrics.RecordDecay(err)
		if err != nil {
			return err
		}

		return emit(res, func(w io.Writer, styled bool) {
			rows := [][]string{
				{"altitude (km)", num(p.AltitudeKm, 3)},
				{"semi-major axis (km)", num(p.SMAKm, 3)},
				{"ballistic Cd·A/m (m²/kg)", num(p.Cd*p.AreaM2/p.MassKg, 5)},
				{"Δa per revolution (km)", fmt.Sprintf("%.6g", res.DecayPerRevKm)},
				{"lifetime, constant rate (days)", num(res.LifetimeDays, 2)},
			}
			if res.Stepped != nil {
				rows = append(rows,
					[]string{"lifetime, stepped (days)", num(res.Stepped.Days, 2)},
					[]string{"revolutions", fmt.Sprint(res.Stepped.Revolutions)},
					[]string{"stopped by", string(res.Stepped.Reason)},
				)
			}
			printTable(w, styled, []string{"QUANTITY", "VALUE"}, rows)
		})
	},
}

func decayTableFor() (*atmosphere.Table, error) {
	if decayTable != "" {
		return atmosphere.LoadTable(decayTable)
	}
	return atmosphere.Default()
}

func init() {
	decayCmd.Flags().Float64Var(&decayParams.Cd, "cd", 2.2, "drag coefficient")
	decayCmd.Flags().Float64Var(&decayParams.AreaM2, "area", 0, "cross-section area (m²)")
	decayCmd.Flags().Float64Var(&decayParams.MassKg, "mass", 0, "mass (kg)")
	decayCmd.Flags().Float64Var(&decayParams.AltitudeKm, "alt", 0, "altitude (km)")
	decayCmd.Flags().Float64Var(&decayParams.SMAKm, "sma", 0, "semi-major axis (km)")
	decayCmd.Flags().BoolVar(&decayStepped, "stepped", false, "also run the per-revolution stepped estimate")
	decayCmd.Flags().Float64Var(&decayFloor, "floor", 120, "re-entry altitude for --stepped (km)")
	decayCmd.Flags().StringVar(&decayTable, "table", "", "atmosphere table file (overrides atmosphere.table)")
	decayCmd.MarkFlagRequired("area")
	decayCmd.MarkFlagRequired("mass")
}
