// Command diag compares the built-in SGP4/SDP4 propagator with
// github.com/joshuaferrara/go-satellite over a catalog file.
package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/spf13/cobra"

	"github.com/mcvalenti/BEOMAT/internal/propagation"
	"github.com/mcvalenti/BEOMAT/internal/tle"
	"github.com/mcvalenti/BEOMAT/internal/transform"
)

var (
	offsets   []time.Duration
	threshold float64
)

var rootCmd = &cobra.Command{
	Use:          "diag <catalog>",
	Short:        "Cross-check propagation against go-satellite",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		cat, err := tle.LoadFile(args[0], logger)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d element sets from %s\n", len(cat.Sets), cat.Source)

		var checked, skipped, over, implausible int
		worst := 0.0
		for _, es := range cat.Sets {
			if es.Line1 == "" {
				skipped++
				continue
			}
			p, err := propagation.New(es)
			if err != nil {
				fmt.Printf("  NORAD %d: init error %v\n", es.NORADID, err)
				continue
			}
			ref := satellite.TLEToSat(es.Line1, es.Line2, satellite.GravityWGS72)

			for _, off := range offsets {
				at := es.Epoch.Add(off).Truncate(time.Second)
				sv, err := p.Propagate(at)
				if err != nil {
					fmt.Printf("  NORAD %d at %+v: %v\n", es.NORADID, off, err)
					continue
				}
				if !transform.Plausible(sv.Position) {
					implausible++
					fmt.Printf("  NORAD %d at %+v: implausible position %v\n", es.NORADID, off, sv.Position)
				}
				pos, _ := satellite.Propagate(ref, at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())
				d := math.Sqrt(sq(sv.Position[0]-pos.X) + sq(sv.Position[1]-pos.Y) + sq(sv.Position[2]-pos.Z))
				checked++
				worst = math.Max(worst, d)
				if d > threshold {
					over++
					sub := transform.SubSatellitePoint(sv)
					fmt.Printf("  NORAD %d %s at %+v: Δ=%.3f km (lat %.2f lon %.2f deep=%t)\n",
						es.NORADID, es.Name, off, d, sub.LatDeg, sub.LonDeg, p.DeepSpace())
				}
			}
		}

		fmt.Printf("\nChecked %d states, %d over %.1f km, worst %.3f km, %d implausible, %d sets without TLE lines skipped\n",
			checked, over, threshold, worst, implausible, skipped)
		if over > 0 || implausible > 0 {
			return fmt.Errorf("%d states exceed threshold, %d implausible", over, implausible)
		}
		return nil
	},
}

func sq(x float64) float64 { return x * x }

func init() {
	rootCmd.Flags().DurationSliceVar(&offsets, "offset", []time.Duration{0, 90 * time.Minute, 12 * time.Hour, 24 * time.Hour}, "offsets from each epoch")
	rootCmd.Flags().Float64Var(&threshold, "threshold", 10, "report differences above this many km")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
