package main

import (
	"io"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcvalenti/BEOMAT/internal/tle"
)

type elementsRow struct {
	NORADID        int       `json:"norad_id"`
	Name           string    `json:"name"`
	Epoch          time.Time `json:"epoch"`
	Source         string    `json:"source"`
	Eccentricity   float64   `json:"eccentricity"`
	InclinationDeg float64   `json:"inclination_deg"`
	RAANDeg        float64   `json:"raan_deg"`
	MeanMotion     float64   `json:"mean_motion_rev_day"`
	BStar          float64   `json:"bstar"`
	SMAKm          float64   `json:"semi_major_axis_km"`
	AltitudeKm     float64   `json:"mean_altitude_km"`
	PeriodMin      float64   `json:"period_min"`
}

var elementsCmd = &cobra.Command{
	Use:   "elements [norad_id...]",
	Short: "List element sets with derived orbit size and period",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		sets, err := selectSets(cat, args)
		if err != nil {
			return err
		}

		rows := make([]elementsRow, 0, len(sets))
		for _, es := range sets {
			k := tle.DeriveKeplerian(es)
			rows = append(rows, elementsRow{
				NORADID:        es.NORADID,
				Name:           es.Name,
				Epoch:          es.Epoch,
				Source:         es.Source.String(),
				Eccentricity:   es.Eccentricity,
				InclinationDeg: es.Inclination * 180 / math.Pi,
				RAANDeg:        es.RAAN * 180 / math.Pi,
				MeanMotion:     es.MeanMotion,
				BStar:          es.BStar,
				SMAKm:          k.SemiMajorAxisKm,
				AltitudeKm:     k.AltitudeKm,
				PeriodMin:      k.PeriodMin,
			})
		}

		return emit(rows, func(w io.Writer, styled bool) {
			headers := []string{"NORAD", "NAME", "EPOCH", "ECC", "INC", "RAAN", "N (rev/d)", "A (km)", "ALT (km)", "PERIOD (min)"}
			tr := make([][]string, 0, len(rows))
			for _, r := range rows {
				tr = append(tr, []string{
					strconv.Itoa(r.NORADID), r.Name, r.Epoch.Format(time.RFC3339),
					num(r.Eccentricity, 7), num(r.InclinationDeg, 4), num(r.RAANDeg, 4),
					num(r.MeanMotion, 8), num(r.SMAKm, 3), num(r.AltitudeKm, 3), num(r.PeriodMin, 3),
				})
			}
			printTitle(w, styled, cat.Source)
			printTable(w, styled, headers, tr)
		})
	},
}
