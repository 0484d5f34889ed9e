package atmosphere

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MuKm3s2 is the Earth gravitational parameter used for the period.
	MuKm3s2 = 398600.4415
	// EarthRadiusKm relates altitude and semi-major axis in Complete.
	EarthRadiusKm = 6378.137
)

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("invalid decay parameters")

// Params describes the spacecraft and its orbit for a decay estimate.
type Params struct {
	Cd         float64 `json:"cd"`
	AreaM2     float64 `json:"area_m2"`
	MassKg     float64 `json:"mass_kg"`
	SMAKm      float64 `json:"sma_km"`
	AltitudeKm float64 `json:"altitude_km"`
}

// Complete derives a missing semi-major axis from the altitude, or the
// altitude from the semi-major axis, assuming a circular orbit.
func (p Params) Complete() Params {
	switch {
	case p.SMAKm == 0 && p.AltitudeKm > 0:
		p.SMAKm = p.AltitudeKm + EarthRadiusKm
	case p.AltitudeKm == 0 && p.SMAKm > EarthRadiusKm:
		p.AltitudeKm = p.SMAKm - EarthRadiusKm
	}
	return p
}

func (p Params) validate() error {
	switch {
	case !(p.Cd > 0):
		return fmt.Errorf("%w: cd must be positive, got %g", ErrInvalidParams, p.Cd)
	case !(p.AreaM2 > 0):
		return fmt.Errorf("%w: area must be positive, got %g m²", ErrInvalidParams, p.AreaM2)
	case !(p.MassKg > 0):
		return fmt.Errorf("%w: mass must be positive, got %g kg", ErrInvalidParams, p.MassKg)
	case !(p.SMAKm > 0):
		return fmt.Errorf("%w: semi-major axis must be positive, got %g km", ErrInvalidParams, p.SMAKm)
	}
	return nil
}

// ballistic returns Cd·A/m with the area in km².
func (p Params) ballistic() float64 {
	return p.Cd * p.AreaM2 * 1e-6 / p.MassKg
}

func periodSec(aKm float64) float64 {
	return 2 * math.Pi * math.Sqrt(aKm*aKm*aKm/MuKm3s2)
}

// DecayPerRevolution returns the change in semi-major axis over one
// revolution, in km (negative), from the density at the current altitude:
//
//	Δa = -2π · (Cd·A/m) · a² · ρ
//
// with A in km² and ρ in kg/km³.
func (t *Table) DecayPerRevolution(p Params) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	rho, err := t.DensityAt(p.AltitudeKm)
	if err != nil {
		return 0, err
	}
	return -2 * math.Pi * p.ballistic() * p.SMAKm * p.SMAKm * rho * 1e9, nil
}

// EstimateLifetimeDays returns -H/Δa revolutions converted to days with the
// period at the current semi-major axis.
//
// The decay rate at the initial altitude is assumed to hold for the whole
// remaining life, so the result is a first-order figure that drifts from the
// true lifetime as the horizon grows. SteppedLifetimeDays re-evaluates the
// rate every revolution.
func (t *Table) EstimateLifetimeDays(p Params) (float64, error) {
	da, err := t.DecayPerRevolution(p)
	if err != nil {
		return 0, err
	}
	b, err := t.Band(p.AltitudeKm)
	if err != nil {
		return 0, err
	}
	revs := -b.ScaleHeight / da
	return revs * periodSec(p.SMAKm) / 86400, nil
}

// StopReason says why a stepped lifetime run ended.
type StopReason string

const (
	StopFloor   StopReason = "floor"
	StopTable   StopReason = "table"
	StopMaxRevs StopReason = "max-revs"
)

// StepOptions bounds SteppedLifetimeDays.
type StepOptions struct {
	// FloorKm is the re-entry altitude. Zero means 120 km.
	FloorKm float64
	// MaxRevs caps the loop. Zero means 2,000,000.
	MaxRevs int
}

// SteppedResult is the outcome of a stepped lifetime run.
type SteppedResult struct {
	Days            float64    `json:"days"`
	Revolutions     int        `json:"revolutions"`
	FinalAltitudeKm float64    `json:"final_altitude_km"`
	Reason          StopReason `json:"reason"`
}

// SteppedLifetimeDays lowers the orbit one revolution at a time, taking
// density, Δa and period at the current altitude each time, until the
// altitude drops below the floor or the table, or MaxRevs is reached.
func (t *Table) SteppedLifetimeDays(p Params, opt StepOptions) (SteppedResult, error) {
	if err := p.validate(); err != nil {
		return SteppedResult{}, err
	}
	if opt.FloorKm == 0 {
		opt.FloorKm = 120
	}
	if opt.MaxRevs == 0 {
		opt.MaxRevs = 2_000_000
	}
	if _, err := t.Band(p.AltitudeKm); err != nil {
		return SteppedResult{}, err
	}

	res := SteppedResult{FinalAltitudeKm: p.AltitudeKm}
	a, h := p.SMAKm, p.AltitudeKm
	k := p.ballistic()
	for {
		if h < opt.FloorKm {
			res.Reason = StopFloor
			break
		}
		if res.Revolutions >= opt.MaxRevs {
			res.Reason = StopMaxRevs
			break
		}
		rho, err := t.DensityAt(h)
		if err != nil {
			res.Reason = StopTable
			break
		}
		res.Days += periodSec(a) / 86400
		da := -2 * math.Pi * k * a * a * rho * 1e9
		a += da
		h += da
		res.Revolutions++
		res.FinalAltitudeKm = h
	}
	return res, nil
}

// DecayPerRevolution evaluates the default table.
func DecayPerRevolution(p Params) (float64, error) {
	t, err := Default()
	if err != nil {
		return 0, err
	}
	return t.DecayPerRevolution(p)
}

// EstimateLifetimeDays evaluates the default table.
func EstimateLifetimeDays(p Params) (float64, error) {
	t, err := Default()
	if err != nil {
		return 0, err
	}
	return t.EstimateLifetimeDays(p)
}

// SteppedLifetimeDays evaluates the default table.
func SteppedLifetimeDays(p Params, opt StepOptions) (SteppedResult, error) {
	t, err := Default()
	if err != nil {
		return SteppedResult{}, err
	}
	return t.SteppedLifetimeDays(p, opt)
}
