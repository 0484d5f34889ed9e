// Package transform converts propagated states between reference frames and
// computes topocentric look angles.
//
// TEME to Earth-fixed is a single rotation about z by GMST (IAU-82), with the
// velocity corrected for Earth rotation. Polar motion and the equation of the
// equinoxes are ignored; the error is tens of meters, well below SGP4's own.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"

	"github.com/mcvalenti/BEOMAT/internal/propagation"
)

// ToEarthFixed rotates a TEME state into the Earth-fixed frame at t.
// A state already in the Earth-fixed frame is returned unchanged.
func ToEarthFixed(sv propagation.StateVector, t time.Time) propagation.StateVector {
	if sv.Frame == propagation.FrameEarthFixed {
		return sv
	}
	return ToEarthFixedWithGMST(sv, GMST(t))
}

// ToEarthFixedWithGMST is ToEarthFixed with a precomputed GMST angle (radians),
// for callers transforming many states at the same instant.
//
// Position transform: r_ECEF = R3(θ) * r_TEME
// Velocity transform: v_ECEF = R3(θ) * v_TEME - ω × r_ECEF
func ToEarthFixedWithGMST(sv propagation.StateVector, gmst float64) propagation.StateVector {
	r := rotateZ(sv.Position, gmst)
	v := rotateZ(sv.Velocity, gmst)

	// ω × r = [-ω*y, ω*x, 0]
	v[0] += OmegaEarth * r[1]
	v[1] -= OmegaEarth * r[0]

	return propagation.StateVector{
		Epoch:    sv.Epoch,
		Position: r,
		Velocity: v,
		Frame:    propagation.FrameEarthFixed,
	}
}

// ToInertial is the inverse of ToEarthFixed.
func ToInertial(sv propagation.StateVector, t time.Time) propagation.StateVector {
	if sv.Frame == propagation.FrameTEME {
		return sv
	}
	gmst := GMST(t)

	v := sv.Velocity
	v[0] -= OmegaEarth * sv.Position[1]
	v[1] += OmegaEarth * sv.Position[0]

	return propagation.StateVector{
		Epoch:    sv.Epoch,
		Position: rotateZ(sv.Position, -gmst),
		Velocity: rotateZ(v, -gmst),
		Frame:    propagation.FrameTEME,
	}
}

// rotateZ applies R3(θ): a frame rotation by θ about z.
func rotateZ(v [3]float64, theta float64) [3]float64 {
	c, s := math.Cos(theta), math.Sin(theta)
	return [3]float64{
		v[0]*c + v[1]*s,
		-v[0]*s + v[1]*c,
		v[2],
	}
}

// Plausible reports whether a position (km) is finite and between 6200 km and
// 50000 km from the geocenter, the band every catalog object should occupy.
func Plausible(pos [3]float64) bool {
	for _, c := range pos {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	mag := math.Sqrt(pos[0]*pos[0] + pos[1]*pos[1] + pos[2]*pos[2])
	return mag >= 6200 && mag <= 50000
}
