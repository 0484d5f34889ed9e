package tle

import (
	"fmt"
	"time"
)

// Source records which constructor produced an ElementSet.
type Source int

const (
	// SourceLines marks an element set parsed from fixed-column TLE text.
	SourceLines Source = iota + 1
	// SourceFields marks an element set built from a structured record (OMM).
	SourceFields
)

func (s Source) String() string {
	switch s {
	case SourceLines:
		return "lines"
	case SourceFields:
		return "fields"
	default:
		return "unknown"
	}
}

// ElementSet is the canonical mean-element record. FromLines and FromFields
// are the only constructors; both normalize into this struct so the
// propagator never needs to know which input form was used.
//
// Angles are radians, mean motion is rev/day as published.
type ElementSet struct {
	Name    string
	NORADID int
	Epoch   time.Time
	Source  Source

	Eccentricity float64
	Inclination  float64
	RAAN         float64
	ArgPerigee   float64
	MeanAnomaly  float64
	MeanMotion   float64

	// MeanMotionDot is ṅ/2 in rev/day², MeanMotionDDot is n̈/6 in rev/day³,
	// both as carried by TLE line 1.
	MeanMotionDot  float64
	MeanMotionDDot float64
	BStar          float64

	// Line1 and Line2 hold the original text for SourceLines sets.
	Line1 string
	Line2 string
}

// Fields is the structured mean-element record accepted by FromFields.
// Angles are in degrees, mean motion in rev/day.
type Fields struct {
	Name           string
	NORADID        int
	Epoch          time.Time
	Eccentricity   float64
	InclinationDeg float64
	RAANDeg        float64
	ArgPerigeeDeg  float64
	MeanAnomalyDeg float64
	MeanMotion     float64
	BStar          float64
	MeanMotionDot  float64
	MeanMotionDDot float64
}

// FormatError reports a TLE line or element record that cannot be parsed.
// Line is 1 or 2 for TLE text and 0 for structured records.
type FormatError struct {
	Line   int
	Field  string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("element record: field %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("tle line %d: field %s %q: %s", e.Line, e.Field, e.Value, e.Reason)
}

// EpochRange represents the minimum and maximum epoch times in a catalog.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// RangeOf returns the epoch span covered by sets. The zero range is returned
// for an empty slice.
func RangeOf(sets []ElementSet) EpochRange {
	if len(sets) == 0 {
		return EpochRange{}
	}
	r := EpochRange{Min: sets[0].Epoch, Max: sets[0].Epoch}
	for _, s := range sets[1:] {
		if s.Epoch.Before(r.Min) {
			r.Min = s.Epoch
		}
		if s.Epoch.After(r.Max) {
			r.Max = s.Epoch
		}
	}
	return r
}
