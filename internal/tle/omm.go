package tle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OMM is one Orbit Mean-elements Message in the JSON form published by
// CelesTrak and Space-Track. Angles are degrees, mean motion rev/day.
type OMM struct {
	ObjectName      string  `json:"OBJECT_NAME"`
	ObjectID        string  `json:"OBJECT_ID,omitempty"`
	Epoch           string  `json:"EPOCH"`
	NoradCatID      int     `json:"NORAD_CAT_ID"`
	BStar           float64 `json:"BSTAR"`
	MeanMotionDot   float64 `json:"MEAN_MOTION_DOT"`
	MeanMotionDDot  float64 `json:"MEAN_MOTION_DDOT"`
	Eccentricity    float64 `json:"ECCENTRICITY"`
	ArgOfPericenter float64 `json:"ARG_OF_PERICENTER"`
	Inclination     float64 `json:"INCLINATION"`
	MeanAnomaly     float64 `json:"MEAN_ANOMALY"`
	MeanMotion      float64 `json:"MEAN_MOTION"`
	RAOfAscNode     float64 `json:"RA_OF_ASC_NODE"`

	// GP JSON from CelesTrak may also carry the source TLE text.
	TLELine1 string `json:"TLE_LINE1,omitempty"`
	TLELine2 string `json:"TLE_LINE2,omitempty"`
}

// ElementSet normalizes the record. Records that carry TLE text go through
// FromLines so the fixed-column values win; all others through FromFields.
func (o OMM) ElementSet() (ElementSet, error) {
	if o.TLELine1 != "" && o.TLELine2 != "" {
		return FromLines(o.ObjectName, o.TLELine1, o.TLELine2)
	}

	epoch, err := ParseOMMEpoch(o.Epoch)
	if err != nil {
		return ElementSet{}, &FormatError{Field: "EPOCH", Value: o.Epoch, Reason: err.Error()}
	}

	return FromFields(Fields{
		Name:           o.ObjectName,
		NORADID:        o.NoradCatID,
		Epoch:          epoch,
		Eccentricity:   o.Eccentricity,
		InclinationDeg: o.Inclination,
		RAANDeg:        o.RAOfAscNode,
		ArgPerigeeDeg:  o.ArgOfPericenter,
		MeanAnomalyDeg: o.MeanAnomaly,
		MeanMotion:     o.MeanMotion,
		BStar:          o.BStar,
		MeanMotionDot:  o.MeanMotionDot,
		MeanMotionDDot: o.MeanMotionDDot,
	})
}

// ParseOMMs decodes a JSON array of OMM records, or a single object.
func ParseOMMs(data []byte) ([]OMM, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one OMM
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("decoding OMM JSON: %w", err)
		}
		return []OMM{one}, nil
	}

	var omms []OMM
	if err := json.Unmarshal(data, &omms); err != nil {
		return nil, fmt.Errorf("decoding OMM JSON: %w", err)
	}
	return omms, nil
}

var ommLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseOMMEpoch parses an OMM EPOCH value. Values without a zone are UTC.
func ParseOMMEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty epoch")
	}
	for _, layout := range ommLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized epoch format %q", s)
}
