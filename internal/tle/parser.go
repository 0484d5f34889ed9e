package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// LineLength is the fixed width of a TLE data line, checksum included.
const LineLength = 69

const deg2rad = math.Pi / 180.0

// Parse reads 2-line or 3-line NORAD TLE text from r and returns the
// element sets it contains. Malformed entries are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]ElementSet, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var sets []ElementSet
	for i := 0; i+1 < len(lines); {
		name := ""
		if !strings.HasPrefix(lines[i], "1 ") {
			if i+2 >= len(lines) {
				break
			}
			name = strings.TrimSpace(strings.TrimPrefix(lines[i], "0 "))
			i++
		}
		line1, line2 := lines[i], lines[i+1]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		es, err := FromLines(name, line1, line2)
		if err != nil {
			logger.Warn("skipping TLE entry", "name", name, "error", err)
			i += 2
			continue
		}
		sets = append(sets, es)
		i += 2
	}

	return sets, nil
}

// FromLines parses one fixed-column TLE. The lines must be LineLength
// characters (trailing whitespace is ignored) with valid checksums.
func FromLines(name, line1, line2 string) (ElementSet, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")

	if err := checkLine(1, line1); err != nil {
		return ElementSet{}, err
	}
	if err := checkLine(2, line2); err != nil {
		return ElementSet{}, err
	}

	id1, err := parseInt(1, "catalog number", line1[2:7])
	if err != nil {
		return ElementSet{}, err
	}
	id2, err := parseInt(2, "catalog number", line2[2:7])
	if err != nil {
		return ElementSet{}, err
	}
	if id1 != id2 {
		return ElementSet{}, &FormatError{Line: 2, Field: "catalog number", Value: line2[2:7],
			Reason: fmt.Sprintf("does not match line 1 (%d)", id1)}
	}

	epochStr := strings.TrimSpace(line1[18:32])
	epoch, err := parseEpoch(epochStr)
	if err != nil {
		return ElementSet{}, &FormatError{Line: 1, Field: "epoch", Value: epochStr, Reason: err.Error()}
	}

	es := ElementSet{
		Name:    strings.TrimSpace(name),
		NORADID: id1,
		Epoch:   epoch,
		Source:  SourceLines,
		Line1:   line1,
		Line2:   line2,
	}

	if es.MeanMotionDot, err = parseFloat(1, "mean motion dot", line1[33:43]); err != nil {
		return ElementSet{}, err
	}
	if es.MeanMotionDDot, err = parseImpliedExponent(1, "mean motion ddot", line1[44:52]); err != nil {
		return ElementSet{}, err
	}
	if es.BStar, err = parseImpliedExponent(1, "bstar", line1[53:61]); err != nil {
		return ElementSet{}, err
	}

	var incl, raan, argp, ma float64
	if incl, err = parseFloat(2, "inclination", line2[8:16]); err != nil {
		return ElementSet{}, err
	}
	if raan, err = parseFloat(2, "raan", line2[17:25]); err != nil {
		return ElementSet{}, err
	}
	if es.Eccentricity, err = parseFloat(2, "eccentricity", "0."+strings.TrimSpace(line2[26:33])); err != nil {
		return ElementSet{}, err
	}
	if argp, err = parseFloat(2, "argument of perigee", line2[34:42]); err != nil {
		return ElementSet{}, err
	}
	if ma, err = parseFloat(2, "mean anomaly", line2[43:51]); err != nil {
		return ElementSet{}, err
	}
	if es.MeanMotion, err = parseFloat(2, "mean motion", line2[52:63]); err != nil {
		return ElementSet{}, err
	}

	es.Inclination = incl * deg2rad
	es.RAAN = raan * deg2rad
	es.ArgPerigee = argp * deg2rad
	es.MeanAnomaly = ma * deg2rad
	return es, nil
}

// FromFields builds an element set from a structured record. Physical
// validity (for example a zero mean motion) is left to the propagator.
func FromFields(f Fields) (ElementSet, error) {
	if f.Epoch.IsZero() {
		return ElementSet{}, &FormatError{Field: "EPOCH", Reason: "missing"}
	}
	checks := []struct {
		name string
		v    float64
	}{
		{"ECCENTRICITY", f.Eccentricity},
		{"INCLINATION", f.InclinationDeg},
		{"RA_OF_ASC_NODE", f.RAANDeg},
		{"ARG_OF_PERICENTER", f.ArgPerigeeDeg},
		{"MEAN_ANOMALY", f.MeanAnomalyDeg},
		{"MEAN_MOTION", f.MeanMotion},
		{"BSTAR", f.BStar},
		{"MEAN_MOTION_DOT", f.MeanMotionDot},
		{"MEAN_MOTION_DDOT", f.MeanMotionDDot},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return ElementSet{}, &FormatError{Field: c.name, Value: strconv.FormatFloat(c.v, 'g', -1, 64), Reason: "not a finite number"}
		}
	}

	return ElementSet{
		Name:           strings.TrimSpace(f.Name),
		NORADID:        f.NORADID,
		Epoch:          f.Epoch.UTC(),
		Source:         SourceFields,
		Eccentricity:   f.Eccentricity,
		Inclination:    f.InclinationDeg * deg2rad,
		RAAN:           f.RAANDeg * deg2rad,
		ArgPerigee:     f.ArgPerigeeDeg * deg2rad,
		MeanAnomaly:    f.MeanAnomalyDeg * deg2rad,
		MeanMotion:     f.MeanMotion,
		MeanMotionDot:  f.MeanMotionDot,
		MeanMotionDDot: f.MeanMotionDDot,
		BStar:          f.BStar,
	}, nil
}

// Checksum returns the modulo-10 checksum of the first 68 columns of a TLE
// line: digits count their value, '-' counts as one, everything else zero.
func Checksum(line string) int {
	sum := 0
	for i := 0; i < len(line) && i < LineLength-1; i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

func checkLine(n int, line string) error {
	if len(line) != LineLength {
		return &FormatError{Line: n, Field: "line", Value: line,
			Reason: fmt.Sprintf("length %d, expected %d", len(line), LineLength)}
	}
	if line[0] != byte('0'+n) || line[1] != ' ' {
		return &FormatError{Line: n, Field: "line number", Value: line[:2],
			Reason: fmt.Sprintf("expected %q", fmt.Sprintf("%d ", n))}
	}
	last := line[LineLength-1]
	if last < '0' || last > '9' {
		return &FormatError{Line: n, Field: "checksum", Value: string(last), Reason: "not a digit"}
	}
	if want := Checksum(line); int(last-'0') != want {
		return &FormatError{Line: n, Field: "checksum", Value: string(last),
			Reason: fmt.Sprintf("computed %d", want)}
	}
	return nil
}

func parseInt(line int, field, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &FormatError{Line: line, Field: field, Value: s, Reason: "not an integer"}
	}
	return v, nil
}

func parseFloat(line int, field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FormatError{Line: line, Field: field, Value: s, Reason: "not a number"}
	}
	return v, nil
}

// parseImpliedExponent decodes the 8-column "±MMMMM±E" notation used for
// BSTAR and n̈/6, which means ±0.MMMMM × 10^±E.
func parseImpliedExponent(line int, field, s string) (float64, error) {
	if len(s) != 8 {
		return 0, &FormatError{Line: line, Field: field, Value: s, Reason: "expected 8 columns"}
	}
	mant := strings.TrimSpace(s[:6])
	exp := strings.TrimSpace(s[6:])
	if mant == "" {
		return 0, nil
	}
	sign := 1.0
	switch mant[0] {
	case '-':
		sign = -1
		mant = mant[1:]
	case '+':
		mant = mant[1:]
	}
	m, err := strconv.ParseFloat(strings.TrimSpace(mant), 64)
	if err != nil {
		return 0, &FormatError{Line: line, Field: field, Value: s, Reason: "invalid mantissa"}
	}
	e := 0
	if exp != "" {
		if e, err = strconv.Atoi(exp); err != nil {
			return 0, &FormatError{Line: line, Field: field, Value: s, Reason: "invalid exponent"}
		}
	}
	return sign * m * 1e-5 * math.Pow(10, float64(e)), nil
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %v out of range", dayOfYear)
	}

	// dayOfYear is 1-based: day 1 = Jan 1. Round to the microsecond, the
	// resolution of the 8 fractional digits.
	dur := time.Duration((dayOfYear - 1) * float64(24*time.Hour)).Round(time.Microsecond)
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Add(dur), nil
}
