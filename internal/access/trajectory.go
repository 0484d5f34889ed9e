package access

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcvalenti/BEOMAT/internal/propagation"
	"github.com/mcvalenti/BEOMAT/internal/transform"
)

// ReadTrajectory reads a trajectory produced outside the analytic propagator,
// for example by a numerical integrator. Each line holds the offset in
// seconds from start and the x, y, z position in km, separated by commas or
// whitespace. An optional header line, blank lines and '#' comments are
// skipped. Earth-fixed samples are rotated into TEME at their own time so the
// result feeds ComputeAccess like a generated trajectory.
//
// Offsets must strictly increase and every position must be plausible for an
// Earth orbiter; the first offending line is reported.
func ReadTrajectory(r io.Reader, noradID int, start time.Time, frame propagation.Frame) (*propagation.Trajectory, error) {
	tr := &propagation.Trajectory{NORADID: noradID, Start: start}
	sc := bufio.NewScanner(r)
	var (
		lineNo int
		header bool
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		if len(fields) < 4 {
			if len(tr.Samples) == 0 && !header {
				header = true
				continue
			}
			return nil, fmt.Errorf("trajectory line %d: want offset x y z, got %d columns", lineNo, len(fields))
		}

		var vals [4]float64
		var err error
		for i := range vals {
			if vals[i], err = strconv.ParseFloat(fields[i], 64); err != nil {
				break
			}
		}
		if err != nil {
			if len(tr.Samples) == 0 && !header {
				header = true
				continue
			}
			return nil, fmt.Errorf("trajectory line %d: %w", lineNo, err)
		}

		s := propagation.Sample{Offset: vals[0], Position: [3]float64{vals[1], vals[2], vals[3]}}
		if n := len(tr.Samples); n > 0 && s.Offset <= tr.Samples[n-1].Offset {
			return nil, fmt.Errorf("trajectory line %d: offset %g not after %g", lineNo, s.Offset, tr.Samples[n-1].Offset)
		}
		if !transform.Plausible(s.Position) {
			return nil, fmt.Errorf("trajectory line %d: implausible position %v km", lineNo, s.Position)
		}
		if frame == propagation.FrameEarthFixed {
			at := start.Add(time.Duration(s.Offset * float64(time.Second)))
			sv := transform.ToInertial(propagation.StateVector{
				Epoch:    at,
				Position: s.Position,
				Frame:    propagation.FrameEarthFixed,
			}, at)
			s.Position = sv.Position
		}
		tr.Samples = append(tr.Samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading trajectory: %w", err)
	}
	if len(tr.Samples) == 0 {
		return nil, fmt.Errorf("trajectory has no samples")
	}
	if len(tr.Samples) > 1 {
		tr.Step = time.Duration((tr.Samples[1].Offset - tr.Samples[0].Offset) * float64(time.Second))
	}
	return tr, nil
}

// LoadTrajectory reads a trajectory file from disk.
func LoadTrajectory(path string, noradID int, start time.Time, frame propagation.Frame) (*propagation.Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trajectory: %w", err)
	}
	defer f.Close()

	tr, err := ReadTrajectory(f, noradID, start, frame)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tr, nil
}
