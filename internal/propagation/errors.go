package propagation

import "fmt"

// ErrorCode identifies why the analytic model rejected an element set or a
// propagation time. Values follow the classic SGP4 numbering.
type ErrorCode int

const (
	// CodeEccentricity: mean or perturbed eccentricity outside [0, 1).
	CodeEccentricity ErrorCode = 1
	// CodeMeanMotion: mean motion not positive (or not a number).
	CodeMeanMotion ErrorCode = 2
	// CodeSemiLatusRectum: semi-latus rectum became negative.
	CodeSemiLatusRectum ErrorCode = 4
	// CodeSubOrbital: perigee of the epoch elements is below the surface.
	CodeSubOrbital ErrorCode = 5
	// CodeDecayed: radius fell below one Earth radius while propagating.
	CodeDecayed ErrorCode = 6
)

func (c ErrorCode) String() string {
	switch c {
	case CodeEccentricity:
		return "eccentricity out of range"
	case CodeMeanMotion:
		return "invalid mean motion"
	case CodeSemiLatusRectum:
		return "negative semi-latus rectum"
	case CodeSubOrbital:
		return "sub-orbital epoch elements"
	case CodeDecayed:
		return "satellite decayed"
	default:
		return fmt.Sprintf("code %d", int(c))
	}
}

// PropagationError is returned for physically invalid elements or when the
// model breaks down at the requested time. It is deterministic: retrying the
// same call yields the same error.
type PropagationError struct {
	Code    ErrorCode
	NORADID int
	// Minutes is the time since epoch at which the failure was detected.
	Minutes float64
	Value   float64
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagation failed for NORAD %d at %+.3f min: %s (value %.6g)",
		e.NORADID, e.Minutes, e.Code, e.Value)
}

// Is matches any PropagationError carrying the same code, so callers can
// write errors.Is(err, propagation.ErrDecayed).
func (e *PropagationError) Is(target error) bool {
	t, ok := target.(*PropagationError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrEccentricity    = &PropagationError{Code: CodeEccentricity}
	ErrMeanMotion      = &PropagationError{Code: CodeMeanMotion}
	ErrSemiLatusRectum = &PropagationError{Code: CodeSemiLatusRectum}
	ErrSubOrbital      = &PropagationError{Code: CodeSubOrbital}
	ErrDecayed         = &PropagationError{Code: CodeDecayed}
)
