package propagation

import (
	"fmt"
	"time"

	"github.com/mcvalenti/BEOMAT/internal/tle"
)

// sgp4Epoch is 1949 December 31 00:00 UT, the origin of the model's epoch days.
var sgp4Epoch = time.Date(1949, time.December, 31, 0, 0, 0, 0, time.UTC)

// Option configures a Propagator.
type Option func(*options)

type options struct {
	gravity Gravity
}

// WithGravity selects the Earth constants. WGS72 is the default.
func WithGravity(g Gravity) Option {
	return func(o *options) { o.gravity = g }
}

// Propagator evaluates one element set at arbitrary times. It is immutable
// after New and safe for concurrent use.
type Propagator struct {
	es    tle.ElementSet
	model *model
}

// New initializes the analytic model for es. Element sets that the model
// cannot represent fail here with a *PropagationError.
func New(es tle.ElementSet, opts ...Option) (*Propagator, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	epoch := es.Epoch.Sub(sgp4Epoch).Seconds() / 86400.0
	noKozai := es.MeanMotion * twoPi / minutesPerDay

	m, err := newModel(o.gravity, es.NORADID, epoch, es.BStar,
		es.Eccentricity, es.ArgPerigee, es.Inclination, es.MeanAnomaly, noKozai, es.RAAN)
	if err != nil {
		return nil, err
	}
	return &Propagator{es: es, model: m}, nil
}

// ElementSet returns the elements the propagator was built from.
func (p *Propagator) ElementSet() tle.ElementSet {
	return p.es
}

// DeepSpace reports whether the SDP4 branch is active (period ≥ 225 min).
func (p *Propagator) DeepSpace() bool {
	return p.model.deepSpace
}

// Propagate returns the TEME state at t. Times before the epoch are allowed.
func (p *Propagator) Propagate(t time.Time) (StateVector, error) {
	return p.PropagateMinutes(t.Sub(p.es.Epoch).Minutes())
}

// PropagateMinutes returns the TEME state tsince minutes from epoch.
func (p *Propagator) PropagateMinutes(tsince float64) (StateVector, error) {
	r, v, err := p.model.propagate(tsince)
	if err != nil {
		return StateVector{}, err
	}
	return StateVector{
		Epoch:    p.es.Epoch.Add(time.Duration(tsince * float64(time.Minute))),
		Position: r,
		Velocity: v,
		Frame:    FrameTEME,
	}, nil
}

// Propagate is the one-shot form of New followed by Propagate.
func Propagate(es tle.ElementSet, t time.Time, opts ...Option) (StateVector, error) {
	p, err := New(es, opts...)
	if err != nil {
		return StateVector{}, err
	}
	return p.Propagate(t)
}

// GenerateTrajectory samples TEME positions at start, start+step, ... up to
// and including start+span. The first failing sample aborts the run.
func GenerateTrajectory(p *Propagator, start time.Time, step, span time.Duration) (*Trajectory, error) {
	if step <= 0 {
		return nil, fmt.Errorf("trajectory step must be positive, got %s", step)
	}
	if span < 0 {
		return nil, fmt.Errorf("trajectory span must not be negative, got %s", span)
	}

	n := int(span/step) + 1
	tr := &Trajectory{
		NORADID: p.es.NORADID,
		Start:   start,
		Step:    step,
		Samples: make([]Sample, 0, n),
	}
	for i := 0; i < n; i++ {
		offset := time.Duration(i) * step
		sv, err := p.Propagate(start.Add(offset))
		if err != nil {
			return nil, fmt.Errorf("sample at +%s: %w", offset, err)
		}
		tr.Samples = append(tr.Samples, Sample{Offset: offset.Seconds(), Position: sv.Position})
	}
	return tr, nil
}
