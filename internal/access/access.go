// Package access finds visibility windows of satellites over ground sites.
package access

import (
	"time"

	"github.com/mcvalenti/BEOMAT/internal/metrics"
	"github.com/mcvalenti/BEOMAT/internal/propagation"
	"github.com/mcvalenti/BEOMAT/internal/transform"
)

// Pass is one visibility window: AOS is the first sample at or above the
// mask, LOS the first sample below it.
type Pass struct {
	AOS          time.Time `json:"aos"`
	LOS          time.Time `json:"los"`
	MaxElevation float64   `json:"max_elevation"`
	DurationSec  float64   `json:"duration_sec"`
	// Truncated marks a window still open when the trajectory ended. Only
	// emitted under TruncateOpenWindow.
	Truncated bool `json:"truncated"`
}

// OpenWindowPolicy decides what happens to a window still open at the last
// sample.
type OpenWindowPolicy int

const (
	// DropOpenWindow discards the final partial window.
	DropOpenWindow OpenWindowPolicy = iota
	// TruncateOpenWindow closes it at the last sample and flags it.
	TruncateOpenWindow
)

// ParseOpenWindowPolicy maps "drop" or "truncate" to a policy.
func ParseOpenWindowPolicy(s string) (OpenWindowPolicy, bool) {
	switch s {
	case "", "drop":
		return DropOpenWindow, true
	case "truncate":
		return TruncateOpenWindow, true
	}
	return DropOpenWindow, false
}

func (p OpenWindowPolicy) String() string {
	if p == TruncateOpenWindow {
		return "truncate"
	}
	return "drop"
}

// Option configures ComputeAccess.
type Option func(*options)

type options struct {
	policy OpenWindowPolicy
}

// WithOpenWindow selects the open-window policy. The default drops it.
func WithOpenWindow(p OpenWindowPolicy) Option {
	return func(o *options) { o.policy = p }
}

// tracker is the visibility state carried across the time-ordered scan.
type tracker struct {
	mask    float64
	visible bool
	aos     time.Time
	maxEl   float64
	last    time.Time
	passes  []Pass
}

// observe folds one sample into the state.
func (tr *tracker) observe(t time.Time, el float64) {
	tr.last = t
	switch {
	case !tr.visible && el >= tr.mask:
		tr.visible = true
		tr.aos = t
		tr.maxEl = el
	case tr.visible && el >= tr.mask:
		if el > tr.maxEl {
			tr.maxEl = el
		}
	case tr.visible:
		tr.passes = append(tr.passes, Pass{
			AOS:          tr.aos,
			LOS:          t,
			MaxElevation: tr.maxEl,
			DurationSec:  t.Sub(tr.aos).Seconds(),
		})
		tr.visible = false
		tr.maxEl = 0
	}
}

// finish applies the open-window policy and returns the passes.
func (tr *tracker) finish(policy OpenWindowPolicy) []Pass {
	if tr.visible && policy == TruncateOpenWindow && tr.last.After(tr.aos) {
		tr.passes = append(tr.passes, Pass{
			AOS:          tr.aos,
			LOS:          tr.last,
			MaxElevation: tr.maxEl,
			DurationSec:  tr.last.Sub(tr.aos).Seconds(),
			Truncated:    true,
		})
	}
	return tr.passes
}

// ComputeAccess scans a trajectory against a site and returns the passes in
// acquisition order. Sample times are start plus each sample offset.
func ComputeAccess(traj *propagation.Trajectory, start time.Time, site Site, opts ...Option) []Pass {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	obs := site.Observer()
	tr := tracker{mask: site.MinElevationDeg}
	for i := range traj.Samples {
		sv := traj.State(i)
		at := start.Add(sv.Epoch.Sub(traj.Start))
		look := transform.LookAnglesWithGMST(sv.Position, transform.GMST(at), obs)
		tr.observe(at, look.ElevationDeg)
	}

	passes := tr.finish(o.policy)
	truncated := 0
	if n := len(passes); n > 0 && passes[n-1].Truncated {
		truncated = 1
	}
	metrics.RecordWindows(len(passes)-truncated, truncated)
	return passes
}
