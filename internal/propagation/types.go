package propagation

import "time"

// Frame names the reference frame of a StateVector.
type Frame int

const (
	// FrameTEME is the true-equator mean-equinox frame SGP4 produces.
	FrameTEME Frame = iota
	// FrameEarthFixed is the Greenwich-rotating frame (pseudo-ECEF).
	FrameEarthFixed
)

func (f Frame) String() string {
	if f == FrameEarthFixed {
		return "ecef"
	}
	return "teme"
}

// StateVector is a time-tagged position (km) and velocity (km/s).
type StateVector struct {
	Epoch    time.Time
	Position [3]float64
	Velocity [3]float64
	Frame    Frame
}

// Sample is one trajectory point. Offset is seconds from the trajectory start.
type Sample struct {
	Offset   float64
	Position [3]float64
}

// Trajectory is a fixed-step run of TEME positions. Offsets strictly increase.
type Trajectory struct {
	NORADID int
	Start   time.Time
	Step    time.Duration
	Samples []Sample
}

// At returns the absolute time of sample i.
func (tr *Trajectory) At(i int) time.Time {
	return tr.Start.Add(time.Duration(tr.Samples[i].Offset * float64(time.Second)))
}

// State returns sample i as a TEME state vector with zero velocity.
func (tr *Trajectory) State(i int) StateVector {
	return StateVector{Epoch: tr.At(i), Position: tr.Samples[i].Position, Frame: FrameTEME}
}

// PropConfig holds batch propagation settings.
type PropConfig struct {
	Workers int           // Worker pool size (default: runtime.NumCPU())
	Step    time.Duration // Trajectory sample interval (default: 60s)
	Horizon time.Duration // Default prediction window (default: 24h)
	Gravity Gravity
}
