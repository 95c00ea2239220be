package control

import (
	"sync"

	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
	"github.com/viamrobotics/cartesian-interpolator/trajectory"
)

// ReadStatus tells a reader of an InputPort whether the value is worth acting on.
type ReadStatus int

const (
	// NoData means nothing was ever written to the port.
	NoData ReadStatus = iota
	// OldData means the value was already returned by a previous Read.
	OldData
	// NewData means the value was written since the last Read.
	NewData
)

func (s ReadStatus) String() string {
	switch s {
	case NoData:
		return "no_data"
	case OldData:
		return "old_data"
	case NewData:
		return "new_data"
	}
	return "unknown"
}

// An InputPort holds the latest value written by a producer until the control loop reads it.
// Writes never block and overwrite a value nobody has read yet.
type InputPort[T any] struct {
	mu      sync.Mutex
	value   T
	written bool
	fresh   bool
}

// Write stores v as the latest value.
func (p *InputPort[T]) Write(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
	p.written = true
	p.fresh = true
}

// Read returns the latest value and marks it as read.
func (p *InputPort[T]) Read() (T, ReadStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case !p.written:
		return p.value, NoData
	case p.fresh:
		p.fresh = false
		return p.value, NewData
	default:
		return p.value, OldData
	}
}

// Ports are the inputs of a Loop. Producers such as a transport write them from any goroutine.
type Ports struct {
	Trajectory   InputPort[*trajectory.Trajectory]
	CurrentPose  InputPort[spatialmath.Pose]
	Synchronized InputPort[bool]
}

// NewPorts returns empty ports.
func NewPorts() *Ports {
	return &Ports{}
}
