package mqtt

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
	"github.com/viamrobotics/cartesian-interpolator/trajectory"
)

// PositionMessage is a position in millimeters.
type PositionMessage struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// OrientationMessage is an orientation as a quaternion. An all zero quaternion reads as the
// identity.
type OrientationMessage struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PoseMessage is the wire form of a pose.
type PoseMessage struct {
	Position    PositionMessage    `json:"position"`
	Orientation OrientationMessage `json:"orientation"`
}

// NewPoseMessage encodes p.
func NewPoseMessage(p spatialmath.Pose) PoseMessage {
	pt := p.Point()
	q := p.Orientation().Quaternion()
	return PoseMessage{
		Position:    PositionMessage{X: pt.X, Y: pt.Y, Z: pt.Z},
		Orientation: OrientationMessage{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag},
	}
}

// Pose decodes the message. The orientation is taken as sent, so a quaternion that is not unit
// length stays that way.
func (m PoseMessage) Pose() spatialmath.Pose {
	o := m.Orientation
	if o == (OrientationMessage{}) {
		o.W = 1
	}
	return spatialmath.NewPose(
		r3.Vector{X: m.Position.X, Y: m.Position.Y, Z: m.Position.Z},
		spatialmath.NewQuaternion(o.W, o.X, o.Y, o.Z),
	)
}

// PointMessage is one waypoint, timed relative to the trajectory stamp.
type PointMessage struct {
	TimeFromStartNs int64       `json:"time_from_start_ns"`
	Pose            PoseMessage `json:"pose"`
}

// TrajectoryMessage is the wire form of a trajectory. StampNs is the start time in nanoseconds
// since the Unix epoch.
type TrajectoryMessage struct {
	StampNs int64          `json:"stamp_ns"`
	Points  []PointMessage `json:"points"`
}

// NewTrajectoryMessage encodes t.
func NewTrajectoryMessage(t *trajectory.Trajectory) TrajectoryMessage {
	msg := TrajectoryMessage{
		StampNs: t.Start.UnixNano(),
		Points:  make([]PointMessage, 0, len(t.Points)),
	}
	for _, p := range t.Points {
		msg.Points = append(msg.Points, PointMessage{
			TimeFromStartNs: p.TimeFromStart.Nanoseconds(),
			Pose:            NewPoseMessage(p.Pose),
		})
	}
	return msg
}

// Trajectory decodes the message without validating it.
func (m TrajectoryMessage) Trajectory() *trajectory.Trajectory {
	points := make([]trajectory.Point, 0, len(m.Points))
	for _, p := range m.Points {
		points = append(points, trajectory.Point{
			Pose:          p.Pose.Pose(),
			TimeFromStart: time.Duration(p.TimeFromStartNs),
		})
	}
	return trajectory.New(time.Unix(0, m.StampNs), points...)
}

// SynchronizedMessage reports whether upstream systems are ready for the generator to start.
type SynchronizedMessage struct {
	Synchronized bool `json:"synchronized"`
}

// ActiveMessage reports whether the generator is running.
type ActiveMessage struct {
	Active bool `json:"active"`
}
