package trajectory

import (
	"time"

	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
)

// State is where a Follower is in the lifetime of its trajectory.
type State int

// The follower moves Idle -> Pending -> Following -> Holding. A new trajectory sends it back to
// Pending from any state.
const (
	// Idle means no trajectory has been received. The setpoint is held.
	Idle State = iota
	// Pending means a trajectory was received but its start time has not passed yet.
	Pending
	// Following means the cursor is inside the trajectory and setpoints are interpolated.
	Following
	// Holding means the trajectory is consumed. The final pose has been latched and is held.
	Holding
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Following:
		return "following"
	case Holding:
		return "holding"
	}
	return "unknown"
}

// A Follower walks the active trajectory as time advances and produces the interpolated setpoint.
// It never reads a clock; the caller supplies the time of every cycle.
//
// A Follower is not safe for concurrent use.
type Follower struct {
	state    State
	active   *Trajectory
	cursor   int
	setpoint spatialmath.Pose
	// startPose is the setpoint when the active trajectory was received. It is the implicit
	// pose at time zero of the trajectory.
	startPose spatialmath.Pose
}

// NewFollower returns an idle Follower holding setpoint.
func NewFollower(setpoint spatialmath.Pose) *Follower {
	return &Follower{setpoint: setpoint}
}

// Reset drops any trajectory and holds setpoint.
func (f *Follower) Reset(setpoint spatialmath.Pose) {
	*f = Follower{setpoint: setpoint}
}

// OnNewTrajectory replaces the active trajectory. The previous one is discarded wherever it was,
// and the new one starts from the current setpoint. A nil trajectory is ignored.
func (f *Follower) OnNewTrajectory(t *Trajectory) {
	if t == nil {
		return
	}
	f.active = t
	f.cursor = 0
	f.startPose = f.setpoint
	f.state = Pending
}

// Advance moves the follower to time now and returns the setpoint for it. Times must not go
// backwards while a trajectory is active.
func (f *Follower) Advance(now time.Time) spatialmath.Pose {
	switch f.state {
	case Idle, Holding:
		return f.setpoint
	case Pending:
		if !f.active.Start.Before(now) {
			return f.setpoint
		}
		f.state = Following
	}

	points := f.active.Points
	for f.cursor < len(points) && !f.active.PointTime(f.cursor).After(now) {
		f.cursor++
	}

	if f.cursor < len(points) {
		f.setpoint = f.interpolate(now)
		return f.setpoint
	}

	// Past the end. An empty trajectory has no final pose, the setpoint stays where it was.
	if len(points) > 0 {
		f.setpoint = points[len(points)-1].Pose
	}
	f.state = Holding
	return f.setpoint
}

// interpolate evaluates the segment ending at the cursor. Times are taken relative to the
// trajectory start.
func (f *Follower) interpolate(now time.Time) spatialmath.Pose {
	end := f.active.Points[f.cursor]
	start := Point{Pose: f.startPose}
	if f.cursor > 0 {
		start = f.active.Points[f.cursor-1]
	}
	return spatialmath.InterpolatePose(
		start.Pose, end.Pose,
		start.TimeFromStart.Seconds(), end.TimeFromStart.Seconds(),
		now.Sub(f.active.Start).Seconds(),
	)
}

// Setpoint returns the most recent setpoint.
func (f *Follower) Setpoint() spatialmath.Pose {
	return f.setpoint
}

// State returns the follower's state.
func (f *Follower) State() State {
	return f.state
}

// Cursor returns the index of the point that ends the current segment. It equals the number of
// points when the trajectory has been consumed.
func (f *Follower) Cursor() int {
	return f.cursor
}

// Trajectory returns the active trajectory, or nil when idle.
func (f *Follower) Trajectory() *Trajectory {
	return f.active
}
