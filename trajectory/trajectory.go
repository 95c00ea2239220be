// Package trajectory holds timestamped Cartesian trajectories and the follower that walks them.
package trajectory

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
)

// unitTolerance is how far from 1 an orientation's magnitude may be before Validate complains.
const unitTolerance = 1e-3

// Point is a pose the trajectory passes through, offset from the start of the trajectory.
type Point struct {
	Pose          spatialmath.Pose
	TimeFromStart time.Duration
}

// Trajectory is an ordered sequence of points anchored at an absolute start time. A trajectory
// must not be modified after it is handed to a Follower.
type Trajectory struct {
	Start  time.Time
	Points []Point
}

// New returns a trajectory starting at start.
func New(start time.Time, points ...Point) *Trajectory {
	return &Trajectory{Start: start, Points: points}
}

// PointTime returns the absolute time of the i-th point.
func (t *Trajectory) PointTime(i int) time.Time {
	return t.Start.Add(t.Points[i].TimeFromStart)
}

// End returns the absolute time of the last point, or the start time for an empty trajectory.
func (t *Trajectory) End() time.Time {
	if len(t.Points) == 0 {
		return t.Start
	}
	return t.PointTime(len(t.Points) - 1)
}

// Duration returns the time from the start of the trajectory to its last point.
func (t *Trajectory) Duration() time.Duration {
	return t.End().Sub(t.Start)
}

// Validate checks the assumptions the Follower makes but does not verify: at least one point,
// non-negative and strictly increasing point times, and unit orientations. A Follower given a
// trajectory that fails validation produces undefined setpoints.
func (t *Trajectory) Validate() error {
	if len(t.Points) == 0 {
		return errors.New("trajectory has no points")
	}

	var errs error
	var prev time.Duration
	for i, pt := range t.Points {
		if pt.Pose == nil {
			errs = multierr.Append(errs, errors.Errorf("point %d has no pose", i))
			continue
		}
		switch {
		case pt.TimeFromStart < 0:
			errs = multierr.Append(errs, errors.Errorf("point %d is before the trajectory start (%v)", i, pt.TimeFromStart))
		case i > 0 && pt.TimeFromStart < prev:
			errs = multierr.Append(errs, errors.Errorf("point %d at %v is earlier than point %d at %v", i, pt.TimeFromStart, i-1, prev))
		case i > 0 && pt.TimeFromStart == prev:
			errs = multierr.Append(errs, errors.Errorf("points %d and %d share the time %v", i-1, i, prev))
		}
		prev = pt.TimeFromStart

		if norm := quat.Abs(pt.Pose.Orientation().Quaternion()); math.Abs(norm-1) > unitTolerance {
			errs = multierr.Append(errs, errors.Errorf("point %d orientation is not a unit quaternion (magnitude %.4f)", i, norm))
		}
	}
	return errs
}
