package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Lerp linearly interpolates a scalar from p0 at time t0 to p1 at time t1, evaluated at time t.
// t0 and t1 must differ; equal bracketing times divide by zero.
func Lerp(p0, p1, t0, t1, t float64) float64 {
	return p0 + (p1-p0)*(t-t0)/(t1-t0)
}

// Slerp performs spherical linear interpolation between two unit quaternions along the shortest
// arc. by=0 returns q0 and by=1 returns q1, component for component.
func Slerp(q0, q1 quat.Number, by float64) quat.Number {
	if by <= 0 {
		return q0
	}
	if by >= 1 {
		return q1
	}

	mq0 := mgl64.Quat{W: q0.Real, V: mgl64.Vec3{q0.Imag, q0.Jmag, q0.Kmag}}
	mq1 := mgl64.Quat{W: q1.Real, V: mgl64.Vec3{q1.Imag, q1.Jmag, q1.Kmag}}

	// q and -q are the same rotation, pick the representative that is closest to q0.
	if mq0.Dot(mq1) < 0 {
		mq1 = mq1.Scale(-1)
	}

	intQ := mgl64.QuatSlerp(mq0, mq1, by)
	return quat.Number{Real: intQ.W, Imag: intQ.V[0], Jmag: intQ.V[1], Kmag: intQ.V[2]}
}

// InterpolatePose returns the pose at time t on the segment that starts at p0 at time t0 and
// ends at p1 at time t1. Position is interpolated linearly on each axis and orientation
// spherically, both using the same time fraction. Outside [t0, t1] the pose saturates at the
// nearer end, so position does not extrapolate.
func InterpolatePose(p0, p1 Pose, t0, t1, t float64) Pose {
	a := Lerp(0, 1, t0, t1, t)
	// Exact at the segment boundaries.
	if a <= 0 {
		return NewPose(p0.Point(), p0.Orientation())
	}
	if a >= 1 {
		return NewPose(p1.Point(), p1.Orientation())
	}

	pt0, pt1 := p0.Point(), p1.Point()
	point := r3.Vector{
		X: Lerp(pt0.X, pt1.X, t0, t1, t),
		Y: Lerp(pt0.Y, pt1.Y, t0, t1, t),
		Z: Lerp(pt0.Z, pt1.Z, t0, t1, t),
	}
	q := Quaternion(Slerp(p0.Orientation().Quaternion(), p1.Orientation().Quaternion(), a))
	return NewPose(point, &q)
}

// Interpolate will return a new Pose that has been interpolated the set amount between two poses.
// Note that position and orientation are interpolated separately, then the two are combined.
// Note that slerp(q1, q2) != slerp(q2, q1)
// p1 and p2 are the two poses to interpolate between, by is a float representing the amount to interpolate between them.
// by == 0 will return p1, by == 1 will return p2, and by == 0.5 will return the pose halfway between them.
func Interpolate(p1, p2 Pose, by float64) Pose {
	return InterpolatePose(p1, p2, 0, 1, by)
}
