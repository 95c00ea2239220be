package control

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/viamrobotics/cartesian-interpolator/generator"
	"github.com/viamrobotics/cartesian-interpolator/logging"
	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
	"github.com/viamrobotics/cartesian-interpolator/trajectory"
)

const period = 10 * time.Millisecond

type fakeEndpoint struct {
	mu        sync.Mutex
	setpoints []spatialmath.Pose
	active    []bool
	err       error
}

func (e *fakeEndpoint) SetSetpoint(ctx context.Context, setpoint spatialmath.Pose) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.setpoints = append(e.setpoints, setpoint)
	return nil
}

func (e *fakeEndpoint) SetActive(ctx context.Context, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = append(e.active, active)
	return nil
}

func (e *fakeEndpoint) snapshot() ([]spatialmath.Pose, []bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]spatialmath.Pose(nil), e.setpoints...), append([]bool(nil), e.active...)
}

func newTestLoop(t *testing.T, clk clock.Clock) (*Loop, *Ports, *fakeEndpoint) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	gen, err := generator.New(&generator.Config{NsInterval: int64(period)}, logger)
	test.That(t, err, test.ShouldBeNil)
	ports := NewPorts()
	endpoint := &fakeEndpoint{}
	loop, err := NewLoop(logger, LoopConfig{Period: period, Clock: clk}, gen, ports, endpoint)
	test.That(t, err, test.ShouldBeNil)
	return loop, ports, endpoint
}

func TestInputPort(t *testing.T) {
	var port InputPort[int]
	v, status := port.Read()
	test.That(t, status, test.ShouldEqual, NoData)
	test.That(t, v, test.ShouldEqual, 0)

	port.Write(3)
	port.Write(4)
	v, status = port.Read()
	test.That(t, status, test.ShouldEqual, NewData)
	test.That(t, v, test.ShouldEqual, 4)

	v, status = port.Read()
	test.That(t, status, test.ShouldEqual, OldData)
	test.That(t, v, test.ShouldEqual, 4)
	test.That(t, status.String(), test.ShouldEqual, "old_data")
}

func TestNewLoopValidation(t *testing.T) {
	logger := logging.NewTestLogger(t)
	gen, err := generator.New(&generator.Config{}, logger)
	test.That(t, err, test.ShouldBeNil)

	_, err = NewLoop(logger, LoopConfig{}, gen, NewPorts(), &fakeEndpoint{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loop period must be positive")

	_, err = NewLoop(logger, LoopConfig{Period: period}, gen, NewPorts(), nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStepWaitsForReadiness(t *testing.T) {
	loop, ports, endpoint := newTestLoop(t, clock.NewMock())
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	err := loop.Step(ctx, now)
	test.That(t, errors.Cause(err), test.ShouldEqual, generator.ErrNoCurrentPose)

	ports.CurrentPose.Write(spatialmath.NewPoseFromPoint(r3.Vector{X: 5}))
	ports.Synchronized.Write(false)
	err = loop.Step(ctx, now.Add(period))
	test.That(t, errors.Cause(err), test.ShouldEqual, generator.ErrNotSynchronized)

	// the flag is sticky once read
	err = loop.Step(ctx, now.Add(period))
	test.That(t, errors.Cause(err), test.ShouldEqual, generator.ErrNotSynchronized)

	// a trajectory sent before the start is kept for the first running cycle
	ports.Trajectory.Write(trajectory.New(now.Add(2*period), trajectory.Point{
		Pose:          spatialmath.NewPoseFromPoint(r3.Vector{X: 105}),
		TimeFromStart: 100 * time.Millisecond,
	}))
	ports.Synchronized.Write(true)
	test.That(t, loop.Step(ctx, now.Add(2*period)), test.ShouldBeNil)
	test.That(t, loop.Step(ctx, now.Add(3*period)), test.ShouldBeNil)

	setpoints, active := endpoint.snapshot()
	test.That(t, active, test.ShouldResemble, []bool{true})
	test.That(t, setpoints, test.ShouldHaveLength, 2)
	test.That(t, setpoints[0].Point().X, test.ShouldAlmostEqual, 5)
	test.That(t, setpoints[1].Point().X, test.ShouldAlmostEqual, 15)
}

func TestStepWithoutSynchronizedPublisher(t *testing.T) {
	loop, ports, endpoint := newTestLoop(t, clock.NewMock())
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	ports.CurrentPose.Write(spatialmath.NewPoseFromPoint(r3.Vector{Y: 2}))
	test.That(t, loop.Step(ctx, now), test.ShouldBeNil)

	setpoints, active := endpoint.snapshot()
	test.That(t, active, test.ShouldResemble, []bool{true})
	test.That(t, setpoints, test.ShouldHaveLength, 1)
	test.That(t, setpoints[0].Point().Y, test.ShouldAlmostEqual, 2)
}

func TestStepEndpointError(t *testing.T) {
	loop, ports, endpoint := newTestLoop(t, clock.NewMock())
	ports.CurrentPose.Write(spatialmath.NewZeroPose())
	ports.Synchronized.Write(true)
	endpoint.err = errors.New("bus down")

	err := loop.Step(context.Background(), time.Unix(1700000000, 0))
	test.That(t, err, test.ShouldBeError, endpoint.err)
}

func TestLoopRunsOnTicker(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	loop, ports, endpoint := newTestLoop(t, mock)
	ports.CurrentPose.Write(spatialmath.NewZeroPose())
	ports.Synchronized.Write(true)

	test.That(t, loop.Start(), test.ShouldBeNil)
	test.That(t, loop.Start(), test.ShouldNotBeNil)

	for i := 1; i <= 3; i++ {
		mock.Add(period)
		testutils.WaitForAssertion(t, func(tb testing.TB) {
			tb.Helper()
			setpoints, _ := endpoint.snapshot()
			test.That(tb, setpoints, test.ShouldHaveLength, i)
		})
	}

	loop.Stop()
	_, active := endpoint.snapshot()
	test.That(t, active, test.ShouldResemble, []bool{true, false})

	// stopping twice is a no-op
	loop.Stop()
	test.That(t, loop.Start(), test.ShouldNotBeNil)
}
