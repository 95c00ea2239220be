package mqtt

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/viamrobotics/cartesian-interpolator/control"
	"github.com/viamrobotics/cartesian-interpolator/logging"
	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
	"github.com/viamrobotics/cartesian-interpolator/trajectory"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	paho.Client
	mu        sync.Mutex
	published []published
	err       error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return &doneToken{err: c.err}
}

type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

func newTestBridge(t *testing.T) (*Bridge, *control.Ports, *fakeClient) {
	t.Helper()
	ports := control.NewPorts()
	b := NewBridge(Config{TopicPrefix: "arm/"}, ports, logging.NewTestLogger(t))
	client := &fakeClient{}
	b.client = client
	return b, ports, client
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	test.That(t, cfg.Validate("mqtt"), test.ShouldBeNil)
	test.That(t, cfg.Topics(), test.ShouldResemble, Topics{
		Trajectory:   "interpolator/trajectory",
		Pose:         "interpolator/pose",
		Synchronized: "interpolator/synchronized",
		Command:      "interpolator/command",
		Active:       "interpolator/active",
	})

	cfg = Config{QoS: 3, TopicPrefix: "robot/#"}
	err := cfg.Validate("mqtt")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "qos must be 0, 1 or 2")
	test.That(t, err.Error(), test.ShouldContainSubstring, "must not contain wildcards")
}

func TestPoseMessage(t *testing.T) {
	pose := spatialmath.NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, &spatialmath.R4AA{Theta: math.Pi / 2, RZ: 1})
	decoded := NewPoseMessage(pose).Pose()
	test.That(t, spatialmath.PoseAlmostEqual(decoded, pose), test.ShouldBeTrue)

	var m PoseMessage
	test.That(t, json.Unmarshal([]byte(`{"position":{"x":4}}`), &m), test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(m.Pose(), spatialmath.NewPoseFromPoint(r3.Vector{X: 4})), test.ShouldBeTrue)
}

func TestTrajectoryMessage(t *testing.T) {
	start := time.Unix(1700000000, 500)
	traj := trajectory.New(start,
		trajectory.Point{Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 10}), TimeFromStart: time.Second},
		trajectory.Point{Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 20}), TimeFromStart: 2 * time.Second},
	)
	msg := NewTrajectoryMessage(traj)
	test.That(t, msg.StampNs, test.ShouldEqual, start.UnixNano())
	test.That(t, msg.Points[1].TimeFromStartNs, test.ShouldEqual, int64(2*time.Second))

	decoded := msg.Trajectory()
	test.That(t, decoded.Start.Equal(start), test.ShouldBeTrue)
	test.That(t, decoded.Points, test.ShouldHaveLength, 2)
	test.That(t, decoded.Points[1].TimeFromStart, test.ShouldEqual, 2*time.Second)
	test.That(t, decoded.Points[1].Pose.Point().X, test.ShouldEqual, 20.)
}

func TestHandleTrajectory(t *testing.T) {
	b, ports, _ := newTestBridge(t)

	b.handleTrajectory(nil, &fakeMessage{topic: "arm/trajectory", payload: []byte("{not json")})
	_, status := ports.Trajectory.Read()
	test.That(t, status, test.ShouldEqual, control.NoData)

	// points out of order
	b.handleTrajectory(nil, &fakeMessage{topic: "arm/trajectory", payload: []byte(`{
		"stamp_ns": 1700000000000000000,
		"points": [
			{"time_from_start_ns": 2000000000, "pose": {"position": {"x": 1}}},
			{"time_from_start_ns": 1000000000, "pose": {"position": {"x": 2}}}
		]}`)})
	_, status = ports.Trajectory.Read()
	test.That(t, status, test.ShouldEqual, control.NoData)

	// two points at the same time
	b.handleTrajectory(nil, &fakeMessage{topic: "arm/trajectory", payload: []byte(`{
		"stamp_ns": 1700000000000000000,
		"points": [
			{"time_from_start_ns": 1000000000, "pose": {"position": {"x": 1}}},
			{"time_from_start_ns": 1000000000, "pose": {"position": {"x": 2}}}
		]}`)})
	_, status = ports.Trajectory.Read()
	test.That(t, status, test.ShouldEqual, control.NoData)

	b.handleTrajectory(nil, &fakeMessage{topic: "arm/trajectory", payload: []byte(`{
		"stamp_ns": 1700000000000000000,
		"points": [
			{"time_from_start_ns": 1000000000, "pose": {"position": {"x": 1}, "orientation": {"w": 1}}},
			{"time_from_start_ns": 2000000000, "pose": {"position": {"x": 2}}}
		]}`)})
	traj, status := ports.Trajectory.Read()
	test.That(t, status, test.ShouldEqual, control.NewData)
	test.That(t, traj.Start, test.ShouldEqual, time.Unix(1700000000, 0))
	test.That(t, traj.Points, test.ShouldHaveLength, 2)
}

func TestHandlePoseAndSynchronized(t *testing.T) {
	b, ports, _ := newTestBridge(t)

	b.handlePose(nil, &fakeMessage{topic: "arm/pose", payload: []byte(`{"position":{"x":1,"y":2,"z":3}}`)})
	pose, status := ports.CurrentPose.Read()
	test.That(t, status, test.ShouldEqual, control.NewData)
	test.That(t, pose.Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})

	b.handleSynchronized(nil, &fakeMessage{topic: "arm/synchronized", payload: []byte(`{"synchronized":true}`)})
	synchronized, status := ports.Synchronized.Read()
	test.That(t, status, test.ShouldEqual, control.NewData)
	test.That(t, synchronized, test.ShouldBeTrue)

	b.handleSynchronized(nil, &fakeMessage{topic: "arm/synchronized", payload: []byte(`true`)})
	_, status = ports.Synchronized.Read()
	test.That(t, status, test.ShouldEqual, control.OldData)
}

func TestPublish(t *testing.T) {
	b, _, client := newTestBridge(t)
	ctx := context.Background()

	test.That(t, b.SetActive(ctx, true), test.ShouldBeNil)
	test.That(t, b.SetSetpoint(ctx, spatialmath.NewPoseFromPoint(r3.Vector{Z: 7})), test.ShouldBeNil)

	test.That(t, client.published, test.ShouldHaveLength, 2)
	test.That(t, client.published[0].topic, test.ShouldEqual, "arm/active")
	test.That(t, client.published[0].retained, test.ShouldBeTrue)
	test.That(t, string(client.published[0].payload), test.ShouldEqual, `{"active":true}`)

	test.That(t, client.published[1].topic, test.ShouldEqual, "arm/command")
	var m PoseMessage
	test.That(t, json.Unmarshal(client.published[1].payload, &m), test.ShouldBeNil)
	test.That(t, m.Position.Z, test.ShouldEqual, 7.)
	test.That(t, m.Orientation.W, test.ShouldEqual, 1.)

	client.err = errors.New("not connected")
	err := b.SetActive(ctx, false)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to publish to arm/active")
}
