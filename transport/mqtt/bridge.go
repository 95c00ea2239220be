// Package mqtt connects a control loop to an MQTT broker. Trajectories, the current pose and the
// synchronization flag arrive as JSON messages and are written into the loop's ports. Setpoints
// and the generator's active flag are published back.
//
// Incoming trajectories must pass trajectory.Validate. Anything else is logged and dropped: a
// trajectory with no points, a point without a pose, a non unit orientation, or times that go
// backwards. Adjacent points must also have strictly increasing times, so two points sharing a
// time_from_start_ns drop the whole trajectory.
package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/viamrobotics/cartesian-interpolator/control"
	"github.com/viamrobotics/cartesian-interpolator/logging"
	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
)

// disconnectQuiesce is how long Close lets in-flight work finish, in milliseconds.
const disconnectQuiesce = 250

// A Bridge moves messages between a broker and a control loop. It implements
// control.Controllable.
type Bridge struct {
	cfg    Config
	topics Topics
	client paho.Client
	ports  *control.Ports
	logger logging.Logger
}

var _ control.Controllable = (*Bridge)(nil)

// NewBridge returns a Bridge that is not connected yet.
func NewBridge(cfg Config, ports *control.Ports, logger logging.Logger) *Bridge {
	cfg = cfg.withDefaults()
	b := &Bridge{
		cfg:    cfg,
		topics: cfg.Topics(),
		ports:  ports,
		logger: logger,
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(b.subscribe).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warnw("lost connection to broker", "broker", cfg.Broker, "error", err)
		})
	b.client = paho.NewClient(opts)
	return b
}

// Connect connects to the broker. Subscriptions are made, and remade after a reconnect, by the
// connect handler.
func (b *Bridge) Connect(ctx context.Context) error {
	if err := wait(ctx, b.client.Connect()); err != nil {
		return errors.Wrapf(err, "failed to connect to %s", b.cfg.Broker)
	}
	b.logger.Infow("connected to broker", "broker", b.cfg.Broker, "client_id", b.cfg.ClientID)
	return nil
}

// Close disconnects from the broker.
func (b *Bridge) Close() {
	b.client.Disconnect(disconnectQuiesce)
}

func (b *Bridge) subscribe(client paho.Client) {
	handlers := map[string]paho.MessageHandler{
		b.topics.Trajectory:   b.handleTrajectory,
		b.topics.Pose:         b.handlePose,
		b.topics.Synchronized: b.handleSynchronized,
	}
	for topic, handler := range handlers {
		topic := topic
		token := client.Subscribe(topic, b.cfg.QoS, handler)
		// the connect handler must not block on the client
		utils.PanicCapturingGo(func() {
			if token.WaitTimeout(10*time.Second) && token.Error() == nil {
				b.logger.Debugw("subscribed", "topic", topic)
				return
			}
			b.logger.Errorw("failed to subscribe", "topic", topic, "error", token.Error())
		})
	}
}

func (b *Bridge) handleTrajectory(_ paho.Client, msg paho.Message) {
	var m TrajectoryMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		b.logger.Warnw("dropping undecodable trajectory", "topic", msg.Topic(), "error", err)
		return
	}
	t := m.Trajectory()
	if err := t.Validate(); err != nil {
		b.logger.Warnw("dropping invalid trajectory", "topic", msg.Topic(), "error", err)
		return
	}
	b.logger.Debugw("received trajectory", "start", t.Start, "points", len(t.Points))
	b.ports.Trajectory.Write(t)
}

func (b *Bridge) handlePose(_ paho.Client, msg paho.Message) {
	var m PoseMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		b.logger.Warnw("dropping undecodable pose", "topic", msg.Topic(), "error", err)
		return
	}
	b.ports.CurrentPose.Write(m.Pose())
}

func (b *Bridge) handleSynchronized(_ paho.Client, msg paho.Message) {
	var m SynchronizedMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		b.logger.Warnw("dropping undecodable synchronized flag", "topic", msg.Topic(), "error", err)
		return
	}
	b.ports.Synchronized.Write(m.Synchronized)
}

// SetSetpoint publishes the setpoint on the command topic.
func (b *Bridge) SetSetpoint(ctx context.Context, setpoint spatialmath.Pose) error {
	return b.publish(ctx, b.topics.Command, false, NewPoseMessage(setpoint))
}

// SetActive publishes the generator state on the active topic. The message is retained so late
// subscribers see the current state.
func (b *Bridge) SetActive(ctx context.Context, active bool) error {
	return b.publish(ctx, b.topics.Active, true, ActiveMessage{Active: active})
}

func (b *Bridge) publish(ctx context.Context, topic string, retained bool, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := wait(ctx, b.client.Publish(topic, b.cfg.QoS, retained, payload)); err != nil {
		return errors.Wrapf(err, "failed to publish to %s", topic)
	}
	return nil
}

func wait(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
