package mqtt

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Defaults for fields left out of a Config.
const (
	DefaultBroker      = "tcp://localhost:1883"
	DefaultClientID    = "cartesian-interpolator"
	DefaultTopicPrefix = "interpolator"
)

// Config describes the broker connection and the topics a Bridge uses.
type Config struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var err error
	if cfg.QoS > 2 {
		err = multierr.Append(err, errors.Errorf("%s: qos must be 0, 1 or 2, got %d", path, cfg.QoS))
	}
	if strings.ContainsAny(cfg.TopicPrefix, "+#") {
		err = multierr.Append(err, errors.Errorf("%s: topic_prefix %q must not contain wildcards", path, cfg.TopicPrefix))
	}
	return err
}

// withDefaults fills in unset fields. A generated client ID gets a random suffix so that several
// instances can share a broker.
func (cfg Config) withDefaults() Config {
	if cfg.Broker == "" {
		cfg.Broker = DefaultBroker
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID + "-" + uuid.NewString()
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	cfg.TopicPrefix = strings.TrimSuffix(cfg.TopicPrefix, "/")
	return cfg
}

// Topics are the full topic names a Bridge uses.
type Topics struct {
	Trajectory   string
	Pose         string
	Synchronized string
	Command      string
	Active       string
}

// Topics returns the topic names under the configured prefix.
func (cfg Config) Topics() Topics {
	p := cfg.withDefaults().TopicPrefix
	return Topics{
		Trajectory:   p + "/trajectory",
		Pose:         p + "/pose",
		Synchronized: p + "/synchronized",
		Command:      p + "/command",
		Active:       p + "/active",
	}
}
