package generator

import (
	"time"

	"github.com/pkg/errors"

	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
)

// Config describes how a Generator keeps time and where it starts.
type Config struct {
	// NsInterval is the nominal control cycle period in nanoseconds. Zero disables clock
	// normalization.
	NsInterval int64 `json:"ns_interval"`

	// ActivatePoseInit starts the generator from InitSetpoint instead of the observed current pose.
	ActivatePoseInit bool                    `json:"activate_pose_init"`
	InitSetpoint     *spatialmath.PoseConfig `json:"init_setpoint,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.NsInterval < 0 {
		return errors.Errorf("%s: ns_interval must not be negative, got %d", path, cfg.NsInterval)
	}
	if !cfg.ActivatePoseInit {
		return nil
	}
	if cfg.InitSetpoint == nil {
		return errors.Errorf("%s: init_setpoint is required when activate_pose_init is set", path)
	}
	if _, err := cfg.InitSetpoint.ParseConfig(); err != nil {
		return errors.Wrapf(err, "%s: invalid init_setpoint", path)
	}
	return nil
}

// Period returns the nominal control cycle period.
func (cfg *Config) Period() time.Duration {
	return time.Duration(cfg.NsInterval)
}
