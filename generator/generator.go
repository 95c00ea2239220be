// Package generator produces one Cartesian setpoint per control cycle from streamed trajectories.
//
// A Generator couples a timing.Normalizer with a trajectory.Follower. Each cycle the caller passes
// the raw cycle time and, when one arrived, a new trajectory:
//
//	gen, err := generator.New(cfg, logger)
//	...
//	if err := gen.Start(now, currentPose, synchronized); err != nil {
//		// not ready, try again later
//	}
//	for {
//		setpoint, err := gen.Update(now, newTrajectory)
//		...
//	}
//
// The generator never reads a clock and never blocks.
package generator

import (
	"time"

	"github.com/pkg/errors"

	"github.com/viamrobotics/cartesian-interpolator/logging"
	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
	"github.com/viamrobotics/cartesian-interpolator/timing"
	"github.com/viamrobotics/cartesian-interpolator/trajectory"
)

var (
	// ErrNotSynchronized is returned by Start while upstream systems do not report readiness.
	ErrNotSynchronized = errors.New("upstream is not synchronized")
	// ErrNoCurrentPose is returned by Start when it should start from the current pose but none
	// was observed.
	ErrNoCurrentPose = errors.New("no current pose available to start from")
	// ErrNotStarted is returned when a cycle is run before a successful Start.
	ErrNotStarted = errors.New("generator is not started")
)

// A Generator is the per-cycle setpoint engine. It is not safe for concurrent use; the caller
// serializes Start, Stop and Update.
type Generator struct {
	cfg        Config
	initPose   spatialmath.Pose
	normalizer *timing.Normalizer
	follower   *trajectory.Follower
	active     bool
	logger     logging.Logger
}

// New validates cfg and returns a stopped Generator.
func New(cfg *Config, logger logging.Logger) (*Generator, error) {
	if cfg == nil {
		return nil, errors.New("generator config is required")
	}
	if err := cfg.Validate("generator"); err != nil {
		return nil, err
	}

	g := &Generator{
		cfg:        *cfg,
		normalizer: timing.NewNormalizer(cfg.Period()),
		logger:     logger,
	}
	if cfg.ActivatePoseInit {
		initPose, err := cfg.InitSetpoint.ParseConfig()
		if err != nil {
			return nil, err
		}
		g.initPose = initPose
	}
	lower, higher := g.normalizer.Bounds()
	logger.Debugw("generator configured",
		"period", cfg.Period(), "lower_bound", lower, "higher_bound", higher, "activate_pose_init", cfg.ActivatePoseInit)
	return g, nil
}

// Start seeds the setpoint and the logical clock. The setpoint comes from the configured initial
// pose, or from current when no initial pose is configured. Start fails, leaving the generator
// stopped, when it needs current and current is nil, or when synchronized is false.
func (g *Generator) Start(now time.Time, current spatialmath.Pose, synchronized bool) error {
	setpoint := g.initPose
	if !g.cfg.ActivatePoseInit {
		if current == nil {
			return ErrNoCurrentPose
		}
		setpoint = current
	}
	if !synchronized {
		return ErrNotSynchronized
	}

	if g.follower == nil {
		g.follower = trajectory.NewFollower(setpoint)
	} else {
		g.follower.Reset(setpoint)
	}
	g.normalizer.Reset(now)
	g.active = true
	g.logger.Infow("generator started", "setpoint", setpoint)
	return nil
}

// Stop marks the generator inactive. The follower keeps its state until the next Start.
func (g *Generator) Stop() {
	if g.active {
		g.logger.Info("generator stopped")
	}
	g.active = false
}

// Active reports whether the generator has been started and not stopped since.
func (g *Generator) Active() bool {
	return g.active
}

// Update runs one control cycle: it accepts newTrajectory when it is not nil, normalizes raw and
// advances the follower to the resulting logical time.
func (g *Generator) Update(raw time.Time, newTrajectory *trajectory.Trajectory) (spatialmath.Pose, error) {
	if !g.active {
		return nil, ErrNotStarted
	}
	if newTrajectory != nil {
		g.OnNewTrajectory(newTrajectory)
	}
	return g.Advance(g.Normalize(raw)), nil
}

// Normalize converts a raw cycle time to logical time.
func (g *Generator) Normalize(raw time.Time) time.Time {
	return g.normalizer.Normalize(raw)
}

// OnNewTrajectory makes t the active trajectory, starting from the current setpoint.
func (g *Generator) OnNewTrajectory(t *trajectory.Trajectory) {
	if g.follower == nil || t == nil {
		return
	}
	g.logger.Debugw("new trajectory", "start", t.Start, "points", len(t.Points), "duration", t.Duration())
	g.follower.OnNewTrajectory(t)
}

// Advance moves the follower to logical time now and returns the setpoint. Before the first Start
// there is no setpoint and Advance returns nil.
func (g *Generator) Advance(now time.Time) spatialmath.Pose {
	if g.follower == nil {
		return nil
	}
	before := g.follower.State()
	setpoint := g.follower.Advance(now)
	if after := g.follower.State(); after != before {
		g.logger.Debugw("trajectory state changed", "from", before, "to", after, "cursor", g.follower.Cursor())
	}
	return setpoint
}

// Setpoint returns the most recent setpoint, or nil before the first Start.
func (g *Generator) Setpoint() spatialmath.Pose {
	if g.follower == nil {
		return nil
	}
	return g.follower.Setpoint()
}

// State returns the state of the trajectory follower.
func (g *Generator) State() trajectory.State {
	if g.follower == nil {
		return trajectory.Idle
	}
	return g.follower.State()
}

// Cursor returns the index of the trajectory point that ends the current segment.
func (g *Generator) Cursor() int {
	if g.follower == nil {
		return 0
	}
	return g.follower.Cursor()
}
