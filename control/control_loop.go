// Package control runs a setpoint generator at a fixed rate and feeds its output downstream.
package control

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/viamrobotics/cartesian-interpolator/generator"
	"github.com/viamrobotics/cartesian-interpolator/logging"
	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
	"github.com/viamrobotics/cartesian-interpolator/trajectory"
)

// Controllable is the downstream consumer of setpoints, typically a motion controller.
type Controllable interface {
	SetSetpoint(ctx context.Context, setpoint spatialmath.Pose) error
	SetActive(ctx context.Context, active bool) error
}

// LoopConfig configures the rate of a Loop.
type LoopConfig struct {
	Period time.Duration
	// Clock drives the loop ticker. Defaults to the wall clock.
	Clock clock.Clock
}

// Loop holds the loop config.
type Loop struct {
	cfg      LoopConfig
	gen      *generator.Generator
	ports    *Ports
	endpoint Controllable
	logger   logging.Logger

	ticker                  *clock.Ticker
	activeBackgroundWorkers sync.WaitGroup
	cancelCtx               context.Context
	cancel                  context.CancelFunc

	mu      sync.Mutex
	running bool
	// lastErr is the last reported Step failure. Repeats are not logged.
	lastErr error
}

// NewLoop constructs a new control loop driving gen from ports into endpoint.
func NewLoop(
	logger logging.Logger,
	cfg LoopConfig,
	gen *generator.Generator,
	ports *Ports,
	endpoint Controllable,
) (*Loop, error) {
	if cfg.Period <= 0 {
		return nil, errors.Errorf("loop period must be positive, got %v", cfg.Period)
	}
	if gen == nil || ports == nil || endpoint == nil {
		return nil, errors.New("loop needs a generator, ports and an endpoint")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	return &Loop{
		cfg:       cfg,
		gen:       gen,
		ports:     ports,
		endpoint:  endpoint,
		logger:    logger,
		cancelCtx: cancelCtx,
		cancel:    cancel,
	}, nil
}

// Step runs one cycle at raw time now. Until the generator is started, every cycle retries the
// start from the latest current pose and synchronization flag. A synchronization flag that was
// never written counts as synchronized; only an explicit false holds the start. A trajectory
// waiting in the ports is only consumed once the generator runs.
func (l *Loop) Step(ctx context.Context, now time.Time) error {
	if !l.gen.Active() {
		current, _ := l.ports.CurrentPose.Read()
		synchronized, status := l.ports.Synchronized.Read()
		if status == NoData {
			synchronized = true
		}
		if err := l.gen.Start(now, current, synchronized); err != nil {
			return errors.Wrap(err, "generator not ready")
		}
		if err := l.endpoint.SetActive(ctx, true); err != nil {
			l.logger.Warnw("failed to report generator active", "error", err)
		}
	}

	var newTrajectory *trajectory.Trajectory
	if t, status := l.ports.Trajectory.Read(); status == NewData {
		newTrajectory = t
	}
	setpoint, err := l.gen.Update(now, newTrajectory)
	if err != nil {
		return err
	}
	return l.endpoint.SetSetpoint(ctx, setpoint)
}

// Start starts the loop.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return errors.New("control loop is already running")
	}
	if l.cancelCtx.Err() != nil {
		return errors.New("cannot restart a stopped control loop")
	}
	l.logger.Infof("running loop every %v", l.cfg.Period)
	l.ticker = l.cfg.Clock.Ticker(l.cfg.Period)

	l.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		for {
			select {
			case <-l.cancelCtx.Done():
				return
			case now := <-l.ticker.C:
				l.report(l.Step(l.cancelCtx, now))
			}
		}
	}, l.activeBackgroundWorkers.Done)
	l.running = true
	return nil
}

// report logs a Step failure when it differs from the previous one.
func (l *Loop) report(err error) {
	if err == nil {
		if l.lastErr != nil {
			l.logger.Info("control loop recovered")
		}
		l.lastErr = nil
		return
	}
	if l.lastErr == nil || l.lastErr.Error() != err.Error() {
		l.logger.Warnw("control loop cycle failed", "error", err)
	}
	l.lastErr = err
}

// Stop stops the loop and reports the generator inactive.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.logger.Debug("closing loop")
	l.cancel()
	l.ticker.Stop()
	l.activeBackgroundWorkers.Wait()
	l.running = false

	l.gen.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.endpoint.SetActive(ctx, false); err != nil {
		l.logger.Warnw("failed to report generator inactive", "error", err)
	}
}

// Period returns the loop's period.
func (l *Loop) Period() time.Duration {
	return l.cfg.Period
}
