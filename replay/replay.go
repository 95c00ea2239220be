// Package replay runs a generator offline against a trajectory and summarizes the setpoints it
// produced. Cycle timestamps are simulated, optionally with jitter, so the effect of clock
// normalization can be inspected without a robot.
package replay

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/viamrobotics/cartesian-interpolator/generator"
	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
	"github.com/viamrobotics/cartesian-interpolator/trajectory"
)

// Options control the simulated cycle timestamps.
type Options struct {
	// Period is the nominal cycle period.
	Period time.Duration
	// Jitter is the largest deviation of a raw timestamp from its nominal value.
	Jitter time.Duration
	// Seed makes the jitter reproducible.
	Seed int64
	// Tail is how long to keep cycling after the trajectory ends.
	Tail time.Duration
}

// A Sample is the outcome of one simulated cycle.
type Sample struct {
	Cycle    int
	Raw      time.Time
	Logical  time.Time
	State    trajectory.State
	Cursor   int
	Setpoint spatialmath.Pose
}

// Result holds every cycle of a run.
type Result struct {
	Start   time.Time
	Samples []Sample
}

// Run starts gen at the trajectory start holding start, hands it traj, and cycles until Tail
// after the trajectory ends.
func Run(gen *generator.Generator, start spatialmath.Pose, traj *trajectory.Trajectory, opts Options) (*Result, error) {
	if opts.Period <= 0 {
		return nil, errors.New("replay period must be positive")
	}
	if opts.Jitter < 0 || opts.Jitter >= opts.Period {
		return nil, errors.Errorf("replay jitter must be in [0, %v)", opts.Period)
	}
	if err := gen.Start(traj.Start, start, true); err != nil {
		return nil, err
	}
	defer gen.Stop()
	gen.OnNewTrajectory(traj)

	rng := rand.New(rand.NewSource(opts.Seed)) //nolint:gosec
	end := traj.End().Add(opts.Tail)
	res := &Result{Start: traj.Start}
	for cycle := 1; ; cycle++ {
		nominal := traj.Start.Add(time.Duration(cycle) * opts.Period)
		if nominal.After(end) {
			break
		}
		raw := nominal
		if opts.Jitter > 0 {
			raw = raw.Add(time.Duration(rng.Int63n(int64(2*opts.Jitter)+1)) - opts.Jitter)
		}
		logical := gen.Normalize(raw)
		setpoint := gen.Advance(logical)
		res.Samples = append(res.Samples, Sample{
			Cycle:    cycle,
			Raw:      raw,
			Logical:  logical,
			State:    gen.State(),
			Cursor:   gen.Cursor(),
			Setpoint: setpoint,
		})
	}
	return res, nil
}

// Summary describes the motion and timing of a run.
type Summary struct {
	Cycles int
	// MaxStep and MeanStep are setpoint displacements between consecutive cycles in mm.
	MaxStep  float64
	MeanStep float64
	// MeanPeriod and PeriodStdDev describe the spacing of logical timestamps.
	MeanPeriod   time.Duration
	PeriodStdDev time.Duration
}

// Summary computes the run's Summary. A run needs at least two cycles.
func (r *Result) Summary() (Summary, error) {
	if len(r.Samples) < 2 {
		return Summary{}, errors.New("need at least two cycles to summarize")
	}
	steps := make(stats.Float64Data, 0, len(r.Samples)-1)
	periods := make(stats.Float64Data, 0, len(r.Samples)-1)
	for i := 1; i < len(r.Samples); i++ {
		prev, cur := r.Samples[i-1], r.Samples[i]
		steps = append(steps, cur.Setpoint.Point().Sub(prev.Setpoint.Point()).Norm())
		periods = append(periods, float64(cur.Logical.Sub(prev.Logical)))
	}

	maxStep, err := stats.Max(steps)
	if err != nil {
		return Summary{}, err
	}
	meanStep, err := stats.Mean(steps)
	if err != nil {
		return Summary{}, err
	}
	meanPeriod, err := stats.Mean(periods)
	if err != nil {
		return Summary{}, err
	}
	sdPeriod, err := stats.StandardDeviation(periods)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Cycles:       len(r.Samples),
		MaxStep:      maxStep,
		MeanStep:     meanStep,
		MeanPeriod:   time.Duration(meanPeriod),
		PeriodStdDev: time.Duration(sdPeriod),
	}, nil
}

// Table renders every nth sample, and always the last one, as a text table.
func (r *Result) Table(every int) string {
	if every < 1 {
		every = 1
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Cycle", "Raw", "Logical", "State", "Cursor", "Position", "Orientation"})
	for i, s := range r.Samples {
		if i%every != 0 && i != len(r.Samples)-1 {
			continue
		}
		pt := s.Setpoint.Point()
		q := s.Setpoint.Orientation().Quaternion()
		t.AppendRow([]interface{}{
			s.Cycle,
			s.Raw.Sub(r.Start),
			s.Logical.Sub(r.Start),
			s.State,
			s.Cursor,
			fmt.Sprintf("(%.3f, %.3f, %.3f)", pt.X, pt.Y, pt.Z),
			fmt.Sprintf("(%.4f, %.4f, %.4f, %.4f)", q.Real, q.Imag, q.Jmag, q.Kmag),
		})
	}
	return t.Render()
}
