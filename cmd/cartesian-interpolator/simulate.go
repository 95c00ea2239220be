package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/viamrobotics/cartesian-interpolator/config"
	"github.com/viamrobotics/cartesian-interpolator/generator"
	"github.com/viamrobotics/cartesian-interpolator/replay"
	"github.com/viamrobotics/cartesian-interpolator/spatialmath"
	"github.com/viamrobotics/cartesian-interpolator/transport/mqtt"
)

// SimulateAction replays a trajectory file through a generator and prints what it produced.
func SimulateAction(c *cli.Context) error {
	genCfg := generator.Config{NsInterval: c.Duration(flagPeriod).Nanoseconds()}
	if path := c.String(flagConfig); path != "" {
		cfg, err := config.Read(path, logger)
		if err != nil {
			return err
		}
		genCfg = cfg.Generator
	}

	buf, err := os.ReadFile(c.String(flagTrajectory))
	if err != nil {
		return err
	}
	var msg mqtt.TrajectoryMessage
	if err := json.Unmarshal(buf, &msg); err != nil {
		return errors.Wrap(err, "failed to decode trajectory")
	}
	traj := msg.Trajectory()
	if err := traj.Validate(); err != nil {
		return errors.Wrap(err, "invalid trajectory")
	}

	gen, err := generator.New(&genCfg, logger.Sublogger("generator"))
	if err != nil {
		return err
	}
	res, err := replay.Run(gen, spatialmath.NewZeroPose(), traj, replay.Options{
		Period: genCfg.Period(),
		Jitter: c.Duration(flagJitter),
		Seed:   c.Int64(flagSeed),
		Tail:   c.Duration(flagTail),
	})
	if err != nil {
		return err
	}

	w := c.App.Writer
	if _, err := fmt.Fprintln(w, res.Table(c.Int(flagEvery))); err != nil {
		return err
	}
	summary, err := res.Summary()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "cycles: %d  max step: %.3f mm  mean step: %.3f mm  logical period: %v ± %v\n",
		summary.Cycles, summary.MaxStep, summary.MeanStep, summary.MeanPeriod, summary.PeriodStdDev)
	return err
}
