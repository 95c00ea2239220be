// Package main runs the Cartesian setpoint interpolator.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/viamrobotics/cartesian-interpolator/logging"
)

const (
	flagConfig     = "config"
	flagDebug      = "debug"
	flagTrajectory = "trajectory"
	flagPeriod     = "period"
	flagJitter     = "jitter"
	flagSeed       = "seed"
	flagTail       = "tail"
	flagEvery      = "every"
)

var logger = logging.NewLogger("entrypoint")

func newApp() *cli.App {
	return &cli.App{
		Name:            "cartesian-interpolator",
		Usage:           "stream interpolated Cartesian setpoints from trajectories",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "connect to the broker and run the control loop until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "load configuration from `FILE`",
					},
				},
				Action: RunAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the configuration file",
				Action: SchemaAction,
			},
			{
				Name:      "simulate",
				Usage:     "replay a trajectory offline and print the setpoints",
				ArgsUsage: "--trajectory <file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagTrajectory,
						Aliases:  []string{"t"},
						Required: true,
						Usage:    "trajectory message as JSON in `FILE`",
					},
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "take the generator settings from `FILE`",
					},
					&cli.DurationFlag{
						Name:  flagPeriod,
						Value: time.Millisecond,
						Usage: "cycle period when no config is given",
					},
					&cli.DurationFlag{
						Name:  flagJitter,
						Usage: "largest deviation of simulated cycle timestamps",
					},
					&cli.Int64Flag{
						Name:  flagSeed,
						Value: 1,
						Usage: "seed for the simulated jitter",
					},
					&cli.DurationFlag{
						Name:  flagTail,
						Value: 10 * time.Millisecond,
						Usage: "keep cycling this long after the trajectory ends",
					},
					&cli.IntFlag{
						Name:  flagEvery,
						Value: 10,
						Usage: "print every `N`th cycle",
					},
				},
				Action: SimulateAction,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
