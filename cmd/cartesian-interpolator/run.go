package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"github.com/viamrobotics/cartesian-interpolator/config"
	"github.com/viamrobotics/cartesian-interpolator/control"
	"github.com/viamrobotics/cartesian-interpolator/generator"
	"github.com/viamrobotics/cartesian-interpolator/logging"
	"github.com/viamrobotics/cartesian-interpolator/transport/mqtt"
)

const connectTimeout = 10 * time.Second

// RunAction runs the generator against the configured broker.
func RunAction(c *cli.Context) error {
	cfg, err := config.Read(c.String(flagConfig), logger)
	if err != nil {
		return err
	}
	if cfg.Debug {
		logger.SetLevel(logging.DEBUG)
	}
	if cfg.LogFile != "" {
		fileAppender := logging.NewFileAppender(cfg.LogFile)
		logger.AddAppender(fileAppender)
		defer utils.UncheckedErrorFunc(fileAppender.Close)
	}
	if cfg.Generator.Period() <= 0 {
		return errors.New("generator.ns_interval must be set to run the control loop")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, err := generator.New(&cfg.Generator, logger.Sublogger("generator"))
	if err != nil {
		return err
	}
	ports := control.NewPorts()
	bridge := mqtt.NewBridge(cfg.MQTT, ports, logger.Sublogger("mqtt"))
	loop, err := control.NewLoop(logger.Sublogger("loop"), control.LoopConfig{Period: cfg.Generator.Period()}, gen, ports, bridge)
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := bridge.Connect(connectCtx); err != nil {
		return err
	}
	defer bridge.Close()

	if err := loop.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	logger.Info("shutting down")
	loop.Stop()
	return nil
}

// SchemaAction prints the configuration schema.
func SchemaAction(c *cli.Context) error {
	out, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}
