package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hubertat/rpigpio"
	"github.com/hubertat/rpigpio/bridge"
	"github.com/hubertat/rpigpio/drivers"
	"github.com/hubertat/rpigpio/mqtt"
)

const defaultSyncInterval = "330ms"
const closeTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var syncInterval string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Export configured pins and bridge them to mqtt",
		Long: `Export the inputs and outputs listed in the config file, poll inputs and
publish their state to <topic_prefix>/<pin>/state. Outputs follow messages
sent to <topic_prefix>/<pin>/set. Runs until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, err := time.ParseDuration(syncInterval)
			if err != nil {
				return errors.Wrap(err, "invalid sync interval")
			}
			return a.serve(cmd.Context(), interval)
		},
	}
	cmd.Flags().StringVar(&syncInterval, "sync", defaultSyncInterval, "input sync interval (time.Duration)")

	return cmd
}

func (a *app) serve(ctx context.Context, interval time.Duration) (err error) {
	a.logger.Info("rpigpio serve started", "version", Version, "mode", a.controller.Mode(), "backend", a.cfg.Backend)

	wio := &drivers.WiringIO{
		Controller:    a.controller,
		InvertInputs:  a.cfg.InvertInputs,
		InvertOutputs: a.cfg.InvertOutputs,
		TopicPrefix:   a.cfg.Mqtt.TopicPrefix,
	}
	if len(a.cfg.InputPull) > 0 {
		wio.InputPull, _ = rpigpio.ParsePinMode(a.cfg.InputPull)
	}
	if len(a.cfg.InputEdge) > 0 {
		wio.InputEdge, _ = rpigpio.ParsePinEdge(a.cfg.InputEdge)
	}

	br := &bridge.Bridge{
		Driver:      wio,
		Inputs:      a.cfg.Inputs,
		Outputs:     a.cfg.Outputs,
		TopicPrefix: a.cfg.Mqtt.TopicPrefix,
		Logger:      a.logger,
	}

	a.logger.Info("will init wiring driver...")
	err = br.InitDriver(ctx)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		closeErr := br.Close(closeCtx)
		if closeErr != nil {
			a.logger.Error("failed to close bridge", "err", closeErr)
		}
	}()
	if err != nil {
		return err
	}

	if len(a.cfg.Mqtt.Broker) > 0 {
		mc, mqttErr := mqtt.NewMqttClient(a.cfg.Mqtt.Broker, a.cfg.Mqtt.ClientId)
		if mqttErr != nil {
			return errors.Wrap(mqttErr, "failed to create mqtt client")
		}
		err = br.InitMqtt(ctx, mc)
		if err != nil {
			return err
		}
		a.logger.Info("mqtt connected", "broker", a.cfg.Mqtt.Broker)
	} else {
		a.logger.Info("mqtt broker not configured, disabled")
	}

	br.PrintIoStatus(os.Stdout)

	return br.Run(ctx, interval)
}
