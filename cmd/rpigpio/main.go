package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hubertat/rpigpio"
	"github.com/hubertat/rpigpio/command"
	"github.com/hubertat/rpigpio/config"
)

var (
	Version string
	Build   string
)

type globalFlags struct {
	config  string
	mode    string
	binary  string
	backend string
	timeout string
	debug   bool
}

// app is shared by all subcommands, populated in PersistentPreRunE and
// released by execute once the command returns.
type app struct {
	flags globalFlags

	cfg        *config.Config
	logger     *log.Logger
	controller *rpigpio.Controller
	closers    []func() error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "rpigpio",
		Short: "Control Raspberry Pi pins through the WiringPi gpio utility",
		Long: `rpigpio validates pin requests and runs them through the WiringPi gpio
utility (or in process through /dev/gpiomem with --backend rpio).

Examples:
  rpigpio export 17 out
  rpigpio --mode board write 11 1
  rpigpio read 4
  rpigpio serve --config /etc/rpigpio/config.yaml`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.config, "config", "c", "config.yaml", "path of the configuration file")
	pf.StringVarP(&a.flags.mode, "mode", "m", "", "pin numbering: bcm, board or wiringpi")
	pf.StringVar(&a.flags.binary, "binary", "", "path of the gpio utility")
	pf.StringVar(&a.flags.backend, "backend", "", "command backend: process or rpio")
	pf.StringVar(&a.flags.timeout, "timeout", "", "timeout of a single gpio command (time.Duration)")
	pf.BoolVar(&a.flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newExportCmd(a),
		newUnexportCmd(a),
		newUnexportAllCmd(a),
		newModeCmd(a),
		newReadCmd(a),
		newWriteCmd(a),
		newEdgeCmd(a),
		newListCmd(),
		newServeCmd(a),
		newInstallCmd(),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.config, !cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	if len(a.flags.mode) > 0 {
		cfg.Mode = a.flags.mode
	}
	if len(a.flags.binary) > 0 {
		cfg.Binary = a.flags.binary
	}
	if len(a.flags.backend) > 0 {
		cfg.Backend = a.flags.backend
	}
	if len(a.flags.timeout) > 0 {
		cfg.Timeout = a.flags.timeout
	}
	if a.flags.debug {
		cfg.LogLevel = "debug"
	}
	err = cfg.Validate()
	if err != nil {
		return err
	}

	log.SetLevel(cfg.Level())
	a.cfg = cfg
	a.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "rpigpio",
		Level:           cfg.Level(),
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	factory, err := a.newFactory()
	if err != nil {
		return err
	}

	mode, _ := cfg.OperatingMode()
	a.controller, err = rpigpio.New(mode, factory, rpigpio.WithBinary(cfg.Binary))
	return err
}

func (a *app) newFactory() (command.Factory, error) {
	switch a.cfg.Backend {
	case config.BackendRpio:
		rf := &command.RpioFactory{Logger: a.logger}
		err := rf.Open()
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rf.Close)
		return rf, nil

	case config.BackendProcess:
		timeout, _ := a.cfg.TimeoutDuration()
		return &command.ProcessFactory{Timeout: timeout, Logger: a.logger}, nil
	}

	return nil, errors.Errorf("unknown backend %q", a.cfg.Backend)
}

func (a *app) close() (err error) {
	for _, closer := range a.closers {
		closeErr := closer()
		if closeErr != nil {
			if err == nil {
				err = closeErr
			} else {
				err = errors.Wrap(err, closeErr.Error())
			}
		}
	}
	a.closers = nil
	return
}

// execute runs root and then releases whatever the command opened, also
// when the command itself failed.
func execute(ctx context.Context, a *app, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	closeErr := a.close()
	if err == nil {
		err = closeErr
	} else if closeErr != nil {
		log.Warn("cleanup failed", "err", closeErr)
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := execute(ctx, a, newRootCmd(a))
	if err != nil {
		log.Error("rpigpio failed", "err", err)
		stop()
		os.Exit(1)
	}
}
