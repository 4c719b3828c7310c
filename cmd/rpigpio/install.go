package main

import (
	"github.com/charmbracelet/log"
	"github.com/hubertat/servicemaker"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var rpigpioService = servicemaker.ServiceMaker{
	User:               "rpigpio",
	UserGroups:         []string{"gpio"},
	ServicePath:        "/etc/systemd/system/rpigpio.service",
	ServiceDescription: "rpigpio service: WiringPi gpio to mqtt bridge. github.com/hubertat/rpigpio",
	ExecDir:            "/srv/rpigpio",
	ExecName:           "rpigpio",
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install rpigpio as a systemd service",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := rpigpioService.InstallService()
			if err != nil {
				return errors.Wrap(err, "failed to install service")
			}
			log.Info("service installed!")
			return nil
		},
	}
}
