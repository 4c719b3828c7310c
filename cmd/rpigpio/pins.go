package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hubertat/rpigpio"
)

func pinModeNames(modes []rpigpio.PinMode) string {
	names := make([]string, 0, len(modes))
	for _, m := range modes {
		names = append(names, m.String())
	}
	return strings.Join(names, "|")
}

func pinEdgeNames() string {
	names := []string{}
	for _, e := range rpigpio.PinEdges() {
		names = append(names, e.String())
	}
	return strings.Join(names, "|")
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <pin> <in|out>",
		Short: "Export a pin as input or output",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := rpigpio.ParsePin(args[0])
			if err != nil {
				return err
			}
			_, err = a.controller.Export(cmd.Context(), pin, rpigpio.PinMode(args[1]))
			return err
		},
	}
}

func newUnexportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unexport <pin>",
		Short: "Unexport a pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := rpigpio.ParsePin(args[0])
			if err != nil {
				return err
			}
			_, err = a.controller.Unexport(cmd.Context(), pin)
			return err
		},
	}
}

func newUnexportAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unexportall",
		Short: "Unexport all exported pins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.controller.UnexportAll(cmd.Context())
			return err
		},
	}
}

func newModeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("mode <pin> <%s>", pinModeNames(rpigpio.PinModes())),
		Short: "Set pin function or pull resistor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := rpigpio.ParsePin(args[0])
			if err != nil {
				return err
			}
			_, err = a.controller.SetMode(cmd.Context(), pin, rpigpio.PinMode(args[1]))
			return err
		},
	}
}

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <pin>",
		Short: "Print the logic level of a pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := rpigpio.ParsePin(args[0])
			if err != nil {
				return err
			}
			value, err := a.controller.Read(cmd.Context(), pin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newWriteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "write <pin> <0|1>",
		Short: "Drive an output pin low or high",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := rpigpio.ParsePin(args[0])
			if err != nil {
				return err
			}
			value, err := rpigpio.ParsePinValue(args[1])
			if err != nil {
				return err
			}
			_, err = a.controller.Write(cmd.Context(), pin, value)
			return err
		},
	}
}

func newEdgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("edge <pin> <%s>", pinEdgeNames()),
		Short: "Configure interrupt triggering edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := rpigpio.ParsePin(args[0])
			if err != nil {
				return err
			}
			_, err = a.controller.Edge(cmd.Context(), pin, rpigpio.PinEdge(args[1]))
			return err
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List operating modes, pin modes and pin edges",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			modes := []string{}
			for _, om := range rpigpio.OperatingModes() {
				modes = append(modes, om.String())
			}
			fmt.Fprintf(w, "operating modes: %s\n", strings.Join(modes, ", "))
			fmt.Fprintf(w, "pin modes:       %s\n", strings.ReplaceAll(pinModeNames(rpigpio.PinModes()), "|", ", "))
			fmt.Fprintf(w, "pin edges:       %s\n", strings.ReplaceAll(pinEdgeNames(), "|", ", "))
		},
	}
}
