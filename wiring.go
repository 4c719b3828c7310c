// Package rpigpio drives Raspberry Pi pins through the WiringPi gpio utility.
//
// A Controller validates every request and turns it into a gpio invocation:
//
//	<binary> [-g|-1] <subcommand> [<pin>] [<mode|value|edge>]
//
// Running the invocation is left to a command.Factory.
package rpigpio

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/hubertat/rpigpio/command"
)

const DefaultBinary = "/usr/bin/gpio"

type Controller struct {
	command []string
	mode    OperatingMode
	factory command.Factory
}

type Option func(*options)

type options struct {
	binary string
}

// WithBinary overrides the gpio utility path.
func WithBinary(path string) Option {
	return func(o *options) {
		o.binary = path
	}
}

func New(mode OperatingMode, factory command.Factory, opts ...Option) (*Controller, error) {
	if !mode.Valid() {
		return nil, errors.Wrapf(ErrInvalidOperatingMode, "mode %d, available modes are ModeBCM, ModeBoard and ModeWiringPi", int(mode))
	}
	if factory == nil {
		return nil, ErrNilFactory
	}

	o := options{binary: DefaultBinary}
	for _, opt := range opts {
		opt(&o)
	}

	cmd := []string{o.binary}
	if flag := mode.flag(); flag != "" {
		cmd = append(cmd, flag)
	}

	return &Controller{
		command: cmd,
		mode:    mode,
		factory: factory,
	}, nil
}

func (c *Controller) Mode() OperatingMode {
	return c.mode
}

// Command returns a copy of the invocation prefix shared by all operations.
func (c *Controller) Command() []string {
	return append([]string(nil), c.command...)
}

func (c *Controller) prepare(args ...string) []string {
	cmd := make([]string, 0, len(c.command)+len(args))
	cmd = append(cmd, c.command...)
	return append(cmd, args...)
}

func (c *Controller) execute(ctx context.Context, args ...string) (string, error) {
	return c.factory.Create(c.prepare(args...)).Execute(ctx)
}

// Export exports the pin through sysfs as an input or an output.
func (c *Controller) Export(ctx context.Context, pin Pin, mode PinMode) (*Controller, error) {
	if !mode.Exportable() {
		return c, errors.Wrapf(ErrInvalidPinMode, "%q, available modes are in and out", string(mode))
	}

	_, err := c.execute(ctx, "export", pin.String(), string(mode))
	return c, err
}

func (c *Controller) Unexport(ctx context.Context, pin Pin) (*Controller, error) {
	_, err := c.execute(ctx, "unexport", pin.String())
	return c, err
}

func (c *Controller) UnexportAll(ctx context.Context) (*Controller, error) {
	_, err := c.execute(ctx, "unexportall")
	return c, err
}

// SetMode sets the pin function or its pull resistor (up, down, tri).
func (c *Controller) SetMode(ctx context.Context, pin Pin, mode PinMode) (*Controller, error) {
	if !mode.Valid() {
		return c, errors.Wrapf(ErrInvalidPinMode, "%q, available modes are in, out, pwm, clock, down, up and tri", string(mode))
	}

	_, err := c.execute(ctx, "mode", pin.String(), string(mode))
	return c, err
}

// Read returns the logic level reported by gpio read. Output that is not a
// number reads as 0.
func (c *Controller) Read(ctx context.Context, pin Pin) (int, error) {
	out, err := c.execute(ctx, "read", pin.String())
	if err != nil {
		return 0, err
	}
	return parseOutput(out), nil
}

func (c *Controller) Write(ctx context.Context, pin Pin, value int) (*Controller, error) {
	if value != 0 && value != 1 {
		return c, errors.Wrapf(ErrInvalidPinValue, "%d, available values are 0 and 1", value)
	}

	_, err := c.execute(ctx, "write", pin.String(), strconv.Itoa(value))
	return c, err
}

// Edge enables interrupt triggering on the given edge, EdgeNone disables it.
func (c *Controller) Edge(ctx context.Context, pin Pin, edge PinEdge) (*Controller, error) {
	if !edge.Valid() {
		return c, errors.Wrapf(ErrInvalidPinEdge, "%q, available edges are rising, falling, both and none", string(edge))
	}

	_, err := c.execute(ctx, "edge", pin.String(), string(edge))
	return c, err
}
