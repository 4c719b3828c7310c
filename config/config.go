// Package config loads the rpigpio yaml configuration.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hubertat/rpigpio"
)

const (
	BackendProcess = "process"
	BackendRpio    = "rpio"
)

const (
	defaultMode        = "bcm"
	defaultBackend     = BackendProcess
	defaultTopicPrefix = "rpigpio"
	defaultClientId    = "rpigpio"
	defaultLogLevel    = "info"
)

type Mqtt struct {
	Broker      string `yaml:"broker"`
	ClientId    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type Config struct {
	Mode    string `yaml:"mode"`
	Binary  string `yaml:"binary"`
	Backend string `yaml:"backend"`
	// Timeout is a time.Duration string, empty means no timeout.
	Timeout string `yaml:"timeout"`

	Inputs        []uint16 `yaml:"inputs"`
	Outputs       []uint16 `yaml:"outputs"`
	InvertInputs  bool     `yaml:"invert_inputs"`
	InvertOutputs bool     `yaml:"invert_outputs"`
	InputPull     string   `yaml:"input_pull"`
	InputEdge     string   `yaml:"input_edge"`

	Mqtt     Mqtt   `yaml:"mqtt"`
	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		Mode:    defaultMode,
		Binary:  rpigpio.DefaultBinary,
		Backend: defaultBackend,
		Mqtt: Mqtt{
			ClientId:    defaultClientId,
			TopicPrefix: defaultTopicPrefix,
		},
		LogLevel: defaultLogLevel,
	}
}

// Load reads path over the defaults. A missing file is not an error when
// allowMissing is set.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := Default()

	buff, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed reading config file %s", path)
	}

	err = yaml.Unmarshal(buff, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed unmarshalling yaml config %s", path)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.OperatingMode(); err != nil {
		return err
	}
	if len(c.Binary) == 0 {
		return errors.New("binary path is empty")
	}
	switch c.Backend {
	case BackendProcess:
	case BackendRpio:
		if mode, _ := c.OperatingMode(); mode != rpigpio.ModeBCM {
			return errors.Errorf("backend %s requires bcm mode, got %s", BackendRpio, c.Mode)
		}
	default:
		return errors.Errorf("unknown backend %q, use %s or %s", c.Backend, BackendProcess, BackendRpio)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if len(c.InputPull) > 0 {
		pull, err := rpigpio.ParsePinMode(c.InputPull)
		if err != nil {
			return err
		}
		if pull != rpigpio.PinModeUp && pull != rpigpio.PinModeDown && pull != rpigpio.PinModeTri {
			return errors.Wrapf(rpigpio.ErrInvalidPinMode, "input pull %q, use up, down or tri", c.InputPull)
		}
	}
	if len(c.InputEdge) > 0 {
		if _, err := rpigpio.ParsePinEdge(c.InputEdge); err != nil {
			return err
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}

	seen := map[uint16]bool{}
	for _, pin := range append(append([]uint16{}, c.Inputs...), c.Outputs...) {
		if seen[pin] {
			return errors.Errorf("pin %d configured more than once", pin)
		}
		seen[pin] = true
	}
	return nil
}

func (c *Config) OperatingMode() (rpigpio.OperatingMode, error) {
	return rpigpio.ParseOperatingMode(c.Mode)
}

func (c *Config) TimeoutDuration() (time.Duration, error) {
	if len(strings.TrimSpace(c.Timeout)) == 0 {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid timeout %q", c.Timeout)
	}
	if d < 0 {
		return 0, errors.Errorf("negative timeout %s", d)
	}
	return d, nil
}

func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
