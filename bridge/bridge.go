// Package bridge runs a drivers.IoDriver as a long lived service: inputs are
// polled on a ticker and their state changes are published over mqtt, while
// outputs are driven by mqtt set messages.
package bridge

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/rpigpio/drivers"
	"github.com/hubertat/rpigpio/mqtt"
)

const defaultTopicPrefix = "rpigpio"

// MqttConnector is the subset of mqtt.MqttClient used by the bridge.
type MqttConnector interface {
	mqtt.Publisher
	Connect(ctx context.Context, handlers []mqtt.MqttHandler) error
	Disconnect(ctx context.Context) error
}

type Bridge struct {
	Driver      drivers.IoDriver
	Inputs      []uint16
	Outputs     []uint16
	TopicPrefix string
	Logger      *log.Logger

	mqttClient MqttConnector

	lock   sync.Mutex
	states map[uint16]bool
}

func (br *Bridge) logger() *log.Logger {
	if br.Logger == nil {
		br.Logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "Bridge: ",
			Level:  log.GetLevel(),
		})
	}
	return br.Logger
}

func (br *Bridge) topicPrefix() string {
	if len(br.TopicPrefix) > 0 {
		return strings.TrimSuffix(br.TopicPrefix, "/")
	}
	return defaultTopicPrefix
}

func (br *Bridge) InitDriver(ctx context.Context) error {
	if br.Driver == nil {
		return errors.New("bridge driver not set")
	}

	err := br.Driver.Setup(ctx, br.Inputs, br.Outputs)
	if err != nil {
		return errors.Wrapf(err, "failed to setup %s driver", br.Driver)
	}
	if !br.Driver.IsReady() {
		return errors.Errorf("driver %s not ready after setup", br.Driver)
	}
	return nil
}

func (br *Bridge) InitMqtt(ctx context.Context, mc MqttConnector) error {
	if mc == nil {
		return errors.New("mqtt client not set")
	}

	err := mc.Connect(ctx, br.Driver.SetMqtt(mc))
	if err != nil {
		return errors.Wrap(err, "failed to connect to mqtt broker")
	}
	br.mqttClient = mc
	return nil
}

// Sync reads every input and publishes the ones that changed since the
// previous Sync. Read errors are collected and returned together.
func (br *Bridge) Sync() (err error) {
	br.lock.Lock()
	defer br.lock.Unlock()

	if br.states == nil {
		br.states = make(map[uint16]bool)
	}

	inputs, _ := br.Driver.GetAllIo()
	for _, pin := range inputs {
		in, getErr := br.Driver.GetInput(pin)
		if getErr != nil {
			err = joinErr(err, getErr)
			continue
		}
		state, readErr := in.GetState()
		if readErr != nil {
			err = joinErr(err, readErr)
			continue
		}

		previous, known := br.states[pin]
		br.states[pin] = state
		if known && previous == state {
			continue
		}

		br.logger().Debug("input changed", "pin", pin, "state", state)
		if br.mqttClient != nil {
			payload := "0"
			if state {
				payload = "1"
			}
			pubErr := br.mqttClient.Publish(fmt.Sprintf("%s/%d/state", br.topicPrefix(), pin), []byte(payload))
			if pubErr != nil {
				err = joinErr(err, pubErr)
			}
		}
	}
	return
}

func joinErr(err, next error) error {
	if err == nil {
		return next
	}
	return errors.Wrap(err, next.Error())
}

// Run syncs on every tick until ctx is done.
func (br *Bridge) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := br.Sync()
			if err != nil {
				br.logger().Error("Received error(s) from syncing io", "err", err)
			}
		}
	}
}

func (br *Bridge) Close(ctx context.Context) (err error) {
	if br.mqttClient != nil {
		err = br.mqttClient.Disconnect(ctx)
		br.mqttClient = nil
	}

	if br.Driver != nil {
		closeErr := br.Driver.Close()
		if closeErr != nil {
			err = joinErr(err, closeErr)
		}
	}
	return
}

func (br *Bridge) PrintIoStatus(writer io.Writer) {
	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "=== active io driver ===")
	fmt.Fprintf(writer, "| driver: %s\n", br.Driver)
	inputs, outputs := br.Driver.GetAllIo()
	fmt.Fprintf(writer, "| in pins: ")
	for _, inpin := range inputs {
		fmt.Fprintf(writer, "%d, ", inpin)
	}
	fmt.Fprintf(writer, "\n| out pins: ")
	for _, outpin := range outputs {
		fmt.Fprintf(writer, "%d, ", outpin)
	}
	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "-----------------------------")
}
