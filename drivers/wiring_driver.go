package drivers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/paho"
	"github.com/pkg/errors"

	"github.com/hubertat/rpigpio"
	"github.com/hubertat/rpigpio/mqtt"
)

const wiringDriverName = "wiring"
const defaultTopicPrefix = "rpigpio"

// WiringIO exposes pins driven through a rpigpio.Controller.
type WiringIO struct {
	Controller *rpigpio.Controller

	InvertInputs  bool
	InvertOutputs bool

	// InputPull is applied to every input after export, defaults to up.
	InputPull rpigpio.PinMode
	// InputEdge, when set, enables interrupt triggering on inputs.
	InputEdge rpigpio.PinEdge

	TopicPrefix string

	inputs  []*WiringInput
	outputs []*WiringOutput
	logger  *log.Logger
	isReady bool
	// exported is set once Setup starts exporting, ready or not.
	exported bool
}

type WiringInput struct {
	pin    uint16
	invert bool
	driver *WiringIO
}

type WiringOutput struct {
	pin    uint16
	invert bool
	driver *WiringIO

	lock sync.Mutex
}

func (wi *WiringInput) GetState() (state bool, err error) {
	return wi.driver.read(wi.pin, wi.invert)
}

func (wo *WiringOutput) GetState() (state bool, err error) {
	return wo.driver.read(wo.pin, wo.invert)
}

func (wo *WiringOutput) Set(state bool) error {
	wo.lock.Lock()
	defer wo.lock.Unlock()

	if wo.invert {
		state = !state
	}
	value := 0
	if state {
		value = 1
	}

	_, err := wo.driver.Controller.Write(context.Background(), rpigpio.Pin(wo.pin), value)
	if err != nil {
		return errors.Wrapf(err, "failed to set output %d", wo.pin)
	}
	return nil
}

func (wio *WiringIO) read(pin uint16, invert bool) (state bool, err error) {
	value, err := wio.Controller.Read(context.Background(), rpigpio.Pin(pin))
	if err != nil {
		err = errors.Wrapf(err, "failed to read pin %d", pin)
		return
	}

	state = value == 1
	if invert {
		state = !state
	}
	return
}

func (wio *WiringIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	if wio.Controller == nil {
		return errors.New("wiring driver has no controller")
	}
	if wio.logger == nil {
		wio.logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "WiringIO: ",
			Level:  log.GetLevel(),
		})
	}

	pull := wio.InputPull
	if len(pull) == 0 {
		pull = rpigpio.PinModeUp
	}
	if pull != rpigpio.PinModeUp && pull != rpigpio.PinModeDown && pull != rpigpio.PinModeTri {
		return errors.Wrapf(rpigpio.ErrInvalidPinMode, "input pull %q, use up, down or tri", pull)
	}

	wio.inputs = nil
	wio.outputs = nil
	wio.exported = len(inputs) > 0 || len(outputs) > 0

	for _, inPin := range inputs {
		pin := rpigpio.Pin(inPin)
		_, err := wio.Controller.Export(ctx, pin, rpigpio.PinModeIn)
		if err != nil {
			return errors.Wrapf(err, "failed to Setup wiring driver for input %d", inPin)
		}
		_, err = wio.Controller.SetMode(ctx, pin, pull)
		if err != nil {
			return errors.Wrapf(err, "failed to set pull on input %d", inPin)
		}
		if len(wio.InputEdge) > 0 {
			_, err = wio.Controller.Edge(ctx, pin, wio.InputEdge)
			if err != nil {
				return errors.Wrapf(err, "failed to set edge on input %d", inPin)
			}
		}
		wio.inputs = append(wio.inputs, &WiringInput{pin: inPin, invert: wio.InvertInputs, driver: wio})
	}

	for _, outPin := range outputs {
		_, err := wio.Controller.Export(ctx, rpigpio.Pin(outPin), rpigpio.PinModeOut)
		if err != nil {
			return errors.Wrapf(err, "failed to Setup wiring driver for output %d", outPin)
		}
		wio.outputs = append(wio.outputs, &WiringOutput{pin: outPin, invert: wio.InvertOutputs, driver: wio})
	}

	wio.logger.Debug("wiring driver ready", "mode", wio.Controller.Mode(), "inputs", inputs, "outputs", outputs)
	wio.isReady = true
	return nil
}

func (wio *WiringIO) topicPrefix() string {
	if len(wio.TopicPrefix) > 0 {
		return strings.TrimSuffix(wio.TopicPrefix, "/")
	}
	return defaultTopicPrefix
}

func (wio *WiringIO) SetMqtt(publisher mqtt.Publisher) (topics []mqtt.MqttHandler) {
	for _, out := range wio.outputs {
		topics = append(topics, &outputHandler{
			output:     out,
			publisher:  publisher,
			setTopic:   fmt.Sprintf("%s/%d/set", wio.topicPrefix(), out.pin),
			stateTopic: fmt.Sprintf("%s/%d/state", wio.topicPrefix(), out.pin),
			logger:     wio.logger,
		})
	}
	return
}

func (wio *WiringIO) String() string {
	return wiringDriverName
}

func (wio *WiringIO) IsReady() bool {
	return wio.isReady
}

// Close drives all outputs low and unexports every pin, including pins
// exported by a Setup that failed halfway.
func (wio *WiringIO) Close() (err error) {
	wio.isReady = false
	if !wio.exported || wio.Controller == nil {
		return nil
	}
	wio.exported = false

	for _, output := range wio.outputs {
		setErr := output.Set(false)
		if setErr != nil && wio.logger != nil {
			wio.logger.Warn("failed to reset output on close", "pin", output.pin, "err", setErr)
		}
	}

	_, err = wio.Controller.UnexportAll(context.Background())
	return
}

func (wio *WiringIO) GetInput(id uint16) (DigitalInput, error) {
	for _, in := range wio.inputs {
		if in.pin == id {
			return in, nil
		}
	}
	return nil, errors.Errorf("WiringIO Input (id: %d) not found", id)
}

func (wio *WiringIO) GetOutput(id uint16) (DigitalOutput, error) {
	for _, out := range wio.outputs {
		if out.pin == id {
			return out, nil
		}
	}
	return nil, errors.Errorf("WiringIO Output (id: %d) not found", id)
}

func (wio *WiringIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, input := range wio.inputs {
		inputs = append(inputs, input.pin)
	}
	for _, output := range wio.outputs {
		outputs = append(outputs, output.pin)
	}
	return
}

type outputHandler struct {
	output     *WiringOutput
	publisher  mqtt.Publisher
	setTopic   string
	stateTopic string
	logger     *log.Logger
}

func (oh *outputHandler) MqttSubscribeTopic() string {
	return oh.setTopic
}

func (oh *outputHandler) MqttHandle(pub *paho.Publish) {
	value, err := rpigpio.ParsePinValue(string(pub.Payload))
	if err != nil {
		oh.logger.Warn("ignoring mqtt payload", "topic", pub.Topic, "err", err)
		return
	}

	err = oh.output.Set(value == 1)
	if err != nil {
		oh.logger.Error("failed to set output from mqtt", "pin", oh.output.pin, "err", err)
		return
	}

	if oh.publisher == nil {
		return
	}
	err = oh.publisher.Publish(oh.stateTopic, []byte(fmt.Sprint(value)))
	if err != nil {
		oh.logger.Error("failed to publish output state", "topic", oh.stateTopic, "err", err)
	}
}
