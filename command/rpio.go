package command

import (
	"context"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

const bcmNumbering = "-g"

// rpioMaxPin is the highest BCM gpio on the BCM283x header.
const rpioMaxPin = 53

// RpioFactory executes gpio argument lists in process through /dev/gpiomem
// rather than spawning the gpio utility. Only BCM numbering is supported so
// the controller must run in BCM mode.
type RpioFactory struct {
	Logger *log.Logger

	lock   sync.Mutex
	opened bool
	pins   rpioPins
}

// rpioPins is the register access used by RpioFactory, swapped out in tests.
type rpioPins interface {
	open() error
	close() error
	input(pin uint8)
	output(pin uint8)
	pwm(pin uint8)
	clock(pin uint8)
	pullUp(pin uint8)
	pullDown(pin uint8)
	pullOff(pin uint8)
	read(pin uint8) int
	write(pin uint8, high bool)
	detect(pin uint8, edge rpio.Edge)
}

func (rf *RpioFactory) Open() error {
	rf.lock.Lock()
	defer rf.lock.Unlock()

	if rf.opened {
		return nil
	}
	if rf.pins == nil {
		rf.pins = memPins{}
	}
	err := rf.pins.open()
	if err != nil {
		return errors.Wrap(err, "failed to open rpio memory range")
	}
	rf.opened = true
	return nil
}

func (rf *RpioFactory) Close() error {
	rf.lock.Lock()
	defer rf.lock.Unlock()

	if !rf.opened {
		return nil
	}
	rf.opened = false
	return rf.pins.close()
}

func (rf *RpioFactory) Create(args []string) Command {
	return &rpioCommand{
		factory: rf,
		args:    append([]string(nil), args...),
	}
}

type rpioCommand struct {
	factory *RpioFactory
	args    []string
}

func (rc *rpioCommand) Execute(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newError(rc.args, -1, err)
	}

	rc.factory.lock.Lock()
	defer rc.factory.lock.Unlock()

	if !rc.factory.opened {
		return "", newError(rc.args, -1, errors.New("rpio backend not opened"))
	}

	out, err := rc.run(rc.factory.pins)
	if rc.factory.Logger != nil {
		rc.factory.Logger.Debug("rpio command done", "args", rc.args, "out", out, "err", err)
	}
	if err != nil {
		return "", newError(rc.args, 1, err)
	}
	return out, nil
}

func (rc *rpioCommand) run(pins rpioPins) (string, error) {
	// args[0] is the binary path, which is irrelevant here
	if len(rc.args) < 2 || rc.args[1] != bcmNumbering {
		return "", errors.New("rpio backend supports only bcm pin numbering")
	}
	sub := rc.args[2:]
	if len(sub) == 0 {
		return "", errors.New("missing subcommand")
	}

	switch sub[0] {
	case "unexportall":
		return "", nil

	case "unexport":
		_, err := rc.pin(sub, 2)
		return "", err

	case "read":
		pin, err := rc.pin(sub, 2)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(pins.read(pin)), nil

	case "write":
		pin, err := rc.pin(sub, 3)
		if err != nil {
			return "", err
		}
		switch sub[2] {
		case "0":
			pins.write(pin, false)
		case "1":
			pins.write(pin, true)
		default:
			return "", errors.Errorf("invalid value %q", sub[2])
		}
		return "", nil

	case "export", "mode":
		pin, err := rc.pin(sub, 3)
		if err != nil {
			return "", err
		}
		return "", applyMode(pins, pin, sub[0], sub[2])

	case "edge":
		pin, err := rc.pin(sub, 3)
		if err != nil {
			return "", err
		}
		edge, ok := map[string]rpio.Edge{
			"rising":  rpio.RiseEdge,
			"falling": rpio.FallEdge,
			"both":    rpio.AnyEdge,
			"none":    rpio.NoEdge,
		}[sub[2]]
		if !ok {
			return "", errors.Errorf("invalid edge %q", sub[2])
		}
		pins.detect(pin, edge)
		return "", nil
	}

	return "", errors.Errorf("unsupported subcommand %q", sub[0])
}

func (rc *rpioCommand) pin(sub []string, argc int) (uint8, error) {
	if len(sub) != argc {
		return 0, errors.Errorf("%s takes %d arguments, got %d", sub[0], argc-1, len(sub)-1)
	}
	n, err := strconv.ParseUint(sub[1], 10, 8)
	if err != nil || n > rpioMaxPin {
		return 0, errors.Errorf("pin %q out of range (bcm 0-%d)", sub[1], rpioMaxPin)
	}
	return uint8(n), nil
}

func applyMode(pins rpioPins, pin uint8, sub, mode string) error {
	if sub == "export" && mode != "in" && mode != "out" {
		return errors.Errorf("invalid export mode %q", mode)
	}

	switch mode {
	case "in":
		pins.input(pin)
	case "out":
		pins.output(pin)
	case "pwm":
		pins.pwm(pin)
	case "clock":
		pins.clock(pin)
	case "up":
		pins.pullUp(pin)
	case "down":
		pins.pullDown(pin)
	case "tri":
		pins.pullOff(pin)
	default:
		return errors.Errorf("invalid mode %q", mode)
	}
	return nil
}

type memPins struct{}

func (memPins) open() error                      { return rpio.Open() }
func (memPins) close() error                     { return rpio.Close() }
func (memPins) input(pin uint8)                  { rpio.Pin(pin).Input() }
func (memPins) output(pin uint8)                 { rpio.Pin(pin).Output() }
func (memPins) pwm(pin uint8)                    { rpio.Pin(pin).Pwm() }
func (memPins) clock(pin uint8)                  { rpio.Pin(pin).Clock() }
func (memPins) pullUp(pin uint8)                 { rpio.Pin(pin).PullUp() }
func (memPins) pullDown(pin uint8)               { rpio.Pin(pin).PullDown() }
func (memPins) pullOff(pin uint8)                { rpio.Pin(pin).PullOff() }
func (memPins) detect(pin uint8, edge rpio.Edge) { rpio.Pin(pin).Detect(edge) }

func (memPins) read(pin uint8) int {
	if rpio.Pin(pin).Read() == rpio.High {
		return 1
	}
	return 0
}

func (memPins) write(pin uint8, high bool) {
	if high {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
}
