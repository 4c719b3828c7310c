package rpigpio

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// OperatingMode selects the pin numbering scheme used by the gpio utility.
type OperatingMode int

const (
	ModeBCM      OperatingMode = 0
	ModeBoard    OperatingMode = 1
	ModeWiringPi OperatingMode = 2
)

func (om OperatingMode) Valid() bool {
	switch om {
	case ModeBCM, ModeBoard, ModeWiringPi:
		return true
	}
	return false
}

func (om OperatingMode) String() string {
	switch om {
	case ModeBCM:
		return "bcm"
	case ModeBoard:
		return "board"
	case ModeWiringPi:
		return "wiringpi"
	}
	return "OperatingMode(" + strconv.Itoa(int(om)) + ")"
}

// flag returns the gpio switch for the numbering scheme, empty for wiringpi.
func (om OperatingMode) flag() string {
	switch om {
	case ModeBCM:
		return "-g"
	case ModeBoard:
		return "-1"
	}
	return ""
}

type PinMode string

const (
	PinModeIn    PinMode = "in"
	PinModeOut   PinMode = "out"
	PinModePwm   PinMode = "pwm"
	PinModeClock PinMode = "clock"
	PinModeUp    PinMode = "up"
	PinModeDown  PinMode = "down"
	PinModeTri   PinMode = "tri"
)

func (pm PinMode) Valid() bool {
	switch pm {
	case PinModeIn, PinModeOut, PinModePwm, PinModeClock, PinModeUp, PinModeDown, PinModeTri:
		return true
	}
	return false
}

// Exportable reports whether the mode is accepted by gpio export.
func (pm PinMode) Exportable() bool {
	return pm == PinModeIn || pm == PinModeOut
}

func (pm PinMode) String() string {
	return string(pm)
}

// PinEdge is the transition an exported pin raises interrupts on.
type PinEdge string

const (
	EdgeRising  PinEdge = "rising"
	EdgeFalling PinEdge = "falling"
	EdgeBoth    PinEdge = "both"
	EdgeNone    PinEdge = "none"
)

func (pe PinEdge) Valid() bool {
	switch pe {
	case EdgeRising, EdgeFalling, EdgeBoth, EdgeNone:
		return true
	}
	return false
}

func (pe PinEdge) String() string {
	return string(pe)
}

// Pin is a pin number, interpreted according to the OperatingMode.
type Pin uint

func (p Pin) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

func OperatingModes() []OperatingMode {
	return []OperatingMode{ModeBCM, ModeBoard, ModeWiringPi}
}

func PinModes() []PinMode {
	return []PinMode{
		PinModeIn,
		PinModeOut,
		PinModePwm,
		PinModeClock,
		PinModeDown,
		PinModeUp,
		PinModeTri,
	}
}

func PinEdges() []PinEdge {
	return []PinEdge{EdgeRising, EdgeFalling, EdgeBoth, EdgeNone}
}

// ParseOperatingMode accepts the mode names (case insensitive) as well as
// their numeric values.
func ParseOperatingMode(s string) (OperatingMode, error) {
	s = strings.TrimSpace(s)
	for _, om := range OperatingModes() {
		if strings.EqualFold(s, om.String()) || s == strconv.Itoa(int(om)) {
			return om, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidOperatingMode, "unknown operating mode %q", s)
}

func ParsePinMode(s string) (PinMode, error) {
	pm := PinMode(strings.ToLower(strings.TrimSpace(s)))
	if !pm.Valid() {
		return "", errors.Wrapf(ErrInvalidPinMode, "unknown pin mode %q", s)
	}
	return pm, nil
}

func ParsePinEdge(s string) (PinEdge, error) {
	pe := PinEdge(strings.ToLower(strings.TrimSpace(s)))
	if !pe.Valid() {
		return "", errors.Wrapf(ErrInvalidPinEdge, "unknown pin edge %q", s)
	}
	return pe, nil
}

// ParsePinValue accepts 0/1 as well as the on/off and true/false spellings
// used by mqtt payloads.
func ParsePinValue(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "on", "true", "high":
		return 1, nil
	case "0", "off", "false", "low":
		return 0, nil
	}
	return 0, errors.Wrapf(ErrInvalidPinValue, "unknown pin value %q", s)
}

func ParsePin(s string) (Pin, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid pin number %q", s)
	}
	return Pin(n), nil
}

// parseOutput mimics a lenient integer parse of the gpio read output:
// leading whitespace and sign are accepted, parsing stops at the first
// non-digit and anything unparsable yields 0. Values out of int range
// saturate.
func parseOutput(out string) int {
	s := strings.TrimLeft(out, " \t\n\r\v\f")
	sign := 1
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}

	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		digit := int(s[i] - '0')
		if n > (math.MaxInt-digit)/10 {
			if sign < 0 {
				return math.MinInt
			}
			return math.MaxInt
		}
		n = n*10 + digit
	}
	return sign * n
}
