package rpigpio

import "github.com/pkg/errors"

var (
	ErrInvalidOperatingMode = errors.New("invalid operating mode")
	ErrInvalidPinMode       = errors.New("invalid pin mode")
	ErrInvalidPinValue      = errors.New("invalid pin value")
	ErrInvalidPinEdge       = errors.New("invalid pin edge")
	ErrNilFactory           = errors.New("command factory is nil")
)
