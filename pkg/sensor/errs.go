package sensor

import "errors"

var (
	// ErrNoSensors indicates that discovery finished without finding a
	// single usable channel and test mode was not active.
	ErrNoSensors = errors.New("sensor: no power sensors discovered")
)
