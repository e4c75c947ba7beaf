package monitor

import (
	"errors"

	"github.com/socpower/pwmon/pkg/sensor"
)

var (
	// ErrNotInitialized indicates use of a handle after Close.
	ErrNotInitialized = errors.New("monitor: handle not initialized")

	// ErrAlreadyRunning indicates Start on a handle that is sampling.
	ErrAlreadyRunning = errors.New("monitor: sampling already running")

	// ErrNotRunning indicates Stop on a handle that is not sampling.
	ErrNotRunning = errors.New("monitor: sampling not running")

	// ErrInvalidFrequency indicates a sampling frequency <= 0 Hz.
	ErrInvalidFrequency = errors.New("monitor: invalid sampling frequency")

	// ErrNoSensors is discovery's empty-catalog failure, re-exported so
	// callers only need this package for the full error set.
	ErrNoSensors = sensor.ErrNoSensors
)
