// Package sysfs provides small, dependency-free readers for the single-line
// ASCII attribute files the kernel exposes under /sys. It is the only place
// in the library that touches the filesystem contract directly; discovery
// (pkg/sensor) decides which paths to read and what the values mean.
//
// The contract with the kernel side is deliberately minimal: an attribute
// is one integer on one line. mV/mA/µW scaling is applied by the caller,
// not here, because the scale depends on the attribute family (hwmon in*/
// curr* files are milli-units while power* files are micro-watts).
//
// All readers return plain errors; a missing or malformed file is an
// ordinary per-channel condition the sampler recovers from, never a reason
// to log or abort.
package sysfs
