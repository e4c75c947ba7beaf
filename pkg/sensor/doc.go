// Package sensor discovers the voltage/current rails a board exposes and
// reads them one tick at a time. It feeds the sampler in pkg/monitor.
//
// Two catalog strategies exist and a deployment picks exactly one:
//
//   - RailCatalog: fixed hwmon enumeration for boards whose device tree
//     wires one ina2xx chip per rail (ZCU102-style layouts). Channels are
//     classified into PS/PL subsystems through a static table keyed by the
//     hwmon device identifier, so the sampler can maintain subsystem
//     aggregate channels.
//
//   - ScanCatalog: generic scan of the I2C bus tree for three-channel
//     power-monitor chips (label files under their hwmon or iio:device
//     folders) plus the power-supply class. No subsystem classification;
//     the total prefers a designated system-input rail when one is
//     labelled.
//
// The two strategies deliberately keep their different total-channel
// semantics; Layout carries the shape so the sampler does not guess.
//
// Everything path- or name-derived (value file locations, thresholds,
// classification) is resolved once during discovery and stored on the
// Descriptor. Read is then a handful of single-line file reads per tick
// with no string scanning.
//
// Setting the PWMON_TESTING environment variable points both catalogs at
// fake roots and, when discovery still finds nothing, synthesizes two
// placeholder channels with fixed readings so the rest of the system can
// run without hardware.
package sensor
