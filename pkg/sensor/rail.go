//go:build linux

package sensor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/socpower/pwmon/pkg/system/sysfs"
)

// DefaultHwmonRoot is the hwmon class directory on a stock kernel.
const DefaultHwmonRoot = "/sys/class/hwmon"

// railFamilyPrefix matches the ina2xx driver family (ina226, ina260,
// ina3221) the boards ship for rail monitoring.
const railFamilyPrefix = "ina2"

// maxRailSensors caps the physical channels a catalog will return. The
// three aggregate channels (PS, PL, total) are not counted against it.
const maxRailSensors = 29

type railInfo struct {
	name string
	sub  Subsystem
}

// railTable maps the hwmon device identifier (the chip name plus board
// designator the device tree assigns) to a display name and subsystem
// membership. Identifiers follow the ZCU102 regulator layout.
var railTable = map[string]railInfo{
	"ina226_u76": {"VCCPSINTFP", SubPS},
	"ina226_u77": {"VCCPSINTLP", SubPS},
	"ina226_u78": {"VCCPSAUX", SubPS},
	"ina226_u87": {"VCCPSPLL", SubPS},
	"ina226_u85": {"MGTRAVCC", SubPS},
	"ina226_u86": {"MGTRAVTT", SubPS},
	"ina226_u93": {"VCCPSDDR", SubPS},
	"ina226_u88": {"VCCOPS", SubPS},
	"ina226_u15": {"VCCOPS3", SubPS},
	"ina226_u92": {"VCCPSDDRPLL", SubPS},
	"ina226_u79": {"VCCINT", SubPL},
	"ina226_u81": {"VCCBRAM", SubPL},
	"ina226_u80": {"VCCAUX", SubPL},
	"ina226_u84": {"VCC1V2", SubPL},
	"ina226_u16": {"VCC3V3", SubPL},
	"ina226_u65": {"VADJ_FMC", SubPL},
	"ina226_u74": {"MGTAVCC", SubPL},
	"ina226_u75": {"MGTAVTT", SubPL},
}

// RailCatalog discovers rails through a fixed hwmon enumeration: every
// hwmon device whose name matches the ina2xx family is taken as one
// channel with the conventional in1_input/curr1_input/power1_input files,
// classified via the static rail table.
type RailCatalog struct {
	root     string
	testMode bool
}

// RailOption configures a RailCatalog.
type RailOption func(*RailCatalog)

// WithHwmonRoot overrides the hwmon class directory, mainly for fixtures.
func WithHwmonRoot(dir string) RailOption {
	return func(c *RailCatalog) { c.root = dir }
}

// WithRailTestMode enables placeholder synthesis when nothing is found.
func WithRailTestMode() RailOption {
	return func(c *RailCatalog) { c.testMode = true }
}

// NewRailCatalog builds the hwmon rail catalog. With EnvTesting set in the
// environment the fake root is used and test mode is on.
func NewRailCatalog(opts ...RailOption) *RailCatalog {
	c := &RailCatalog{root: DefaultHwmonRoot}
	if os.Getenv(EnvTesting) != "" {
		c.root = fakeHwmonRoot
		c.testMode = true
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover scans the hwmon root once. Directory order is whatever the OS
// reports; it becomes the stable per-process channel index but is not a
// cross-run identifier, so callers should key on names.
func (c *RailCatalog) Discover() (Layout, error) {
	layout := Layout{HasSubsystems: true, TotalIndex: -1}

	entries, err := os.ReadDir(c.root)
	if err != nil {
		// A missing class directory is equivalent to an empty one; the
		// no-sensors decision below handles both.
		entries = nil
	}

	for _, entry := range entries {
		dev := filepath.Join(c.root, entry.Name())
		if !sysfs.IsDir(dev) {
			continue
		}
		id, err := sysfs.ReadLine(filepath.Join(dev, "name"))
		if err != nil || !strings.HasPrefix(id, railFamilyPrefix) {
			continue
		}
		if len(layout.Sensors) >= maxRailSensors {
			break
		}

		d := Descriptor{
			Name:        id,
			Bus:         BusI2C,
			VoltagePath: filepath.Join(dev, "in1_input"),
			CurrentPath: filepath.Join(dev, "curr1_input"),
		}
		if info, ok := railTable[id]; ok {
			d.Name = info.name
			d.Subsystem = info.sub
		}
		if p := filepath.Join(dev, "power1_input"); sysfs.Exists(p) {
			d.PowerPath = p
		}
		d.WarnPower, d.CritPower = powerThreshold(d.Name)
		d.Online = sysfs.Exists(d.VoltagePath) && sysfs.Exists(d.CurrentPath)
		if !d.Online {
			continue
		}
		layout.Sensors = append(layout.Sensors, d)
	}

	if len(layout.Sensors) == 0 {
		if !c.testMode {
			return Layout{}, ErrNoSensors
		}
		layout.Sensors = placeholders()
	}
	return layout, nil
}
