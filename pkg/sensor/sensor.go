//go:build linux

package sensor

import "strings"

// Bus identifies how a channel reaches the kernel.
type Bus int

const (
	BusUnknown Bus = iota
	BusI2C         // hwmon/iio channel behind an I2C power monitor chip
	BusSystem      // power-supply class entry
)

func (b Bus) String() string {
	switch b {
	case BusI2C:
		return "i2c"
	case BusSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Subsystem is the SoC domain a rail feeds, where the catalog knows it.
type Subsystem int

const (
	SubNone Subsystem = iota
	SubPS             // processing system
	SubPL             // programmable logic
)

func (s Subsystem) String() string {
	switch s {
	case SubPS:
		return "PS"
	case SubPL:
		return "PL"
	default:
		return "-"
	}
}

// Descriptor identifies one measurement channel. It is built once during
// discovery and immutable afterwards; everything the per-tick reader needs
// (paths, thresholds, classification) is resolved here so no string
// matching happens while sampling.
type Descriptor struct {
	Name      string
	Bus       Bus
	Subsystem Subsystem

	// Backing attribute files. PowerPath is optional; when empty, power is
	// derived as V×I.
	VoltagePath string
	CurrentPath string
	PowerPath   string

	// WarnPower/CritPower are the static, name-derived power thresholds.
	WarnPower float64 // W
	CritPower float64 // W

	// TotalInput marks the designated system-input rail a scan catalog
	// prefers over summing when computing the total channel.
	TotalInput bool

	// Placeholder marks a synthesized channel used when no hardware is
	// present in test mode; reads return fixed values instead of touching
	// the filesystem.
	Placeholder bool

	// Online records whether the backing paths resolved at discovery time.
	Online bool
}

// EnvTesting switches the catalogs to the fake sysfs roots and enables
// placeholder synthesis when discovery comes up empty.
const EnvTesting = "PWMON_TESTING"

// Fake roots used when EnvTesting is set, mirroring the layout of the real
// trees so fixtures stay drop-in.
const (
	fakeHwmonRoot  = "/fake_sys/class/hwmon"
	fakeI2CRoot    = "/fake_sys/bus/i2c/devices"
	fakeSupplyRoot = "/fake_sys/class/power_supply"
)

// Layout is the result of discovery: the stable per-process channel order
// plus the aggregation shape the strategy dictates.
type Layout struct {
	Sensors []Descriptor

	// HasSubsystems reports whether descriptors carry PS/PL membership and
	// the sampler should maintain the subsystem aggregate channels.
	HasSubsystems bool

	// TotalIndex is the designated system-input channel the total should
	// mirror, or -1 when the total is always a sum of online channels.
	TotalIndex int
}

// Catalog discovers the channels a deployment exposes. Implementations are
// the hwmon rail table (RailCatalog) and the generic bus scan (ScanCatalog);
// their aggregation semantics differ and are carried on the Layout.
type Catalog interface {
	Discover() (Layout, error)
}

// powerThreshold returns the static warning/critical power thresholds for a
// rail name. Resolved once at discovery and stored on the descriptor.
func powerThreshold(name string) (warn, crit float64) {
	switch {
	case strings.Contains(name, "VDD_IN"):
		return 15, 20
	case strings.Contains(name, "VDD_CPU_GPU_CV"):
		return 10, 15
	case strings.Contains(name, "VDD_SOC"):
		return 5, 8
	default:
		return 3, 5
	}
}

// placeholders are the two synthetic channels handed out in test mode so
// the sampler, statistics and aggregates stay exercisable without hardware.
func placeholders() []Descriptor {
	return []Descriptor{
		{Name: "CPU", Bus: BusSystem, Subsystem: SubPS, Placeholder: true, Online: true, WarnPower: 3, CritPower: 5},
		{Name: "GPU", Bus: BusSystem, Subsystem: SubPL, Placeholder: true, Online: true, WarnPower: 3, CritPower: 5},
	}
}
