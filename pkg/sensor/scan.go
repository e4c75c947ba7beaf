//go:build linux

package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/socpower/pwmon/pkg/system/sysfs"
)

// Default roots for the generic bus scan.
const (
	DefaultI2CRoot    = "/sys/bus/i2c/devices"
	DefaultSupplyRoot = "/sys/class/power_supply"
)

// scanFamily matches the three-channel power monitor chips the bus scan
// looks for in device name files.
const scanFamily = "ina3221"

// shuntSumPort is the chip's "sum of shunt voltages" pseudo channel. It is
// not a physical rail and is always skipped.
const shuntSumPort = 7

// ucsiPrefix is stripped from power-supply entry names for display.
const ucsiPrefix = "ucsi-source-psy-"

// ScanCatalog discovers channels with the generic strategy: walk the I2C
// device tree for power-monitor chips and descend into their hwmon or
// iio:device folders reading channel label files, then walk the
// power-supply class keeping entries that expose both instantaneous
// voltage and current.
type ScanCatalog struct {
	i2cRoot    string
	supplyRoot string
	testMode   bool
}

// ScanOption configures a ScanCatalog.
type ScanOption func(*ScanCatalog)

// WithI2CRoot overrides the I2C device directory.
func WithI2CRoot(dir string) ScanOption {
	return func(c *ScanCatalog) { c.i2cRoot = dir }
}

// WithSupplyRoot overrides the power-supply class directory.
func WithSupplyRoot(dir string) ScanOption {
	return func(c *ScanCatalog) { c.supplyRoot = dir }
}

// WithScanTestMode enables placeholder synthesis when nothing is found.
func WithScanTestMode() ScanOption {
	return func(c *ScanCatalog) { c.testMode = true }
}

// NewScanCatalog builds the generic bus-scan catalog. With EnvTesting set
// in the environment the fake roots are used and test mode is on.
func NewScanCatalog(opts ...ScanOption) *ScanCatalog {
	c := &ScanCatalog{i2cRoot: DefaultI2CRoot, supplyRoot: DefaultSupplyRoot}
	if os.Getenv(EnvTesting) != "" {
		c.i2cRoot = fakeI2CRoot
		c.supplyRoot = fakeSupplyRoot
		c.testMode = true
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover runs both scans once. The total channel prefers the designated
// system-input rail when one was labelled; otherwise the sampler falls
// back to summing all online channels.
func (c *ScanCatalog) Discover() (Layout, error) {
	layout := Layout{TotalIndex: -1}

	c.scanI2C(&layout)
	c.scanSupplies(&layout)

	for i, d := range layout.Sensors {
		if d.TotalInput {
			layout.TotalIndex = i
			break
		}
	}

	if len(layout.Sensors) == 0 {
		if !c.testMode {
			return Layout{}, ErrNoSensors
		}
		layout.Sensors = placeholders()
	}
	return layout, nil
}

// scanI2C walks the I2C device directory for power-monitor chips, then
// descends into their hwmon (newer kernels) or iio:device (older kernels)
// folders to enumerate labelled channels.
func (c *ScanCatalog) scanI2C(layout *Layout) {
	entries, err := os.ReadDir(c.i2cRoot)
	if err != nil {
		return
	}
	for _, entry := range entries {
		dev := filepath.Join(c.i2cRoot, entry.Name())
		if !sysfs.IsDir(dev) {
			continue
		}
		id, err := sysfs.ReadLine(filepath.Join(dev, "name"))
		if err != nil || !strings.Contains(id, scanFamily) {
			continue
		}
		c.scanDriverFolders(dev, layout)
	}
}

func (c *ScanCatalog) scanDriverFolders(dev string, layout *Layout) {
	entries, err := os.ReadDir(dev)
	if err != nil {
		return
	}
	for _, entry := range entries {
		sub := filepath.Join(dev, entry.Name())
		if !sysfs.IsDir(sub) {
			continue
		}
		switch {
		case strings.Contains(entry.Name(), "hwmon"):
			// One more level: hwmon/hwmonN holds the channel files.
			inner, err := os.ReadDir(sub)
			if err != nil {
				continue
			}
			for _, h := range inner {
				c.scanPorts(filepath.Join(sub, h.Name()), true, layout)
				break
			}
		case strings.Contains(entry.Name(), "iio:device"):
			c.scanPorts(sub, false, layout)
		}
	}
}

// scanPorts reads channel label files in one driver folder. Two label
// conventions exist (in<N>_label and rail_name_<N>) and two value-file
// conventions per bus flavour; all are tried because driver versions
// disagree.
func (c *ScanCatalog) scanPorts(dir string, hwmon bool, layout *Layout) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()

		var port int
		switch {
		case strings.HasSuffix(name, "_label"):
			if _, err := fmt.Sscanf(name, "in%d_label", &port); err != nil {
				continue
			}
		case strings.HasPrefix(name, "rail_name_"):
			if _, err := fmt.Sscanf(name, "rail_name_%d", &port); err != nil {
				continue
			}
		default:
			continue
		}

		label, err := sysfs.ReadLine(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		// Not-connected rails and the shunt-sum pseudo channel are noise.
		if strings.Contains(label, "NC") || port == shuntSumPort {
			continue
		}

		voltPath, currPath, ok := resolvePortPaths(dir, port, hwmon)
		if !ok {
			continue
		}

		d := Descriptor{
			Name:        label,
			Bus:         BusI2C,
			VoltagePath: voltPath,
			CurrentPath: currPath,
			TotalInput:  strings.Contains(label, "VDD_IN"),
			Online:      true,
		}
		d.WarnPower, d.CritPower = powerThreshold(label)
		layout.Sensors = append(layout.Sensors, d)
	}
}

// resolvePortPaths picks the value-file naming scheme the driver actually
// exposes for a port: in/curr first, then voltage/current for hwmon; the
// in_voltage/in_current scheme for iio.
func resolvePortPaths(dir string, port int, hwmon bool) (volt, curr string, ok bool) {
	if hwmon {
		volt = filepath.Join(dir, fmt.Sprintf("in%d_input", port))
		curr = filepath.Join(dir, fmt.Sprintf("curr%d_input", port))
		if sysfs.Exists(volt) && sysfs.Exists(curr) {
			return volt, curr, true
		}
		volt = filepath.Join(dir, fmt.Sprintf("voltage%d_input", port))
		curr = filepath.Join(dir, fmt.Sprintf("current%d_input", port))
	} else {
		volt = filepath.Join(dir, fmt.Sprintf("in_voltage%d_input", port))
		curr = filepath.Join(dir, fmt.Sprintf("in_current%d_input", port))
	}
	if sysfs.Exists(volt) && sysfs.Exists(curr) {
		return volt, curr, true
	}
	return "", "", false
}

// scanSupplies walks the power-supply class keeping entries that expose
// both voltage_now and current_now.
func (c *ScanCatalog) scanSupplies(layout *Layout) {
	entries, err := os.ReadDir(c.supplyRoot)
	if err != nil {
		return
	}
	for _, entry := range entries {
		dev := filepath.Join(c.supplyRoot, entry.Name())
		if !sysfs.IsDir(dev) {
			continue
		}
		voltPath := filepath.Join(dev, "voltage_now")
		currPath := filepath.Join(dev, "current_now")
		if !sysfs.Exists(voltPath) || !sysfs.Exists(currPath) {
			continue
		}

		name := strings.TrimPrefix(entry.Name(), ucsiPrefix)
		d := Descriptor{
			Name:        name,
			Bus:         BusSystem,
			VoltagePath: voltPath,
			CurrentPath: currPath,
			Online:      true,
		}
		d.WarnPower, d.CritPower = powerThreshold(name)
		layout.Sensors = append(layout.Sensors, d)
	}
}
