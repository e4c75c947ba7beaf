//go:build linux

package monitor

import (
	"fmt"
	"sync"

	"github.com/socpower/pwmon/pkg/power"
	"github.com/socpower/pwmon/pkg/sensor"
)

// DefaultFrequency is the sampling rate a fresh handle starts with.
const DefaultFrequency = 1 // Hz

// Power thresholds for the aggregate channels.
const (
	totalWarnPower = 25.0
	totalCritPower = 35.0
	subWarnPower   = 15.0
	subCritPower   = 20.0
)

// Strategy selects the discovery catalog a handle is built with.
type Strategy int

const (
	// StrategyRails uses the fixed hwmon rail table (the default).
	StrategyRails Strategy = iota
	// StrategyScan uses the generic I2C bus + power-supply scan.
	StrategyScan
)

type config struct {
	strategy Strategy
	catalog  sensor.Catalog
	freq     int
}

// Option configures New.
type Option func(*config)

// WithStrategy picks the discovery strategy for the default catalogs.
func WithStrategy(s Strategy) Option {
	return func(c *config) { c.strategy = s }
}

// WithCatalog injects a fully configured catalog, overriding the strategy.
func WithCatalog(cat sensor.Catalog) Option {
	return func(c *config) { c.catalog = cat }
}

// WithFrequency sets the initial sampling frequency in Hz.
func WithFrequency(hz int) Option {
	return func(c *config) { c.freq = hz }
}

// Monitor owns the sensor catalog, the latest snapshot, the statistics
// table and the background sampler for one board. One mutex guards all
// mutable state; the catalog is immutable after New. Accessors hand out
// deep copies, never views into live buffers.
type Monitor struct {
	layout sensor.Layout

	mu       sync.Mutex
	freq     int
	latest   power.Snapshot
	stats    power.Stats
	sampling bool
	closed   bool
	stopc    chan struct{}
	done     chan struct{}
}

// New discovers sensors and returns a ready, stopped handle. Discovery
// failure is fatal: no partial handle is ever returned.
func New(opts ...Option) (*Monitor, error) {
	cfg := config{freq: DefaultFrequency}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.freq <= 0 {
		return nil, ErrInvalidFrequency
	}

	cat := cfg.catalog
	if cat == nil {
		switch cfg.strategy {
		case StrategyScan:
			cat = sensor.NewScanCatalog()
		default:
			cat = sensor.NewRailCatalog()
		}
	}

	layout, err := cat.Discover()
	if err != nil {
		return nil, fmt.Errorf("discover sensors: %w", err)
	}

	m := &Monitor{layout: layout, freq: cfg.freq}
	m.latest.Total = power.Reading{Name: "Total", WarnPower: totalWarnPower, CritPower: totalCritPower}
	m.latest.PS = power.Reading{Name: "PS Total", WarnPower: subWarnPower, CritPower: subCritPower}
	m.latest.PL = power.Reading{Name: "PL Total", WarnPower: subWarnPower, CritPower: subCritPower}
	m.latest.Sensors = make([]power.Reading, len(layout.Sensors))
	m.stats.Total = power.ChannelStats{Name: "Total"}
	m.stats.PS = power.ChannelStats{Name: "PS Total"}
	m.stats.PL = power.ChannelStats{Name: "PL Total"}
	m.stats.Sensors = make([]power.ChannelStats, len(layout.Sensors))
	for i, d := range layout.Sensors {
		m.latest.Sensors[i] = power.Reading{Name: d.Name, WarnPower: d.WarnPower, CritPower: d.CritPower}
		m.stats.Sensors[i] = power.ChannelStats{Name: d.Name}
	}
	return m, nil
}

// Close stops sampling if running and invalidates the handle. A handle
// cannot be reused after Close; a second Close returns ErrNotInitialized.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	m.closed = true
	running := m.sampling
	m.sampling = false
	stopc, done := m.stopc, m.done
	m.mu.Unlock()

	if running {
		close(stopc)
		<-done
	}
	return nil
}

// SetFrequency updates the sampling frequency in Hz. An invalid value
// leaves the configured frequency unchanged. A running sampler picks the
// new rate up at its next sleep computation, not mid-tick.
func (m *Monitor) SetFrequency(hz int) error {
	if hz <= 0 {
		return ErrInvalidFrequency
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrNotInitialized
	}
	m.freq = hz
	return nil
}

// Frequency returns the configured sampling frequency in Hz.
func (m *Monitor) Frequency() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.freq
}

// Sampling reports whether the background sampler is running.
func (m *Monitor) Sampling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampling
}

// SensorCount returns the number of physical channels in the catalog.
func (m *Monitor) SensorCount() int {
	return len(m.layout.Sensors)
}

// SensorNames returns the channel names in catalog order. The order is
// stable for the process lifetime but not across runs; identify channels
// by name.
func (m *Monitor) SensorNames() []string {
	names := make([]string, len(m.layout.Sensors))
	for i, d := range m.layout.Sensors {
		names[i] = d.Name
	}
	return names
}

// Snapshot returns a deep copy of the latest readings for all channels,
// taken atomically. It never waits on the sampler beyond lock acquisition
// and is valid on a handle that was never started.
func (m *Monitor) Snapshot() power.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest.Clone()
}

// Statistics returns a deep copy of the running statistics for all
// channels, taken atomically.
func (m *Monitor) Statistics() power.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.Clone()
}

// ResetStatistics zeroes all running statistics, keeping channel names.
// The latest snapshot is unaffected.
func (m *Monitor) ResetStatistics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Reset()
}

// PowerSummary is the instantaneous power of the three aggregate channels.
type PowerSummary struct {
	PSPower     float64
	PLPower     float64
	TotalPower  float64
	PSOnline    bool
	PLOnline    bool
	TotalOnline bool
}

// PowerSummaryStats is the power statistics of the three aggregate
// channels.
type PowerSummaryStats struct {
	PS    power.RunningStats
	PL    power.RunningStats
	Total power.RunningStats
}

// Summary returns the instantaneous aggregate powers. Under a catalog
// without subsystem classification the PS/PL entries stay offline.
func (m *Monitor) Summary() PowerSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return PowerSummary{
		PSPower:     m.latest.PS.Power,
		PLPower:     m.latest.PL.Power,
		TotalPower:  m.latest.Total.Power,
		PSOnline:    m.latest.PS.Online,
		PLOnline:    m.latest.PL.Online,
		TotalOnline: m.latest.Total.Online,
	}
}

// SummaryStats returns the power statistics of the aggregate channels.
func (m *Monitor) SummaryStats() PowerSummaryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return PowerSummaryStats{
		PS:    m.stats.PS.Power,
		PL:    m.stats.PL.Power,
		Total: m.stats.Total.Power,
	}
}
