//go:build linux

package monitor

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socpower/pwmon/pkg/sensor"
)

// fixture is a fake hwmon tree with three classified rails: two PS, one PL.
type fixture struct {
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{root: t.TempDir()}
	f.addDevice(t, "hwmon0", "ina226_u76", 850, 2400)  // VCCPSINTFP, PS
	f.addDevice(t, "hwmon1", "ina226_u78", 1800, 500)  // VCCPSAUX, PS
	f.addDevice(t, "hwmon2", "ina226_u79", 850, 1800)  // VCCINT, PL
	return f
}

func (f *fixture) addDevice(t *testing.T, entry, id string, mv, ma int) {
	t.Helper()
	dir := filepath.Join(f.root, entry)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "name"), []byte(id+"\n"), 0o644))
	f.setValue(t, entry, "in1_input", mv)
	f.setValue(t, entry, "curr1_input", ma)
}

func (f *fixture) setValue(t *testing.T, entry, attr string, v int) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.root, entry, attr), []byte(strconv.Itoa(v)+"\n"), 0o644))
}

func (f *fixture) remove(t *testing.T, entry, attr string) {
	t.Helper()
	require.NoError(t, os.Remove(filepath.Join(f.root, entry, attr)))
}

func (f *fixture) monitor(t *testing.T, opts ...Option) *Monitor {
	t.Helper()
	opts = append(opts, WithCatalog(sensor.NewRailCatalog(sensor.WithHwmonRoot(f.root))))
	m, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestNew_NoSensorsIsFatal(t *testing.T) {
	_, err := New(WithCatalog(sensor.NewRailCatalog(sensor.WithHwmonRoot(t.TempDir()))))
	require.ErrorIs(t, err, ErrNoSensors)
}

func TestNew_TestModeSynthesizesTwoPlaceholders(t *testing.T) {
	cat := sensor.NewRailCatalog(sensor.WithHwmonRoot(t.TempDir()), sensor.WithRailTestMode())
	m, err := New(WithCatalog(cat))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 2, m.SensorCount())
	assert.Equal(t, []string{"CPU", "GPU"}, m.SensorNames())
}

func TestFrequencyValidation(t *testing.T) {
	m := newFixture(t).monitor(t)

	assert.Equal(t, DefaultFrequency, m.Frequency())

	require.NoError(t, m.SetFrequency(10))
	assert.Equal(t, 10, m.Frequency())

	require.ErrorIs(t, m.SetFrequency(0), ErrInvalidFrequency)
	require.ErrorIs(t, m.SetFrequency(-5), ErrInvalidFrequency)
	assert.Equal(t, 10, m.Frequency(), "failed set leaves frequency unchanged")
}

func TestNew_RejectsInvalidInitialFrequency(t *testing.T) {
	_, err := New(WithFrequency(-1))
	require.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestStateMachine(t *testing.T) {
	m := newFixture(t).monitor(t)

	assert.False(t, m.Sampling(), "fresh handle is stopped")

	require.NoError(t, m.Start())
	assert.True(t, m.Sampling())
	require.ErrorIs(t, m.Start(), ErrAlreadyRunning)

	require.NoError(t, m.Stop())
	assert.False(t, m.Sampling())
	require.ErrorIs(t, m.Stop(), ErrNotRunning)
}

func TestSnapshot_OnUnstartedSampler(t *testing.T) {
	m := newFixture(t).monitor(t)

	snap := m.Snapshot()
	require.Len(t, snap.Sensors, m.SensorCount())
	assert.False(t, snap.Total.Online, "no tick has run yet")
	assert.Equal(t, "VCCPSINTFP", snap.Sensors[0].Name, "names are seeded at init")
	assert.Zero(t, snap.Sensors[0].Power)
}

func TestSampleOnce_PublishesSnapshotAndStats(t *testing.T) {
	m := newFixture(t).monitor(t)
	m.sampleOnce()

	snap := m.Snapshot()
	require.True(t, snap.Total.Online)
	assert.False(t, snap.Taken.IsZero())

	// 0.85*2.4 + 1.8*0.5 + 0.85*1.8 = 2.04 + 0.90 + 1.53
	assert.InDelta(t, 2.04, snap.Sensors[0].Power, 1e-9)
	assert.InDelta(t, 4.47, snap.Total.Power, 1e-9)
	assert.InDelta(t, 2.94, snap.PS.Power, 1e-9)
	assert.InDelta(t, 1.53, snap.PL.Power, 1e-9)

	stats := m.Statistics()
	assert.Equal(t, uint64(1), stats.Total.Power.Count)
	assert.Equal(t, uint64(1), stats.PS.Power.Count)
	assert.Equal(t, uint64(1), stats.Sensors[2].Power.Count)
}

func TestSampling_CollectsStatistics(t *testing.T) {
	m := newFixture(t).monitor(t)
	require.NoError(t, m.SetFrequency(20))
	m.ResetStatistics()

	require.NoError(t, m.Start())
	time.Sleep(500 * time.Millisecond)
	require.NoError(t, m.Stop())

	stats := m.Statistics()
	total := stats.Total.Power
	require.Greater(t, total.Count, uint64(0))
	assert.LessOrEqual(t, total.Min, total.Avg)
	assert.LessOrEqual(t, total.Avg, total.Max)
	assert.InDelta(t, total.Total/float64(total.Count), total.Avg, 1e-12)
	t.Logf("total power over %d ticks: min=%.3fW avg=%.3fW max=%.3fW",
		total.Count, total.Min, total.Avg, total.Max)
}

func TestSummary_AggregateConsistency(t *testing.T) {
	m := newFixture(t).monitor(t)
	m.sampleOnce()

	s := m.Summary()
	require.True(t, s.PSOnline)
	require.True(t, s.PLOnline)
	require.True(t, s.TotalOnline)
	assert.InDelta(t, s.TotalPower, s.PSPower+s.PLPower, 1e-3,
		"grand total equals PS+PL when every rail is classified")

	ss := m.SummaryStats()
	assert.Equal(t, uint64(1), ss.Total.Count)
	assert.InDelta(t, ss.Total.Avg, ss.PS.Avg+ss.PL.Avg, 1e-3)
}

func TestOfflineChannel_ExcludedFromStats(t *testing.T) {
	f := newFixture(t)
	m := f.monitor(t)
	m.sampleOnce()

	before := m.Statistics()
	require.Equal(t, uint64(1), before.Sensors[1].Power.Count)

	f.remove(t, "hwmon1", "curr1_input")
	m.sampleOnce()

	after := m.Statistics()
	assert.Equal(t, before.Sensors[1], after.Sensors[1],
		"failed read leaves the channel's stats byte-for-byte unchanged")
	assert.Equal(t, uint64(2), after.Sensors[0].Power.Count, "healthy channels keep accumulating")

	snap := m.Snapshot()
	assert.False(t, snap.Sensors[1].Online)
	assert.Equal(t, "Partial", snap.Total.Status)
}

func TestAggregate_OfflineWithZeroContributors(t *testing.T) {
	f := newFixture(t)
	m := f.monitor(t)

	// Kill the only PL rail; the PL aggregate must go offline and its
	// stats must stand still.
	f.remove(t, "hwmon2", "in1_input")
	m.sampleOnce()

	snap := m.Snapshot()
	assert.False(t, snap.PL.Online)
	assert.Zero(t, snap.PL.Power)
	assert.True(t, snap.PS.Online)

	stats := m.Statistics()
	assert.Equal(t, uint64(0), stats.PL.Power.Count)
	assert.Equal(t, uint64(1), stats.PS.Power.Count)
}

func TestResetStatistics(t *testing.T) {
	m := newFixture(t).monitor(t)
	m.sampleOnce()
	m.sampleOnce()

	m.ResetStatistics()

	stats := m.Statistics()
	assert.Equal(t, uint64(0), stats.Total.Power.Count)
	assert.Equal(t, uint64(0), stats.PS.Voltage.Count)
	for _, c := range stats.Sensors {
		assert.Equal(t, uint64(0), c.Power.Count)
	}
	assert.Equal(t, "Total", stats.Total.Name)
	assert.Equal(t, "VCCPSINTFP", stats.Sensors[0].Name)

	snap := m.Snapshot()
	assert.True(t, snap.Total.Online, "reset does not touch the latest snapshot")
}

func TestAccessorsReturnOwnedCopies(t *testing.T) {
	m := newFixture(t).monitor(t)
	m.sampleOnce()

	snap := m.Snapshot()
	snap.Sensors[0].Power = 1e9
	assert.NotEqual(t, 1e9, m.Snapshot().Sensors[0].Power)

	stats := m.Statistics()
	stats.Sensors[0].Power.Count = 1e6
	assert.NotEqual(t, uint64(1e6), m.Statistics().Sensors[0].Power.Count)
}

func TestClose_ImplicitStopAndInvalidation(t *testing.T) {
	m := newFixture(t).monitor(t)
	require.NoError(t, m.Start())

	require.NoError(t, m.Close())
	require.ErrorIs(t, m.Close(), ErrNotInitialized)
	require.ErrorIs(t, m.Start(), ErrNotInitialized)
	require.ErrorIs(t, m.Stop(), ErrNotInitialized)
	require.ErrorIs(t, m.SetFrequency(5), ErrNotInitialized)
}

func TestSetFrequencyWhileRunning(t *testing.T) {
	m := newFixture(t).monitor(t)
	require.NoError(t, m.Start())
	require.NoError(t, m.SetFrequency(50))
	assert.Equal(t, 50, m.Frequency())
	require.NoError(t, m.Stop())
}

func TestScanStrategy_DesignatedTotal(t *testing.T) {
	i2cRoot := t.TempDir()
	hw := filepath.Join(i2cRoot, "1-0040", "hwmon", "hwmon0")
	require.NoError(t, os.MkdirAll(hw, 0o755))
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(hw, name), []byte(content), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(i2cRoot, "1-0040", "name"), []byte("ina3221\n"), 0o644))
	write("in1_label", "VDD_IN\n")
	write("in1_input", "19000\n")
	write("curr1_input", "1500\n")
	write("in2_label", "VDD_SOC\n")
	write("in2_input", "5000\n")
	write("curr2_input", "800\n")

	cat := sensor.NewScanCatalog(sensor.WithI2CRoot(i2cRoot), sensor.WithSupplyRoot(t.TempDir()))
	m, err := New(WithCatalog(cat))
	require.NoError(t, err)
	defer m.Close()

	m.sampleOnce()
	snap := m.Snapshot()
	assert.Equal(t, "Total (VDD_IN)", snap.Total.Name)
	assert.InDelta(t, 19.0*1.5, snap.Total.Power, 1e-9, "total mirrors the designated rail, not the sum")
	assert.False(t, snap.PS.Online, "scan catalogs have no subsystem aggregates")

	// Designated rail offline: fall back to summing online channels.
	require.NoError(t, os.Remove(filepath.Join(hw, "curr1_input")))
	m.sampleOnce()
	snap = m.Snapshot()
	assert.Equal(t, "Total", snap.Total.Name)
	assert.InDelta(t, 5.0*0.8, snap.Total.Power, 1e-9)
	assert.Equal(t, "Partial", snap.Total.Status)
}

func TestStop_JoinsWorker(t *testing.T) {
	m := newFixture(t).monitor(t)
	require.NoError(t, m.SetFrequency(100))
	require.NoError(t, m.Start())
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, m.Stop())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not join the worker")
	}

	// No ticks after Stop returns.
	count := m.Statistics().Total.Power.Count
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, m.Statistics().Total.Power.Count)
}
