//go:build linux

package monitor

import (
	"time"

	"github.com/socpower/pwmon/pkg/power"
	"github.com/socpower/pwmon/pkg/sensor"
)

// Start spawns the background sampler. Exactly one worker goroutine exists
// per handle while sampling is active.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrNotInitialized
	}
	if m.sampling {
		return ErrAlreadyRunning
	}
	m.stopc = make(chan struct{})
	m.done = make(chan struct{})
	m.sampling = true
	go m.run(m.stopc, m.done)
	return nil
}

// Stop requests the sampler to halt and blocks until the in-flight tick
// finishes (join semantics). Cancellation is cooperative: the stop request
// is observed once per tick.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	if !m.sampling {
		m.mu.Unlock()
		return ErrNotRunning
	}
	stopc, done := m.stopc, m.done
	m.sampling = false
	m.mu.Unlock()

	close(stopc)
	<-done
	return nil
}

// run is the worker loop. The cadence is one tick followed by a sleep of
// 1e6/freq microseconds; time spent reading sensors is not compensated
// for, so the effective rate drifts below nominal as the channel count
// grows. That drift is a documented property of the sampler, kept as is.
func (m *Monitor) run(stopc <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		m.sampleOnce()

		m.mu.Lock()
		freq := m.freq
		m.mu.Unlock()
		sleep := time.Duration(1_000_000/freq) * time.Microsecond

		select {
		case <-stopc:
			return
		case <-time.After(sleep):
		}
	}
}

// sampleOnce executes one tick: read every physical channel with the lock
// released (the catalog is immutable and each read is a bounded set of
// file opens), then publish the snapshot, aggregates and statistics in a
// single lock section so observers only ever see pre- or post-tick state.
func (m *Monitor) sampleOnce() {
	readings := make([]power.Reading, len(m.layout.Sensors))
	for i, d := range m.layout.Sensors {
		readings[i] = sensor.Read(d)
	}
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.latest.Sensors, readings)
	m.latest.Taken = now

	if m.layout.HasSubsystems {
		ps := power.Combine("PS Total", m.members(readings, sensor.SubPS)...)
		ps.WarnPower, ps.CritPower = subWarnPower, subCritPower
		pl := power.Combine("PL Total", m.members(readings, sensor.SubPL)...)
		pl.WarnPower, pl.CritPower = subWarnPower, subCritPower
		m.latest.PS = ps
		m.latest.PL = pl
	}
	m.latest.Total = m.total(readings)

	for i := range readings {
		m.stats.Sensors[i].Observe(readings[i])
	}
	m.stats.PS.Observe(m.latest.PS)
	m.stats.PL.Observe(m.latest.PL)
	m.stats.Total.Observe(m.latest.Total)
}

// members collects this tick's readings for one subsystem, in catalog
// order.
func (m *Monitor) members(readings []power.Reading, sub sensor.Subsystem) []power.Reading {
	var out []power.Reading
	for i, d := range m.layout.Sensors {
		if d.Subsystem == sub {
			out = append(out, readings[i])
		}
	}
	return out
}

// total computes the grand-total channel. A catalog with a designated
// system-input rail mirrors that rail while it is online; everything else
// sums the online channels.
func (m *Monitor) total(readings []power.Reading) power.Reading {
	if i := m.layout.TotalIndex; i >= 0 && readings[i].Online {
		r := readings[i]
		r.Name = "Total (" + m.layout.Sensors[i].Name + ")"
		r.WarnPower, r.CritPower = totalWarnPower, totalCritPower
		return r
	}
	r := power.Combine("Total", readings...)
	r.WarnPower, r.CritPower = totalWarnPower, totalCritPower
	return r
}
