// Package monitor is the public façade of the power sampler: it owns the
// sensor catalog, a background worker that reads every channel on a fixed
// cadence, the latest snapshot and a running-statistics table.
//
// # Lifecycle
//
//	m, err := monitor.New()              // discovery; fatal if no sensors
//	defer m.Close()                      // implicit Stop
//	m.SetFrequency(10)                   // Hz
//	m.Start()                            // spawns the one worker goroutine
//	...
//	snap := m.Snapshot()                 // deep copy, any goroutine
//	stats := m.Statistics()              // deep copy, any goroutine
//	m.Stop()                             // joins the worker
//
// A handle moves between exactly two states, stopped and running. Start on
// a running handle returns ErrAlreadyRunning, Stop on a stopped one
// ErrNotRunning. Close from either state releases everything; the handle
// must not be used afterwards.
//
// # Locking
//
// One mutex per handle guards the snapshot, the statistics table, the
// frequency and the run-state flags. The catalog is immutable after New
// and needs no lock. Sensor files are read with the lock released; each
// tick then publishes snapshot, aggregate channels and statistics inside a
// single critical section, so Snapshot and Statistics observe either the
// pre-tick or the post-tick state of a cycle, never a partial one.
//
// # Aggregate channels
//
// Catalogs that classify rails into PS/PL subsystems get three virtual
// channels: PS total, PL total and the grand total (summed power and
// current, averaged voltage, online-members only). An aggregate with zero
// online members reports itself offline and its statistics are not
// advanced that tick. The scan catalog instead mirrors a designated
// system-input rail as the total while that rail is online, falling back
// to the sum.
package monitor
