package power

import "time"

// Status tokens carried on every reading.
const (
	StatusNormal  = "Normal"  // read succeeded
	StatusError   = "Error"   // read failed, values zeroed for this tick
	StatusPartial = "Partial" // aggregate with at least one offline member
)

// Reading is one instantaneous measurement of a physical or virtual channel.
// When Online is false the numeric fields are zero and the reading must not
// be folded into statistics.
type Reading struct {
	Name    string
	Voltage float64 // V
	Current float64 // A
	Power   float64 // W, read directly or derived as V×I
	Online  bool
	Status  string

	// Power thresholds resolved at discovery time from the rail name.
	WarnPower float64 // W
	CritPower float64 // W
}

// Snapshot is the most recent set of readings across all channels, captured
// atomically by the sampler. PS and PL are populated by catalogs that
// classify rails into subsystems; otherwise they stay offline with zero
// values.
type Snapshot struct {
	Total   Reading
	PS      Reading
	PL      Reading
	Sensors []Reading
	Taken   time.Time
}

// Clone returns a deep copy that stays valid after the next sampling tick.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Sensors = append([]Reading(nil), s.Sensors...)
	return out
}

// RunningStats accumulates one quantity (voltage, current or power) of one
// channel. Avg is always Total/Count; for Count == 0 every field is zero.
type RunningStats struct {
	Min   float64
	Max   float64
	Avg   float64
	Total float64
	Count uint64
}

// ChannelStats is the running-statistics triple for one channel.
type ChannelStats struct {
	Name    string
	Voltage RunningStats
	Current RunningStats
	Power   RunningStats
}

// Stats is the statistics table for all channels plus the aggregates.
type Stats struct {
	Total   ChannelStats
	PS      ChannelStats
	PL      ChannelStats
	Sensors []ChannelStats
}

// Clone returns a deep copy that stays valid after the next sampling tick.
func (s Stats) Clone() Stats {
	out := s
	out.Sensors = append([]ChannelStats(nil), s.Sensors...)
	return out
}
