package power

import "github.com/socpower/pwmon/pkg/system/util"

// Observe folds one sample into the running statistics. The average is
// recomputed as Total/Count on every update rather than maintained with a
// moving-average formula; the exact division keeps long captures honest.
func (s *RunningStats) Observe(v float64) {
	if s.Count == 0 {
		s.Min = v
		s.Max = v
	} else {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Total += v
	s.Count++
	s.Avg = s.Total / float64(s.Count)
}

// Reset zeroes all fields.
func (s *RunningStats) Reset() {
	*s = RunningStats{}
}

// Observe folds a reading into the channel statistics. Offline readings are
// ignored entirely: no count increment, no min/max/total movement.
func (c *ChannelStats) Observe(r Reading) {
	if !r.Online {
		return
	}
	c.Voltage.Observe(r.Voltage)
	c.Current.Observe(r.Current)
	c.Power.Observe(r.Power)
}

// Reset zeroes the channel statistics, keeping the channel name.
func (c *ChannelStats) Reset() {
	name := c.Name
	*c = ChannelStats{Name: name}
}

// Reset zeroes the whole statistics table, keeping every channel name.
func (s *Stats) Reset() {
	s.Total.Reset()
	s.PS.Reset()
	s.PL.Reset()
	for i := range s.Sensors {
		s.Sensors[i].Reset()
	}
}

// Combine sums the online members into one virtual reading: summed power
// and current, averaged voltage. With zero online members the result is an
// offline zero reading whose statistics must not be updated for the tick.
// A mix of online and offline members reports StatusPartial.
func Combine(name string, members ...Reading) Reading {
	out := Reading{Name: name, Status: StatusError}

	online := 0
	for _, r := range members {
		if !r.Online {
			continue
		}
		online++
		out.Power += r.Power
		out.Current += r.Current
		out.Voltage += r.Voltage
	}
	if online == 0 {
		return out
	}

	out.Voltage = util.SafeDiv(out.Voltage, float64(online))
	out.Online = true
	if online == len(members) {
		out.Status = StatusNormal
	} else {
		out.Status = StatusPartial
	}
	return out
}
