package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunningStats_FirstSampleInitializesMinMax(t *testing.T) {
	var s RunningStats
	s.Observe(3.3)

	assert.Equal(t, 3.3, s.Min)
	assert.Equal(t, 3.3, s.Max)
	assert.Equal(t, 3.3, s.Avg)
	assert.Equal(t, 3.3, s.Total)
	assert.Equal(t, uint64(1), s.Count)
}

func TestRunningStats_OrderingInvariant(t *testing.T) {
	// min <= avg <= max must hold after every single update, and the
	// average must equal the exact total/count division.
	samples := []float64{1.2, 0.8, 5.0, 0.799, 3.14, 2.0, 0.8, 4.99}

	var s RunningStats
	var sum float64
	for i, v := range samples {
		s.Observe(v)
		sum += v

		require.LessOrEqual(t, s.Min, s.Avg, "after sample %d", i)
		require.LessOrEqual(t, s.Avg, s.Max, "after sample %d", i)
		require.InDelta(t, sum/float64(i+1), s.Avg, 1e-12, "after sample %d", i)
		t.Logf("sample %d: v=%.3f min=%.3f avg=%.4f max=%.3f n=%d",
			i+1, v, s.Min, s.Avg, s.Max, s.Count)
	}

	assert.Equal(t, 0.799, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, uint64(len(samples)), s.Count)
}

func TestRunningStats_Reset(t *testing.T) {
	var s RunningStats
	s.Observe(2.0)
	s.Observe(4.0)
	s.Reset()

	assert.Equal(t, RunningStats{}, s)
}

func TestChannelStats_OfflineReadingLeavesStatsUntouched(t *testing.T) {
	var c ChannelStats
	c.Name = "VCCINT"
	c.Observe(Reading{Name: "VCCINT", Voltage: 0.85, Current: 2.0, Power: 1.7, Online: true, Status: StatusNormal})

	before := c
	c.Observe(Reading{Name: "VCCINT", Online: false, Status: StatusError})
	assert.Equal(t, before, c, "offline reading must not move any field")

	c.Observe(Reading{Name: "VCCINT", Voltage: 0.86, Current: 2.2, Power: 1.892, Online: true, Status: StatusNormal})
	assert.Equal(t, uint64(2), c.Power.Count)
	assert.InDelta(t, (1.7+1.892)/2, c.Power.Avg, 1e-12)
}

func TestChannelStats_ResetKeepsName(t *testing.T) {
	c := ChannelStats{Name: "VCCPSINTFP"}
	c.Observe(Reading{Voltage: 0.85, Current: 1.0, Power: 0.85, Online: true})
	c.Reset()

	assert.Equal(t, "VCCPSINTFP", c.Name)
	assert.Equal(t, uint64(0), c.Voltage.Count)
	assert.Equal(t, uint64(0), c.Current.Count)
	assert.Equal(t, uint64(0), c.Power.Count)
}

func TestStats_ResetIdempotence(t *testing.T) {
	s := Stats{
		Total:   ChannelStats{Name: "Total"},
		PS:      ChannelStats{Name: "PS Total"},
		PL:      ChannelStats{Name: "PL Total"},
		Sensors: []ChannelStats{{Name: "VCCINT"}, {Name: "VCCPSINTFP"}},
	}
	for i := 0; i < 5; i++ {
		s.Total.Observe(Reading{Voltage: 12, Current: 1, Power: 12, Online: true})
		s.Sensors[0].Observe(Reading{Voltage: 0.85, Current: 2, Power: 1.7, Online: true})
	}

	s.Reset()
	s.Reset() // second reset is a no-op

	assert.Equal(t, uint64(0), s.Total.Power.Count)
	assert.Equal(t, uint64(0), s.Sensors[0].Power.Count)
	assert.Equal(t, "Total", s.Total.Name)
	assert.Equal(t, "VCCINT", s.Sensors[0].Name)
	assert.Equal(t, "PS Total", s.PS.Name)
}

func TestCombine_SumsOnlineMembers(t *testing.T) {
	a := Reading{Name: "VCCPSINTFP", Voltage: 0.85, Current: 2.0, Power: 1.70, Online: true, Status: StatusNormal}
	b := Reading{Name: "VCCPSAUX", Voltage: 1.80, Current: 0.5, Power: 0.90, Online: true, Status: StatusNormal}

	got := Combine("PS Total", a, b)
	require.True(t, got.Online)
	assert.Equal(t, "PS Total", got.Name)
	assert.InDelta(t, 2.60, got.Power, 1e-12)
	assert.InDelta(t, 2.50, got.Current, 1e-12)
	assert.InDelta(t, (0.85+1.80)/2, got.Voltage, 1e-12, "voltage is averaged, not summed")
	assert.Equal(t, StatusNormal, got.Status)
}

func TestCombine_PartialWhenMemberOffline(t *testing.T) {
	a := Reading{Voltage: 0.85, Current: 2.0, Power: 1.70, Online: true}
	b := Reading{Online: false, Status: StatusError}

	got := Combine("Total", a, b)
	require.True(t, got.Online)
	assert.Equal(t, StatusPartial, got.Status)
	assert.InDelta(t, 1.70, got.Power, 1e-12, "offline member contributes nothing")
	assert.InDelta(t, 0.85, got.Voltage, 1e-12, "average over online members only")
}

func TestCombine_AllOffline(t *testing.T) {
	got := Combine("PL Total", Reading{Online: false}, Reading{Online: false})

	assert.False(t, got.Online)
	assert.Equal(t, StatusError, got.Status)
	assert.Zero(t, got.Power)
	assert.Zero(t, got.Voltage)
	assert.Zero(t, got.Current)
}

func TestCombine_NoMembers(t *testing.T) {
	got := Combine("PS Total")
	assert.False(t, got.Online)
	assert.Zero(t, got.Power)
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	s := Snapshot{Sensors: []Reading{{Name: "VCCINT", Power: 1.7, Online: true}}}
	c := s.Clone()
	c.Sensors[0].Power = 99

	assert.Equal(t, 1.7, s.Sensors[0].Power, "clone must not alias the source slice")
}

func TestStats_CloneIsDeep(t *testing.T) {
	s := Stats{Sensors: []ChannelStats{{Name: "VCCINT"}}}
	c := s.Clone()
	c.Sensors[0].Power.Observe(1)

	assert.Equal(t, uint64(0), s.Sensors[0].Power.Count)
}
