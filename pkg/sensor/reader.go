//go:build linux

package sensor

import (
	"github.com/socpower/pwmon/pkg/power"
	"github.com/socpower/pwmon/pkg/system/sysfs"
	"github.com/socpower/pwmon/pkg/system/util"
)

// Fixed values handed out for placeholder channels so statistics and
// aggregates have something to chew on without hardware.
const (
	placeholderVolts = 0.85
	placeholderAmps  = 1.2
)

// Read performs one measurement of a channel. Any missing or unparsable
// attribute file marks the channel offline for this tick with zeroed
// values; the failure never propagates beyond the reading itself.
//
// Raw units follow the hwmon convention: voltage and current files carry
// milli-units, the optional power file carries micro-watts.
func Read(d Descriptor) power.Reading {
	r := power.Reading{
		Name:      d.Name,
		WarnPower: d.WarnPower,
		CritPower: d.CritPower,
	}

	if d.Placeholder {
		r.Voltage = placeholderVolts
		r.Current = placeholderAmps
		r.Power = placeholderVolts * placeholderAmps
		r.Online = true
		r.Status = power.StatusNormal
		return r
	}

	mv, errV := sysfs.ReadInt(d.VoltagePath)
	ma, errC := sysfs.ReadInt(d.CurrentPath)
	if errV != nil || errC != nil {
		r.Status = power.StatusError
		return r
	}

	r.Voltage = float64(mv) / 1000 // mV -> V
	r.Current = float64(ma) / 1000 // mA -> A

	if d.PowerPath != "" {
		if uw, err := sysfs.ReadInt(d.PowerPath); err == nil {
			r.Power = float64(uw) / 1e6 // µW -> W
		} else {
			r.Power = r.Voltage * r.Current
		}
	} else {
		r.Power = r.Voltage * r.Current
	}
	// A charging supply reports reverse current; the power channel stays
	// a non-negative draw.
	r.Power = util.NonNeg(r.Power)

	r.Online = true
	r.Status = power.StatusNormal
	return r
}
