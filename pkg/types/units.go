package types

import (
	"fmt"
	"math"
)

// Volts is a float64 wrapper representing a potential in volts.
type Volts float64

// Amps is a float64 wrapper representing a current in amperes.
type Amps float64

// Watts is a float64 wrapper representing a power in watts.
type Watts float64

// String renders the voltage with an automatic unit (mV below 1 V).
func (v Volts) String() string {
	if math.Abs(float64(v)) < 1 {
		return fmt.Sprintf("%.0f mV", float64(v)*1000)
	}
	return fmt.Sprintf("%.3f V", float64(v))
}

// String renders the current with an automatic unit (mA below 1 A).
func (a Amps) String() string {
	if math.Abs(float64(a)) < 1 {
		return fmt.Sprintf("%.0f mA", float64(a)*1000)
	}
	return fmt.Sprintf("%.3f A", float64(a))
}

// String renders the power with an automatic unit (mW below 1 W).
func (w Watts) String() string {
	if math.Abs(float64(w)) < 1 {
		return fmt.Sprintf("%.0f mW", float64(w)*1000)
	}
	return fmt.Sprintf("%.2f W", float64(w))
}

// Milli returns the value scaled to milliwatts.
func (w Watts) Milli() float64 { return float64(w) * 1000 }
