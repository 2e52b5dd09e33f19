package metrics

import "github.com/san-kum/radtrans/internal/equilibrium"

// MaxTemperatureChange reports the largest |dT| of the latest iteration.
type MaxTemperatureChange struct {
	name string
	last float64
}

func NewMaxTemperatureChange() *MaxTemperatureChange {
	return &MaxTemperatureChange{
		name: "max_dT",
	}
}

func (m *MaxTemperatureChange) Name() string { return m.name }

func (m *MaxTemperatureChange) Observe(it equilibrium.Iteration) {
	m.last = it.MaxChange
}

func (m *MaxTemperatureChange) Value() float64 {
	return m.last
}

func (m *MaxTemperatureChange) Reset() {
	m.last = 0
}

// Oscillation is the fraction of iterations in which at least one layer
// reversed the sign of its update. A run that settles without ringing
// stays near zero.
type Oscillation struct {
	name     string
	previous []float64
	reversed int
	samples  int
}

func NewOscillation() *Oscillation {
	return &Oscillation{
		name: "oscillation",
	}
}

func (o *Oscillation) Name() string { return o.name }

func (o *Oscillation) Observe(it equilibrium.Iteration) {
	if o.previous != nil {
		for i, d := range it.Change {
			if i < len(o.previous) && d*o.previous[i] < 0 {
				o.reversed++
				break
			}
		}
		o.samples++
	}
	o.previous = append(o.previous[:0], it.Change...)
}

func (o *Oscillation) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return float64(o.reversed) / float64(o.samples)
}

func (o *Oscillation) Reset() {
	o.previous = nil
	o.reversed = 0
	o.samples = 0
}
