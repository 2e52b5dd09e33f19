package metrics

import (
	"math"

	"github.com/san-kum/radtrans/internal/equilibrium"
)

// OutgoingFlux reports the bolometric flux leaving the top of the column
// in the latest iteration [W m^-2].
type OutgoingFlux struct {
	name  string
	value float64
}

func NewOutgoingFlux() *OutgoingFlux {
	return &OutgoingFlux{
		name: "outgoing_flux",
	}
}

func (o *OutgoingFlux) Name() string { return o.name }

func (o *OutgoingFlux) Observe(it equilibrium.Iteration) {
	o.value = it.OutgoingFlux()
}

func (o *OutgoingFlux) Value() float64 { return o.value }

func (o *OutgoingFlux) Reset() { o.value = 0 }

// FluxImbalance reports how far the latest iteration is from a constant
// total (radiative plus convective) flux with height: the largest
// deviation of any layer's total from the bottom layer's, relative to the
// bottom layer's magnitude.
type FluxImbalance struct {
	name  string
	value float64
}

func NewFluxImbalance() *FluxImbalance {
	return &FluxImbalance{
		name: "flux_imbalance",
	}
}

func (f *FluxImbalance) Name() string { return f.name }

func (f *FluxImbalance) Observe(it equilibrium.Iteration) {
	if len(it.NetFlux) == 0 {
		return
	}
	total := func(i int) float64 {
		t := it.NetFlux[i]
		if i < len(it.ConvectiveFlux) {
			t += it.ConvectiveFlux[i]
		}
		return t
	}
	ref := total(0)
	worst := 0.0
	for i := 1; i < len(it.NetFlux); i++ {
		worst = math.Max(worst, math.Abs(total(i)-ref))
	}
	if scale := math.Abs(ref); scale > 0 {
		worst /= scale
	}
	f.value = worst
}

func (f *FluxImbalance) Value() float64 { return f.value }

func (f *FluxImbalance) Reset() { f.value = 0 }

// ConvectiveFraction reports the largest share of the total upward flux
// carried by convection in any layer of the latest iteration.
type ConvectiveFraction struct {
	name  string
	value float64
}

func NewConvectiveFraction() *ConvectiveFraction {
	return &ConvectiveFraction{
		name: "convective_fraction",
	}
}

func (c *ConvectiveFraction) Name() string { return c.name }

func (c *ConvectiveFraction) Observe(it equilibrium.Iteration) {
	c.value = 0
	for i, fc := range it.ConvectiveFlux {
		if fc <= 0 || i >= len(it.NetFlux) {
			continue
		}
		c.value = math.Max(c.value, fc/(math.Abs(it.NetFlux[i])+fc))
	}
}

func (c *ConvectiveFraction) Value() float64 { return c.value }

func (c *ConvectiveFraction) Reset() { c.value = 0 }

// Standard returns the metrics recorded for every stored run.
func Standard() []equilibrium.Metric {
	return []equilibrium.Metric{
		NewMaxTemperatureChange(),
		NewOutgoingFlux(),
		NewFluxImbalance(),
		NewConvectiveFraction(),
		NewOscillation(),
	}
}
