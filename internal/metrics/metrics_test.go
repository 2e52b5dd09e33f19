package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/radtrans/internal/atmos"
	"github.com/san-kum/radtrans/internal/equilibrium"
)

func TestMaxTemperatureChange(t *testing.T) {
	m := NewMaxTemperatureChange()
	if m.Value() != 0 {
		t.Errorf("expected 0 before any sample, got %f", m.Value())
	}

	m.Observe(equilibrium.Iteration{MaxChange: 12})
	m.Observe(equilibrium.Iteration{MaxChange: 3})
	if m.Value() != 3 {
		t.Errorf("expected latest change 3, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestOscillation(t *testing.T) {
	o := NewOscillation()
	o.Observe(equilibrium.Iteration{Change: []float64{1, 1}})
	o.Observe(equilibrium.Iteration{Change: []float64{-1, 1}})
	o.Observe(equilibrium.Iteration{Change: []float64{-0.5, 0.5}})

	if got := o.Value(); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("expected oscillation 0.5, got %f", got)
	}
	o.Reset()
	if o.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", o.Value())
	}
}

func TestOutgoingFlux(t *testing.T) {
	grid := atmos.WavelengthGrid{1, 2}
	field := atmos.NewFluxField(2, 2)
	field.Up[1][0] = 4
	field.Up[1][1] = 4

	o := NewOutgoingFlux()
	o.Observe(equilibrium.Iteration{Flux: field, Grid: grid})
	// wavenumbers 0.5 and 1 with a flat spectrum of 4
	if got := o.Value(); math.Abs(got-2) > 1e-12 {
		t.Errorf("expected outgoing flux 2, got %f", got)
	}
}

func TestFluxImbalance(t *testing.T) {
	tests := []struct {
		name string
		net  []float64
		conv []float64
		want float64
	}{
		{"constant radiative", []float64{100, 100, 100}, []float64{0, 0, 0}, 0},
		{"convection closes gap", []float64{60, 100, 100}, []float64{40, 0, 0}, 0},
		{"deficit aloft", []float64{100, 100, 50}, []float64{0, 0, 0}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFluxImbalance()
			f.Observe(equilibrium.Iteration{NetFlux: tt.net, ConvectiveFlux: tt.conv})
			if math.Abs(f.Value()-tt.want) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.want, f.Value())
			}
		})
	}
}

func TestConvectiveFraction(t *testing.T) {
	c := NewConvectiveFraction()
	c.Observe(equilibrium.Iteration{NetFlux: []float64{30, 100}, ConvectiveFlux: []float64{70, 0}})
	if math.Abs(c.Value()-0.7) > 1e-12 {
		t.Errorf("expected 0.7, got %f", c.Value())
	}
	c.Reset()
	if c.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", c.Value())
	}
}

func TestStandardNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Standard() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric name %q", m.Name())
		}
		seen[m.Name()] = true
	}
}
