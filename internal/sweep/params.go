package sweep

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/radtrans/internal/config"
)

// Setter applies one parameter value to a configuration.
type Setter func(cfg *config.Config, v float64)

// Parameters are the configuration fields a sweep can vary.
var Parameters = map[string]Setter{
	"internal_temperature": func(c *config.Config, v float64) { c.Boundary.InternalTemperature = v },
	"stellar_temperature":  func(c *config.Config, v float64) { c.Boundary.StellarTemperature = v },
	"dilution":             func(c *config.Config, v float64) { c.Boundary.Dilution = v },
	"kappa":                func(c *config.Config, v float64) { c.Opacity.Kappa = v },
	"omega0":               func(c *config.Config, v float64) { c.Scattering.Omega0 = v },
	"g0":                   func(c *config.Config, v float64) { c.Scattering.G0 = v },
	"gravity":              func(c *config.Config, v float64) { c.Atmosphere.Gravity = v },
	"mixing_length":        func(c *config.Config, v float64) { c.Atmosphere.MixingLength = v },
	"temperature":          func(c *config.Config, v float64) { c.Atmosphere.Temperature = v },
}

// ParameterNames returns the sweepable parameter names in sorted order.
func ParameterNames() []string {
	names := make([]string, 0, len(Parameters))
	for name := range Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply returns a copy of base with the named values set. The copy is
// renamed after the values so stored runs can be told apart.
func Apply(base *config.Config, values map[string]float64) (*config.Config, error) {
	cfg := base.Clone()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	suffix := make([]string, 0, len(names))
	for _, name := range names {
		set, ok := Parameters[name]
		if !ok {
			return nil, fmt.Errorf("sweep: unknown parameter %q (available: %v)", name, ParameterNames())
		}
		set(cfg, values[name])
		suffix = append(suffix, fmt.Sprintf("%s=%g", name, values[name]))
	}
	if len(suffix) > 0 {
		cfg.Name = base.Name + "[" + strings.Join(suffix, ",") + "]"
	}
	return cfg, nil
}

// ParseRange parses "name=v1,v2,..." into a parameter name and its values.
func ParseRange(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("sweep: expected name=v1,v2,... got %q", s)
	}
	if _, known := Parameters[name]; !known {
		return "", nil, fmt.Errorf("sweep: unknown parameter %q (available: %v)", name, ParameterNames())
	}
	fields := strings.Split(list, ",")
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("sweep: %s: %w", name, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}
