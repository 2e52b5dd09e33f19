package sweep

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/radtrans/internal/config"
)

// GridSearch evaluates every combination of parameter values and picks
// the one whose metric lands closest to a target.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
	log        logrus.FieldLogger
}

func NewGridSearch(params []string, ranges [][]float64, workers int, log logrus.FieldLogger) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("sweep: %d parameters for %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := Parameters[name]; !ok {
			return nil, fmt.Errorf("sweep: unknown parameter %q (available: %v)", name, ParameterNames())
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("sweep: parameter %q has no values", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, workers: workers, log: log}, nil
}

// Points returns every combination of parameter values, varying the last
// parameter fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var points []map[string]float64
	g.enumerate(0, map[string]float64{}, &points)
	return points
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, points *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*points = append(*points, p)
		return
	}
	name := g.paramNames[depth]
	for _, v := range g.ranges[depth] {
		current[name] = v
		g.enumerate(depth+1, current, points)
	}
	delete(current, name)
}

// Best is the winning grid point of a search.
type Best struct {
	Params   map[string]float64
	Value    float64
	Distance float64
	Outcome  Outcome
}

// Search solves every grid point and returns the one whose metric is
// closest to target, along with all outcomes in grid order. Points whose
// run failed or did not converge are skipped. metric names one of the
// standard run metrics.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string, target float64) (*Best, []Outcome, error) {
	points := g.Points()
	configs := make([]*config.Config, len(points))
	for i, p := range points {
		cfg, err := Apply(base, p)
		if err != nil {
			return nil, nil, err
		}
		configs[i] = cfg
	}

	outcomes, err := NewEnsemble(configs, g.workers, g.log).Run(ctx)
	if err != nil {
		return nil, outcomes, err
	}

	var best *Best
	for i, out := range outcomes {
		if out.Err != nil || out.Result == nil || !out.Result.Converged {
			continue
		}
		v, ok := out.Result.Metrics[metric]
		if !ok {
			return nil, outcomes, fmt.Errorf("sweep: unknown metric %q", metric)
		}
		d := math.Abs(v - target)
		if best == nil || d < best.Distance {
			best = &Best{Params: points[i], Value: v, Distance: d, Outcome: out}
		}
	}
	if best == nil {
		return nil, outcomes, fmt.Errorf("sweep: no grid point converged")
	}
	return best, outcomes, nil
}
