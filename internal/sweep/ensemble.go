// Package sweep runs many equilibrium configurations side by side: an
// Ensemble solves a fixed list of configurations concurrently and a
// GridSearch walks the cartesian product of parameter values to find the
// configuration whose metric is closest to a target.
package sweep

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/radtrans/internal/config"
	"github.com/san-kum/radtrans/internal/equilibrium"
	"github.com/san-kum/radtrans/internal/metrics"
)

// Outcome is the result of solving one configuration. Err is set when the
// configuration failed to build or the run failed; Result may still hold
// a partial run.
type Outcome struct {
	Config       *config.Config
	Result       *equilibrium.Result
	OutgoingFlux float64
	Elapsed      time.Duration
	Err          error
}

// Ensemble solves configurations concurrently with a bounded number of
// workers.
type Ensemble struct {
	configs []*config.Config
	workers int
	log     logrus.FieldLogger
}

// NewEnsemble returns an ensemble over configs. workers <= 0 uses
// GOMAXPROCS.
func NewEnsemble(configs []*config.Config, workers int, log logrus.FieldLogger) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ensemble{configs: configs, workers: workers, log: log}
}

// Run solves every configuration and returns the outcomes in input order.
// Failures are reported per outcome; Run itself only fails when ctx is
// cancelled.
func (e *Ensemble) Run(ctx context.Context) ([]Outcome, error) {
	outcomes := make([]Outcome, len(e.configs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(e.workers, len(e.configs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = e.solve(ctx, e.configs[idx])
			}
		}()
	}

feed:
	for i := range e.configs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes, ctx.Err()
}

func (e *Ensemble) solve(ctx context.Context, cfg *config.Config) (out Outcome) {
	out.Config = cfg
	start := time.Now()
	defer func() { out.Elapsed = time.Since(start) }()

	setup, err := cfg.Build(e.log)
	if err != nil {
		out.Err = err
		return out
	}
	solver, err := setup.NewSolver()
	if err != nil {
		out.Err = err
		return out
	}
	for _, m := range metrics.Standard() {
		solver.AddMetric(m)
	}

	out.Result, out.Err = solver.Run(ctx)
	if spectrum := out.Result.OutgoingSpectrum(); spectrum != nil {
		out.OutgoingFlux = setup.Grid.Bolometric(spectrum)
	}
	e.log.WithFields(logrus.Fields{
		"name":       cfg.Name,
		"status":     out.Result.Status.String(),
		"iterations": out.Result.Iterations,
	}).Debug("ensemble member finished")
	return out
}
