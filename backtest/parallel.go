package backtest

import (
	"context"
	"fmt"

	"github.com/rustyeddy/sigbt/market"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Job is one independent run in a batch.
type Job struct {
	Name    string
	Prices  []market.PricePoint
	Signals []market.Signal
	Params  Params
}

// RunAll executes jobs concurrently, at most limit at a time (limit <= 0
// means no limit). Each job owns its own state; inputs may be shared because
// runs never modify them. Results are returned in job order. The first
// failing job cancels the jobs that have not started yet.
func RunAll(ctx context.Context, jobs []Job, limit int, log logrus.FieldLogger) ([]Result, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([]Result, len(jobs))
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := &Runner{Params: job.Params, Logger: log.WithField("job", job.Name)}
			res, err := r.Run(job.Prices, job.Signals)
			if err != nil {
				return fmt.Errorf("job %s: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
