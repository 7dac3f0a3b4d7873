package simulation

import (
	"context"
	"sync"

	"github.com/aristath/compass/internal/modules/planning"
)

// defaultBatchWorkers bounds how many plans simulate concurrently.
const defaultBatchWorkers = 10

// BatchResult pairs one plan from a batch with its outcome. Exactly one
// of Result and Error is set.
type BatchResult struct {
	PlanID   string  `json:"plan_id"`
	PlanName string  `json:"plan_name"`
	Result   *Result `json:"result,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// RunBatch simulates every plan on a bounded worker pool and returns
// results in input order. Each plan runs on its own stream seeded
// baseSeed+index, so batch output is reproducible no matter how the
// plans are scheduled across workers. Per-plan failures are reported in
// the matching BatchResult; cancellation aborts the whole batch.
func (e *Engine) RunBatch(ctx context.Context, plans []*planning.Plan, params Params, baseSeed uint64) ([]BatchResult, error) {
	if len(plans) == 0 {
		return []BatchResult{}, nil
	}
	if _, err := params.WithDefaults(); err != nil {
		return nil, err
	}

	jobs := make(chan batchJob, len(plans))
	outcomes := make(chan batchOutcome, len(plans))

	workers := defaultBatchWorkers
	if len(plans) < workers {
		workers = len(plans)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				res, err := e.RunSeeded(job.plan, params, baseSeed+uint64(job.index))
				outcomes <- batchOutcome{index: job.index, result: res, err: err}
			}
		}()
	}

	for i, plan := range plans {
		jobs <- batchJob{index: i, plan: plan}
	}
	close(jobs)

	wg.Wait()
	close(outcomes)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(plans))
	for outcome := range outcomes {
		br := BatchResult{}
		if plan := plans[outcome.index]; plan != nil {
			br.PlanID = plan.ID
			br.PlanName = plan.Name
		}
		if outcome.err != nil {
			br.Error = outcome.err.Error()
		} else {
			br.Result = outcome.result
		}
		results[outcome.index] = br
	}

	e.log.Debug().Int("plans", len(plans)).Msg("Batch simulation completed")

	return results, nil
}

// batchJob is a single plan queued for simulation.
type batchJob struct {
	index int
	plan  *planning.Plan
}

// batchOutcome is the result of one batch job.
type batchOutcome struct {
	index  int
	result *Result
	err    error
}
