package batch

import (
	"context"
	"sync"

	"github.com/owenleonard11/chronam-utils/pkg/chronam"
	"github.com/owenleonard11/chronam-utils/pkg/logger"
	"github.com/owenleonard11/chronam-utils/pkg/query"
)

// Runner executes several queries concurrently through one query engine.
// The engine's rate limiter is shared, so the combined request rate of all
// workers stays inside the budget no matter how many queries run at once.
type Runner struct {
	engine     *query.Engine
	numWorkers int
	logger     logger.Logger
}

// NewRunner creates a batch runner with the given worker bound
func NewRunner(engine *query.Engine, numWorkers int, log logger.Logger) *Runner {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Runner{
		engine:     engine,
		numWorkers: numWorkers,
		logger:     log,
	}
}

// Run retrieves every query and returns one state per query, in input order.
// A query that fails keeps its partial results and is marked Failed without
// disturbing its siblings; cancelling ctx stops all workers promptly. The
// returned states are complete regardless: inspect each state's Status.
func (r *Runner) Run(ctx context.Context, queries []*chronam.Query) []*query.State {
	states := make([]*query.State, len(queries))
	for i, q := range queries {
		states[i] = query.NewState(q)
	}

	r.resume(ctx, states)
	return states
}

// Resume re-runs every state that is not yet Complete, picking each up at
// its first unfetched page. Complete states are untouched.
func (r *Runner) Resume(ctx context.Context, states []*query.State) {
	var pending []*query.State
	for _, st := range states {
		if st.Status != query.StatusComplete {
			pending = append(pending, st)
		}
	}
	r.resume(ctx, pending)
}

func (r *Runner) resume(ctx context.Context, states []*query.State) {
	if len(states) == 0 {
		return
	}

	r.logger.InfoWithFields("Starting query batch", map[string]interface{}{
		"queries":     len(states),
		"num_workers": r.numWorkers,
	})

	jobs := make(chan *query.State)
	var wg sync.WaitGroup

	workers := r.numWorkers
	if workers > len(states) {
		workers = len(states)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for st := range jobs {
				if err := r.engine.Run(ctx, st); err != nil {
					r.logger.WarnWithFields("Query in batch failed", map[string]interface{}{
						"query":     st.Query.Desc,
						"collected": len(st.Results),
						"error":     err.Error(),
					})
				}
			}
		}()
	}

feed:
	for _, st := range states {
		select {
		case jobs <- st:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	complete, failed := 0, 0
	for _, st := range states {
		switch st.Status {
		case query.StatusComplete:
			complete++
		case query.StatusFailed:
			failed++
		}
	}

	r.logger.InfoWithFields("Query batch finished", map[string]interface{}{
		"complete": complete,
		"failed":   failed,
		"total":    len(states),
	})
}

// Failed returns the states of the batch that did not complete
func Failed(states []*query.State) []*query.State {
	var failed []*query.State
	for _, st := range states {
		if st.Status == query.StatusFailed {
			failed = append(failed, st)
		}
	}
	return failed
}
