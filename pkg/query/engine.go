package query

import (
	"context"
	"fmt"

	"github.com/owenleonard11/chronam-utils/pkg/chronam"
	"github.com/owenleonard11/chronam-utils/pkg/config"
	"github.com/owenleonard11/chronam-utils/pkg/logger"
	"github.com/owenleonard11/chronam-utils/pkg/ratelimit"
	"github.com/owenleonard11/chronam-utils/pkg/retry"
)

// Status tracks a query run through its lifecycle. Within one Run invocation
// transitions are forward-only: Pending -> InProgress -> Complete or Failed.
// A Failed state may be handed back to Run, which marks it InProgress again
// and resumes from the first unfetched page.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// FetchError reports the page fetch that ended a run after retries were
// exhausted. It is stored on the state rather than panicking the run, so a
// batch of sibling queries can inspect which page of which query gave out.
type FetchError struct {
	Desc     string
	Page     int
	Attempts int
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("query %q: page %d failed after %d attempts: %v", e.Desc, e.Page, e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// State is the accumulated progress of one query run. Results is keyed by
// archive page id; the first record seen for an id wins, so re-fetching a
// page never mutates records already collected. A State is owned by a single
// goroutine at a time.
type State struct {
	Query *chronam.Query

	Results map[string]chronam.Record
	// NextPage is the 0-based index of the first page not yet fetched
	NextPage int
	// TotalAvailable is the archive's total hit count, -1 until the first
	// page has been observed
	TotalAvailable int

	Status Status
	Err    error
}

// NewState creates a fresh Pending state for the query
func NewState(q *chronam.Query) *State {
	return &State{
		Query:          q,
		Results:        make(map[string]chronam.Record),
		TotalAvailable: -1,
		Status:         StatusPending,
	}
}

// Target returns the number of records this run wants: the query's
// MaxResults cap or, once known, everything the archive has.
func (s *State) Target() int {
	if s.Query.MaxResults > 0 {
		if s.TotalAvailable >= 0 && s.TotalAvailable < s.Query.MaxResults {
			return s.TotalAvailable
		}
		return s.Query.MaxResults
	}
	if s.TotalAvailable >= 0 {
		return s.TotalAvailable
	}
	return -1
}

// IDs returns the collected record ids in unspecified order
func (s *State) IDs() []string {
	ids := make([]string, 0, len(s.Results))
	for id := range s.Results {
		ids = append(ids, id)
	}
	return ids
}

// Engine retrieves search results page by page, consuming one rate-limit
// permit per HTTP attempt. Engines are stateless across runs and safe for
// concurrent use; all progress lives in the State.
type Engine struct {
	client   *chronam.Client
	limiter  ratelimit.Limiter
	pageSize int

	maxAttempts int
	backoff     retry.BackoffStrategy

	logger logger.Logger

	// OnPage, when set, is called after every successfully fetched page with
	// the updated state. Checkpointing hooks in here.
	OnPage func(*State)
}

// NewEngine creates a query engine sharing the given client and limiter
func NewEngine(client *chronam.Client, limiter ratelimit.Limiter, cfg *config.Config, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Engine{
		client:      client,
		limiter:     limiter,
		pageSize:    cfg.Query.PageSize,
		maxAttempts: cfg.Retry.MaxAttempts,
		backoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.Retry.BaseDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		logger: log,
	}
}

// FetchPage retrieves one page of results, retrying transient failures with
// backoff. The rate-limit permit is acquired inside the retried operation:
// every HTTP attempt, including retries, consumes its own permit.
func (e *Engine) FetchPage(ctx context.Context, q *chronam.Query, pageIndex int) (*chronam.SearchResult, error) {
	op := func() (*chronam.SearchResult, error) {
		if err := e.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		return e.client.SearchPage(q, pageIndex, e.pageSize)
	}

	return retry.DoWithResult(op, &retry.Config{
		MaxAttempts: e.maxAttempts,
		Backoff:     e.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      e.logger,
	})
}

// Run fetches pages sequentially from st.NextPage until the query's target is
// met, recording each page's records into the state. On failure the state
// keeps everything collected so far, is marked Failed, and the error is
// returned; calling Run again resumes from the first unfetched page without
// re-fetching completed pages. Run on a Complete state is a no-op.
func (e *Engine) Run(ctx context.Context, st *State) error {
	if st.Status == StatusComplete {
		return nil
	}

	st.Status = StatusInProgress
	st.Err = nil

	for {
		if done := e.targetMet(st); done {
			break
		}

		result, err := e.FetchPage(ctx, st.Query, st.NextPage)
		if err != nil {
			st.Status = StatusFailed
			st.Err = &FetchError{
				Desc:     st.Query.Desc,
				Page:     st.NextPage,
				Attempts: e.maxAttempts,
				Cause:    err,
			}
			e.logger.ErrorWithFields("query run failed", map[string]interface{}{
				"query":     st.Query.Desc,
				"page":      st.NextPage,
				"collected": len(st.Results),
				"error":     err.Error(),
			})
			return st.Err
		}

		st.TotalAvailable = result.TotalItems

		added := 0
		for _, rec := range result.Items {
			if _, dup := st.Results[rec.ID]; dup {
				continue
			}
			if st.Query.MaxResults > 0 && len(st.Results) >= st.Query.MaxResults {
				break
			}
			st.Results[rec.ID] = rec
			added++
		}
		st.NextPage++

		e.logger.DebugWithFields("fetched results page", map[string]interface{}{
			"query":     st.Query.Desc,
			"page":      st.NextPage - 1,
			"added":     added,
			"collected": len(st.Results),
			"total":     st.TotalAvailable,
		})

		if e.OnPage != nil {
			e.OnPage(st)
		}

		// An empty page means the archive ran out before totalItems said it
		// would; stop rather than loop forever
		if len(result.Items) == 0 {
			break
		}
	}

	st.Status = StatusComplete
	st.Err = nil

	e.logger.InfoWithFields("query run complete", map[string]interface{}{
		"query":     st.Query.Desc,
		"collected": len(st.Results),
		"total":     st.TotalAvailable,
	})

	return nil
}

// targetMet reports whether the state already holds every record the run
// wants
func (e *Engine) targetMet(st *State) bool {
	target := st.Target()
	return target >= 0 && len(st.Results) >= target
}

// RetrieveAll runs the query from scratch and returns its state. On error
// the returned state carries the partial results and the failure cause.
func (e *Engine) RetrieveAll(ctx context.Context, q *chronam.Query) (*State, error) {
	st := NewState(q)
	err := e.Run(ctx, st)
	return st, err
}

// Resume continues a previously failed or interrupted state. It is Run by
// another name, kept for call sites where the intent is resumption.
func (e *Engine) Resume(ctx context.Context, st *State) error {
	return e.Run(ctx, st)
}
