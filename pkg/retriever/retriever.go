package retriever

import (
	"context"
	"fmt"

	"github.com/owenleonard11/chronam-utils/internal/batch"
	"github.com/owenleonard11/chronam-utils/pkg/checkpoint"
	"github.com/owenleonard11/chronam-utils/pkg/chronam"
	"github.com/owenleonard11/chronam-utils/pkg/config"
	"github.com/owenleonard11/chronam-utils/pkg/download"
	"github.com/owenleonard11/chronam-utils/pkg/logger"
	"github.com/owenleonard11/chronam-utils/pkg/query"
	"github.com/owenleonard11/chronam-utils/pkg/ratelimit"
	"github.com/owenleonard11/chronam-utils/pkg/storage"
)

// Retriever wires the archive client, rate limiter, storage, and engines
// together from one configuration. Every remote call made through it, search
// or download, draws from the same rate budget.
type Retriever struct {
	client  *chronam.Client
	limiter ratelimit.Limiter
	store   *storage.Manager
	engine  *query.Engine
	config  *config.Config
	logger  logger.Logger
}

// New creates a Retriever from the configuration
func New(cfg *config.Config) (*Retriever, error) {
	log := logger.GetLogger()

	client := chronam.NewClient(cfg.Download.RequestTimeout, log)

	// The archive publishes both a burst budget and a crawl budget; enforce
	// both on every request. The crawl budget can be disabled by setting its
	// max calls to zero.
	budgets := []ratelimit.Budget{
		{MaxCalls: cfg.RateLimit.MaxCalls, Window: cfg.RateLimit.Window},
	}
	if cfg.RateLimit.CrawlMaxCalls > 0 {
		budgets = append(budgets, ratelimit.Budget{
			MaxCalls: cfg.RateLimit.CrawlMaxCalls,
			Window:   cfg.RateLimit.CrawlWindow,
		})
	}
	limiter, err := ratelimit.NewMulti(budgets...)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewManager(cfg.Download.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return &Retriever{
		client:  client,
		limiter: limiter,
		store:   store,
		engine:  query.NewEngine(client, limiter, cfg, log),
		config:  cfg,
		logger:  log,
	}, nil
}

// SearchOptions controls checkpointing behavior for Search
type SearchOptions struct {
	// Resume restores each query's progress from its checkpoint, if any
	Resume bool
	// ForceRestart discards existing checkpoints and starts from scratch
	ForceRestart bool
	// Workers bounds how many queries run concurrently; 0 uses the
	// configured concurrent download count
	Workers int
}

// Search retrieves every query concurrently and returns one state per query
// in input order. Progress is checkpointed after every fetched page;
// completed queries have their checkpoints removed.
func (r *Retriever) Search(ctx context.Context, queries []*chronam.Query, opts SearchOptions) ([]*query.State, error) {
	managers := make(map[string]*checkpoint.Manager, len(queries))
	states := make([]*query.State, len(queries))

	for i, q := range queries {
		mgr, err := checkpoint.NewManager(q.Desc)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize checkpoint for %q: %w", q.Desc, err)
		}
		managers[q.Desc] = mgr

		if opts.ForceRestart {
			if err := mgr.Delete(); err != nil {
				return nil, err
			}
		}

		states[i] = query.NewState(q)
		if opts.Resume && !opts.ForceRestart {
			cp, err := mgr.Load()
			if err != nil {
				return nil, err
			}
			if cp != nil {
				restored, err := cp.Restore(q)
				if err != nil {
					return nil, err
				}
				states[i] = restored
			}
		}
	}

	r.engine.OnPage = func(st *query.State) {
		mgr, ok := managers[st.Query.Desc]
		if !ok {
			return
		}
		if err := mgr.Save(checkpoint.Capture(st)); err != nil {
			r.logger.WarnWithFields("failed to save checkpoint", map[string]interface{}{
				"query": st.Query.Desc,
				"error": err.Error(),
			})
		}
	}
	defer func() { r.engine.OnPage = nil }()

	workers := opts.Workers
	if workers <= 0 {
		workers = r.config.Download.ConcurrentDownloads
	}

	runner := batch.NewRunner(r.engine, workers, r.logger)
	runner.Resume(ctx, states)

	for _, st := range states {
		if st.Status == query.StatusComplete {
			if err := managers[st.Query.Desc].Delete(); err != nil {
				r.logger.WarnWithFields("failed to remove checkpoint", map[string]interface{}{
					"query": st.Query.Desc,
					"error": err.Error(),
				})
			}
		}
	}

	return states, ctx.Err()
}

// Download fetches the file of the given kind for every id into the data
// directory, returning the per-target ledger
func (r *Retriever) Download(ctx context.Context, ids []string, kind chronam.FileKind) ([]*download.Target, error) {
	engine := download.NewEngine(ids, r.client, r.store, r.limiter, r.config, r.logger)
	return engine.DownloadAll(ctx, kind)
}

// DownloadFromFile is Download reading its ids from a file written by
// query.DumpIDs
func (r *Retriever) DownloadFromFile(ctx context.Context, path string, kind chronam.FileKind) ([]*download.Target, error) {
	engine, err := download.FromFile(path, r.client, r.store, r.limiter, r.config, r.logger)
	if err != nil {
		return nil, err
	}
	return engine.DownloadAll(ctx, kind)
}

// CheckDownloads reports how many of the ids already have their file of the
// given kind on disk
func (r *Retriever) CheckDownloads(ids []string, kind chronam.FileKind) (done, total int) {
	engine := download.NewEngine(ids, r.client, r.store, r.limiter, r.config, r.logger)
	return engine.CheckDownloads(kind)
}

// DataDir returns the configured data directory
func (r *Retriever) DataDir() string {
	return r.store.DataDir()
}

// Client returns the underlying archive client
func (r *Retriever) Client() *chronam.Client {
	return r.client
}
