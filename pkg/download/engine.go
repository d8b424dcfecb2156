package download

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/owenleonard11/chronam-utils/pkg/chronam"
	"github.com/owenleonard11/chronam-utils/pkg/config"
	"github.com/owenleonard11/chronam-utils/pkg/logger"
	"github.com/owenleonard11/chronam-utils/pkg/query"
	"github.com/owenleonard11/chronam-utils/pkg/ratelimit"
	"github.com/owenleonard11/chronam-utils/pkg/retry"
)

// TargetStatus is the ledger state of one download target
type TargetStatus string

const (
	TargetPending TargetStatus = "pending"
	TargetDone    TargetStatus = "done"
	TargetFailed  TargetStatus = "failed"
)

// Target is one file to download: an archive page id plus the requested file
// kind. Status and Err record the outcome; Skipped marks files that were
// already on disk.
type Target struct {
	ID        string
	Kind      chronam.FileKind
	LocalPath string

	Status  TargetStatus
	Skipped bool
	Size    int
	Err     error
}

// FileDownloader fetches the raw bytes of one archive file
type FileDownloader interface {
	DownloadFile(id string, kind chronam.FileKind) ([]byte, error)
}

// FileStore persists downloaded files by relative path
type FileStore interface {
	Exists(relPath string) bool
	Save(relPath string, r io.Reader) error
}

// Engine downloads the files for a set of archive page ids with a bounded
// number of concurrent workers. Every HTTP attempt consumes a permit from the
// shared rate limiter; a failed target never stops its siblings.
type Engine struct {
	ids     []string
	client  FileDownloader
	store   FileStore
	limiter ratelimit.Limiter

	numWorkers  int
	maxAttempts int
	backoff     retry.BackoffStrategy

	logger logger.Logger
}

// NewEngine creates a download engine for the given archive page ids
func NewEngine(ids []string, client FileDownloader, store FileStore, limiter ratelimit.Limiter, cfg *config.Config, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Engine{
		ids:         ids,
		client:      client,
		store:       store,
		limiter:     limiter,
		numWorkers:  cfg.Download.ConcurrentDownloads,
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

// FromFile creates a download engine from an id list written by
// query.DumpIDs
func FromFile(path string, client FileDownloader, store FileStore, limiter ratelimit.Limiter, cfg *config.Config, log logger.Logger) (*Engine, error) {
	ids, err := query.LoadIDs(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(ids, client, store, limiter, cfg, log), nil
}

// IDs returns the engine's target ids
func (e *Engine) IDs() []string {
	return e.ids
}

// DownloadAll downloads the file of the given kind for every id, returning
// the per-target ledger. Targets already on disk are marked Done without a
// request, so re-running after an interruption fetches only what is missing.
// The returned error is non-nil only when ctx ended the run early; per-target
// failures live in the ledger.
func (e *Engine) DownloadAll(ctx context.Context, kind chronam.FileKind) ([]*Target, error) {
	targets := make([]*Target, len(e.ids))
	for i, id := range e.ids {
		targets[i] = &Target{
			ID:        id,
			Kind:      kind,
			LocalPath: chronam.LocalPath(id, kind),
			Status:    TargetPending,
		}
	}

	e.logger.InfoWithFields("Starting downloads", map[string]interface{}{
		"targets":     len(targets),
		"kind":        string(kind),
		"num_workers": e.numWorkers,
	})

	jobs := make(chan *Target)
	var wg sync.WaitGroup

	for i := 0; i < e.numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for target := range jobs {
				e.processTarget(ctx, target, workerID)
			}
		}(i)
	}

	// Feed jobs until done or cancelled; unfed targets stay Pending
feed:
	for _, target := range targets {
		select {
		case jobs <- target:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	done, failed, skipped := tally(targets)
	e.logger.InfoWithFields("Downloads finished", map[string]interface{}{
		"done":    done,
		"failed":  failed,
		"skipped": skipped,
		"kind":    string(kind),
	})

	return targets, ctx.Err()
}

// processTarget downloads and stores one file, recording the outcome on the
// target
func (e *Engine) processTarget(ctx context.Context, target *Target, workerID int) {
	start := time.Now()

	if e.store.Exists(target.LocalPath) {
		target.Status = TargetDone
		target.Skipped = true
		e.logger.DebugWithFields("File already downloaded", map[string]interface{}{
			"worker_id": workerID,
			"id":        target.ID,
			"path":      target.LocalPath,
		})
		return
	}

	op := func() ([]byte, error) {
		if err := e.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		return e.client.DownloadFile(target.ID, target.Kind)
	}

	data, err := retry.DoWithResult(op, &retry.Config{
		MaxAttempts: e.maxAttempts,
		Backoff:     e.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      e.logger,
	})
	if err != nil {
		target.Status = TargetFailed
		target.Err = err
		e.logger.ErrorWithFields("Worker failed to download file", map[string]interface{}{
			"worker_id": workerID,
			"id":        target.ID,
			"error":     err.Error(),
			"duration":  time.Since(start),
		})
		return
	}

	if err := e.store.Save(target.LocalPath, bytes.NewReader(data)); err != nil {
		target.Status = TargetFailed
		target.Err = err
		e.logger.ErrorWithFields("Worker failed to save file", map[string]interface{}{
			"worker_id": workerID,
			"id":        target.ID,
			"error":     err.Error(),
			"size":      len(data),
		})
		return
	}

	target.Status = TargetDone
	target.Size = len(data)

	e.logger.DebugWithFields("Worker completed download", map[string]interface{}{
		"worker_id": workerID,
		"id":        target.ID,
		"size":      len(data),
		"duration":  time.Since(start),
	})
}

// CheckDownloads reports how many of the engine's targets for the given kind
// are already on disk, out of the total
func (e *Engine) CheckDownloads(kind chronam.FileKind) (done, total int) {
	total = len(e.ids)
	for _, id := range e.ids {
		if e.store.Exists(chronam.LocalPath(id, kind)) {
			done++
		}
	}
	return done, total
}

func tally(targets []*Target) (done, failed, skipped int) {
	for _, t := range targets {
		switch t.Status {
		case TargetDone:
			done++
			if t.Skipped {
				skipped++
			}
		case TargetFailed:
			failed++
		}
	}
	return done, failed, skipped
}
