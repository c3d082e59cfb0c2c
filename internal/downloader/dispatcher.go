package downloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "dankrank/pkg/errors"
	"dankrank/pkg/logger"
	"dankrank/pkg/models"
	"dankrank/pkg/ratelimit"
	"dankrank/pkg/retry"
	"dankrank/pkg/storage"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers      = 10
	DefaultTimeout      = 30 * time.Second
	DefaultRetryBackoff = 5 * time.Second
)

// Fetcher downloads media content. The second attempt of a retried item goes
// through DownloadUnauthenticated.
type Fetcher interface {
	Download(ctx context.Context, rawURL string) ([]byte, error)
	DownloadUnauthenticated(ctx context.Context, rawURL string) ([]byte, error)
}

// Options tunes the dispatcher. Zero values take the defaults.
type Options struct {
	Workers      int
	Timeout      time.Duration
	RetryBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	return o
}

type job struct {
	index int
	item  models.MediaItem
}

type result struct {
	index   int
	outcome models.DownloadOutcome
}

// Dispatcher fetches ranked items with a bounded pool of workers
type Dispatcher struct {
	fetcher Fetcher
	limiter ratelimit.Limiter
	opts    Options
	logger  logger.Logger
}

// NewDispatcher creates a dispatcher. A nil limiter means no throttling.
func NewDispatcher(fetcher Fetcher, limiter ratelimit.Limiter, opts Options, log logger.Logger) *Dispatcher {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &Dispatcher{
		fetcher: fetcher,
		limiter: limiter,
		opts:    opts.withDefaults(),
		logger:  logger.OrDefault(log).WithField("component", "dispatcher"),
	}
}

// Workers returns the size of the worker pool
func (d *Dispatcher) Workers() int {
	return d.opts.Workers
}

// FetchAll downloads items into destination and returns one outcome per item,
// in item order. Item failures are reported in the outcomes; the returned
// error is set only when the destination cannot be prepared.
func (d *Dispatcher) FetchAll(ctx context.Context, items []models.MediaItem, destination string) ([]models.DownloadOutcome, error) {
	store, err := storage.NewManager(destination)
	if err != nil {
		return nil, fmt.Errorf("preparing destination: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	workers := min(d.opts.Workers, len(items))
	jobQueue := make(chan job, workers*2)
	resultQueue := make(chan result, workers)

	d.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": workers,
		"items":       len(items),
		"destination": destination,
	})

	var g errgroup.Group
	for id := 0; id < workers; id++ {
		g.Go(func() error {
			d.worker(ctx, id, store, jobQueue, resultQueue)
			return nil
		})
	}

	go func() {
		for i, item := range items {
			jobQueue <- job{index: i, item: item}
		}
		close(jobQueue)
	}()

	go func() {
		_ = g.Wait()
		close(resultQueue)
	}()

	outcomes := make([]models.DownloadOutcome, len(items))
	for r := range resultQueue {
		outcomes[r.index] = r.outcome
	}

	d.logger.InfoWithFields("Worker pool finished", summarize(outcomes))
	return outcomes, nil
}

// worker drains jobs until the queue is closed. Jobs picked up after ctx is
// done fail without touching the network.
func (d *Dispatcher) worker(ctx context.Context, id int, store *storage.Manager, jobs <-chan job, results chan<- result) {
	d.logger.DebugWithFields("Worker started", map[string]interface{}{"worker_id": id})

	for j := range jobs {
		results <- result{index: j.index, outcome: d.process(ctx, store, j.item)}
	}
}

func (d *Dispatcher) process(ctx context.Context, store *storage.Manager, item models.MediaItem) models.DownloadOutcome {
	name := storage.BaseName(item.URL)
	if name == "" {
		out := models.Failed(item, "", 0, fmt.Errorf("no file name in url %q", item.URL))
		logger.LogDownload(d.logger, item.ID, item.URL, string(out.Status), 0, out.Err)
		return out
	}
	path := store.Path(name)

	if store.Exists(name) {
		logger.LogDownload(d.logger, item.ID, item.URL, string(models.StatusAlreadyPresent), 0, nil)
		return models.DownloadOutcome{
			ItemID: item.ID,
			URL:    item.URL,
			Path:   path,
			Status: models.StatusAlreadyPresent,
		}
	}

	if err := ctx.Err(); err != nil {
		return models.Failed(item, path, 0, err)
	}

	attempts := 0
	data, err := retry.DoWithResult(ctx, func(ctx context.Context, attempt int) ([]byte, error) {
		attempts = attempt
		return d.fetch(ctx, item.URL, attempt)
	}, retry.Once(d.opts.RetryBackoff, d.logger.WithField("item_id", item.ID)))
	if err != nil {
		out := models.Failed(item, path, attempts, err)
		logger.LogDownload(d.logger, item.ID, item.URL, string(out.Status), 0, err)
		return out
	}

	saved, err := store.Save(name, data, item.Created())
	if err != nil {
		out := models.Failed(item, path, attempts, err)
		logger.LogDownload(d.logger, item.ID, item.URL, string(out.Status), 0, err)
		return out
	}

	logger.LogDownload(d.logger, item.ID, item.URL, string(models.StatusDownloaded), saved.Bytes, nil)
	return models.DownloadOutcome{
		ItemID:   item.ID,
		URL:      item.URL,
		Path:     saved.Path,
		Status:   models.StatusDownloaded,
		Bytes:    saved.Bytes,
		ModTime:  saved.ModTime,
		Attempts: attempts,
		Checksum: saved.Checksum,
		Width:    saved.Width,
		Height:   saved.Height,
	}
}

// fetch performs one bounded request. The first attempt uses the session,
// later attempts a fresh unauthenticated request.
func (d *Dispatcher) fetch(ctx context.Context, rawURL string, attempt int) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	var (
		data []byte
		err  error
	)
	if attempt == 1 {
		data, err = d.fetcher.Download(reqCtx, rawURL)
	} else {
		data, err = d.fetcher.DownloadUnauthenticated(reqCtx, rawURL)
	}

	// a request that ran out its own timeout is a transport failure
	if err != nil && ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return nil, errs.Wrap(err, errs.ErrorTypeNetwork, 0, "request timed out")
	}
	return data, err
}

func summarize(outcomes []models.DownloadOutcome) map[string]interface{} {
	counts := lo.CountValuesBy(outcomes, func(o models.DownloadOutcome) models.DownloadStatus {
		return o.Status
	})
	return map[string]interface{}{
		"downloaded":      counts[models.StatusDownloaded],
		"already_present": counts[models.StatusAlreadyPresent],
		"failed":          counts[models.StatusFailed],
	}
}
