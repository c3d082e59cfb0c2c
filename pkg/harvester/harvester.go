package harvester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dankrank/internal/downloader"
	"dankrank/pkg/config"
	"dankrank/pkg/feed"
	"dankrank/pkg/instagram"
	"dankrank/pkg/logger"
	"dankrank/pkg/manifest"
	"dankrank/pkg/models"
	"dankrank/pkg/ratelimit"
	"dankrank/pkg/rank"

	"github.com/samber/lo"
)

// AccountResult describes how one account was harvested
type AccountResult struct {
	Account   string
	Followers int64
	Pages     int
	Stats     rank.Stats
	Err       error
}

// Result is everything a run produced
type Result struct {
	Accounts     []AccountResult
	Top          []models.MediaItem
	Outcomes     []models.DownloadOutcome
	Manifest     *manifest.Manifest
	ManifestPath string
}

// Failed returns the accounts that could not be harvested
func (r *Result) Failed() []AccountResult {
	return lo.Filter(r.Accounts, func(a AccountResult, _ int) bool {
		return a.Err != nil
	})
}

// Harvester runs the whole pipeline over a list of accounts: profile and
// feed walk per account into one shared ranked set, then download of the
// best items and the manifest.
type Harvester struct {
	config     *config.Config
	strategy   rank.Strategy
	paginator  *feed.Paginator
	engine     *rank.Engine
	dispatcher *downloader.Dispatcher
	logger     logger.Logger
	now        func() time.Time
}

// New wires a harvester around client. Feed pages and downloads share one
// rate limiter.
func New(cfg *config.Config, client *instagram.Client, log logger.Logger) (*Harvester, error) {
	strategy, err := rank.ParseStrategy(cfg.Rank.Strategy)
	if err != nil {
		return nil, err
	}
	log = logger.OrDefault(log)

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.NewPerMinute(cfg.RateLimit.RequestsPerMinute, log)
	}

	return &Harvester{
		config:    cfg,
		strategy:  strategy,
		paginator: feed.NewPaginator(client, limiter, log),
		engine:    rank.NewEngine(rank.Options{StopOnNonImage: cfg.Rank.StopOnNonImage}, log),
		dispatcher: downloader.NewDispatcher(client, limiter, downloader.Options{
			Workers:      cfg.Download.Workers,
			Timeout:      cfg.Download.Timeout,
			RetryBackoff: cfg.Download.RetryBackoff,
		}, log),
		logger: log.WithField("component", "harvester"),
		now:    time.Now,
	}, nil
}

// Run harvests accounts in order. A failing account is recorded and the
// others continue. Run returns an error only when every account failed or
// the manifest cannot be written; the manifest is written in both cases
// when possible.
func (h *Harvester) Run(ctx context.Context, accounts []string) (*Result, error) {
	accounts = lo.Uniq(lo.Compact(accounts))
	if len(accounts) == 0 {
		return nil, errors.New("no accounts to harvest")
	}

	now := h.now()
	info := manifest.NewRunInfo(accounts, now)
	set := rank.NewRankedSet(h.config.Rank.TopK, h.strategy)
	res := &Result{ManifestPath: h.config.Output.ManifestPath}

	logger.LogComponentStart(h.logger, "harvester", map[string]interface{}{
		"run_id":   info.ID,
		"accounts": len(accounts),
		"top_k":    set.K(),
		"strategy": string(h.strategy),
		"window":   h.config.Rank.Window.String(),
	})

	for _, account := range accounts {
		ar := h.harvestAccount(ctx, set, account, now)
		res.Accounts = append(res.Accounts, ar)
		if ar.Err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		info.Errors[account] = ar.Err
	}

	res.Top = set.Top()
	if len(res.Top) > 0 {
		outcomes, err := h.dispatcher.FetchAll(ctx, res.Top, h.config.Download.Destination)
		if err != nil {
			h.logger.WithError(err).Error("Downloads could not start")
			outcomes = lo.Map(res.Top, func(item models.MediaItem, _ int) models.DownloadOutcome {
				return models.Failed(item, "", 0, err)
			})
		}
		res.Outcomes = outcomes
	}

	res.Manifest = manifest.Build(res.Top, res.Outcomes, info)
	if err := res.Manifest.Save(res.ManifestPath); err != nil {
		return res, fmt.Errorf("saving manifest: %w", err)
	}

	logger.LogComponentStop(h.logger, "harvester", "completed")
	h.logger.InfoWithFields("Harvest finished", map[string]interface{}{
		"run_id":   info.ID,
		"ranked":   len(res.Top),
		"failed":   len(info.Errors),
		"manifest": res.ManifestPath,
	})

	if len(info.Errors) == len(accounts) {
		return res, fmt.Errorf("all %d accounts failed: %w", len(accounts), errors.Join(lo.Values(info.Errors)...))
	}
	return res, nil
}

func (h *Harvester) harvestAccount(ctx context.Context, set *rank.RankedSet, account string, now time.Time) AccountResult {
	ar := AccountResult{Account: account}
	log := h.logger.WithField("account", account)

	profile, err := h.paginator.FetchProfile(ctx, account)
	if err != nil {
		ar.Err = err
		log.WithError(err).Warn("Account skipped")
		return ar
	}
	ar.Followers = profile.Followers

	it := h.paginator.Iterate(account)
	stats, err := h.engine.Consume(ctx, set, it, profile.Followers, now, h.config.Rank.Window)
	ar.Pages = it.Pages()
	ar.Stats = stats
	if err != nil {
		ar.Err = err
		log.WithError(err).WarnWithFields("Account walk failed", map[string]interface{}{
			"private": profile.Private,
			"pages":   ar.Pages,
			"scored":  stats.Scored,
		})
		return ar
	}

	log.InfoWithFields("Account harvested", map[string]interface{}{
		"private":   profile.Private,
		"followers": profile.Followers,
		"pages":     ar.Pages,
		"scanned":   stats.Scanned,
		"scored":    stats.Scored,
		"skipped":   stats.Skipped,
		"stop":      string(stats.Stop),
	})
	return ar
}
