package rank

import (
	"context"
	"time"

	"dankrank/pkg/logger"
	"dankrank/pkg/models"
)

// DefaultWindow is the maximum age of an item eligible for scoring
const DefaultWindow = 24 * time.Hour

// Source yields feed items newest first
type Source interface {
	Next(ctx context.Context) (models.MediaItem, bool)
	Err() error
}

// StopReason tells why consumption of a source ended
type StopReason string

const (
	StopExhausted StopReason = "exhausted"
	StopWindow    StopReason = "window"
	StopNonImage  StopReason = "non_image"
	StopError     StopReason = "error"
)

// Stats summarises one call to Consume
type Stats struct {
	Scanned int        `json:"scanned"`
	Scored  int        `json:"scored"`
	Skipped int        `json:"skipped"`
	Stop    StopReason `json:"stop"`
}

// Options tune the engine
type Options struct {
	// StopOnNonImage ends consumption at the first item that is not an
	// image instead of skipping it.
	StopOnNonImage bool
}

// Engine scores feed items and folds them into a RankedSet
type Engine struct {
	opts   Options
	logger logger.Logger
}

// NewEngine creates a rank engine
func NewEngine(opts Options, log logger.Logger) *Engine {
	return &Engine{
		opts:   opts,
		logger: logger.OrDefault(log).WithField("component", "rank"),
	}
}

// Consume pulls items from src until it is exhausted or an item older than
// window is seen. Since the feed is newest first, the first stale item ends
// the walk. Every eligible image is scored against followers and inserted
// into set.
func (e *Engine) Consume(ctx context.Context, set *RankedSet, src Source, followers int64, now time.Time, window time.Duration) (Stats, error) {
	var stats Stats

	for {
		if err := ctx.Err(); err != nil {
			stats.Stop = StopError
			return stats, err
		}

		item, ok := src.Next(ctx)
		if !ok {
			if err := src.Err(); err != nil {
				stats.Stop = StopError
				return stats, err
			}
			stats.Stop = StopExhausted
			return stats, nil
		}
		stats.Scanned++

		if item.Age(now) > int64(window/time.Second) {
			stats.Stop = StopWindow
			e.logger.DebugWithFields("item outside window, stopping", map[string]interface{}{
				"item_id": item.ID,
				"owner":   item.Owner,
				"age_s":   item.Age(now),
			})
			return stats, nil
		}

		if item.Kind != models.KindImage {
			if e.opts.StopOnNonImage {
				stats.Stop = StopNonImage
				return stats, nil
			}
			stats.Skipped++
			continue
		}

		item.Followers = followers
		item.Score = DankRank(followers, item.Likes, item.Comments)
		item.Scored = true
		set.Insert(item)
		stats.Scored++
	}
}
