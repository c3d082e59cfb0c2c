// Package ratelimit throttles requests to the feed API.
//
// TokenBucket grants a fixed number of requests per period and refills all
// tokens at once when the period elapses. The paginator and the download
// workers share one bucket per run:
//
//	limiter := ratelimit.NewPerMinute(cfg.RateLimit.RequestsPerMinute, log)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
