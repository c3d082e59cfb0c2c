// Package scheduler repeats a harvest on a cron schedule until its context
// is cancelled.
package scheduler
