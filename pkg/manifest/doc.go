// Package manifest builds and stores the summary of a harvest run: the
// ranked items keyed by position with their engagement figures, score and
// download state.
package manifest
