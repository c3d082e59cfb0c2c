// Package rank scores feed items and keeps the best of them.
//
// The score is DankRank. Engine.Consume streams items from a Source,
// stops at the first item older than the recency window and inserts every
// scored image into a RankedSet. One RankedSet is shared by all accounts of
// a run.
package rank
