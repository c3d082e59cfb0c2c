package rank

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"
	"sync"

	"dankrank/pkg/models"
)

// DefaultTopK is the number of items kept for download
const DefaultTopK = 10

// Strategy selects how items are placed in a RankedSet
type Strategy string

const (
	// StrategyFront compares a new item with the head only: a strictly
	// higher score goes to the front, anything else to the back.
	StrategyFront Strategy = "front"
	// StrategyHeap keeps the K best items in a bounded min-heap.
	StrategyHeap Strategy = "heap"
)

// ParseStrategy validates a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case "", StrategyFront:
		return StrategyFront, nil
	case StrategyHeap:
		return StrategyHeap, nil
	default:
		return "", fmt.Errorf("unknown rank strategy %q", s)
	}
}

// RankedSet holds scored items in rank order
type RankedSet struct {
	mu       sync.Mutex
	k        int
	strategy Strategy

	list []models.MediaItem
	heap minHeap
	seq  int
}

// NewRankedSet creates a set exposing at most k items
func NewRankedSet(k int, strategy Strategy) *RankedSet {
	if k <= 0 {
		k = DefaultTopK
	}
	if strategy == "" {
		strategy = StrategyFront
	}
	return &RankedSet{k: k, strategy: strategy}
}

// Insert places a scored item
func (s *RankedSet) Insert(item models.MediaItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.strategy {
	case StrategyHeap:
		s.seq++
		e := entry{item: item, seq: s.seq}
		if s.heap.Len() < s.k {
			heap.Push(&s.heap, e)
			return
		}
		if item.Score > s.heap[0].item.Score {
			s.heap[0] = e
			heap.Fix(&s.heap, 0)
		}
	default:
		if len(s.list) > 0 && item.Score > s.list[0].Score {
			s.list = append([]models.MediaItem{item}, s.list...)
			return
		}
		s.list = append(s.list, item)
	}
}

// Top returns a copy of the first K items in rank order
func (s *RankedSet) Top() []models.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.strategy == StrategyHeap {
		entries := make([]entry, len(s.heap))
		copy(entries, s.heap)
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].item.Score != entries[j].item.Score {
				return entries[i].item.Score > entries[j].item.Score
			}
			return entries[i].seq < entries[j].seq
		})
		out := make([]models.MediaItem, len(entries))
		for i, e := range entries {
			out[i] = e.item
		}
		return out
	}

	n := len(s.list)
	if n > s.k {
		n = s.k
	}
	out := make([]models.MediaItem, n)
	copy(out, s.list[:n])
	return out
}

// Len returns the number of items held. With the front strategy this may
// exceed K.
func (s *RankedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strategy == StrategyHeap {
		return s.heap.Len()
	}
	return len(s.list)
}

// K returns the capacity exposed by Top
func (s *RankedSet) K() int { return s.k }

// Strategy returns the insertion strategy
func (s *RankedSet) Strategy() Strategy { return s.strategy }

type entry struct {
	item models.MediaItem
	seq  int
}

// minHeap orders by score, then by reverse arrival so the newest of equal
// scores is evicted first.
type minHeap []entry

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].item.Score != h[j].item.Score {
		return h[i].item.Score < h[j].item.Score
	}
	return h[i].seq > h[j].seq
}
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
