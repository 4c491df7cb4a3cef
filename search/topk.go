package search

import (
	"container/heap"
	"sort"

	"github.com/veridict/caselaw/core"
)

// topK keeps the best k candidate scores seen so far using a bounded
// min-heap, so a full corpus scan needs O(k) memory. Ordering is score
// descending with case ID ascending on ties.
type topK struct {
	k     int
	items candidateHeap
}

func newTopK(k int) *topK {
	return &topK{
		k:     k,
		items: make(candidateHeap, 0, k),
	}
}

// betterCandidate reports whether a outranks b.
func betterCandidate(a, b core.CandidateScore) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.CaseID < b.CaseID
}

// Add offers a candidate; it is kept only if it outranks the current worst.
func (t *topK) Add(c core.CandidateScore) {
	if t.k <= 0 {
		return
	}
	if len(t.items) < t.k {
		heap.Push(&t.items, c)
		return
	}
	if betterCandidate(c, t.items[0]) {
		t.items[0] = c
		heap.Fix(&t.items, 0)
	}
}

// Len returns the number of candidates currently retained.
func (t *topK) Len() int {
	return len(t.items)
}

// Sorted drains the heap into a slice ordered best first.
func (t *topK) Sorted() []core.CandidateScore {
	result := make([]core.CandidateScore, len(t.items))
	copy(result, t.items)
	sort.Slice(result, func(i, j int) bool {
		return betterCandidate(result[i], result[j])
	})
	return result
}

// candidateHeap is a min-heap: the root is the worst retained candidate.
type candidateHeap []core.CandidateScore

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	// Inverted so the weakest candidate sits at the root.
	return betterCandidate(h[j], h[i])
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(core.CandidateScore))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
