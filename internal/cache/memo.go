// Package cache memoizes score results for dataset pairs that were already
// compared. Nothing is cached implicitly; callers opt in by scoring through a
// Memo.
package cache

import (
	"context"
	"sync"

	"github.com/peekknuf/anonscore/internal/dataset"
	"github.com/peekknuf/anonscore/internal/scoring"
)

const DefaultMaxEntries = 64

type key struct {
	original    uint64
	transformed uint64
}

// Memo caches results of one Scorer keyed by the content hashes of the two
// datasets. The oldest entry is evicted once maxEntries is reached.
type Memo struct {
	mu sync.RWMutex

	scorer     *scoring.Scorer
	maxEntries int

	entries map[key]scoring.ScoreResult
	order   []key // insertion order for eviction

	hits   int
	misses int
}

func New(scorer *scoring.Scorer, maxEntries int) *Memo {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memo{
		scorer:     scorer,
		maxEntries: maxEntries,
		entries:    make(map[key]scoring.ScoreResult),
	}
}

// Score returns the cached result for identical content or scores the pair
// and stores the result. Errors are not cached. The returned result shares
// its maps with the cache and must not be modified.
func (m *Memo) Score(ctx context.Context, original, transformed *dataset.Dataset) (scoring.ScoreResult, error) {
	if original == nil || transformed == nil {
		return scoring.ScoreResult{}, scoring.ErrNilDataset
	}
	k := key{original: original.Hash(), transformed: transformed.Hash()}

	m.mu.RLock()
	res, ok := m.entries[k]
	m.mu.RUnlock()
	if ok {
		m.mu.Lock()
		m.hits++
		m.mu.Unlock()
		return res, nil
	}

	res, err := m.scorer.Score(ctx, original, transformed)
	if err != nil {
		return scoring.ScoreResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
	if _, exists := m.entries[k]; !exists {
		if len(m.order) >= m.maxEntries {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.entries, oldest)
		}
		m.order = append(m.order, k)
	}
	m.entries[k] = res
	return res, nil
}

func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats returns the hit and miss counts since the Memo was created or last
// reset.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}

func (m *Memo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[key]scoring.ScoreResult)
	m.order = nil
	m.hits, m.misses = 0, 0
}
