package api

import (
	"sync"

	"github.com/huandu/skiplist"

	apitypes "github.com/openalpha/launchpad/api/types"
)

// seqKeyDesc orders swap sequence numbers newest first
type seqKeyDesc struct{}

func (seqKeyDesc) Compare(lhs, rhs interface{}) int {
	l, r := lhs.(uint64), rhs.(uint64)
	switch {
	case l > r:
		return -1
	case l < r:
		return 1
	}
	return 0
}

func (seqKeyDesc) CalcScore(key interface{}) float64 {
	return -float64(key.(uint64))
}

// History keeps the most recent swaps of every pool
type History struct {
	mu       sync.RWMutex
	capacity int
	pools    map[string]*skiplist.SkipList
}

// NewHistory creates a history retaining capacity swaps per pool
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{
		capacity: capacity,
		pools:    make(map[string]*skiplist.SkipList),
	}
}

// Add records a swap under its sequence number, evicting the oldest
// entry once the pool is at capacity
func (h *History) Add(seq uint64, swap apitypes.SwapRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.pools[swap.PoolID]
	if !ok {
		list = skiplist.New(seqKeyDesc{})
		h.pools[swap.PoolID] = list
	}
	list.Set(seq, swap)
	for list.Len() > h.capacity {
		list.Remove(list.Back().Key())
	}
}

// Recent returns up to limit swaps of a pool, newest first
func (h *History) Recent(poolID string, limit int) []apitypes.SwapRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	list, ok := h.pools[poolID]
	if !ok {
		return []apitypes.SwapRecord{}
	}
	out := make([]apitypes.SwapRecord, 0, min(limit, list.Len()))
	for elem := list.Front(); elem != nil && len(out) < limit; elem = elem.Next() {
		out = append(out, elem.Value.(apitypes.SwapRecord))
	}
	return out
}
