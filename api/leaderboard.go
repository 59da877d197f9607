package api

import (
	"sync"

	"cosmossdk.io/math"
	"github.com/google/btree"

	apitypes "github.com/openalpha/launchpad/api/types"
	"github.com/openalpha/launchpad/x/launchpad/types"
)

const btreeDegree = 32

// rankItem orders pools by spot price descending, ties broken by pool id
type rankItem struct {
	poolID string
	spot   math.LegacyDec
}

// Less implements btree.Item
func (a *rankItem) Less(b btree.Item) bool {
	o := b.(*rankItem)
	if !a.spot.Equal(o.spot) {
		return a.spot.GT(o.spot)
	}
	return a.poolID < o.poolID
}

// Leaderboard ranks pools by spot price
type Leaderboard struct {
	mu    sync.RWMutex
	tree  *btree.BTree
	items map[string]*rankItem
}

// NewLeaderboard creates an empty leaderboard
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		tree:  btree.New(btreeDegree),
		items: make(map[string]*rankItem),
	}
}

// Update inserts the pool or moves it to its new rank
func (l *Leaderboard) Update(pool types.Pool) {
	id := pool.ID()
	item := &rankItem{poolID: id, spot: pool.SpotPrice()}

	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.items[id]; ok {
		l.tree.Delete(old)
	}
	l.tree.ReplaceOrInsert(item)
	l.items[id] = item
}

// Top returns up to limit entries, highest spot price first
func (l *Leaderboard) Top(limit int) []apitypes.RankEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]apitypes.RankEntry, 0, min(limit, l.tree.Len()))
	l.tree.Ascend(func(i btree.Item) bool {
		if len(entries) >= limit {
			return false
		}
		item := i.(*rankItem)
		entries = append(entries, apitypes.RankEntry{
			Rank:      len(entries) + 1,
			PoolID:    item.poolID,
			SpotPrice: item.spot.String(),
		})
		return true
	})
	return entries
}

// Len returns the number of ranked pools
func (l *Leaderboard) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree.Len()
}
