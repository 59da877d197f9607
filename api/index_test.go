package api

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	apitypes "github.com/openalpha/launchpad/api/types"
	lptypes "github.com/openalpha/launchpad/x/launchpad/types"
)

func rankedPool(t *testing.T, assetB string, reserveA int64) lptypes.Pool {
	t.Helper()
	pool, err := lptypes.NewPool(ownerAddr, quoteDenom, assetB,
		math.NewInt(1_000), math.NewInt(reserveA), math.NewInt(10_000), testFees(), 1)
	require.NoError(t, err)
	return pool
}

func TestLeaderboardOrdersBySpotPrice(t *testing.T) {
	lb := NewLeaderboard()
	low := rankedPool(t, "ulow", 0)
	mid := rankedPool(t, "umid", 1_000)
	high := rankedPool(t, "uhigh", 9_000)

	lb.Update(mid)
	lb.Update(low)
	lb.Update(high)
	require.Equal(t, 3, lb.Len())

	top := lb.Top(10)
	require.Equal(t, []string{high.ID(), mid.ID(), low.ID()}, rankIDs(top))
	require.Equal(t, 1, top[0].Rank)
	require.Equal(t, "1.000000000000000000", top[0].SpotPrice)

	// re-ranking replaces the old entry instead of duplicating it
	low.RealReserveA = math.NewInt(50_000)
	lb.Update(low)
	require.Equal(t, 3, lb.Len())
	require.Equal(t, []string{low.ID(), high.ID()}, rankIDs(lb.Top(2)))
}

func TestLeaderboardTiesBreakByPoolID(t *testing.T) {
	lb := NewLeaderboard()
	b := rankedPool(t, "ubbb", 0)
	a := rankedPool(t, "uaaa", 0)
	lb.Update(b)
	lb.Update(a)

	require.Equal(t, []string{a.ID(), b.ID()}, rankIDs(lb.Top(10)))
}

func rankIDs(entries []apitypes.RankEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PoolID)
	}
	return ids
}

func TestHistoryNewestFirstAndBounded(t *testing.T) {
	h := NewHistory(3)
	for seq := uint64(1); seq <= 5; seq++ {
		h.Add(seq, apitypes.SwapRecord{Seq: seq, PoolID: "p1"})
	}
	h.Add(6, apitypes.SwapRecord{Seq: 6, PoolID: "p2"})

	recent := h.Recent("p1", 10)
	require.Len(t, recent, 3)
	require.Equal(t, uint64(5), recent[0].Seq)
	require.Equal(t, uint64(3), recent[2].Seq)

	require.Len(t, h.Recent("p1", 1), 1)
	require.Len(t, h.Recent("p2", 10), 1)
	require.Empty(t, h.Recent("missing", 10))
}
