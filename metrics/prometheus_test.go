package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordSwap(t *testing.T) {
	c := GetCollector()
	before := testutil.ToFloat64(c.SwapsTotal.WithLabelValues("metrics/pool", "buy"))

	c.RecordSwap("metrics/pool", "buy", math.NewInt(1_000), 100, true, 8, 2)

	require.Equal(t, before+1, testutil.ToFloat64(c.SwapsTotal.WithLabelValues("metrics/pool", "buy")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.ExemptSwaps.WithLabelValues("metrics/pool")))
	require.Equal(t, float64(8), testutil.ToFloat64(c.RoyaltiesAccrued.WithLabelValues("metrics/pool")))
	require.Equal(t, float64(2), testutil.ToFloat64(c.ProtocolFeesAccrued.WithLabelValues("metrics/pool")))
}

func TestRecordPoolState(t *testing.T) {
	c := GetCollector()
	c.RecordPoolState("metrics/state", math.NewInt(10), math.NewInt(40), math.LegacyMustNewDecFromStr("0.25"))

	require.Equal(t, float64(10), testutil.ToFloat64(c.ReserveA.WithLabelValues("metrics/state")))
	require.Equal(t, float64(40), testutil.ToFloat64(c.ReserveB.WithLabelValues("metrics/state")))
	require.Equal(t, 0.25, testutil.ToFloat64(c.SpotPrice.WithLabelValues("metrics/state")))
}

func TestIntToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   math.Int
		want float64
	}{
		{"nil", math.Int{}, 0},
		{"zero", math.ZeroInt(), 0},
		{"small", math.NewInt(42), 42},
		{"wide", math.NewIntFromUint64(1 << 63), float64(uint64(1) << 63)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IntToFloat(tt.in))
		})
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	c := GetCollector()
	c.SetTick(7)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "launchpad_service_tick 7"))
}
