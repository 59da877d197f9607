package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/openalpha/launchpad/api/middleware"
	"github.com/openalpha/launchpad/api/types"
	lptypes "github.com/openalpha/launchpad/x/launchpad/types"
)

// PoolHandler handles pool, swap and claim requests
type PoolHandler struct {
	service types.LaunchpadService
}

// NewPoolHandler creates a new pool handler
func NewPoolHandler(service types.LaunchpadService) *PoolHandler {
	return &PoolHandler{service: service}
}

// HandlePools handles /v1/pools (GET list, POST create)
func (h *PoolHandler) HandlePools(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPools(w, r)
	case http.MethodPost:
		h.createPool(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// listPools handles GET /v1/pools?owner=&offset=&limit=
func (h *PoolHandler) listPools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, ok := parseUint(w, q.Get("offset"), "offset")
	if !ok {
		return
	}
	limit, ok := parseUint(w, q.Get("limit"), "limit")
	if !ok {
		return
	}

	resp, err := h.service.ListPools(r.Context(), q.Get("owner"), offset, limit)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// createPool handles POST /v1/pools
func (h *PoolHandler) createPool(w http.ResponseWriter, r *http.Request) {
	var msg lptypes.MsgCreatePool
	if !decode(w, r, &msg) {
		return
	}
	msg.Creator = orHeader(msg.Creator, r)

	resp, err := h.service.CreatePool(r.Context(), &msg)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandlePool handles GET /v1/pool?id=
func (h *PoolHandler) HandlePool(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	poolID := r.URL.Query().Get("id")
	if poolID == "" {
		writeError(w, http.StatusBadRequest, "missing_pool_id", "id is required")
		return
	}

	view, err := h.service.GetPool(r.Context(), poolID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleQuote handles GET /v1/quote?pool_id=&side=&amount=&caller=
func (h *PoolHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	poolID := q.Get("pool_id")
	if poolID == "" {
		writeError(w, http.StatusBadRequest, "missing_pool_id", "pool_id is required")
		return
	}
	side := q.Get("side")
	if side != lptypes.SideBuy && side != lptypes.SideSell {
		writeError(w, http.StatusBadRequest, "invalid_side", "side must be buy or sell")
		return
	}
	amount, err := lptypes.ParseAmount(q.Get("amount"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	caller := q.Get("caller")
	if caller == "" {
		caller = r.Header.Get(middleware.TraderHeader)
	}

	resp, err := h.service.Quote(r.Context(), poolID, side, caller, amount)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleBuy handles POST /v1/swap/buy
func (h *PoolHandler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var msg lptypes.MsgBuy
	if !decode(w, r, &msg) {
		return
	}
	msg.Trader = orHeader(msg.Trader, r)

	resp, err := h.service.Buy(r.Context(), &msg)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSell handles POST /v1/swap/sell
func (h *PoolHandler) HandleSell(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var msg lptypes.MsgSell
	if !decode(w, r, &msg) {
		return
	}
	msg.Trader = orHeader(msg.Trader, r)

	resp, err := h.service.Sell(r.Context(), &msg)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleClaimRoyalties handles POST /v1/claims/royalties
func (h *PoolHandler) HandleClaimRoyalties(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var msg lptypes.MsgClaimRoyalties
	if !decode(w, r, &msg) {
		return
	}
	msg.Claimant = orHeader(msg.Claimant, r)

	resp, err := h.service.ClaimRoyalties(r.Context(), &msg)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleClaimProtocolFees handles POST /v1/claims/protocol
func (h *PoolHandler) HandleClaimProtocolFees(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var msg lptypes.MsgClaimProtocolFees
	if !decode(w, r, &msg) {
		return
	}
	msg.Claimant = orHeader(msg.Claimant, r)

	resp, err := h.service.ClaimProtocolFees(r.Context(), &msg)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSetEnabled handles POST /v1/pools/enabled
func (h *PoolHandler) HandleSetEnabled(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var msg lptypes.MsgSetPoolEnabled
	if !decode(w, r, &msg) {
		return
	}
	msg.Owner = orHeader(msg.Owner, r)

	resp, err := h.service.SetPoolEnabled(r.Context(), &msg)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleLeaderboard handles GET /v1/leaderboard?limit=
func (h *PoolHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	limit, ok := parseUint(w, r.URL.Query().Get("limit"), "limit")
	if !ok {
		return
	}

	entries, err := h.service.Leaderboard(r.Context(), int(limit))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"pools": entries})
}

// HandleHistory handles GET /v1/history?pool_id=&limit=
func (h *PoolHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	poolID := r.URL.Query().Get("pool_id")
	if poolID == "" {
		writeError(w, http.StatusBadRequest, "missing_pool_id", "pool_id is required")
		return
	}
	limit, ok := parseUint(w, r.URL.Query().Get("limit"), "limit")
	if !ok {
		return
	}

	swaps, err := h.service.History(r.Context(), poolID, int(limit))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"swaps": swaps})
}

// ============ Helpers ============

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return false
	}
	return true
}

// orHeader falls back to the trader header when the body omits the signer
func orHeader(addr string, r *http.Request) string {
	if addr != "" {
		return addr
	}
	return r.Header.Get(middleware.TraderHeader)
}

func parseUint(w http.ResponseWriter, s, field string) (uint64, bool) {
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+field, field+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}
