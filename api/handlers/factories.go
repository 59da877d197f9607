package handlers

import (
	"net/http"

	"github.com/openalpha/launchpad/api/types"
	lptypes "github.com/openalpha/launchpad/x/launchpad/types"
)

// FactoryHandler handles factory and launch requests
type FactoryHandler struct {
	service types.LaunchpadService
}

// NewFactoryHandler creates a new factory handler
func NewFactoryHandler(service types.LaunchpadService) *FactoryHandler {
	return &FactoryHandler{service: service}
}

// HandleFactories handles /v1/factories (GET list or single with ?id=, POST create)
func (h *FactoryHandler) HandleFactories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if id := r.URL.Query().Get("id"); id != "" {
			h.getFactory(w, r, id)
			return
		}
		factories, err := h.service.ListFactories(r.Context())
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"factories": factories})
	case http.MethodPost:
		h.createFactory(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

func (h *FactoryHandler) getFactory(w http.ResponseWriter, r *http.Request, id string) {
	factory, err := h.service.GetFactory(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, factory)
}

func (h *FactoryHandler) createFactory(w http.ResponseWriter, r *http.Request) {
	var msg lptypes.MsgCreateFactory
	if !decode(w, r, &msg) {
		return
	}
	msg.Creator = orHeader(msg.Creator, r)

	resp, err := h.service.CreateFactory(r.Context(), &msg)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleLaunch handles POST /v1/launch
func (h *FactoryHandler) HandleLaunch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var msg lptypes.MsgLaunch
	if !decode(w, r, &msg) {
		return
	}
	msg.Creator = orHeader(msg.Creator, r)

	resp, err := h.service.Launch(r.Context(), &msg)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
