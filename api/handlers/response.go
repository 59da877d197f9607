package handlers

import (
	"encoding/json"
	"net/http"

	errorsmod "cosmossdk.io/errors"

	"github.com/openalpha/launchpad/x/launchpad/types"
)

// errorStatus maps module errors to HTTP status codes
var errorStatus = []struct {
	err    *errorsmod.Error
	status int
}{
	{types.ErrPoolNotFound, http.StatusNotFound},
	{types.ErrFactoryNotFound, http.StatusNotFound},
	{types.ErrPoolAlreadyExists, http.StatusConflict},
	{types.ErrFactoryExists, http.StatusConflict},
	{types.ErrPoolDisabled, http.StatusConflict},
	{types.ErrUnauthorized, http.StatusForbidden},
	{types.ErrIllegalClaimant, http.StatusForbidden},
	{types.ErrInsufficientOutput, http.StatusUnprocessableEntity},
	{types.ErrPoolEmpty, http.StatusUnprocessableEntity},
	{types.ErrInvariantViolation, http.StatusInternalServerError},
}

// StatusFor returns the HTTP status for an error returned by the service
func StatusFor(err error) int {
	for _, e := range errorStatus {
		if errorsmod.IsOf(err, e.err) {
			return e.status
		}
	}
	if codespace, _, _ := errorsmod.ABCIInfo(err, false); codespace == types.ModuleName {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteServiceError writes err with its mapped status and ABCI code
func WriteServiceError(w http.ResponseWriter, err error) {
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	status := StatusFor(err)
	body := map[string]interface{}{
		"error":   http.StatusText(status),
		"message": err.Error(),
	}
	if codespace == types.ModuleName {
		body["codespace"] = codespace
		body["code"] = code
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}
