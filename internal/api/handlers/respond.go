package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/httputil"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps pipeline failures onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrEmptyResult):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, httputil.ErrTransport), errors.Is(err, contracts.ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
