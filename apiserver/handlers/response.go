package handlers

import (
	"encoding/json"
	"net/http"

	"code.cloudfoundry.org/lager/v3"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(logger lager.Logger, w http.ResponseWriter, status int, message string) {
	writeJSON(logger, w, status, ErrorResponse{Error: message})
}

func writeJSON(logger lager.Logger, w http.ResponseWriter, status int, body interface{}) {
	encoded, err := json.Marshal(body)
	if err != nil {
		logger.Error("failed-to-marshal-response", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(encoded)
}
