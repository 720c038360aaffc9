package handlers

import (
	"net/http"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
)

type HealthCheckResponse struct {
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// NewHealthCheckHandler reports the version and how long ago it was built.
// It never touches the store.
func NewHealthCheckHandler(logger lager.Logger, version string, clock clock.Clock) http.Handler {
	started := clock.Now()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, http.StatusOK, HealthCheckResponse{
			Version: version,
			Uptime:  clock.Since(started).String(),
		})
	})
}
