// Package server provides the HTTP server and routing for Compass.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/compass/internal/version"
)

// envelope is the response shape shared by the health and system
// endpoints: the payload under "data", request metadata alongside.
type envelope struct {
	Data     interface{} `json:"data"`
	Metadata metadata    `json:"metadata"`
}

// metadata carries response metadata
type metadata struct {
	Timestamp string `json:"timestamp"`
}

func newEnvelope(data interface{}) envelope {
	return envelope{
		Data:     data,
		Metadata: metadata{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": version.Version,
		"service": "compass",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response wrapped in the standard envelope
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(newEnvelope(data)); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
