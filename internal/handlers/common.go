package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/autotracks/autotracks-api/internal/apperr"
	log "github.com/sirupsen/logrus"
)

// writeJSON writes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error onto its HTTP status. Server-side failures are
// logged with their cause but reported to the client without it.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
		message = "Internal server error"
	}
	writeJSON(w, status, map[string]string{"message": message})
}

// decodeJSON reads and unmarshals the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return apperr.Validationf("Failed to read request body.")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validationf("Invalid JSON.")
	}
	return nil
}
