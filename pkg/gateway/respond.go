package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/engagesphere/gateway/pkg/live"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the {error} envelope used by all failing endpoints.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeRaw writes a downstream payload verbatim.
func writeRaw(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// writeCapabilityError maps a capability-call failure onto the error
// taxonomy: authorization gaps are 401 with a remediation link,
// unsupported platforms are 400, everything else is a downstream 500.
func writeCapabilityError(w http.ResponseWriter, err error) {
	var unauthorized *live.UnauthorizedError
	switch {
	case errors.As(err, &unauthorized):
		writeError(w, http.StatusUnauthorized, unauthorized.Error())
	case errors.Is(err, live.ErrUnsupportedPlatform):
		writeError(w, http.StatusBadRequest, "Unsupported live platform")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
