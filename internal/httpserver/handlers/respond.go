package handlers

import (
	"encoding/json"
	"net/http"
)

const maxTriggerBody = 64 << 10

// triggerResponse is the reply shape the extension panel expects from a
// trigger: status "ok" with the request token, or status "error".
type triggerResponse struct {
	Status    string `json:"status"`
	RequestID uint64 `json:"requestId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeTriggerError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, triggerResponse{Status: "error", Error: msg})
}

// decodeBody reads a small JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxTriggerBody)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
