package server

import (
	"encoding/json"
	"io"
	"net/http"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeRuleError reports a refused action. Rule rejections carry a stable
// code for the client; everything else falls back to a bare message.
func writeRuleError(w http.ResponseWriter, err error) {
	if rule, ok := asRuleError(err); ok {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"error":   rule.Code,
			"message": rule.Message,
		})
		return
	}
	writeJSON(w, http.StatusConflict, map[string]any{
		"success": false,
		"message": err.Error(),
	})
}
