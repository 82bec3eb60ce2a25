package httpapi

import (
	"encoding/json"
	"net/http"

	"log/slog"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already sent; all that is left is to log.
		slog.Default().Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondProblems(w http.ResponseWriter, status int, message string, problems []string) {
	respondJSON(w, status, map[string]any{
		"error":    message,
		"problems": problems,
	})
}
