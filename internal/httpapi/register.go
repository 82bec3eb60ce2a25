package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"log/slog"

	"github.com/socialwatch/searchagent/internal/domain"
)

// Version is reported by /v1/ping.
var Version = "v1"

// Register attaches API routes to the provided mux.
func Register(mux *http.ServeMux, logger *slog.Logger, domainServices domain.Container) {
	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"status":  "ok",
			"time":    time.Now().UTC().Format(time.RFC3339),
			"server":  "searchagent",
			"version": Version,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to write ping response", "err", err)
		}
	})

	registerAgentRoutes(mux, logger, domainServices.Agent)
	registerHistoryRoutes(mux, logger, domainServices.History)
}
