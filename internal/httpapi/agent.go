package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/socialwatch/searchagent/internal/domain/agent"
)

const maxQueryBodyBytes = 64 << 10

// QueryRequest is the body of POST /agent/query.
type QueryRequest struct {
	Topic string `json:"topic"`
	Mode  string `json:"mode,omitempty"`
}

// QueryResponse is returned by POST /agent/query.
type QueryResponse struct {
	ID           string   `json:"id,omitempty"`
	Keywords     []string `json:"keywords"`
	BooleanQuery string   `json:"boolean_query"`
	Combinations []string `json:"combinations,omitempty"`
}

func registerAgentRoutes(mux *http.ServeMux, logger *slog.Logger, service agent.Service) {
	mux.HandleFunc("/agent/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		handleAgentQuery(w, r, logger, service)
	})
}

func handleAgentQuery(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service agent.Service) {
	var payload QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBodyBytes)).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	logger.Info("received query", "topic", payload.Topic, "mode", payload.Mode)

	result, err := service.Query(r.Context(), agent.QueryInput{
		Topic: payload.Topic,
		Mode:  payload.Mode,
	})
	if err != nil {
		var verr *agent.ValidationError
		switch {
		case errors.As(err, &verr):
			respondProblems(w, http.StatusBadRequest, "invalid query", verr.Problems())
		case errors.Is(err, agent.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, agent.ErrUpstream):
			respondError(w, http.StatusBadGateway, "keyword generation failed")
		default:
			logger.Error("agent query failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusOK, QueryResponse{
		ID:           result.ID,
		Keywords:     result.Keywords,
		BooleanQuery: result.BooleanQuery,
		Combinations: result.Combinations,
	})
}
