package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/socialwatch/searchagent/internal/domain/history"
)

func registerHistoryRoutes(mux *http.ServeMux, logger *slog.Logger, service history.Service) {
	mux.HandleFunc("/v1/queries", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handleHistoryList(w, r, logger, service)
	})

	mux.HandleFunc("/v1/queries/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/v1/queries/")
		if id == "" {
			respondError(w, http.StatusBadRequest, "missing query id")
			return
		}

		record, err := service.Get(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, history.ErrNotImplemented):
				respondError(w, http.StatusNotImplemented, "query history is disabled")
			case errors.Is(err, history.ErrNotFound):
				respondError(w, http.StatusNotFound, "query not found")
			default:
				logger.Error("get query record failed", "err", err)
				respondError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		respondJSON(w, http.StatusOK, record)
	})
}

func handleHistoryList(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service history.Service) {
	query := r.URL.Query()
	offset, limit := 0, history.DefaultLimit
	if v := query.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid offset parameter")
			return
		}
		offset = parsed
	}
	if v := query.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	results, err := service.List(r.Context(), offset, limit)
	if err != nil {
		if errors.Is(err, history.ErrNotImplemented) {
			respondError(w, http.StatusNotImplemented, "query history is disabled")
			return
		}
		logger.Error("list query records failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if results == nil {
		results = []history.Record{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  results,
		"count": len(results),
	})
}
