package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/fleetsense/clusterkit"
	"github.com/fleetsense/clusterkit/codec"
)

func newHandler(svc *clusterkit.Service, logger *clusterkit.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/clustering", handleClustering(svc))
	mux.HandleFunc("GET /api/clusters", handleClusters(svc))
	mux.HandleFunc("GET /api/quality", handleQuality(svc))
	mux.HandleFunc("POST /api/sweep", handleSweep(svc))
	mux.HandleFunc("GET /api/stats", handleStats(svc))
	return logRequests(logger, mux)
}

func logRequests(logger *clusterkit.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func handleClustering(svc *clusterkit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, ok := clusterCount(w, r)
		if !ok {
			return
		}
		res, err := svc.GetClustering(r.Context(), k)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, res)
	}
}

func handleClusters(svc *clusterkit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, ok := clusterCount(w, r)
		if !ok {
			return
		}
		stats, err := svc.ClusterStats(r.Context(), k)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, stats)
	}
}

func handleQuality(svc *clusterkit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, ok := clusterCount(w, r)
		if !ok {
			return
		}
		q, err := svc.Quality(r.Context(), k)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, q)
	}
}

func handleSweep(svc *clusterkit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The sweep must outlive the request that triggered it.
		if !svc.TriggerSweep(context.WithoutCancel(r.Context())) {
			writeJSONStatus(w, http.StatusConflict, map[string]any{"accepted": false})
			return
		}
		writeJSONStatus(w, http.StatusAccepted, map[string]any{"accepted": true})
	}
}

func handleStats(svc *clusterkit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"cache": svc.CacheStats()}
		if report := svc.LastSweepReport(); report != nil {
			payload["sweep"] = map[string]any{
				"skipped":  report.Tally.Skipped,
				"loaded":   report.Tally.Loaded,
				"computed": report.Tally.Computed,
				"errored":  report.Tally.Errored,
				"warmed":   report.Warmed.GetCardinality(),
				"duration": report.Duration.String(),
			}
		}
		writeJSON(w, payload)
	}
}

func clusterCount(w http.ResponseWriter, r *http.Request) (int, bool) {
	k, err := strconv.Atoi(r.URL.Query().Get("k"))
	if err != nil {
		http.Error(w, "query parameter k must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return k, true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, clusterkit.ErrInvalidK):
		status = http.StatusBadRequest
	case errors.Is(err, clusterkit.ErrDatasetNotFound):
		status = http.StatusServiceUnavailable
	case errors.Is(err, clusterkit.ErrClosed):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(codec.MustMarshal(codec.Default, v))
}
