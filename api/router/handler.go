// Package router exposes the routing service over JSON/HTTP: charging
// request intake, status reconciliation and fleet visibility.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gridwatt/evrouter/core/logger"
	"github.com/gridwatt/evrouter/core/model"
	"github.com/gridwatt/evrouter/core/registry"
	"github.com/gridwatt/evrouter/core/tracker"
)

// Assigner is the request tracker surface the handler needs.
type Assigner interface {
	Assign(ctx context.Context, req model.ChargeRequest) (tracker.AssignResult, error)
	Status(ctx context.Context, requestID string) (tracker.StatusResult, error)
	List() tracker.Overview
}

// NewHandler returns the router HTTP API.
func NewHandler(tr Assigner, reg *registry.Registry, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "evrouter"})
	})

	mux.HandleFunc("POST /api/charge", func(w http.ResponseWriter, r *http.Request) {
		var req model.ChargeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		// Stamp request id and timestamp for clients that omit them.
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}
		if req.Timestamp.IsZero() {
			req.Timestamp = time.Now().UTC()
		}
		if err := req.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":      "validation_error",
				"message":    err.Error(),
				"request_id": req.RequestID,
			})
			return
		}

		res, err := tr.Assign(r.Context(), req)
		if err != nil {
			writeAssignError(w, log, req.RequestID, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":                 "assigned",
			"request_id":             req.RequestID,
			"substation_id":          res.Assignment.SubstationID,
			"session_id":             res.Assignment.SessionID,
			"estimated_completion":   res.Ack.EstimatedCompletion,
			"substation_load_before": res.LoadBeforeKW,
			"substation_capacity":    res.CapacityKW,
		})
	})

	mux.HandleFunc("GET /api/status/{request_id}", func(w http.ResponseWriter, r *http.Request) {
		st, err := tr.Status(r.Context(), r.PathValue("request_id"))
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
				return
			}
			if log != nil {
				log.Errorf("status lookup: %v", err)
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
			return
		}
		label := "active"
		if st.Status == model.AssignmentCompleted {
			label = "completed"
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": label, "details": st.Assignment})
	})

	mux.HandleFunc("GET /api/requests", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tr.List())
	})

	mux.HandleFunc("GET /api/substations", func(w http.ResponseWriter, r *http.Request) {
		snap := reg.Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"substations":         snap,
			"total_substations":   len(snap),
			"healthy_substations": reg.HealthyCount(),
			"active_requests":     tr.List().TotalActive,
		})
	})

	return mux
}

func writeAssignError(w http.ResponseWriter, log logger.Logger, requestID string, err error) {
	switch {
	case errors.Is(err, model.ErrNoCapacity):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":      "no_capacity",
			"reason":     "all substations at capacity or unavailable",
			"request_id": requestID,
		})
	case errors.Is(err, model.ErrStationRejected):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":      "substation_rejected",
			"message":    err.Error(),
			"request_id": requestID,
		})
	case errors.Is(err, model.ErrCommunication):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":      "communication_error",
			"request_id": requestID,
		})
	default:
		if log != nil {
			log.Errorf("assign %s: %v", requestID, err)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":      "internal_error",
			"request_id": requestID,
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
