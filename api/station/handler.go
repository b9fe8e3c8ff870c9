// Package station exposes the substation capacity manager over JSON/HTTP.
package station

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gridwatt/evrouter/core/logger"
	"github.com/gridwatt/evrouter/core/model"
	"github.com/gridwatt/evrouter/core/station"
)

type chargeBody struct {
	VehicleID      string  `json:"vehicle_id"`
	RequestedPower float64 `json:"requested_power"`
	Duration       float64 `json:"duration"`
}

// NewHandler returns the substation HTTP API over the given state.
func NewHandler(st *station.State, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "substation_id": st.ID()})
	})

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, st.Status())
	})

	mux.HandleFunc("POST /charge", func(w http.ResponseWriter, r *http.Request) {
		var body chargeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		req := model.ChargeRequest{
			VehicleID:      body.VehicleID,
			RequestedPower: body.RequestedPower,
			DurationSecs:   body.Duration,
		}
		if err := req.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "validation_error",
				"message": err.Error(),
			})
			return
		}

		sess, err := st.Admit(body.VehicleID, body.RequestedPower, req.Duration())
		if err != nil {
			var cerr *station.CapacityError
			if errors.As(err, &cerr) {
				writeJSON(w, http.StatusConflict, map[string]any{
					"error":           "insufficient_capacity",
					"current_load":    cerr.CurrentLoadKW,
					"max_capacity":    cerr.MaxCapacityKW,
					"requested_power": cerr.RequestedPowerKW,
				})
				return
			}
			if log != nil {
				log.Errorf("admit failed: %v", err)
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
			return
		}
		writeJSON(w, http.StatusOK, model.ChargeAck{
			Status:              "charging_started",
			SessionID:           sess.ID,
			SubstationID:        st.ID(),
			EstimatedCompletion: sess.EstimatedCompletion(),
		})
	})

	mux.HandleFunc("GET /sessions", func(w http.ResponseWriter, r *http.Request) {
		active, completed := st.Sessions()
		writeJSON(w, http.StatusOK, map[string]any{
			"active_sessions":    active,
			"completed_sessions": completed,
		})
	})

	mux.HandleFunc("GET /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		sess, err := st.Session(r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session_not_found"})
			return
		}
		writeJSON(w, http.StatusOK, sess)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
