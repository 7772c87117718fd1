package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"sensorpanorama/internal/utils"
)

// StatusSource reports the state of the last sensor data load.
type StatusSource interface {
	Healthy() (ok bool, message string)
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db     *sql.DB
	data   StatusSource
	logger *slog.Logger
}

func NewHealthchecker(db *sql.DB, data StatusSource, logger *slog.Logger) healthchecker {
	return &healthcheckerImpl{db: db, data: data, logger: logger}
}

// handleHealthz fails only when the preference database is unreachable. A
// failed data load is reported but keeps the service up, since the dashboard
// still renders its empty state.
func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var ok int
	if err := h.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		h.logger.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "failed to check database connectivity")
		return
	}

	body := map[string]any{"status": "ok", "data": "ok"}
	if h.data != nil {
		if dataOK, msg := h.data.Healthy(); !dataOK {
			body["data"] = "unavailable"
			body["message"] = msg
		}
	}
	utils.WriteJSON(w, http.StatusOK, body)
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, data StatusSource, logger *slog.Logger) {
	healthchecker := NewHealthchecker(db, data, logger)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
