package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"lastclick/internal/scheduler"
	"lastclick/internal/store"
)

type CronHandlers struct {
	tick *scheduler.Tick
}

func NewCronHandlers(tick *scheduler.Tick) *CronHandlers {
	return &CronHandlers{tick: tick}
}

func (h *CronHandlers) Tick() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := h.tick.Run(r.Context())
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(sum)
	}
}

func (h *CronHandlers) Rotate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := h.tick.Rotate(r.Context())
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(sum)
	}
}

func (h *CronHandlers) ResetCredits() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := h.tick.ResetCredits(r.Context())
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"profiles_reset": n})
	}
}

// HealthHandler reports API and database liveness in one response so a probe
// can tell a dead process from a dead database.
func HealthHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := map[string]string{"api": "ok", "database": "ok"}
		status := http.StatusOK
		overall := "ok"
		if err := st.Ping(r.Context()); err != nil {
			services["database"] = "unreachable"
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    overall,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services":  services,
		})
	}
}
