package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/telistry/switchboard/observability"
)

// healthPayload is the health endpoint response body.
type healthPayload struct {
	Status         string                 `json:"status"`
	ActiveSessions int                    `json:"active_sessions"`
	Metrics        observability.Snapshot `json:"metrics"`
}

// newHealthHandler reports service liveness, the live session count, and the
// service counters.
func newHealthHandler(svc Dialog) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		payload := healthPayload{
			Status:  "ok",
			Metrics: svc.Metrics().Snapshot(),
		}
		code := http.StatusOK
		active, err := svc.ActiveSessions(r.Context())
		if err != nil {
			payload.Status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			payload.ActiveSessions = active
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(payload)
	})
}
