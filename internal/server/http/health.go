package httpserver

import (
	"context"
	"net/http"
)

// Pinger checks reachability of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	deps []Pinger
}

// NewHealthHandler constructs a HealthHandler over the given dependencies.
// Nil entries are skipped, so optional components (the cache) can be passed
// unconditionally.
func NewHealthHandler(deps ...Pinger) *HealthHandler {
	out := make([]Pinger, 0, len(deps))
	for _, d := range deps {
		if d != nil {
			out = append(out, d)
		}
	}
	return &HealthHandler{deps: out}
}

// Healthz reports process liveness.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether all backing stores are reachable.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	for _, d := range h.deps {
		if err := d.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
