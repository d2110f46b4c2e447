package api

import (
	"net/http"
	"time"

	"wgnode/pkg/model"
)

// handleHealth reports liveness. The node is unhealthy when the managed
// interface is absent or its control surface stops answering; peers already
// in the registry are still listed in that state.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	available := h.gw.Available()
	status := "healthy"
	code := http.StatusOK
	if !available {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, model.HealthStatus{
		Status:             status,
		Version:            h.version,
		UptimeSeconds:      time.Since(h.started).Round(100 * time.Millisecond).Seconds(),
		WireGuardInterface: h.iface,
		WireGuardAvailable: available,
		PeerCount:          h.svc.PeerCount(),
	})
}

// metricsHandler refreshes the peer gauges from the interface before every
// scrape, then serves the Prometheus registry.
func (h *Handler) metricsHandler() http.Handler {
	inner := h.metrics.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		states, err := h.gw.ListPeers(r.Context())
		h.metrics.UpdatePeerStats(states, err)
		inner.ServeHTTP(w, r)
	})
}
