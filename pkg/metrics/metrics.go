// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the live peer table.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wgnode/pkg/wireguard"
)

type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	peersTotal        prometheus.Gauge
	peerTransferRx    *prometheus.GaugeVec
	peerTransferTx    *prometheus.GaugeVec
	peerLastHandshake *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wireguard_api_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wireguard_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "endpoint"}),
		peersTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wireguard_peers_total",
			Help: "Current number of WireGuard peers",
		}),
		peerTransferRx: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wireguard_peer_transfer_rx_bytes",
			Help: "Received bytes for WireGuard peer",
		}, []string{"public_key"}),
		peerTransferTx: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wireguard_peer_transfer_tx_bytes",
			Help: "Transmitted bytes for WireGuard peer",
		}, []string{"public_key"}),
		peerLastHandshake: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wireguard_peer_last_handshake_seconds",
			Help: "Seconds since last handshake for WireGuard peer",
		}, []string{"public_key"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, endpoint string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// UpdatePeerStats refreshes the per-peer gauges, called before each scrape.
// Series for peers that disappeared are dropped rather than left stale.
func (m *Metrics) UpdatePeerStats(states map[string]wireguard.PeerState, err error) {
	m.peerTransferRx.Reset()
	m.peerTransferTx.Reset()
	m.peerLastHandshake.Reset()
	if err != nil {
		m.peersTotal.Set(0)
		return
	}
	m.peersTotal.Set(float64(len(states)))
	now := time.Now().Unix()
	for key, st := range states {
		m.peerTransferRx.WithLabelValues(key).Set(float64(st.TransferRx))
		m.peerTransferTx.WithLabelValues(key).Set(float64(st.TransferTx))
		if st.LastHandshake > 0 {
			m.peerLastHandshake.WithLabelValues(key).Set(float64(now - st.LastHandshake))
		} else {
			m.peerLastHandshake.WithLabelValues(key).Set(-1)
		}
	}
}

// Path patterns for normalization, most specific first, so peer public keys
// never become label values.
var pathPatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`^/peers/.+/config$`), "/peers/{public_key}/config"},
	{regexp.MustCompile(`^/peers/.+$`), "/peers/{public_key}"},
}

// NormalizePath collapses dynamic path segments to keep label cardinality low.
func NormalizePath(path string) string {
	for _, p := range pathPatterns {
		if p.re.MatchString(path) {
			return p.replacement
		}
	}
	return path
}
