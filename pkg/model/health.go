package model

// HealthStatus is the liveness payload served on /health.
type HealthStatus struct {
	Status             string  `json:"status"` // healthy/unhealthy
	Version            string  `json:"version"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	WireGuardInterface string  `json:"wireguard_interface"`
	WireGuardAvailable bool    `json:"wireguard_available"`
	PeerCount          int     `json:"peer_count"`
}
