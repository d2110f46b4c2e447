package model

// Peer is the durable identity of a WireGuard endpoint managed by this node.
// PrivateKey is only set when the key pair was generated server-side.
type Peer struct {
	PublicKey  string   `json:"public_key"`
	PrivateKey string   `json:"private_key,omitempty"`
	AllowedIPs []string `json:"allowed_ips"`
	Keepalive  int      `json:"persistent_keepalive,omitempty"`
}

// PeerStatus merges a registry record with live interface statistics.
// Stats are zero for peers the interface has not reported yet.
type PeerStatus struct {
	PublicKey     string   `json:"public_key"`
	AllowedIPs    []string `json:"allowed_ips"`
	Keepalive     int      `json:"persistent_keepalive,omitempty"`
	Endpoint      string   `json:"endpoint,omitempty"`
	LastHandshake int64    `json:"last_handshake"`
	TransferRx    int64    `json:"transfer_rx"`
	TransferTx    int64    `json:"transfer_tx"`
}

// CreateRequest is the body of POST /peers. Every field is optional: a
// missing public key triggers server-side key generation, missing allowed
// IPs trigger address allocation from the managed subnet. Keepalive is a
// pointer so the node default applies only when the field is absent; an
// explicit 0 disables keepalive for this peer.
type CreateRequest struct {
	PublicKey  string   `json:"public_key,omitempty"`
	AllowedIPs []string `json:"allowed_ips,omitempty"`
	Keepalive  *int     `json:"persistent_keepalive,omitempty"`
}

// Server carries the parameters a client needs to reach this node.
type Server struct {
	PublicKey        string
	Endpoint         string
	TunnelAllowedIPs string
	Keepalive        int
}
