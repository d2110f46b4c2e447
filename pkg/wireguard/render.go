package wireguard

import (
	"fmt"
	"strings"

	"wgnode/pkg/model"
)

const defaultTunnelAllowedIPs = "0.0.0.0/0, ::/0"

// RenderClientConfig produces a wg-quick compatible config the peer can use
// to establish the tunnel. It fails when the peer's private key is unknown,
// i.e. the caller supplied only a public key at creation time.
func RenderClientConfig(p model.Peer, s model.Server) (string, error) {
	if p.PrivateKey == "" {
		return "", ErrMissingCredential
	}
	var b strings.Builder
	b.WriteString("[Interface]\n")
	fmt.Fprintf(&b, "PrivateKey = %s\n", p.PrivateKey)
	if len(p.AllowedIPs) > 0 {
		fmt.Fprintf(&b, "Address = %s\n", strings.Join(p.AllowedIPs, ", "))
	}
	b.WriteString("\n[Peer]\n")
	fmt.Fprintf(&b, "PublicKey = %s\n", s.PublicKey)
	if s.Endpoint != "" {
		fmt.Fprintf(&b, "Endpoint = %s\n", s.Endpoint)
	}
	tunnel := s.TunnelAllowedIPs
	if tunnel == "" {
		tunnel = defaultTunnelAllowedIPs
	}
	fmt.Fprintf(&b, "AllowedIPs = %s\n", tunnel)
	if ka := keepalive(p, s); ka > 0 {
		fmt.Fprintf(&b, "PersistentKeepalive = %d\n", ka)
	}
	return b.String(), nil
}

// RenderPeerBlock renders the server-side [Peer] section for diagnostics and
// export. It never contains a private key.
func RenderPeerBlock(p model.Peer) string {
	var b strings.Builder
	b.WriteString("[Peer]\n")
	fmt.Fprintf(&b, "PublicKey = %s\n", p.PublicKey)
	if len(p.AllowedIPs) > 0 {
		fmt.Fprintf(&b, "AllowedIPs = %s\n", strings.Join(p.AllowedIPs, ", "))
	}
	if p.Keepalive > 0 {
		fmt.Fprintf(&b, "PersistentKeepalive = %d\n", p.Keepalive)
	}
	return b.String()
}

func keepalive(p model.Peer, s model.Server) int {
	if p.Keepalive > 0 {
		return p.Keepalive
	}
	return s.Keepalive
}
