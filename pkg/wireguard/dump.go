package wireguard

import (
	"strconv"
	"strings"
)

// parseDump converts `wg show <iface> dump` output into peer records keyed
// by public key, returning the count of lines it could not parse. The first
// line describes the interface itself (4 fields) and is not a peer. Peer
// lines carry: public key, preshared key, endpoint, allowed ips, latest
// handshake, transfer rx, transfer tx, persistent keepalive.
func parseDump(out string) (map[string]PeerState, int) {
	peers := make(map[string]PeerState)
	skipped := 0

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 4 {
			// interface header line
			continue
		}
		if len(fields) < 8 {
			skipped++
			continue
		}

		handshake, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			skipped++
			continue
		}
		rx, err := strconv.ParseInt(fields[5], 10, 64)
		if err != nil {
			skipped++
			continue
		}
		tx, err := strconv.ParseInt(fields[6], 10, 64)
		if err != nil {
			skipped++
			continue
		}

		state := PeerState{
			PublicKey:     fields[0],
			LastHandshake: handshake,
			TransferRx:    rx,
			TransferTx:    tx,
		}
		if fields[2] != "(none)" {
			state.Endpoint = fields[2]
		}
		if fields[3] != "(none)" {
			state.AllowedIPs = strings.Split(fields[3], ",")
		}
		if fields[7] != "off" {
			if ka, kerr := strconv.Atoi(fields[7]); kerr == nil {
				state.Keepalive = ka
			}
		}
		peers[state.PublicKey] = state
	}
	return peers, skipped
}
