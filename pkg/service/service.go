// Package service orchestrates the peer lifecycle across the durable
// registry, the live interface and the address pool. It is the single place
// that acquires the mutation lock.
package service

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"wgnode/pkg/ipalloc"
	"wgnode/pkg/model"
	"wgnode/pkg/store"
	"wgnode/pkg/wireguard"
)

// Notifier receives peer lifecycle events. Implementations must not block.
type Notifier interface {
	PeerCreated(model.Peer)
	PeerDeleted(publicKey string)
}

type Config struct {
	Registry store.Registry
	Gateway  wireguard.Gateway
	Journal  *store.Journal // optional
	Notifier Notifier       // optional
	// Subnet is the interface address in CIDR form (e.g. 10.13.13.1/24);
	// its address part is the gateway reservation.
	Subnet             netip.Prefix
	Server             model.Server
	PersistPrivateKeys bool
	DefaultKeepalive   int
}

type Service struct {
	// mu serializes every create/delete critical section end-to-end, from
	// address allocation through persist. Reads do not take it.
	mu sync.Mutex

	reg     store.Registry
	gw      wireguard.Gateway
	journal *store.Journal
	notify  Notifier

	subnet           netip.Prefix
	persistPrivate   bool
	defaultKeepalive int

	serverMu sync.Mutex
	server   model.Server
}

func New(cfg Config) *Service {
	return &Service{
		reg:              cfg.Registry,
		gw:               cfg.Gateway,
		journal:          cfg.Journal,
		notify:           cfg.Notifier,
		subnet:           cfg.Subnet,
		persistPrivate:   cfg.PersistPrivateKeys,
		defaultKeepalive: cfg.DefaultKeepalive,
		server:           cfg.Server,
	}
}

// Create provisions a new peer: allocates an address and key pair when the
// request omits them, adds the peer to the interface, then persists the
// registry. The interface is never mutated durably ahead of the registry: a
// failed persist triggers a compensating interface removal.
func (s *Service) Create(ctx context.Context, req model.CreateRequest) (model.Peer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	publicKey := strings.TrimSpace(req.PublicKey)
	var privateKey string
	if publicKey != "" {
		if err := wireguard.ValidateKey(publicKey); err != nil {
			return model.Peer{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
	} else {
		var err error
		privateKey, publicKey, err = wireguard.GenerateKeyPair()
		if err != nil {
			return model.Peer{}, err
		}
	}
	if _, exists := s.reg.Get(publicKey); exists {
		return model.Peer{}, ErrDuplicateKey
	}

	allowed, err := s.resolveAllowedIPs(req.AllowedIPs)
	if err != nil {
		return model.Peer{}, err
	}

	keepalive := s.defaultKeepalive
	if req.Keepalive != nil {
		keepalive = *req.Keepalive
	}

	if err := s.gw.AddPeer(ctx, publicKey, allowed, keepalive); err != nil {
		// Registry untouched, nothing to compensate.
		return model.Peer{}, err
	}

	stored := model.Peer{PublicKey: publicKey, AllowedIPs: allowed, Keepalive: keepalive}
	if privateKey != "" && s.persistPrivate {
		stored.PrivateKey = privateKey
	}
	s.reg.Upsert(stored)
	if err := s.reg.Persist(); err != nil {
		s.reg.Remove(publicKey)
		if rbErr := s.gw.RemovePeer(ctx, publicKey); rbErr != nil {
			log.Errorf("compensating interface removal of %s failed: %v", publicKey, rbErr)
			return model.Peer{}, fmt.Errorf("%w: persist failed: %v", ErrInconsistentState, err)
		}
		return model.Peer{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.journal.Record("create", publicKey, strings.Join(allowed, ","))
	if s.notify != nil {
		s.notify.PeerCreated(stored)
	}

	// The private key is returned exactly once, even when not persisted.
	created := stored
	created.PrivateKey = privateKey
	return created, nil
}

// List merges the registry snapshot with live interface statistics. Peers
// the interface has not reported keep zeroed stats rather than being
// dropped.
func (s *Service) List(ctx context.Context) []model.PeerStatus {
	stats := s.liveStats(ctx)
	snapshot := s.reg.Snapshot()
	out := make([]model.PeerStatus, 0, len(snapshot))
	for _, p := range snapshot {
		out = append(out, mergeStatus(p, stats[p.PublicKey]))
	}
	return out
}

func (s *Service) Get(ctx context.Context, publicKey string) (model.PeerStatus, error) {
	p, ok := s.reg.Get(publicKey)
	if !ok {
		return model.PeerStatus{}, ErrNotFound
	}
	stats := s.liveStats(ctx)
	return mergeStatus(p, stats[p.PublicKey]), nil
}

// Delete removes the peer from the interface first, then from the durable
// registry, so the interface never serves a peer the registry has dropped.
func (s *Service) Delete(ctx context.Context, publicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reg.Get(publicKey); !ok {
		return ErrNotFound
	}
	if err := s.gw.RemovePeer(ctx, publicKey); err != nil {
		return err
	}
	s.reg.Remove(publicKey)
	if err := s.reg.Persist(); err != nil {
		// Memory and interface agree; the disk snapshot is stale until the
		// next successful persist.
		log.Errorf("persist after delete of %s failed: %v", publicKey, err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.journal.Record("delete", publicKey, "")
	if s.notify != nil {
		s.notify.PeerDeleted(publicKey)
	}
	return nil
}

// RenderConfig renders configuration text for an existing peer. Format
// "peer" yields the server-side peer block; anything else the full client
// config.
func (s *Service) RenderConfig(ctx context.Context, publicKey, format string) (string, error) {
	p, ok := s.reg.Get(publicKey)
	if !ok {
		return "", ErrNotFound
	}
	if format == "peer" {
		return wireguard.RenderPeerBlock(p), nil
	}
	server, err := s.ServerInfo(ctx)
	if err != nil {
		return "", err
	}
	return wireguard.RenderClientConfig(p, server)
}

// ServerInfo returns the advertised server parameters, fetching the public key
// from the interface on first use when configuration left it empty.
func (s *Service) ServerInfo(ctx context.Context) (model.Server, error) {
	s.serverMu.Lock()
	defer s.serverMu.Unlock()
	if s.server.PublicKey == "" {
		key, err := s.gw.ServerPublicKey(ctx)
		if err != nil {
			return model.Server{}, err
		}
		s.server.PublicKey = key
	}
	return s.server, nil
}

func (s *Service) PeerCount() int {
	return s.reg.Count()
}

// Restore replays the registry into the interface, called once at startup.
// Individual failures are logged and counted, not fatal.
func (s *Service) Restore(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, p := range s.reg.Snapshot() {
		if err := s.gw.AddPeer(ctx, p.PublicKey, p.AllowedIPs, p.Keepalive); err != nil {
			log.Errorf("restore of peer %s failed: %v", p.PublicKey, err)
			continue
		}
		restored++
	}
	if restored > 0 {
		s.journal.Record("restore", "", fmt.Sprintf("restored %d peers", restored))
	}
	return restored
}

func (s *Service) liveStats(ctx context.Context) map[string]wireguard.PeerState {
	stats, err := s.gw.ListPeers(ctx)
	if err != nil {
		log.Warnf("interface stats unavailable: %v", err)
		return nil
	}
	return stats
}

// resolveAllowedIPs validates caller-supplied blocks or allocates a single
// host address when none were supplied.
func (s *Service) resolveAllowedIPs(requested []string) ([]string, error) {
	if len(requested) == 0 {
		addr, err := ipalloc.Allocate(s.subnet, s.subnet.Addr(), s.allowedPrefixes())
		if err != nil {
			return nil, err
		}
		return []string{netip.PrefixFrom(addr, addr.BitLen()).String()}, nil
	}

	network := s.subnet.Masked()
	bcast := ipalloc.Broadcast(network)
	gateway := s.subnet.Addr()

	existing := s.allowedPrefixes()
	out := make([]string, 0, len(requested))
	var accepted []netip.Prefix
	for _, raw := range requested {
		prefix, err := parseBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, raw)
		}
		if !network.Contains(prefix.Addr()) || prefix.Bits() < network.Bits() {
			return nil, fmt.Errorf("%w: %s not in %s", ErrAddressOutOfRange, prefix, network)
		}
		if prefix.Contains(network.Addr()) || prefix.Contains(gateway) || (bcast.IsValid() && prefix.Contains(bcast)) {
			return nil, fmt.Errorf("%w: %s", ErrAddressReserved, prefix)
		}
		for _, other := range append(existing, accepted...) {
			if prefix.Overlaps(other) {
				return nil, fmt.Errorf("%w: %s overlaps %s", ErrAddressInUse, prefix, other)
			}
		}
		accepted = append(accepted, prefix)
		out = append(out, prefix.String())
	}
	return out, nil
}

// allowedPrefixes collects every block held by registered peers; allocation
// treats each whole block as occupied, not just its base address.
func (s *Service) allowedPrefixes() []netip.Prefix {
	var out []netip.Prefix
	for _, p := range s.reg.Snapshot() {
		for _, raw := range p.AllowedIPs {
			if prefix, err := parseBlock(raw); err == nil {
				out = append(out, prefix)
			}
		}
	}
	return out
}

// parseBlock accepts either a CIDR block or a bare address, which is treated
// as a full-length host prefix.
func parseBlock(raw string) (netip.Prefix, error) {
	raw = strings.TrimSpace(raw)
	if prefix, err := netip.ParsePrefix(raw); err == nil {
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func mergeStatus(p model.Peer, st wireguard.PeerState) model.PeerStatus {
	return model.PeerStatus{
		PublicKey:     p.PublicKey,
		AllowedIPs:    p.AllowedIPs,
		Keepalive:     p.Keepalive,
		Endpoint:      st.Endpoint,
		LastHandshake: st.LastHandshake,
		TransferRx:    st.TransferRx,
		TransferTx:    st.TransferTx,
	}
}
