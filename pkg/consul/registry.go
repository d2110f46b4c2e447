//go:build consul

package consul

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	consulapi "github.com/hashicorp/consul/api"

	"wgnode/pkg/model"
)

const peersKey = "wgnode/peers"

// Registry is a Consul KV backed peer registry. The whole peer set lives
// under a single key so every Persist is one atomic put, matching the
// snapshot semantics of the file backend.
type Registry struct {
	kv    *consulapi.KV
	mu    sync.RWMutex
	peers map[string]model.Peer
}

func NewRegistry(addr string) (*Registry, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &Registry{kv: cli.KV(), peers: make(map[string]model.Peer)}, nil
}

func (r *Registry) Load() ([]model.Peer, error) {
	pair, _, err := r.kv.Get(peersKey, nil)
	if err != nil {
		return nil, fmt.Errorf("consul get %s: %w", peersKey, err)
	}
	if pair == nil {
		return nil, nil
	}
	var peers []model.Peer
	if err := json.Unmarshal(pair.Value, &peers); err != nil {
		return nil, fmt.Errorf("decode %s: %v", peersKey, err)
	}
	r.mu.Lock()
	r.peers = make(map[string]model.Peer, len(peers))
	for _, p := range peers {
		r.peers[p.PublicKey] = p
	}
	r.mu.Unlock()
	return peers, nil
}

func (r *Registry) Snapshot() []model.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicKey < out[j].PublicKey })
	return out
}

func (r *Registry) Get(publicKey string) (model.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[publicKey]
	return p, ok
}

func (r *Registry) Upsert(p model.Peer) {
	r.mu.Lock()
	r.peers[p.PublicKey] = p
	r.mu.Unlock()
}

func (r *Registry) Remove(publicKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.peers[publicKey]
	delete(r.peers, publicKey)
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

func (r *Registry) Persist() error {
	data, err := json.Marshal(r.Snapshot())
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if _, err := r.kv.Put(&consulapi.KVPair{Key: peersKey, Value: data}, nil); err != nil {
		return fmt.Errorf("consul put %s: %w", peersKey, err)
	}
	return nil
}
