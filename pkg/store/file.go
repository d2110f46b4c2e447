package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"wgnode/pkg/model"
)

// FileRegistry keeps the registry in memory and persists it as a single JSON
// array. Persist writes to a temp file in the same directory and renames it
// into place, so readers only ever observe a complete snapshot.
type FileRegistry struct {
	mu    sync.RWMutex
	path  string
	peers map[string]model.Peer
}

func NewFileRegistry(path string) *FileRegistry {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warnf("could not create storage directory %s: %v", dir, err)
		}
	}
	return &FileRegistry{path: path, peers: make(map[string]model.Peer)}
}

func (r *FileRegistry) Load() ([]model.Peer, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	var peers []model.Peer
	if err := json.Unmarshal(data, &peers); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCorruptState, r.path, err)
	}

	r.mu.Lock()
	r.peers = make(map[string]model.Peer, len(peers))
	for _, p := range peers {
		r.peers[p.PublicKey] = p
	}
	r.mu.Unlock()
	return peers, nil
}

func (r *FileRegistry) Snapshot() []model.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicKey < out[j].PublicKey })
	return out
}

func (r *FileRegistry) Get(publicKey string) (model.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[publicKey]
	return p, ok
}

func (r *FileRegistry) Upsert(p model.Peer) {
	r.mu.Lock()
	r.peers[p.PublicKey] = p
	r.mu.Unlock()
}

func (r *FileRegistry) Remove(publicKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.peers[publicKey]
	delete(r.peers, publicKey)
	return ok
}

func (r *FileRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// Persist writes the full snapshot atomically. A crash mid-write leaves the
// previous file intact.
func (r *FileRegistry) Persist() error {
	data, err := json.MarshalIndent(r.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".peers-*.json")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmpName, r.path, err)
	}
	return nil
}
