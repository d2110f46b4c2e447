// Package store owns the durable peer registry.
package store

import (
	"errors"

	"wgnode/pkg/model"
)

// ErrCorruptState indicates an existing registry file that could not be
// decoded. It is surfaced, never silently discarded, so data loss is visible.
var ErrCorruptState = errors.New("peer registry state is corrupt")

// Registry is the authoritative mapping of public key to peer record.
// Upsert and Remove mutate the in-memory view only; Persist writes the full
// snapshot durably. The caller serializes mutations.
type Registry interface {
	// Load reads prior state into memory. A missing backing store yields an
	// empty registry; an unreadable existing one yields ErrCorruptState.
	Load() ([]model.Peer, error)
	// Snapshot returns the current in-memory records, sorted by public key.
	Snapshot() []model.Peer
	Get(publicKey string) (model.Peer, bool)
	Upsert(p model.Peer)
	// Remove reports whether the key was present.
	Remove(publicKey string) bool
	Persist() error
	Count() int
}
