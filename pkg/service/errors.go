package service

import "errors"

var (
	// ErrDuplicateKey rejects a create for a public key already registered.
	ErrDuplicateKey = errors.New("public key already registered")
	// ErrNotFound indicates the public key is absent from the registry.
	ErrNotFound = errors.New("peer not found")
	// ErrInvalidKey rejects a malformed WireGuard public key.
	ErrInvalidKey = errors.New("invalid public key")

	ErrInvalidAddress    = errors.New("allowed ip is not a valid address or cidr block")
	ErrAddressOutOfRange = errors.New("allowed ip outside managed subnet")
	ErrAddressReserved   = errors.New("allowed ip covers a reserved address")
	ErrAddressInUse      = errors.New("allowed ip overlaps an existing peer")

	// ErrPersistence reports a failed registry persist after the interface
	// mutation was rolled back cleanly.
	ErrPersistence = errors.New("failed to persist peer registry")
	// ErrInconsistentState reports a failed persist whose compensating
	// interface rollback also failed; registry and interface may diverge
	// until the next restart restore.
	ErrInconsistentState = errors.New("registry and interface state diverged")
)
