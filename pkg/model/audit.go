package model

import "time"

// AuditEntry captures a mutation applied to the peer registry.
type AuditEntry struct {
	Op        string    `json:"op"` // create/delete/restore
	PublicKey string    `json:"public_key"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
