//go:build consul

package store

import (
	"wgnode/pkg/consul"
)

// NewConsulRegistry creates a Consul-backed registry (requires build tag consul).
func NewConsulRegistry(addr, fallbackPath string) (Registry, error) {
	return consul.NewRegistry(addr)
}
