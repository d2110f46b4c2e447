//go:build !consul

package store

import (
	log "github.com/sirupsen/logrus"
)

// NewConsulRegistry falls back to the file registry when the consul build
// tag is not enabled.
func NewConsulRegistry(addr, fallbackPath string) (Registry, error) {
	log.Warnf("consul registry requested (addr=%s) but consul build tag not enabled; using file registry at %s", addr, fallbackPath)
	return NewFileRegistry(fallbackPath), nil
}
