// Package ipalloc chooses peer addresses from the managed subnet.
package ipalloc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
)

// ErrPoolExhausted is returned when no free host address remains.
var ErrPoolExhausted = errors.New("no free address in subnet")

// Allocate returns the numerically lowest host address in subnet that is not
// reserved and not covered by any in-use block. Reserved are the network
// address, the IPv4 broadcast address and the gateway (the interface's own
// address). Blocks wider than a single host mask out their whole range. The
// scan is deterministic: identical inputs always yield the same address.
func Allocate(subnet netip.Prefix, gateway netip.Addr, inUse []netip.Prefix) (netip.Addr, error) {
	if !subnet.IsValid() {
		return netip.Addr{}, fmt.Errorf("invalid subnet %v", subnet)
	}
	network := subnet.Masked()
	bcast := Broadcast(network)

scan:
	for addr := network.Addr().Next(); network.Contains(addr); addr = addr.Next() {
		if addr == bcast || addr == gateway {
			continue
		}
		for _, block := range inUse {
			if block.Contains(addr) {
				continue scan
			}
		}
		return addr, nil
	}
	return netip.Addr{}, ErrPoolExhausted
}

// Broadcast returns the highest address of an IPv4 prefix. IPv6 has no
// broadcast address; the zero Addr never matches a candidate.
func Broadcast(network netip.Prefix) netip.Addr {
	addr := network.Addr()
	if !addr.Is4() {
		return netip.Addr{}
	}
	a4 := addr.As4()
	v := binary.BigEndian.Uint32(a4[:])
	v |= 1<<(32-network.Bits()) - 1
	binary.BigEndian.PutUint32(a4[:], v)
	return netip.AddrFrom4(a4)
}
