package ipalloc

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blocks(cidrs ...string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		out = append(out, netip.MustParsePrefix(c))
	}
	return out
}

func TestAllocateFirstFree(t *testing.T) {
	subnet := netip.MustParsePrefix("10.13.13.1/24")
	gw := netip.MustParseAddr("10.13.13.1")

	got, err := Allocate(subnet, gw, nil)
	require.NoError(t, err)
	assert.Equal(t, "10.13.13.2", got.String())
}

func TestAllocateSkipsInUse(t *testing.T) {
	subnet := netip.MustParsePrefix("10.13.13.1/24")
	gw := netip.MustParseAddr("10.13.13.1")
	used := blocks("10.13.13.2/32", "10.13.13.3/32", "10.13.13.5/32")

	got, err := Allocate(subnet, gw, used)
	require.NoError(t, err)
	assert.Equal(t, "10.13.13.4", got.String())
}

func TestAllocateSkipsWholeBlocks(t *testing.T) {
	subnet := netip.MustParsePrefix("10.13.13.1/24")
	gw := netip.MustParseAddr("10.13.13.1")

	// 10.13.13.2/31 covers .2 and .3; the scan must clear the whole block.
	got, err := Allocate(subnet, gw, blocks("10.13.13.2/31"))
	require.NoError(t, err)
	assert.Equal(t, "10.13.13.4", got.String())

	got, err = Allocate(subnet, gw, blocks("10.13.13.0/28"))
	require.NoError(t, err)
	assert.Equal(t, "10.13.13.16", got.String())
}

func TestAllocateSkipsReservedAddresses(t *testing.T) {
	subnet := netip.MustParsePrefix("192.168.77.0/30")
	gw := netip.MustParseAddr("192.168.77.1")

	// Only .2 is allocatable: .0 network, .1 gateway, .3 broadcast.
	got, err := Allocate(subnet, gw, nil)
	require.NoError(t, err)
	assert.Equal(t, "192.168.77.2", got.String())

	_, err = Allocate(subnet, gw, blocks("192.168.77.2/32"))
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestAllocateExhaustedSubnet(t *testing.T) {
	subnet := netip.MustParsePrefix("10.0.0.0/29")
	gw := netip.MustParseAddr("10.0.0.1")
	used := blocks("10.0.0.2/32", "10.0.0.3/32", "10.0.0.4/32", "10.0.0.5/32", "10.0.0.6/32")

	_, err := Allocate(subnet, gw, used)
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestAllocateDeterministic(t *testing.T) {
	subnet := netip.MustParsePrefix("10.13.13.1/24")
	gw := netip.MustParseAddr("10.13.13.1")
	used := blocks("10.13.13.2/32", "10.13.13.4/32")

	first, err := Allocate(subnet, gw, used)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Allocate(subnet, gw, used)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAllocateInvalidSubnet(t *testing.T) {
	_, err := Allocate(netip.Prefix{}, netip.Addr{}, nil)
	assert.Error(t, err)
}
