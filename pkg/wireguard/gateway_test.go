package wireguard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and replays canned results.
func fakeRunner(calls *[]call, out string, err error) runFunc {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		return []byte(out), err
	}
}

func newTestCLI(out string, err error) (*CLI, *[]call) {
	calls := &[]call{}
	cli := NewCLI("wg0", time.Second)
	cli.run = fakeRunner(calls, out, err)
	return cli, calls
}

func TestAddPeerCommand(t *testing.T) {
	cli, calls := newTestCLI("", nil)

	err := cli.AddPeer(context.Background(), "pubkey", []string{"10.13.13.2/32", "10.13.13.3/32"}, 25)
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.Equal(t, "wg", (*calls)[0].name)
	assert.Equal(t, []string{
		"set", "wg0", "peer", "pubkey",
		"allowed-ips", "10.13.13.2/32,10.13.13.3/32",
		"persistent-keepalive", "25",
	}, (*calls)[0].args)
}

func TestAddPeerNoKeepalive(t *testing.T) {
	cli, calls := newTestCLI("", nil)

	err := cli.AddPeer(context.Background(), "pubkey", []string{"10.13.13.2/32"}, 0)
	require.NoError(t, err)
	assert.NotContains(t, (*calls)[0].args, "persistent-keepalive")
}

func TestRemovePeerCommand(t *testing.T) {
	cli, calls := newTestCLI("", nil)

	err := cli.RemovePeer(context.Background(), "pubkey")
	require.NoError(t, err)
	assert.Equal(t, []string{"set", "wg0", "peer", "pubkey", "remove"}, (*calls)[0].args)
}

func TestCommandFailureCarriesOutput(t *testing.T) {
	cli, _ := newTestCLI("Unable to modify interface: Operation not permitted", errors.New("exit status 1"))

	err := cli.AddPeer(context.Background(), "pubkey", []string{"10.13.13.2/32"}, 0)
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Output, "Operation not permitted")
	assert.Contains(t, cmdErr.Cmd, "wg set wg0")
}

func TestListPeersParsesDump(t *testing.T) {
	cli, calls := newTestCLI(sampleDump, nil)

	peers, err := cli.ListPeers(context.Background())
	require.NoError(t, err)
	assert.Len(t, peers, 2)
	assert.Equal(t, []string{"show", "wg0", "dump"}, (*calls)[0].args)
}

func TestServerPublicKeyTrimsOutput(t *testing.T) {
	cli, _ := newTestCLI("c2VydmVycHVibGlja2V5c2VydmVycHVibGlja2V5cw==\n", nil)

	key, err := cli.ServerPublicKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c2VydmVycHVibGlja2V5c2VydmVycHVibGlja2V5cw==", key)
}

func TestInterfaceAddr(t *testing.T) {
	out := "3: wg0    inet 10.13.13.1/24 scope global wg0\\       valid_lft forever preferred_lft forever"
	cli, _ := newTestCLI(out, nil)

	prefix, err := cli.InterfaceAddr(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.13.13.1/24", prefix.String())
}

func TestInterfaceAddrNoAddress(t *testing.T) {
	cli, _ := newTestCLI("3: wg0    inet6 fe80::1 scope link", nil)

	_, err := cli.InterfaceAddr(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGenerateKeyPair(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.NoError(t, ValidateKey(priv))
	assert.NoError(t, ValidateKey(pub))
	assert.NotEqual(t, priv, pub)
}
