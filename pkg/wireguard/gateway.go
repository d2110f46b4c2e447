// Package wireguard drives the control surface of the live WireGuard
// interface through the wg and ip binaries.
package wireguard

import (
	"context"
	"net"
	"net/netip"
	"os/exec"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// PeerState is one peer record from `wg show <iface> dump`.
type PeerState struct {
	PublicKey     string
	Endpoint      string
	AllowedIPs    []string
	LastHandshake int64
	TransferRx    int64
	TransferTx    int64
	Keepalive     int
}

// Gateway abstracts the interface control surface so a test double can
// simulate success, timeout and malformed-output cases without a real
// interface. Add/RemovePeer for the same public key must not overlap; the
// caller serializes mutations.
type Gateway interface {
	Available() bool
	ListPeers(ctx context.Context) (map[string]PeerState, error)
	AddPeer(ctx context.Context, publicKey string, allowedIPs []string, keepalive int) error
	RemovePeer(ctx context.Context, publicKey string) error
	ServerPublicKey(ctx context.Context) (string, error)
	InterfaceAddr(ctx context.Context) (netip.Prefix, error)
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// CLI is the production Gateway. Every call is a blocking external process
// invocation bounded by a per-command timeout.
type CLI struct {
	iface   string
	timeout time.Duration
	run     runFunc
}

const defaultTimeout = 3 * time.Second

func NewCLI(iface string, timeout time.Duration) *CLI {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CLI{iface: iface, timeout: timeout, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (c *CLI) exec(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := c.run(ctx, name, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &CommandError{
			Cmd:    name + " " + strings.Join(args, " "),
			Output: strings.TrimSpace(string(out)),
			Err:    err,
		}
	}
	return strings.TrimSpace(string(out)), nil
}

// Available reports whether the managed interface exists and answers the
// control surface. A present interface with zero peers is still available.
func (c *CLI) Available() bool {
	if !ifaceExists(c.iface) {
		return false
	}
	_, err := c.exec(context.Background(), "wg", "show", c.iface)
	return err == nil
}

func ifaceExists(iface string) bool {
	if iface == "" {
		return false
	}
	_, err := net.InterfaceByName(iface)
	return err == nil
}

// ListPeers parses the machine-readable dump into records keyed by public
// key. Unparsable lines are skipped and counted, never fatal.
func (c *CLI) ListPeers(ctx context.Context) (map[string]PeerState, error) {
	out, err := c.exec(ctx, "wg", "show", c.iface, "dump")
	if err != nil {
		return nil, err
	}
	peers, skipped := parseDump(out)
	if skipped > 0 {
		log.Warnf("wg dump: skipped %d unparsable lines on %s", skipped, c.iface)
	}
	return peers, nil
}

func (c *CLI) AddPeer(ctx context.Context, publicKey string, allowedIPs []string, keepalive int) error {
	args := []string{"set", c.iface, "peer", publicKey, "allowed-ips", strings.Join(allowedIPs, ",")}
	if keepalive > 0 {
		args = append(args, "persistent-keepalive", strconv.Itoa(keepalive))
	}
	_, err := c.exec(ctx, "wg", args...)
	return err
}

func (c *CLI) RemovePeer(ctx context.Context, publicKey string) error {
	_, err := c.exec(ctx, "wg", "set", c.iface, "peer", publicKey, "remove")
	return err
}

func (c *CLI) ServerPublicKey(ctx context.Context) (string, error) {
	return c.exec(ctx, "wg", "show", c.iface, "public-key")
}

// InterfaceAddr returns the interface's own address in CIDR form, e.g.
// 10.13.13.1/24. Used to derive the managed subnet when none is configured.
func (c *CLI) InterfaceAddr(ctx context.Context) (netip.Prefix, error) {
	out, err := c.exec(ctx, "ip", "-o", "-f", "inet", "addr", "show", c.iface)
	if err != nil {
		return netip.Prefix{}, err
	}
	for _, field := range strings.Fields(out) {
		if !strings.Contains(field, "/") {
			continue
		}
		if prefix, perr := netip.ParsePrefix(field); perr == nil {
			return prefix, nil
		}
	}
	return netip.Prefix{}, &CommandError{
		Cmd:    "ip addr show " + c.iface,
		Output: out,
		Err:    ErrUnavailable,
	}
}
