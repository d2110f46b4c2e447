package wireguard

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates the managed interface does not exist on this host.
var ErrUnavailable = errors.New("wireguard interface unavailable")

// ErrMissingCredential indicates a client config was requested for a peer
// whose private key was never generated by this node.
var ErrMissingCredential = errors.New("private key unknown for this peer")

// CommandError reports a control surface command that exited non-zero or
// timed out. Output carries the raw diagnostic text from the command.
type CommandError struct {
	Cmd    string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %v output=%s", e.Cmd, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
