// Package pairing tracks whether the signer is paired with a peer.
//
// State is a value: every transition returns the next State together with the
// frame to send, leaving the receiver untouched.
package pairing

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/internal/protocol/wire"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// State is either Disconnected (the zero value) or Connected(peerID).
type State struct {
	peerID string
}

// Disconnected is the initial state.
var Disconnected = State{}

// Connected returns the state of being paired with peerID.
func Connected(peerID string) State {
	return State{peerID: peerID}
}

func (s State) IsConnected() bool {
	return s.peerID != ""
}

// PeerID is empty while disconnected.
func (s State) PeerID() string {
	return s.peerID
}

func (s State) String() string {
	if !s.IsConnected() {
		return "Disconnected"
	}
	return fmt.Sprintf("Connected(%s)", s.peerID)
}

// Connect asks the relay to pair with peerID. The state does not change until
// the peer answers with a connected frame.
func (s State) Connect(peerID, publicKey string) (State, wire.Message, error) {
	if s.IsConnected() {
		return s, wire.Message{}, errors.Wrapf(signer.ErrAlreadyConnected, "paired with %s", s.peerID)
	}
	if peerID == "" {
		return s, wire.Message{}, signer.ErrEmptyPeerID
	}
	out := wire.Connect(peerID, publicKey)
	if err := out.Validate(); err != nil {
		return s, wire.Message{}, err
	}
	return s, out, nil
}

// Disconnect asks the peer to unpair. Local state is only reset when the
// disconnected echo arrives.
func (s State) Disconnect() (State, wire.Message, error) {
	if !s.IsConnected() {
		return s, wire.Message{}, signer.ErrNotConnected
	}
	return s, wire.Disconnect(), nil
}

// Apply folds an inbound pairing frame into the state. handled is false for
// frames that do not concern pairing.
func (s State) Apply(m wire.Message) (next State, handled bool) {
	switch m.Action {
	case wire.ActionConnected:
		return Connected(m.PeerID), true
	case wire.ActionDisconnected:
		return Disconnected, true
	}
	return s, false
}

// Reset drops the pairing after the channel itself closed.
func (s State) Reset() State {
	return Disconnected
}
