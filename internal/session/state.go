package session

import (
	"github.com/smallyu/go-maci-signer/internal/protocol/pairing"
	"github.com/smallyu/go-maci-signer/internal/protocol/request"
	"github.com/smallyu/go-maci-signer/internal/protocol/wire"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// State is everything the session knows about the peer. It is comparable, so
// observers can detect changes with ==.
type State struct {
	Pairing pairing.State
	Request request.Slot
}

// PeerID is empty while disconnected.
func (s State) PeerID() string {
	return s.Pairing.PeerID()
}

// PendingID is empty when no request awaits a decision.
func (s State) PendingID() string {
	return s.Request.PendingID()
}

// Event is anything that can move the session: a frame from the peer, the
// channel going away, or a local user action.
type Event interface {
	isEvent()
}

// Inbound is a decoded frame from the peer.
type Inbound struct {
	Message wire.Message
}

// ChannelClosed reports the loss of the underlying channel.
type ChannelClosed struct {
	Err error
}

// Connect asks to pair with PeerID, presenting PublicKey.
type Connect struct {
	PeerID    string
	PublicKey string
}

type Disconnect struct{}

// Approve signs the pending request with Signer.
type Approve struct {
	Signer request.Signer
}

type Reject struct{}

func (Inbound) isEvent()       {}
func (ChannelClosed) isEvent() {}
func (Connect) isEvent()       {}
func (Disconnect) isEvent()    {}
func (Approve) isEvent()       {}
func (Reject) isEvent()        {}

// Reduce applies one event to s and returns the next state with the frames to
// send. It never mutates s. When an error is returned the state is unchanged
// and nothing is sent. Errors for Inbound events are *signer.PeerError: the
// peer is untrusted and those are meant to be logged, not surfaced.
func Reduce(s State, ev Event) (State, []wire.Message, error) {
	switch ev := ev.(type) {
	case Inbound:
		return reduceInbound(s, ev.Message)

	case ChannelClosed:
		return State{Pairing: s.Pairing.Reset(), Request: s.Request.Reset()}, nil, nil

	case Connect:
		next, out, err := s.Pairing.Connect(ev.PeerID, ev.PublicKey)
		if err != nil {
			return s, nil, err
		}
		return State{Pairing: next, Request: s.Request}, []wire.Message{out}, nil

	case Disconnect:
		next, out, err := s.Pairing.Disconnect()
		if err != nil {
			return s, nil, err
		}
		return State{Pairing: next, Request: s.Request}, []wire.Message{out}, nil

	case Approve:
		if ev.Signer == nil {
			return s, nil, signer.ErrNoKeypair
		}
		next, out, err := s.Request.Approve(ev.Signer)
		if err != nil {
			return s, nil, err
		}
		return State{Pairing: s.Pairing, Request: next}, []wire.Message{out}, nil

	case Reject:
		next, out, err := s.Request.Reject()
		if err != nil {
			return s, nil, err
		}
		return State{Pairing: s.Pairing, Request: next}, []wire.Message{out}, nil
	}
	return s, nil, nil
}

func reduceInbound(s State, m wire.Message) (State, []wire.Message, error) {
	peer := s.PeerID()

	if !m.Action.Inbound() {
		return s, nil, signer.NewPeerError(peer, "unexpected "+string(m.Action)+" frame", signer.ErrUnknownAction)
	}

	switch m.Action {
	case wire.ActionConnected, wire.ActionDisconnected:
		next, _ := s.Pairing.Apply(m)
		if !next.IsConnected() {
			return State{Pairing: next}, nil, nil
		}
		return State{Pairing: next, Request: s.Request}, nil, nil

	case wire.ActionSign:
		if !s.Pairing.IsConnected() {
			return s, nil, signer.NewPeerError(peer, "sign request while unpaired", signer.ErrNotConnected)
		}
		r, err := request.FromMessage(m)
		if err != nil {
			return s, nil, signer.NewPeerError(peer, "bad sign request", err)
		}
		next, _, _ := s.Request.Install(r)
		return State{Pairing: s.Pairing, Request: next}, nil, nil

	case wire.ActionCancelSignatureRequest:
		next, _ := s.Request.Cancel(m.SignatureID)
		return State{Pairing: s.Pairing, Request: next}, nil, nil
	}
	return s, nil, nil
}

// Fold reduces events in order, starting from s. Events that fail leave the
// state unchanged, as they do in a running Session.
func Fold(s State, events ...Event) (State, []wire.Message) {
	var out []wire.Message
	for _, ev := range events {
		next, msgs, err := Reduce(s, ev)
		if err != nil {
			continue
		}
		s = next
		out = append(out, msgs...)
	}
	return s, out
}
