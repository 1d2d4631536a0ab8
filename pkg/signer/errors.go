package signer

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error taxonomy shared by every layer of the signer.
//
// Codec and crypto failures (ErrInvalidFormat, ErrInvalidPoint, ErrInvalidMessage)
// always reach the caller. ErrStorageRead is recovered by the key store, and
// ErrChannel is only reported once the session has already reset itself.
var (
	ErrInvalidFormat  = errors.New("invalid serialized key format")
	ErrInvalidPoint   = errors.New("invalid curve point")
	ErrInvalidMessage = errors.New("invalid message scalar")
	ErrStorageRead    = errors.New("storage read failure")
	ErrChannel        = errors.New("channel error")
)

// Protocol errors returned by local session operations.
var (
	ErrNotConnected      = errors.New("not connected to a peer")
	ErrAlreadyConnected  = errors.New("already connected to a peer")
	ErrEmptyPeerID       = errors.New("empty peer id")
	ErrNoPendingRequest  = errors.New("no pending signature request")
	ErrUnknownAction     = errors.New("unknown message action")
	ErrSessionClosed     = errors.New("session closed")
	ErrNoKeypair         = errors.New("no keypair available")
	ErrKeypairOutOfRange = errors.New("keypair index out of range")
)

// PeerError attributes a protocol failure to the remote peer that caused it.
// The peer is untrusted, so these are logged rather than surfaced to the user.
type PeerError struct {
	PeerID string
	Reason string
	Err    error
}

func (e *PeerError) Error() string {
	peer := e.PeerID
	if peer == "" {
		peer = "<unpaired>"
	}
	if e.Err != nil {
		return fmt.Sprintf("peer %s: %s: %v", peer, e.Reason, e.Err)
	}
	return fmt.Sprintf("peer %s: %s", peer, e.Reason)
}

func (e *PeerError) Unwrap() error {
	return e.Err
}

// NewPeerError creates a new PeerError.
func NewPeerError(peerID, reason string, err error) *PeerError {
	return &PeerError{
		PeerID: peerID,
		Reason: reason,
		Err:    err,
	}
}
