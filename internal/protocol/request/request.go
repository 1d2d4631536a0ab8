// Package request holds the single pending signature request and resolves it
// by approval, rejection or peer cancellation.
package request

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/internal/crypto/eddsa"
	"github.com/smallyu/go-maci-signer/internal/protocol/wire"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// Signer produces a signature over a message scalar. keys.Keypair is one.
type Signer interface {
	Sign(m *big.Int) (*eddsa.Signature, error)
}

// Request is a sign frame awaiting a local decision.
type Request struct {
	SignatureID string
	Data        wire.SignData
	Hash        string
}

// FromMessage builds a Request out of an inbound sign frame.
func FromMessage(m wire.Message) (Request, error) {
	if m.Action != wire.ActionSign {
		return Request{}, errors.Wrapf(wire.ErrMalformed, "%s frame is not a sign request", m.Action)
	}
	if err := m.Validate(); err != nil {
		return Request{}, err
	}
	return Request{SignatureID: m.SignatureID, Data: *m.Data, Hash: string(m.Hash)}, nil
}

// Slot holds zero or one pending Request. The zero value is empty.
type Slot struct {
	pending Request
	full    bool
}

// Pending returns the pending request, if any.
func (s Slot) Pending() (Request, bool) {
	return s.pending, s.full
}

// PendingID is empty when nothing is pending.
func (s Slot) PendingID() string {
	if !s.full {
		return ""
	}
	return s.pending.SignatureID
}

// Install makes r the pending request. A request already pending is replaced
// without notice to the peer and returned as dropped.
func (s Slot) Install(r Request) (next Slot, dropped Request, replaced bool) {
	return Slot{pending: r, full: true}, s.pending, s.full
}

// Cancel clears the slot only if id matches the pending request.
func (s Slot) Cancel(id string) (Slot, bool) {
	if !s.full || s.pending.SignatureID != id {
		return s, false
	}
	return Slot{}, true
}

// Approve signs the pending hash and returns the signed frame. On any error
// the slot is returned unchanged.
func (s Slot) Approve(sg Signer) (Slot, wire.Message, error) {
	if !s.full {
		return s, wire.Message{}, signer.ErrNoPendingRequest
	}
	m, err := eddsa.ParseMessage(s.pending.Hash)
	if err != nil {
		return s, wire.Message{}, errors.Wrapf(err, "request %s", s.pending.SignatureID)
	}
	sig, err := sg.Sign(m)
	if err != nil {
		return s, wire.Message{}, errors.Wrapf(err, "sign request %s", s.pending.SignatureID)
	}
	encoded, err := wire.EncodeSignature(sig)
	if err != nil {
		return s, wire.Message{}, err
	}
	return Slot{}, wire.Signed(s.pending.SignatureID, encoded), nil
}

// Reject declines the pending request and returns the cancellation frame.
func (s Slot) Reject() (Slot, wire.Message, error) {
	if !s.full {
		return s, wire.Message{}, signer.ErrNoPendingRequest
	}
	return Slot{}, wire.CancelSignatureRequest(s.pending.SignatureID), nil
}

// Reset empties the slot.
func (s Slot) Reset() Slot {
	return Slot{}
}
