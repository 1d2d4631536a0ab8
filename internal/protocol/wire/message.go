// Package wire defines the JSON frames exchanged with the voting-session peer.
package wire

import (
	"bytes"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/internal/crypto/eddsa"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// ErrMalformed is returned for frames that are not valid JSON or lack a
// field their action requires.
var ErrMalformed = errors.New("malformed frame")

// Action tags every frame. The set is closed.
type Action string

const (
	ActionConnect                Action = "connect"
	ActionConnected              Action = "connected"
	ActionDisconnect             Action = "disconnect"
	ActionDisconnected           Action = "disconnected"
	ActionSign                   Action = "sign"
	ActionSigned                 Action = "signed"
	ActionCancelSignatureRequest Action = "cancel-signature-request"
)

// Valid reports whether a belongs to the protocol.
func (a Action) Valid() bool {
	switch a {
	case ActionConnect, ActionConnected, ActionDisconnect, ActionDisconnected,
		ActionSign, ActionSigned, ActionCancelSignatureRequest:
		return true
	}
	return false
}

// Inbound reports whether the peer may send a.
func (a Action) Inbound() bool {
	switch a {
	case ActionConnected, ActionDisconnected, ActionSign, ActionCancelSignatureRequest:
		return true
	}
	return false
}

// Outbound reports whether the signer may send a.
func (a Action) Outbound() bool {
	switch a {
	case ActionConnect, ActionDisconnect, ActionSigned, ActionCancelSignatureRequest:
		return true
	}
	return false
}

// Text is a string field the peer may also send as a bare JSON number.
// It always encodes as a string.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Errorf("expected string or number, got %s", b)
	}
	*t = Text(n.String())
	return nil
}

// SignData describes the vote a sign request asks approval for.
type SignData struct {
	PollID         Text   `json:"pollId"`
	Title          string `json:"title"`
	SelectedOption string `json:"selectedOption"`
}

// Message is a single frame. Only the fields its Action uses are set.
type Message struct {
	Action      Action    `json:"action"`
	PeerID      string    `json:"peerId,omitempty"`
	PublicKey   string    `json:"publicKey,omitempty"`
	Data        *SignData `json:"data,omitempty"`
	Hash        Text      `json:"hash,omitempty"`
	SignatureID string    `json:"signatureId,omitempty"`
	Signature   string    `json:"signature,omitempty"`
}

func Connect(peerID, publicKey string) Message {
	return Message{Action: ActionConnect, PeerID: peerID, PublicKey: publicKey}
}

func Connected(peerID string) Message {
	return Message{Action: ActionConnected, PeerID: peerID}
}

func Disconnect() Message {
	return Message{Action: ActionDisconnect}
}

func Disconnected() Message {
	return Message{Action: ActionDisconnected}
}

func Sign(data SignData, hash, signatureID string) Message {
	return Message{Action: ActionSign, Data: &data, Hash: Text(hash), SignatureID: signatureID}
}

func Signed(signatureID, signature string) Message {
	return Message{Action: ActionSigned, SignatureID: signatureID, Signature: signature}
}

func CancelSignatureRequest(signatureID string) Message {
	return Message{Action: ActionCancelSignatureRequest, SignatureID: signatureID}
}

// Validate checks that m carries every field its action needs.
func (m Message) Validate() error {
	missing := func(field string) error {
		return errors.Wrapf(ErrMalformed, "%s frame without %s", m.Action, field)
	}

	switch m.Action {
	case ActionConnect:
		if m.PeerID == "" {
			return missing("peerId")
		}
		if m.PublicKey == "" {
			return missing("publicKey")
		}
	case ActionConnected:
		if m.PeerID == "" {
			return missing("peerId")
		}
	case ActionDisconnect, ActionDisconnected:
	case ActionSign:
		if m.Data == nil {
			return missing("data")
		}
		if m.Hash == "" {
			return missing("hash")
		}
		if m.SignatureID == "" {
			return missing("signatureId")
		}
	case ActionSigned:
		if m.SignatureID == "" {
			return missing("signatureId")
		}
		if m.Signature == "" {
			return missing("signature")
		}
	case ActionCancelSignatureRequest:
		if m.SignatureID == "" {
			return missing("signatureId")
		}
	default:
		return errors.Wrapf(signer.ErrUnknownAction, "%q", string(m.Action))
	}
	return nil
}

// HashScalar parses the hash of a sign frame into a message scalar.
func (m Message) HashScalar() (*big.Int, error) {
	return eddsa.ParseMessage(string(m.Hash))
}

// Encode validates m and renders it as one frame.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encode frame")
	}
	return b, nil
}

// Decode parses and validates one frame.
func Decode(frame []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(frame, &m); err != nil {
		return Message{}, errors.Wrapf(ErrMalformed, "decode frame: %v", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}
