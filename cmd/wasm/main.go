//go:build js && wasm

package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/smallyu/go-maci-signer/internal/crypto/eddsa"
	"github.com/smallyu/go-maci-signer/internal/keys"
	"github.com/smallyu/go-maci-signer/internal/protocol/wire"
	"github.com/smallyu/go-maci-signer/internal/session"
)

// Sessions are pure folds: JS owns the socket, Go owns the state.
// Key: handle returned by NewSession.
var (
	sessions = make(map[string]session.State)
	nextID   int
)

func main() {
	c := make(chan struct{})

	fmt.Println("go-maci-signer WASM initialized")

	js.Global().Set("MaciSigner", map[string]interface{}{
		"GenKeypair": js.FuncOf(GenKeypair),
		"PublicKey":  js.FuncOf(PublicKey),
		"Sign":       js.FuncOf(Sign),
		"NewSession": js.FuncOf(NewSession),
		"Inbound":    js.FuncOf(Inbound),
		"Connect":    js.FuncOf(Connect),
		"Disconnect": js.FuncOf(Disconnect),
		"Approve":    js.FuncOf(Approve),
		"Reject":     js.FuncOf(Reject),
		"Closed":     js.FuncOf(Closed),
	})

	<-c
}

// GenKeypair returns {"privKey": "macisk...", "pubKey": "macipk..."}.
func GenKeypair(this js.Value, args []js.Value) interface{} {
	kp, err := keys.GenKeypair(rand.Reader)
	if err != nil {
		return errorf("generate keypair: %v", err)
	}
	return marshal(map[string]string{
		"privKey": kp.PrivKey().Serialize(),
		"pubKey":  kp.PubKey().Serialize(),
	})
}

// PublicKey derives the serialized public key.
// Arguments:
// 0: serialized private key
func PublicKey(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (privKey)"
	}
	kp, err := keypair(args[0].String())
	if err != nil {
		return errorf("%v", err)
	}
	return kp.PubKey().Serialize()
}

// Sign signs a message hash and returns the wire signature.
// Arguments:
// 0: serialized private key
// 1: hash, decimal or 0x-prefixed hex
func Sign(this js.Value, args []js.Value) interface{} {
	if len(args) != 2 {
		return "error: expected 2 arguments (privKey, hash)"
	}
	kp, err := keypair(args[0].String())
	if err != nil {
		return errorf("%v", err)
	}
	m, err := eddsa.ParseMessage(args[1].String())
	if err != nil {
		return errorf("%v", err)
	}
	sig, err := kp.Sign(m)
	if err != nil {
		return errorf("sign: %v", err)
	}
	s, err := wire.EncodeSignature(sig)
	if err != nil {
		return errorf("%v", err)
	}
	return s
}

// NewSession starts a disconnected session and returns its handle.
func NewSession(this js.Value, args []js.Value) interface{} {
	nextID++
	handle := fmt.Sprintf("session-%d", nextID)
	sessions[handle] = session.State{}
	return handle
}

// Inbound applies a frame received from the relay.
// Arguments:
// 0: session handle
// 1: frame (JSON string)
// Returns:
// JSON {"peerId", "pendingId", "messages": [frames to send]}
func Inbound(this js.Value, args []js.Value) interface{} {
	if len(args) != 2 {
		return "error: expected 2 arguments (handle, frame)"
	}
	msg, err := wire.Decode([]byte(args[1].String()))
	if err != nil {
		return errorf("decode frame: %v", err)
	}
	return step(args[0].String(), session.Inbound{Message: msg})
}

// Connect arguments: handle, peerId, serialized public key.
func Connect(this js.Value, args []js.Value) interface{} {
	if len(args) != 3 {
		return "error: expected 3 arguments (handle, peerId, pubKey)"
	}
	return step(args[0].String(), session.Connect{PeerID: args[1].String(), PublicKey: args[2].String()})
}

func Disconnect(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (handle)"
	}
	return step(args[0].String(), session.Disconnect{})
}

// Approve arguments: handle, serialized private key.
func Approve(this js.Value, args []js.Value) interface{} {
	if len(args) != 2 {
		return "error: expected 2 arguments (handle, privKey)"
	}
	kp, err := keypair(args[1].String())
	if err != nil {
		return errorf("%v", err)
	}
	return step(args[0].String(), session.Approve{Signer: kp})
}

func Reject(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (handle)"
	}
	return step(args[0].String(), session.Reject{})
}

// Closed tells the session its socket went away.
func Closed(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (handle)"
	}
	return step(args[0].String(), session.ChannelClosed{})
}

// Helpers

func step(handle string, ev session.Event) interface{} {
	s, ok := sessions[handle]
	if !ok {
		return "error: session not found"
	}

	next, out, err := session.Reduce(s, ev)
	if err != nil {
		return errorf("%v", err)
	}
	sessions[handle] = next

	frames := make([]string, 0, len(out))
	for _, m := range out {
		b, err := wire.Encode(m)
		if err != nil {
			return errorf("encode frame: %v", err)
		}
		frames = append(frames, string(b))
	}

	return marshal(map[string]interface{}{
		"peerId":    next.PeerID(),
		"pendingId": next.PendingID(),
		"messages":  frames,
	})
}

func keypair(serialized string) (keys.Keypair, error) {
	priv, err := keys.DeserializePrivKey(serialized)
	if err != nil {
		return keys.Keypair{}, err
	}
	return keys.NewKeypair(priv)
}

func marshal(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func errorf(format string, args ...interface{}) string {
	return "error: " + fmt.Sprintf(format, args...)
}
