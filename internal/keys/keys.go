package keys

import (
	"encoding/hex"
	"io"
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/internal/crypto/curves"
	"github.com/smallyu/go-maci-signer/internal/crypto/eddsa"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// Serialized key prefixes. These are MACI keys, not Ethereum keys.
const (
	PrivKeyPrefix = "macisk."
	PubKeyPrefix  = "macipk."
)

// SeedSize is the canonical private key seed length.
const SeedSize = 32

// PrivKey is a MACI private key: a 32-byte seed hashed into the signing scalar.
type PrivKey struct {
	seed [SeedSize]byte
}

// NewPrivKey builds a private key from raw seed bytes. The seed is read as a
// big-endian number, so shorter seeds are left-padded with zeros. Seeds longer
// than SeedSize cannot be serialized and are rejected.
func NewPrivKey(seed []byte) (PrivKey, error) {
	var k PrivKey
	if len(seed) == 0 {
		return k, errors.Wrap(signer.ErrInvalidFormat, "empty private key seed")
	}
	if len(seed) > SeedSize {
		return k, errors.Wrapf(signer.ErrInvalidFormat, "private key seed is %d bytes, at most %d allowed", len(seed), SeedSize)
	}
	copy(k.seed[SeedSize-len(seed):], seed)
	return k, nil
}

// GenPrivKey draws a fresh private key from r.
func GenPrivKey(r io.Reader) (PrivKey, error) {
	var k PrivKey
	if _, err := io.ReadFull(r, k.seed[:]); err != nil {
		return k, errors.Wrap(err, "generate private key")
	}
	return k, nil
}

// Seed returns a copy of the 32-byte seed.
func (k PrivKey) Seed() []byte {
	out := make([]byte, SeedSize)
	copy(out, k.seed[:])
	return out
}

// Serialize returns "macisk." followed by 64 lowercase hex characters.
func (k PrivKey) Serialize() string {
	return PrivKeyPrefix + hex.EncodeToString(k.seed[:])
}

// Equal reports whether two private keys hold the same seed.
func (k PrivKey) Equal(o PrivKey) bool {
	return k.seed == o.seed
}

// DeserializePrivKey parses a "macisk." string.
func DeserializePrivKey(s string) (PrivKey, error) {
	if !strings.HasPrefix(s, PrivKeyPrefix) {
		return PrivKey{}, errors.Wrapf(signer.ErrInvalidFormat, "private key must start with %q", PrivKeyPrefix)
	}
	x := s[len(PrivKeyPrefix):]
	if len(x) != 2*SeedSize {
		return PrivKey{}, errors.Wrapf(signer.ErrInvalidFormat, "private key has %d hex characters, want %d", len(x), 2*SeedSize)
	}
	seed, err := hex.DecodeString(x)
	if err != nil {
		return PrivKey{}, errors.Wrapf(signer.ErrInvalidFormat, "private key: %v", err)
	}
	return NewPrivKey(seed)
}

// IsValidSerializedPrivKey checks the prefix and the payload length only.
func IsValidSerializedPrivKey(s string) bool {
	return strings.HasPrefix(s, PrivKeyPrefix) && len(s)-len(PrivKeyPrefix) == 2*SeedSize
}

// PubKey is a MACI public key, a point on Baby Jubjub.
type PubKey struct {
	point curves.Point
}

// NewPubKey wraps a point, failing with ErrInvalidPoint when it is not on the curve.
func NewPubKey(p curves.Point) (PubKey, error) {
	if !curves.NewBabyJubJub().IsOnCurve(p) {
		return PubKey{}, errors.Wrapf(signer.ErrInvalidPoint, "public key %s", p)
	}
	return PubKey{point: p.Clone()}, nil
}

// Point returns a copy of the underlying curve point.
func (p PubKey) Point() curves.Point {
	return p.point.Clone()
}

// Serialize returns "macipk." followed by the packed point in lowercase hex,
// zero-padded to an even number of characters. It panics on the zero PubKey.
func (p PubKey) Serialize() string {
	x, err := p.packedHex()
	if err != nil {
		// PubKey values are only built from points that passed IsOnCurve
		panic(err)
	}
	return PubKeyPrefix + x
}

func (p PubKey) packedHex() (string, error) {
	packed, err := curves.Pack(p.point)
	if err != nil {
		return "", err
	}
	x := packed.Text(16)
	if len(x)%2 != 0 {
		x = "0" + x
	}
	return x, nil
}

// AsCircuitInputs returns the coordinates as decimal strings.
func (p PubKey) AsCircuitInputs() []string {
	return []string{p.point.X.String(), p.point.Y.String()}
}

// Equal reports whether two public keys are the same point.
func (p PubKey) Equal(o PubKey) bool {
	return p.point.Equal(o.point)
}

func (p PubKey) String() string {
	x, err := p.packedHex()
	if err != nil {
		return PubKeyPrefix + "<invalid>"
	}
	return PubKeyPrefix + x
}

// DeserializePubKey parses a "macipk." string and decompresses the point.
func DeserializePubKey(s string) (PubKey, error) {
	if !strings.HasPrefix(s, PubKeyPrefix) {
		return PubKey{}, errors.Wrapf(signer.ErrInvalidFormat, "public key must start with %q", PubKeyPrefix)
	}
	x := s[len(PubKeyPrefix):]
	if x == "" {
		return PubKey{}, errors.Wrap(signer.ErrInvalidFormat, "public key has no payload")
	}
	packed, ok := new(big.Int).SetString(x, 16)
	if !ok || strings.ContainsAny(x, "+-_") {
		return PubKey{}, errors.Wrapf(signer.ErrInvalidFormat, "public key payload %q is not hex", x)
	}
	point, err := curves.Unpack(packed)
	if err != nil {
		return PubKey{}, err
	}
	return PubKey{point: point}, nil
}

// IsValidSerializedPubKey reports whether s deserializes to a public key.
func IsValidSerializedPubKey(s string) bool {
	_, err := DeserializePubKey(s)
	return err == nil
}

// Keypair couples a private key with the public key derived from it.
// The public key is never stored separately.
type Keypair struct {
	priv PrivKey
	pub  PubKey
}

// NewKeypair derives the public half of priv.
func NewKeypair(priv PrivKey) (Keypair, error) {
	point, err := eddsa.PublicKey(priv.seed[:])
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{priv: priv, pub: PubKey{point: point}}, nil
}

// GenKeypair generates a keypair from fresh randomness read from r.
func GenKeypair(r io.Reader) (Keypair, error) {
	priv, err := GenPrivKey(r)
	if err != nil {
		return Keypair{}, err
	}
	return NewKeypair(priv)
}

// PrivKey returns the private half.
func (k Keypair) PrivKey() PrivKey {
	return k.priv
}

// PubKey returns the public half.
func (k Keypair) PubKey() PubKey {
	return k.pub
}

// Equal compares keypairs by private key. Matching public keys follow.
func (k Keypair) Equal(o Keypair) bool {
	return k.priv.Equal(o.priv)
}

// Sign signs the message scalar m with this keypair's private seed.
func (k Keypair) Sign(m *big.Int) (*eddsa.Signature, error) {
	return eddsa.Sign(k.priv.seed[:], m)
}
