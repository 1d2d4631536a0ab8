package eddsa

import (
	"math/big"
	"strings"

	"github.com/iden3/go-iden3-crypto/constants"
	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/internal/crypto/curves"
	"github.com/smallyu/go-maci-signer/internal/crypto/field"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// MessageSize is the size of the little-endian message encoding mixed into the nonce.
const MessageSize = 32

// Signature is an EdDSA-Poseidon signature over Baby Jubjub.
type Signature struct {
	R8 curves.Point // Commitment R8 = r * B8
	S  *big.Int     // Response S = r + H(R8, A, m) * s mod l
}

// Sign produces the deterministic EdDSA-Poseidon signature of message m under
// the key derived from seed. The nonce is hashed from the seed and the message,
// so the same (seed, m) always gives the same signature.
func Sign(seed []byte, m *big.Int) (*Signature, error) {
	if err := CheckMessage(m); err != nil {
		return nil, err
	}

	curve := curves.NewBabyJubJub()
	fr := field.SubOrder

	// 1. h = H(seed), s = clamp(h[0:32])
	s, h, err := clampedScalar(seed)
	if err != nil {
		return nil, err
	}

	// 2. A = (s >> 3) * B8
	A := curve.ScalarBaseMult(new(big.Int).Rsh(s, 3))

	// 3. r = H(h[32:64] || m) mod l
	msgBuf := curves.IntToLE(m, MessageSize)
	r := fr.Reduce(curves.LEToInt(Blake512(h[32:], msgBuf)))

	// 4. R8 = r * B8
	R8 := curve.ScalarBaseMult(r)

	// 5. c = Poseidon(R8, A, m)
	c, err := challenge(R8.X, R8.Y, A.X, A.Y, m)
	if err != nil {
		return nil, err
	}

	// 6. S = r + c * s mod l, with the full clamped s (not s >> 3)
	S := fr.MulAdd(r, c, s)

	return &Signature{R8: R8, S: S}, nil
}

// CheckMessage verifies that m is a message scalar the signer accepts:
// a non-negative element of the Poseidon input field.
func CheckMessage(m *big.Int) error {
	if m == nil {
		return errors.Wrap(signer.ErrInvalidMessage, "missing message")
	}
	if m.Sign() < 0 {
		return errors.Wrapf(signer.ErrInvalidMessage, "negative message %s", m)
	}
	if m.Cmp(constants.Q) >= 0 {
		return errors.Wrap(signer.ErrInvalidMessage, "message exceeds the field modulus")
	}
	return nil
}

// ParseMessage converts a textual message hash into a message scalar.
// Decimal and 0x/0o/0b prefixed forms are accepted; a leading zero without a
// prefix is still decimal. Hashes at or above the field modulus are refused
// with ErrInvalidMessage, not reduced.
func ParseMessage(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.Wrap(signer.ErrInvalidMessage, "empty message")
	}

	base, digits := 10, s
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base, digits = 16, s[2:]
		case 'o', 'O':
			base, digits = 8, s[2:]
		case 'b', 'B':
			base, digits = 2, s[2:]
		}
	}

	m, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, errors.Wrapf(signer.ErrInvalidMessage, "cannot parse %q as an integer", s)
	}
	if err := CheckMessage(m); err != nil {
		return nil, err
	}
	return m, nil
}
