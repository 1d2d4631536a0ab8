package eddsa

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/internal/crypto/curves"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// Prune clamps the first 32 bytes of buf in place: clear the low 3 bits of the
// first byte, clear the top bit and set the second-highest bit of the last byte.
func Prune(buf []byte) []byte {
	buf[0] &= 0xf8
	buf[31] &= 0x7f
	buf[31] |= 0x40
	return buf
}

// clampedScalar hashes the seed and returns the raw clamped scalar s together
// with the full digest. s is a multiple of 8 below 2^255.
func clampedScalar(seed []byte) (*big.Int, []byte, error) {
	if len(seed) == 0 {
		return nil, nil, errors.Wrap(signer.ErrInvalidFormat, "empty private key seed")
	}
	h := Blake512(seed)

	sBuf := make([]byte, 32)
	copy(sBuf, h[:32])
	Prune(sBuf)

	return curves.LEToInt(sBuf), h, nil
}

// SecretScalar derives the secret scalar of a seed: BLAKE-512, clamp the low
// half, read it little-endian and shift right by 3. The result is not reduced
// modulo the subgroup order.
func SecretScalar(seed []byte) (*big.Int, error) {
	s, _, err := clampedScalar(seed)
	if err != nil {
		return nil, err
	}
	return s.Rsh(s, 3), nil
}

// PublicKey derives the public key B8 * SecretScalar(seed).
func PublicKey(seed []byte) (curves.Point, error) {
	s, err := SecretScalar(seed)
	if err != nil {
		return curves.Point{}, err
	}
	return curves.NewBabyJubJub().ScalarBaseMult(s), nil
}
