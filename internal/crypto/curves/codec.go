package curves

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// PackedSize is the size in bytes of a compressed point.
const PackedSize = 32

// Pack compresses a point into a single integer: y in little-endian with the
// top bit of the last byte set when x is in the upper half of the field.
func Pack(p Point) (*big.Int, error) {
	c := NewBabyJubJub()
	if !c.IsOnCurve(p) {
		return nil, errors.Wrapf(signer.ErrInvalidPoint, "pack %s: not on curve", p)
	}
	buf := toBabyJub(p).Compress()
	return LEToInt(buf[:]), nil
}

// Unpack recovers the point compressed by Pack.
func Unpack(n *big.Int) (Point, error) {
	if n == nil || n.Sign() < 0 {
		return Point{}, errors.Wrap(signer.ErrInvalidPoint, "unpack: negative or missing value")
	}
	if n.BitLen() > PackedSize*8 {
		return Point{}, errors.Wrapf(signer.ErrInvalidPoint, "unpack: value has %d bits", n.BitLen())
	}

	var buf [PackedSize]byte
	copy(buf[:], IntToLE(n, PackedSize))

	sign := buf[PackedSize-1]&0x80 != 0
	p, err := babyjub.NewPoint().Decompress(buf)
	if err != nil {
		return Point{}, errors.Wrapf(signer.ErrInvalidPoint, "unpack: %v", err)
	}
	// x = 0 has no negative twin, so the sign bit cannot be honoured
	if sign && p.X.Sign() == 0 {
		return Point{}, errors.Wrap(signer.ErrInvalidPoint, "unpack: sign bit set for x = 0")
	}

	return fromBabyJub(p), nil
}

// LEToInt interprets b as a little-endian unsigned integer.
func LEToInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	return new(big.Int).SetBytes(be)
}

// IntToLE encodes a non-negative n as exactly size little-endian bytes.
// Bytes above size are dropped, so callers must range-check n first.
func IntToLE(n *big.Int, size int) []byte {
	be := n.Bytes()
	out := make([]byte, size)
	for i := 0; i < len(be) && i < size; i++ {
		out[i] = be[len(be)-1-i]
	}
	return out
}
