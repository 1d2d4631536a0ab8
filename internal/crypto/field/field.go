package field

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
)

// Field is modular arithmetic over a fixed prime modulus.
// All results are reduced into [0, modulus).
type Field struct {
	modulus *big.Int
}

// SubOrder is the field of scalars of the Baby Jubjub prime-order subgroup.
var SubOrder = New(babyjub.SubOrder)

// New returns the field of integers modulo m. m must be positive.
func New(m *big.Int) *Field {
	if m == nil || m.Sign() <= 0 {
		panic("field: modulus must be positive")
	}
	return &Field{modulus: new(big.Int).Set(m)}
}

// Modulus returns a copy of the field modulus.
func (f *Field) Modulus() *big.Int {
	return new(big.Int).Set(f.modulus)
}

// Reduce calculates x mod m. Negative inputs wrap around to a non-negative residue.
func (f *Field) Reduce(x *big.Int) *big.Int {
	// big.Int.Mod is Euclidean, the result is never negative
	return new(big.Int).Mod(x, f.modulus)
}

// Add calculates (a + b) mod m
func (f *Field) Add(a, b *big.Int) *big.Int {
	res := new(big.Int).Add(a, b)
	return res.Mod(res, f.modulus)
}

// Mul calculates (a * b) mod m
func (f *Field) Mul(a, b *big.Int) *big.Int {
	res := new(big.Int).Mul(a, b)
	return res.Mod(res, f.modulus)
}

// MulAdd calculates (a + b*c) mod m, the shape of an EdDSA response.
func (f *Field) MulAdd(a, b, c *big.Int) *big.Int {
	res := new(big.Int).Mul(b, c)
	res.Add(res, a)
	return res.Mod(res, f.modulus)
}

// Contains reports whether x is already a canonical element of the field.
func (f *Field) Contains(x *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(f.modulus) < 0
}
