package curves

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/iden3/go-iden3-crypto/constants"
)

// Curve defines the twisted Edwards operations needed by the signer.
type Curve interface {
	// Name returns the name of the curve.
	Name() string

	// Order returns the order of the subgroup generated by BasePoint.
	Order() *big.Int

	// FieldModulus returns the prime q of the base field the coordinates live in.
	FieldModulus() *big.Int

	// BasePoint returns the generator of the prime-order subgroup.
	BasePoint() Point

	// ScalarBaseMult computes k * B
	ScalarBaseMult(k *big.Int) Point

	// ScalarMult computes k * P
	ScalarMult(p Point, k *big.Int) Point

	// Add combines two points
	Add(p, q Point) Point

	// IsOnCurve reports whether p has canonical coordinates and satisfies the curve equation.
	IsOnCurve(p Point) bool
}

// BabyJubJub is the twisted Edwards curve a*x^2 + y^2 = 1 + d*x^2*y^2 embedded in
// the BN254 scalar field (EIP-2494). The base point is B8, the generator of the
// prime-order subgroup, as used by circomlib's EdDSA circuits.
type BabyJubJub struct{}

// NewBabyJubJub returns a new instance of the Baby Jubjub curve wrapper
func NewBabyJubJub() Curve {
	return &BabyJubJub{}
}

func (c *BabyJubJub) Name() string {
	return "BabyJubJub"
}

func (c *BabyJubJub) Order() *big.Int {
	return new(big.Int).Set(babyjub.SubOrder)
}

func (c *BabyJubJub) FieldModulus() *big.Int {
	return new(big.Int).Set(constants.Q)
}

func (c *BabyJubJub) BasePoint() Point {
	return fromBabyJub(babyjub.B8)
}

func (c *BabyJubJub) ScalarBaseMult(k *big.Int) Point {
	return c.ScalarMult(c.BasePoint(), k)
}

func (c *BabyJubJub) ScalarMult(p Point, k *big.Int) Point {
	if k.Sign() < 0 {
		// babyjub walks the bits of |k|, so fold the sign into the point
		return c.ScalarMult(Neg(p), new(big.Int).Neg(k))
	}
	// Mul returns a fresh point; the receiver is only scratch space
	res := babyjub.NewPoint().Mul(k, toBabyJub(p))
	return fromBabyJub(res)
}

func (c *BabyJubJub) Add(p, q Point) Point {
	sum := toBabyJub(p).Projective()
	sum.Add(sum, toBabyJub(q).Projective())
	return fromBabyJub(sum.Affine())
}

func (c *BabyJubJub) IsOnCurve(p Point) bool {
	if !p.valid() || !inField(p.X) || !inField(p.Y) {
		return false
	}
	return toBabyJub(p).InCurve()
}

// Neg returns -P = (-x, y).
func Neg(p Point) Point {
	x := new(big.Int).Neg(p.X)
	x.Mod(x, constants.Q)
	return Point{X: x, Y: new(big.Int).Set(p.Y)}
}

func inField(v *big.Int) bool {
	return v.Sign() >= 0 && v.Cmp(constants.Q) < 0
}

func toBabyJub(p Point) *babyjub.Point {
	return &babyjub.Point{X: new(big.Int).Set(p.X), Y: new(big.Int).Set(p.Y)}
}

func fromBabyJub(p *babyjub.Point) Point {
	return Point{X: new(big.Int).Set(p.X), Y: new(big.Int).Set(p.Y)}
}
