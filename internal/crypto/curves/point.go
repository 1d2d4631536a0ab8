package curves

import (
	"fmt"
	"math/big"
)

// Point is an affine point (x, y) on the curve.
// Both coordinates are non-negative integers below the base-field modulus.
type Point struct {
	X *big.Int
	Y *big.Int
}

// Identity returns the neutral element (0, 1).
func Identity() Point {
	return Point{X: big.NewInt(0), Y: big.NewInt(1)}
}

// NewPoint builds a point from its coordinates without validating it.
// Use IsOnCurve or Pack to check it.
func NewPoint(x, y *big.Int) Point {
	return Point{X: new(big.Int).Set(x), Y: new(big.Int).Set(y)}
}

// Equal reports whether two points have identical coordinates.
func (p Point) Equal(q Point) bool {
	if !p.valid() || !q.valid() {
		return false
	}
	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}

// Clone returns a deep copy.
func (p Point) Clone() Point {
	return NewPoint(p.X, p.Y)
}

func (p Point) String() string {
	if !p.valid() {
		return "(nil)"
	}
	return fmt.Sprintf("(%s, %s)", p.X.String(), p.Y.String())
}

func (p Point) valid() bool {
	return p.X != nil && p.Y != nil
}
