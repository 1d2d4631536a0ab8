package curves

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallyu/go-maci-signer/pkg/signer"
)

func hexInt(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 16)
	require.True(t, ok)
	return n
}

func TestPackKnownPoints(t *testing.T) {
	curve := NewBabyJubJub()

	packed, err := Pack(curve.BasePoint())
	require.NoError(t, err)
	assert.Equal(t, "25797203f7a0b24925572e1cd16bf9edfce0051fb9e133774b3c257a872d7d8b", packed.Text(16))

	// 2*B8 packs to a value with a leading zero nibble
	packed, err = Pack(curve.ScalarBaseMult(big.NewInt(2)))
	require.NoError(t, err)
	assert.Equal(t, "1666cafbf0a30da8b9ebeaf848a1da067a892296f1043188e1705402b6d6853", packed.Text(16))
}

func TestPackUnpackRoundTrip(t *testing.T) {
	curve := NewBabyJubJub()

	for _, k := range []int64{1, 2, 3, 7, 8, 1000, 65537, 987654321} {
		p := curve.ScalarBaseMult(big.NewInt(k))

		packed, err := Pack(p)
		require.NoError(t, err)

		q, err := Unpack(packed)
		require.NoError(t, err)
		assert.True(t, p.Equal(q), "k=%d: got %s want %s", k, q, p)

		// The negated point differs only in the sign bit
		np := Neg(p)
		npacked, err := Pack(np)
		require.NoError(t, err)
		assert.Equal(t, 0, new(big.Int).Xor(packed, npacked).Cmp(new(big.Int).Lsh(big.NewInt(1), 255)))
	}

	packed, err := Pack(Identity())
	require.NoError(t, err)
	assertInt(t, big.NewInt(1), packed)

	id, err := Unpack(big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, id.Equal(Identity()))
}

func TestPackRejectsOffCurve(t *testing.T) {
	_, err := Pack(Point{X: big.NewInt(1), Y: big.NewInt(1)})
	assert.True(t, errors.Is(err, signer.ErrInvalidPoint))

	_, err = Pack(Point{})
	assert.True(t, errors.Is(err, signer.ErrInvalidPoint))
}

func TestUnpackRejectsInvalid(t *testing.T) {
	q := NewBabyJubJub().FieldModulus()
	signBit := new(big.Int).Lsh(big.NewInt(1), 255)

	cases := map[string]*big.Int{
		"negative":          big.NewInt(-1),
		"too wide":          new(big.Int).Lsh(big.NewInt(1), 256),
		"y not a residue":   big.NewInt(2),
		"y equals q":        q,
		"sign bit at x = 0": new(big.Int).Or(big.NewInt(1), signBit),
	}

	for name, n := range cases {
		_, err := Unpack(n)
		assert.True(t, errors.Is(err, signer.ErrInvalidPoint), name)
	}

	_, err := Unpack(nil)
	assert.True(t, errors.Is(err, signer.ErrInvalidPoint))

	// y = 3 decodes on both halves
	_, err = Unpack(big.NewInt(3))
	assert.NoError(t, err)
	_, err = Unpack(new(big.Int).Or(big.NewInt(3), signBit))
	assert.NoError(t, err)
}

func TestLittleEndianHelpers(t *testing.T) {
	n := hexInt(t, "0102")
	assert.Equal(t, []byte{0x02, 0x01, 0x00, 0x00}, IntToLE(n, 4))
	assertInt(t, n, LEToInt([]byte{0x02, 0x01, 0x00, 0x00}))
	assertInt(t, big.NewInt(0), LEToInt(nil))
}

func FuzzUnpack(f *testing.F) {
	f.Add(make([]byte, PackedSize))
	f.Add([]byte{0x8b, 0x7d, 0x2d, 0x87, 0x7a, 0x25, 0x3c, 0x4b})
	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > PackedSize {
			data = data[:PackedSize]
		}
		n := LEToInt(data)
		p, err := Unpack(n)
		if err != nil {
			if !errors.Is(err, signer.ErrInvalidPoint) {
				t.Fatalf("unexpected error class: %v", err)
			}
			return
		}
		back, err := Pack(p)
		if err != nil {
			t.Fatalf("unpacked point does not pack: %v", err)
		}
		if back.Cmp(n) != 0 {
			t.Fatalf("round trip mismatch: %x != %x", back, n)
		}
	})
}
