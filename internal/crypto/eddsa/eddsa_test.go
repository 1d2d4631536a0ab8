package eddsa

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallyu/go-maci-signer/internal/crypto/curves"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

func dec(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad decimal %q", s)
	return n
}

func assertInt(t *testing.T, want, got *big.Int) {
	t.Helper()
	if assert.NotNil(t, got) {
		assert.Equal(t, want.String(), got.String())
	}
}

// goldenSeed is 31 zero bytes followed by 0x01.
func goldenSeed() []byte {
	seed := make([]byte, 32)
	seed[31] = 1
	return seed
}

// referenceVerify checks 8*S*B8 == 8*R8 + 8*c*A without going through Sign.
func referenceVerify(pub curves.Point, m *big.Int, sig *Signature) bool {
	curve := curves.NewBabyJubJub()
	if sig == nil || sig.S == nil || sig.S.Sign() < 0 || sig.S.Cmp(curve.Order()) >= 0 {
		return false
	}
	if !curve.IsOnCurve(sig.R8) || !curve.IsOnCurve(pub) {
		return false
	}

	c, err := poseidon.Hash([]*big.Int{sig.R8.X, sig.R8.Y, pub.X, pub.Y, m})
	if err != nil {
		return false
	}

	eight := big.NewInt(8)
	left := curve.ScalarBaseMult(new(big.Int).Mul(eight, sig.S))
	right := curve.Add(
		curve.ScalarMult(sig.R8, eight),
		curve.ScalarMult(pub, new(big.Int).Mul(eight, c)),
	)
	return left.Equal(right)
}

func TestBlake512Vectors(t *testing.T) {
	assert.Equal(t,
		"a8cfbbd73726062df0c6864dda65defe58ef0cc52a5625090fa17601e1eecd1b628e94f396ae402a00acc9eab77b4d4c2e852aaaa25a636d80af3fc7913ef5b8",
		hex.EncodeToString(Blake512(nil)))
	assert.Equal(t,
		"97961587f6d970faba6d2478045de6d1fabd09b61ae50932054d52bc29d31be4ff9102b9f69e2bbdb83be13d4b9c06091e5fa0b48bd081b634058be0ec49beb3",
		hex.EncodeToString(Blake512([]byte{0})))

	// Multiple chunks hash as their concatenation
	assert.Equal(t, Blake512([]byte("hello world")), Blake512([]byte("hello "), []byte("world")))
}

func TestPrune(t *testing.T) {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = 0xff
	}
	Prune(buf)
	assert.Equal(t, byte(0xf8), buf[0])
	assert.Equal(t, byte(0x7f), buf[31])

	buf = make([]byte, 32)
	Prune(buf)
	assert.Equal(t, byte(0x40), buf[31])
}

func TestGoldenVector(t *testing.T) {
	seed := goldenSeed()
	m := big.NewInt(42)

	secret, err := SecretScalar(seed)
	require.NoError(t, err)
	assertInt(t, dec(t, "6691621429809302164543062077439688809389894742817101760474925268688969880294"), secret)
	// The secret scalar is deliberately left unreduced
	assert.Equal(t, 1, secret.Cmp(curves.NewBabyJubJub().Order()))

	pub, err := PublicKey(seed)
	require.NoError(t, err)
	assertInt(t, dec(t, "1891156797631087029347893674931101305929404954783323547727418062433377377293"), pub.X)
	assertInt(t, dec(t, "14780632341277755899330141855966417738975199657954509255716508264496764475094"), pub.Y)

	sig, err := Sign(seed, m)
	require.NoError(t, err)
	assertInt(t, dec(t, "19683818786600905195457795216865980186820021056616665452259960403374809525345"), sig.R8.X)
	assertInt(t, dec(t, "14453060069758513059615660208085670675347815791784770425641586370433787623736"), sig.R8.Y)
	assertInt(t, dec(t, "1074766317744873512005457099209733155672454491010751108654003203774774219266"), sig.S)

	assert.True(t, referenceVerify(pub, m, sig))
}

func TestIden3Vector(t *testing.T) {
	seed, err := hex.DecodeString("0001020304050607080900010203040506070809000102030405060708090001")
	require.NoError(t, err)
	msgBuf, err := hex.DecodeString("00010203040506070809")
	require.NoError(t, err)
	m := curves.LEToInt(msgBuf)

	pub, err := PublicKey(seed)
	require.NoError(t, err)
	assertInt(t, dec(t, "13277427435165878497778222415993513565335242147425444199013288855685581939618"), pub.X)
	assertInt(t, dec(t, "13622229784656158136036771217484571176836296686641868549125388198837476602820"), pub.Y)

	sig, err := Sign(seed, m)
	require.NoError(t, err)
	assertInt(t, dec(t, "11384336176656855268977457483345535180380036354188103142384839473266348197733"), sig.R8.X)
	assertInt(t, dec(t, "15383486972088797283337779941324724402501462225528836549661220478783371668959"), sig.R8.Y)
	assertInt(t, dec(t, "1672775540645840396591609181675628451599263765380031905495115170613215233181"), sig.S)
}

func TestSignAgreesWithIden3(t *testing.T) {
	seeds := [][]byte{goldenSeed(), []byte("0123456789abcdef0123456789abcdef")}
	msgs := []*big.Int{big.NewInt(0), big.NewInt(42), dec(t, "123456789012345678901234567890")}

	for _, seed := range seeds {
		var k babyjub.PrivateKey
		copy(k[:], seed)
		iden3Pub := k.Public()

		pub, err := PublicKey(seed)
		require.NoError(t, err)
		assertInt(t, iden3Pub.X, pub.X)
		assertInt(t, iden3Pub.Y, pub.Y)

		for _, m := range msgs {
			sig, err := Sign(seed, m)
			require.NoError(t, err)

			iden3Sig := &babyjub.Signature{
				R8: &babyjub.Point{X: sig.R8.X, Y: sig.R8.Y},
				S:  sig.S,
			}
			assert.True(t, iden3Pub.VerifyPoseidon(m, iden3Sig), "m=%s", m)
		}
	}
}

func TestSignDeterministic(t *testing.T) {
	seed := []byte("an arbitrary length seed, longer than thirty-two bytes")
	m := big.NewInt(7)

	sig1, err := Sign(seed, m)
	require.NoError(t, err)
	sig2, err := Sign(seed, m)
	require.NoError(t, err)

	assert.True(t, sig1.R8.Equal(sig2.R8))
	assertInt(t, sig1.S, sig2.S)

	// A different message changes the nonce
	sig3, err := Sign(seed, big.NewInt(8))
	require.NoError(t, err)
	assert.False(t, sig1.R8.Equal(sig3.R8))

	pub1, err := PublicKey(seed)
	require.NoError(t, err)
	pub2, err := PublicKey(seed)
	require.NoError(t, err)
	assert.True(t, pub1.Equal(pub2))
}

func TestReferenceVerifierAcceptsSignatures(t *testing.T) {
	for i := 1; i <= 8; i++ {
		seed := make([]byte, i*5)
		for j := range seed {
			seed[j] = byte(i*31 + j)
		}
		m := new(big.Int).Lsh(big.NewInt(int64(i)), uint(i*20))

		pub, err := PublicKey(seed)
		require.NoError(t, err)
		sig, err := Sign(seed, m)
		require.NoError(t, err)

		assert.True(t, referenceVerify(pub, m, sig), "seed %d", i)
		assert.False(t, referenceVerify(pub, new(big.Int).Add(m, big.NewInt(1)), sig), "seed %d tampered", i)
	}
}

func TestSignRejectsBadInput(t *testing.T) {
	seed := goldenSeed()

	_, err := Sign(seed, big.NewInt(-1))
	assert.True(t, errors.Is(err, signer.ErrInvalidMessage))

	_, err = Sign(seed, nil)
	assert.True(t, errors.Is(err, signer.ErrInvalidMessage))

	q := curves.NewBabyJubJub().FieldModulus()
	_, err = Sign(seed, q)
	assert.True(t, errors.Is(err, signer.ErrInvalidMessage))

	_, err = Sign(nil, big.NewInt(1))
	assert.True(t, errors.Is(err, signer.ErrInvalidFormat))

	_, err = PublicKey([]byte{})
	assert.True(t, errors.Is(err, signer.ErrInvalidFormat))
}

func TestParseMessage(t *testing.T) {
	cases := map[string]int64{
		"42":     42,
		" 42 ":   42,
		"042":    42,
		"0x2a":   42,
		"0X2A":   42,
		"0o52":   42,
		"0b1010": 10,
		"0":      0,
	}
	for in, want := range cases {
		m, err := ParseMessage(in)
		require.NoError(t, err, in)
		assertInt(t, big.NewInt(want), m)
	}

	for _, in := range []string{"", "abc", "-1", "0xzz", "1.5", "21888242871839275222246405745257275088548364400416034343698204186575808495617"} {
		_, err := ParseMessage(in)
		assert.True(t, errors.Is(err, signer.ErrInvalidMessage), in)
	}
}
