package eddsa

import (
	"math/big"

	"github.com/dchest/blake512"
	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// HashSize is the BLAKE-512 digest size.
const HashSize = 64

// Blake512 returns the 64-byte BLAKE-512 digest of data.
func Blake512(data ...[]byte) []byte {
	h := blake512.New()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// challenge computes Poseidon(R8.x, R8.y, A.x, A.y, m), the value the
// EdDSAPoseidonVerifier circuit recomputes.
func challenge(r8x, r8y, ax, ay, m *big.Int) (*big.Int, error) {
	hm, err := poseidon.Hash([]*big.Int{r8x, r8y, ax, ay, m})
	if err != nil {
		return nil, errors.Wrapf(signer.ErrInvalidMessage, "poseidon: %v", err)
	}
	return hm, nil
}
