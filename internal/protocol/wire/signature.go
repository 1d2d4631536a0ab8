package wire

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/internal/crypto/curves"
	"github.com/smallyu/go-maci-signer/internal/crypto/eddsa"
	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// wireSignature mirrors {"R8":{"0":"<dec>","1":"<dec>"},"S":"<dec>"}.
type wireSignature struct {
	R8 struct {
		X string `json:"0"`
		Y string `json:"1"`
	} `json:"R8"`
	S string `json:"S"`
}

// EncodeSignature renders sig with every integer as a base-10 string.
func EncodeSignature(sig *eddsa.Signature) (string, error) {
	if sig == nil || sig.S == nil || sig.R8.X == nil || sig.R8.Y == nil {
		return "", errors.New("encode signature: incomplete signature")
	}
	var w wireSignature
	w.R8.X = sig.R8.X.String()
	w.R8.Y = sig.R8.Y.String()
	w.S = sig.S.String()

	b, err := json.Marshal(w)
	if err != nil {
		return "", errors.Wrap(err, "encode signature")
	}
	return string(b), nil
}

// DecodeSignature parses the encoding produced by EncodeSignature. It does not
// check that R8 is on the curve; verification does.
func DecodeSignature(s string) (*eddsa.Signature, error) {
	var w wireSignature
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return nil, errors.Wrapf(signer.ErrInvalidFormat, "decode signature: %v", err)
	}

	ints := make([]*big.Int, 3)
	for i, dec := range []string{w.R8.X, w.R8.Y, w.S} {
		n, ok := new(big.Int).SetString(dec, 10)
		if !ok || n.Sign() < 0 {
			return nil, errors.Wrapf(signer.ErrInvalidFormat, "decode signature: bad integer %q", dec)
		}
		ints[i] = n
	}
	return &eddsa.Signature{R8: curves.NewPoint(ints[0], ints[1]), S: ints[2]}, nil
}
