package keys

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Signature holds the r and s values of an ECDSA signature.
type Signature struct {
	R *big.Int
	S *big.Int
}

// digest hashes data before signing or verifying. ECDSA operates on a fixed
// size digest, not on the raw message.
func digest(data []byte) [32]byte {
	return sha3.Sum256(data)
}

// Sign signs the data with the private key and the built-in pseudo-random
// generator rand.Reader.
func Sign(priv *ecdsa.PrivateKey, data []byte) (Signature, error) {
	d := digest(data)
	r, s, err := ecdsa.Sign(rand.Reader, priv, d[:])
	if err != nil {
		return Signature{}, err
	}
	return Signature{R: r, S: s}, nil
}

// Encode returns a string representation of the signature.
func (sig Signature) Encode() string {
	return fmt.Sprintf("%s|%s", sig.R.Text(36), sig.S.Text(36))
}

// DecodeSignature parses a string representation of a signature as produced
// by Encode.
func DecodeSignature(s string) (Signature, error) {
	values := strings.Split(s, "|")
	if len(values) != 2 {
		return Signature{}, fmt.Errorf("wrong number of values in signature: got %d, want 2", len(values))
	}
	r, okR := new(big.Int).SetString(values[0], 36)
	sv, okS := new(big.Int).SetString(values[1], 36)
	if !okR || !okS {
		return Signature{}, fmt.Errorf("cannot parse signature values")
	}
	return Signature{R: r, S: sv}, nil
}
