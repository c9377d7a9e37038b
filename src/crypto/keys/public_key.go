package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/hex"
	"errors"
)

// PublicKeyLen is the byte length of a PublicKey: the uncompressed form of a
// point on the secp256k1 curve.
const PublicKeyLen = 65

// PublicKey is the uncompressed encoding of a curve point. It is a value type
// so it can be compared and used as a map key, which the section chain relies
// on.
type PublicKey [PublicKeyLen]byte

// FromECDSAPub converts an ecdsa.PublicKey into its value form.
func FromECDSAPub(pub *ecdsa.PublicKey) PublicKey {
	var key PublicKey
	if pub == nil || pub.X == nil || pub.Y == nil {
		return key
	}
	copy(key[:], elliptic.Marshal(Curve(), pub.X, pub.Y))
	return key
}

// PublicKeyOf returns the value form of the private key's public half.
func PublicKeyOf(priv *ecdsa.PrivateKey) PublicKey {
	return FromECDSAPub(&priv.PublicKey)
}

// ToECDSA converts the key back into an ecdsa.PublicKey. It returns an error
// if the bytes do not encode a point on the curve.
func (k PublicKey) ToECDSA() (*ecdsa.PublicKey, error) {
	x, y := elliptic.Unmarshal(Curve(), k[:])
	if x == nil {
		return nil, errors.New("invalid public key encoding")
	}
	return &ecdsa.PublicKey{Curve: Curve(), X: x, Y: y}, nil
}

// Verify reports whether sig is a valid signature of data under this key.
// Malformed keys or signatures verify as false, never as an error.
func (k PublicKey) Verify(data []byte, sig Signature) bool {
	pub, err := k.ToECDSA()
	if err != nil {
		return false
	}
	if sig.R == nil || sig.S == nil {
		return false
	}
	digest := digest(data)
	return ecdsa.Verify(pub, digest[:], sig.R, sig.S)
}

// Bytes returns a copy of the key's encoding.
func (k PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeyLen)
	copy(b, k[:])
	return b
}

// PublicKeyFromBytes converts a byte slice into its value form. It checks
// length only, not curve membership.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var key PublicKey
	if len(b) != PublicKeyLen {
		return key, errors.New("invalid public key length")
	}
	copy(key[:], b)
	return key, nil
}

// IsZero reports whether the key is the zero value, which never corresponds
// to a valid curve point.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// Hex returns the full hexadecimal form of the key.
func (k PublicKey) Hex() string {
	return hex.EncodeToString(k[:])
}

// String returns an abbreviated form of the key for logs.
func (k PublicKey) String() string {
	return hex.EncodeToString(k[1:4]) + ".."
}
