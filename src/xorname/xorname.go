// Package xorname defines the 256-bit names that address everything on the
// network, and the bit-prefixes that carve the name space into sections. All
// routing decisions reduce to comparisons of XOR distances between names.
package xorname

import (
	"bytes"
	"encoding/hex"
	"math/rand"

	"golang.org/x/crypto/sha3"
)

// XorNameLen is the byte length of a XorName (256 bits). It is a network-wide
// parameter: all participating nodes must agree on it.
const XorNameLen = 32

// XorName is a 256-bit identifier in the network address space.
type XorName [XorNameLen]byte

// FromContent derives a XorName from arbitrary content by hashing it with
// SHA3-256. Names obtained this way are uniformly distributed over the
// address space.
func FromContent(content []byte) XorName {
	return XorName(sha3.Sum256(content))
}

// Random returns a XorName drawn from the provided random source. The source
// is explicit so that name generation stays deterministic in tests.
func Random(rng *rand.Rand) XorName {
	var name XorName
	rng.Read(name[:])
	return name
}

// Bit returns bit i of the name, where bit 0 is the most significant bit.
func (n XorName) Bit(i uint) bool {
	if i >= XorNameLen*8 {
		return false
	}
	return n[i/8]&(1<<(7-i%8)) != 0
}

// WithBit returns a copy of the name with bit i set to val. Out-of-range
// indices leave the name unchanged.
func (n XorName) WithBit(i uint, val bool) XorName {
	if i >= XorNameLen*8 {
		return n
	}
	mask := byte(1 << (7 - i%8))
	if val {
		n[i/8] |= mask
	} else {
		n[i/8] &^= mask
	}
	return n
}

// WithFlippedBit returns a copy of the name with bit i inverted.
func (n XorName) WithFlippedBit(i uint) XorName {
	return n.WithBit(i, !n.Bit(i))
}

// Not returns the bitwise complement of the name, ie. the name furthest away
// from this one.
func (n XorName) Not() XorName {
	var out XorName
	for i := range n {
		out[i] = ^n[i]
	}
	return out
}

// CommonPrefix returns the number of leading bits in which n and other agree.
func (n XorName) CommonPrefix(other XorName) uint {
	for i := 0; i < XorNameLen; i++ {
		if x := n[i] ^ other[i]; x != 0 {
			bits := uint(i * 8)
			for x&0x80 == 0 {
				x <<= 1
				bits++
			}
			return bits
		}
	}
	return XorNameLen * 8
}

// CmpDistance orders lhs and rhs by ascending XOR distance to target. It
// returns -1 if lhs is closer, 1 if rhs is closer, and falls back to
// comparing the raw values when the distances are equal.
func CmpDistance(lhs, rhs, target XorName) int {
	for i := 0; i < XorNameLen; i++ {
		dl := lhs[i] ^ target[i]
		dr := rhs[i] ^ target[i]
		if dl != dr {
			if dl < dr {
				return -1
			}
			return 1
		}
	}
	return bytes.Compare(lhs[:], rhs[:])
}

// Cmp compares two names by raw value.
func (n XorName) Cmp(other XorName) int {
	return bytes.Compare(n[:], other[:])
}

// String returns an abbreviated hexadecimal form of the name, enough to tell
// names apart in logs.
func (n XorName) String() string {
	return hex.EncodeToString(n[:3]) + ".."
}

// Hex returns the full hexadecimal form of the name.
func (n XorName) Hex() string {
	return hex.EncodeToString(n[:])
}

// Bytes returns a copy of the name's bytes.
func (n XorName) Bytes() []byte {
	b := make([]byte, XorNameLen)
	copy(b, n[:])
	return b
}

// FromBytes converts a 32-byte slice into a name.
func FromBytes(b []byte) (XorName, error) {
	var name XorName
	if len(b) != XorNameLen {
		return name, errInvalidNameLength
	}
	copy(name[:], b)
	return name, nil
}

// FromHex parses a full 64-character hexadecimal name as produced by Hex.
func FromHex(s string) (XorName, error) {
	var name XorName
	b, err := hex.DecodeString(s)
	if err != nil {
		return name, err
	}
	if len(b) != XorNameLen {
		return name, errInvalidNameLength
	}
	copy(name[:], b)
	return name, nil
}
