package xorname

import (
	"errors"
	"strings"
)

var errInvalidNameLength = errors.New("invalid XorName length")

// Prefix identifies the region of the address space whose names start with a
// given bit pattern. A section is responsible for exactly one such region.
//
// Two prefixes are always either disjoint, equal, or one an ancestor of the
// other; partial overlap is impossible.
type Prefix struct {
	bitCount uint
	name     XorName
}

// NewPrefix creates a Prefix from the leading bitCount bits of name. The
// remaining bits are cleared so that equal prefixes compare equal regardless
// of the name they were built from. Bit counts beyond the name width are
// clamped, not rejected.
func NewPrefix(bitCount uint, name XorName) Prefix {
	if bitCount > XorNameLen*8 {
		bitCount = XorNameLen * 8
	}
	return Prefix{bitCount: bitCount, name: truncate(name, bitCount)}
}

// ParsePrefix parses a string of '0' and '1' characters, as produced by
// String. The empty string is the root prefix.
func ParsePrefix(s string) (Prefix, error) {
	var name XorName
	for i, c := range s {
		switch c {
		case '1':
			name = name.WithBit(uint(i), true)
		case '0':
		default:
			return Prefix{}, errors.New("prefix must contain only '0' and '1'")
		}
	}
	return NewPrefix(uint(len(s)), name), nil
}

func truncate(name XorName, bitCount uint) XorName {
	fullBytes := bitCount / 8
	var out XorName
	copy(out[:fullBytes], name[:fullBytes])
	if rem := bitCount % 8; rem != 0 {
		out[fullBytes] = name[fullBytes] & (0xff << (8 - rem))
	}
	return out
}

// BitCount returns the length of the prefix in bits.
func (p Prefix) BitCount() uint {
	return p.bitCount
}

// Name returns the prefix bits padded with zeros to a full XorName.
func (p Prefix) Name() XorName {
	return p.name
}

// Matches reports whether the name starts with the prefix bits.
func (p Prefix) Matches(name XorName) bool {
	return p.name.CommonPrefix(name) >= p.bitCount
}

// IsCompatible reports whether one of the two prefixes is a leading
// subsequence of the other. Compatible prefixes describe nested regions.
func (p Prefix) IsCompatible(other Prefix) bool {
	common := p.name.CommonPrefix(other.name)
	return common >= p.bitCount || common >= other.bitCount
}

// IsAncestorOf reports whether the region of other is contained in ours.
// A prefix is its own ancestor.
func (p Prefix) IsAncestorOf(other Prefix) bool {
	return p.bitCount <= other.bitCount && p.IsCompatible(other)
}

// IsExtensionOf is the inverse of IsAncestorOf.
func (p Prefix) IsExtensionOf(other Prefix) bool {
	return other.IsAncestorOf(p)
}

// IsNeighbour reports whether the two prefixes are identical except for
// exactly one flipped bit. Sibling sections produced by a split are
// neighbours of each other.
func (p Prefix) IsNeighbour(other Prefix) bool {
	i := p.name.CommonPrefix(other.name)
	if i >= p.bitCount || i >= other.bitCount {
		// One contains the other.
		return false
	}
	j := p.name.WithFlippedBit(i).CommonPrefix(other.name)
	return j >= p.bitCount || j >= other.bitCount
}

// Extend returns the prefix one bit longer, with the new bit set to val.
func (p Prefix) Extend(val bool) Prefix {
	if p.bitCount >= XorNameLen*8 {
		return p
	}
	return Prefix{bitCount: p.bitCount + 1, name: p.name.WithBit(p.bitCount, val)}
}

// Sibling returns the prefix with its last bit flipped. The sibling of the
// root prefix is the root prefix itself.
func (p Prefix) Sibling() Prefix {
	if p.bitCount == 0 {
		return p
	}
	return Prefix{bitCount: p.bitCount, name: p.name.WithFlippedBit(p.bitCount - 1)}
}

// Popped returns the prefix shortened by one bit.
func (p Prefix) Popped() Prefix {
	if p.bitCount == 0 {
		return p
	}
	return NewPrefix(p.bitCount-1, p.name)
}

// SubstitutedIn replaces the leading bits of name with the prefix bits,
// producing a representative name inside the prefix region. Names already
// matching the prefix are returned unchanged.
func (p Prefix) SubstitutedIn(name XorName) XorName {
	fullBytes := p.bitCount / 8
	copy(name[:fullBytes], p.name[:fullBytes])
	if rem := p.bitCount % 8; rem != 0 {
		mask := byte(0xff << (8 - rem))
		name[fullBytes] = p.name[fullBytes]&mask | name[fullBytes]&^mask
	}
	return name
}

// LowerBound returns the smallest name matching the prefix.
func (p Prefix) LowerBound() XorName {
	return p.name
}

// UpperBound returns the largest name matching the prefix.
func (p Prefix) UpperBound() XorName {
	var ones XorName
	return p.SubstitutedIn(ones.Not())
}

// Ancestors returns an iterator over all strict ancestors of the prefix,
// from the root prefix down to, but excluding, the prefix itself. The
// iterator can be Reset and walked again.
func (p Prefix) Ancestors() *AncestorIter {
	return &AncestorIter{prefix: p}
}

// String renders the prefix as a string of '0' and '1' characters.
func (p Prefix) String() string {
	var b strings.Builder
	for i := uint(0); i < p.bitCount; i++ {
		if p.name.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// AncestorIter walks the ancestors of a prefix from shortest to longest.
type AncestorIter struct {
	prefix Prefix
	next   uint
}

// Next returns the next ancestor, or false once all ancestors have been
// yielded.
func (it *AncestorIter) Next() (Prefix, bool) {
	if it.prefix.bitCount == 0 || it.next >= it.prefix.bitCount {
		return Prefix{}, false
	}
	ancestor := NewPrefix(it.next, it.prefix.name)
	it.next++
	return ancestor, true
}

// Reset rewinds the iterator to the root prefix.
func (it *AncestorIter) Reset() {
	it.next = 0
}
