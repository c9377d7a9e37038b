// Package relocation derives where a node is forcibly moved to when the
// network decides to churn it. Relocation prevents targeted attacks on fixed
// identities: a node's name, and therefore its section, changes on a
// schedule it does not control.
package relocation

import (
	"github.com/sectornet/routing/src/chain"
	"github.com/sectornet/routing/src/crypto/keys"
	"github.com/sectornet/routing/src/xorname"
	"github.com/ugorji/go/codec"

	"bytes"

	"golang.org/x/crypto/sha3"
)

// Details describes one relocation: which node moves, the name whose section
// it moves to, and the age it arrives with. Relocated nodes gain one age.
type Details struct {
	Name        xorname.XorName
	Destination xorname.XorName
	Age         uint8
}

// Strategy computes the relocation destination for a node. The rule is
// injectable: production uses HashedDestination, tests substitute fixed
// destinations.
type Strategy interface {
	Destination(relocated, trigger xorname.XorName) xorname.XorName
}

// HashedDestination derives the destination by hashing the relocated node's
// name together with the name of the churn event that triggered the move.
// Neither the node nor its section can steer the result.
type HashedDestination struct{}

// Destination implements Strategy.
func (HashedDestination) Destination(relocated, trigger xorname.XorName) xorname.XorName {
	var buf [2 * xorname.XorNameLen]byte
	copy(buf[:xorname.XorNameLen], relocated[:])
	copy(buf[xorname.XorNameLen:], trigger[:])
	return xorname.XorName(sha3.Sum256(buf[:]))
}

// FixedDestination always relocates to the same name. For tests.
type FixedDestination xorname.XorName

// Destination implements Strategy.
func (d FixedDestination) Destination(_, _ xorname.XorName) xorname.XorName {
	return xorname.XorName(d)
}

// Compute builds the relocation details for a member of age age.
func Compute(strategy Strategy, name, trigger xorname.XorName, age uint8) Details {
	if strategy == nil {
		strategy = HashedDestination{}
	}
	newAge := age
	if newAge < 255 {
		newAge++
	}
	return Details{
		Name:        name,
		Destination: strategy.Destination(name, trigger),
		Age:         newAge,
	}
}

// SignedDetails is a relocation order signed by the source section, together
// with the proof chain that lets the destination section verify the signing
// key's lineage.
type SignedDetails struct {
	Details   Details
	Proof     *chain.SectionChain
	Signature keys.Signature
}

// NewSignedDetails signs details with the source section's secret key. The
// proof chain must end at the corresponding public key.
func NewSignedDetails(details Details, proof *chain.SectionChain, sign func([]byte) (keys.Signature, error)) (SignedDetails, error) {
	content, err := marshalDetails(details)
	if err != nil {
		return SignedDetails{}, err
	}
	sig, err := sign(content)
	if err != nil {
		return SignedDetails{}, err
	}
	return SignedDetails{Details: details, Proof: proof, Signature: sig}, nil
}

// Verify reports whether the signature is valid under the last key of the
// proof chain. Establishing trust in that key is a separate step against the
// receiver's own known keys.
func (s SignedDetails) Verify() bool {
	content, err := marshalDetails(s.Details)
	if err != nil {
		return false
	}
	return s.Proof.LastKey().Verify(content, s.Signature)
}

func marshalDetails(d Details) ([]byte, error) {
	buf := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(buf, jh)
	if err := enc.Encode(struct {
		Name        []byte
		Destination []byte
		Age         uint8
	}{d.Name[:], d.Destination[:], d.Age}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
