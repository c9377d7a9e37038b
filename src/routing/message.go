package routing

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ugorji/go/codec"
	"golang.org/x/crypto/sha3"

	"github.com/sectornet/routing/src/chain"
	"github.com/sectornet/routing/src/crypto/keys"
	"github.com/sectornet/routing/src/xorname"
)

// Message is the signed envelope carried between nodes. The signature covers
// the source, destination and content, under SenderKey. Messages with a
// Section source additionally carry a Proof chain so that receivers can
// verify SenderKey against their own knowledge of the sender's key lineage.
type Message struct {
	Src       SrcLocation
	Dst       DstLocation
	Content   []byte
	SenderKey keys.PublicKey
	Signature keys.Signature
	Proof     *chain.SectionChain
}

type wireMessage struct {
	SrcKind   int
	SrcName   []byte
	SrcAddr   string
	DstKind   int
	DstName   []byte
	DstAddr   string
	Content   []byte
	SenderKey []byte
	Signature string
	Proof     []byte
}

// signedPortion serializes the fields covered by the signature.
func (m *Message) signedPortion() ([]byte, error) {
	w := wireMessage{
		SrcKind: int(m.Src.Kind),
		SrcName: m.Src.Name[:],
		SrcAddr: m.Src.Addr,
		DstKind: int(m.Dst.Kind),
		DstName: m.Dst.Name[:],
		DstAddr: m.Dst.Addr,
		Content: m.Content,
	}
	var b []byte
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoderBytes(&b, jh)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return b, nil
}

// NewMessage builds and signs an envelope from key.
func NewMessage(key *ecdsa.PrivateKey, src SrcLocation, dst DstLocation, content []byte, proof *chain.SectionChain) (*Message, error) {
	if !src.valid() {
		return nil, ErrInvalidSrcLocation
	}
	if !dst.valid() {
		return nil, ErrInvalidDstLocation
	}
	m := &Message{
		Src:       src,
		Dst:       dst,
		Content:   content,
		SenderKey: keys.PublicKeyOf(key),
		Proof:     proof,
	}
	signed, err := m.signedPortion()
	if err != nil {
		return nil, err
	}
	sig, err := keys.Sign(key, signed)
	if err != nil {
		return nil, err
	}
	m.Signature = sig
	return m, nil
}

// VerifySignature checks the envelope's signature under SenderKey.
func (m *Message) VerifySignature() bool {
	signed, err := m.signedPortion()
	if err != nil {
		return false
	}
	return m.SenderKey.Verify(signed, m.Signature)
}

// CheckTrust evaluates the message's claimed authority against a set of
// trusted section keys. A Section source must have been signed by the last
// key of its proof chain, and that key must descend from a trusted one; a
// chain alone proves nothing about who signed the envelope. A Node source
// must have been signed by the key its name is derived from. Direct sources
// carry client keys and are not judged on this axis.
func (m *Message) CheckTrust(trusted []keys.PublicKey) chain.TrustStatus {
	switch m.Src.Kind {
	case LocationDirect:
		return chain.Trusted
	case LocationNode:
		if m.Src.Name != xorname.FromContent(m.SenderKey.Bytes()) {
			return chain.Untrusted
		}
		return chain.Trusted
	}
	if m.Proof == nil {
		return chain.Untrusted
	}
	if !m.Proof.SelfVerify() {
		return chain.Untrusted
	}
	if m.SenderKey != m.Proof.LastKey() {
		return chain.Untrusted
	}
	return m.Proof.CheckTrust(trusted, m.SenderKey)
}

// Hash returns the digest used for duplicate suppression.
func (m *Message) Hash() (string, error) {
	b, err := m.Marshal()
	if err != nil {
		return "", err
	}
	h := sha3.Sum256(b)
	return fmt.Sprintf("%x", h), nil
}

// Marshal serializes the full envelope with canonical JSON.
func (m *Message) Marshal() ([]byte, error) {
	w := wireMessage{
		SrcKind:   int(m.Src.Kind),
		SrcName:   m.Src.Name[:],
		SrcAddr:   m.Src.Addr,
		DstKind:   int(m.Dst.Kind),
		DstName:   m.Dst.Name[:],
		DstAddr:   m.Dst.Addr,
		Content:   m.Content,
		SenderKey: m.SenderKey[:],
		Signature: m.Signature.Encode(),
	}
	if m.Proof != nil {
		p, err := m.Proof.Marshal()
		if err != nil {
			return nil, err
		}
		w.Proof = p
	}
	var b []byte
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoderBytes(&b, jh)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return b, nil
}

// Unmarshal parses an envelope. It validates shapes only; signature and
// trust checks are the caller's business.
func Unmarshal(data []byte) (*Message, error) {
	var w wireMessage
	jh := new(codec.JsonHandle)
	dec := codec.NewDecoderBytes(data, jh)
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}
	if len(w.SrcName) != 32 || len(w.DstName) != 32 {
		return nil, ErrInvalidMessage
	}
	if len(w.SenderKey) != keys.PublicKeyLen {
		return nil, ErrInvalidMessage
	}
	m := &Message{
		Src:     SrcLocation{Kind: LocationKind(w.SrcKind), Addr: w.SrcAddr},
		Dst:     DstLocation{Kind: LocationKind(w.DstKind), Addr: w.DstAddr},
		Content: w.Content,
	}
	copy(m.Src.Name[:], w.SrcName)
	copy(m.Dst.Name[:], w.DstName)
	copy(m.SenderKey[:], w.SenderKey)
	if !m.Src.valid() || !m.Dst.valid() {
		return nil, ErrInvalidMessage
	}
	sig, err := keys.DecodeSignature(w.Signature)
	if err != nil {
		return nil, err
	}
	m.Signature = sig
	if len(w.Proof) > 0 {
		p, err := chain.Unmarshal(w.Proof)
		if err != nil {
			return nil, err
		}
		m.Proof = p
	}
	return m, nil
}

// String ...
func (m *Message) String() string {
	return fmt.Sprintf("Message{%s -> %s, %d bytes}", m.Src, m.Dst, len(m.Content))
}
