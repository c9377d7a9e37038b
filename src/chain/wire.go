package chain

import (
	"bytes"

	"github.com/sectornet/routing/src/crypto/keys"
	"github.com/ugorji/go/codec"
)

type wireBlock struct {
	Key       []byte
	Parent    []byte
	Signature string
}

type wireChain struct {
	Root   []byte
	Blocks []wireBlock
}

// Marshal encodes the chain. Blocks are ordered parent before child so that
// Unmarshal can rebuild, and re-verify, the chain with plain Inserts.
func (c *SectionChain) Marshal() ([]byte, error) {
	w := wireChain{Root: c.root[:]}
	for _, key := range c.Keys() {
		if key == c.root {
			continue
		}
		b := c.blocks[key]
		w.Blocks = append(w.Blocks, wireBlock{
			Key:       key[:],
			Parent:    b.parent[:],
			Signature: b.signature.Encode(),
		})
	}

	buf := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(buf, jh)

	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a chain produced by Marshal. Every block signature is
// verified during the rebuild, so a tampered encoding fails to load.
func Unmarshal(data []byte) (*SectionChain, error) {
	var w wireChain

	buf := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(buf, jh)

	if err := dec.Decode(&w); err != nil {
		return nil, err
	}

	var root keys.PublicKey
	if len(w.Root) != keys.PublicKeyLen {
		return nil, NewChainErr(InvalidOperation, "root")
	}
	copy(root[:], w.Root)

	c := New(root)
	for _, wb := range w.Blocks {
		if len(wb.Key) != keys.PublicKeyLen || len(wb.Parent) != keys.PublicKeyLen {
			return nil, NewChainErr(InvalidOperation, "block")
		}
		var key, parent keys.PublicKey
		copy(key[:], wb.Key)
		copy(parent[:], wb.Parent)

		sig, err := keys.DecodeSignature(wb.Signature)
		if err != nil {
			return nil, err
		}
		if err := c.Insert(parent, key, sig); err != nil {
			return nil, err
		}
	}
	return c, nil
}
