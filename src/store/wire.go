package store

import (
	"github.com/ugorji/go/codec"

	"github.com/sectornet/routing/src/crypto/keys"
	"github.com/sectornet/routing/src/section"
	"github.com/sectornet/routing/src/xorname"
)

type wireElder struct {
	Name []byte
	Addr string
}

type wireSAP struct {
	Prefix string
	Key    []byte
	Elders []wireElder
}

func marshalSAP(sap *section.SectionAuthorityProvider) ([]byte, error) {
	w := wireSAP{
		Prefix: sap.Prefix().String(),
		Key:    sap.SectionKey().Bytes(),
	}
	for _, name := range sap.ElderNames() {
		addr, _ := sap.Addr(name)
		w.Elders = append(w.Elders, wireElder{Name: name.Bytes(), Addr: addr})
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

func unmarshalSAP(data []byte) (*section.SectionAuthorityProvider, error) {
	var w wireSAP
	jh := new(codec.JsonHandle)
	dec := codec.NewDecoderBytes(data, jh)
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}
	prefix, err := xorname.ParsePrefix(w.Prefix)
	if err != nil {
		return nil, err
	}
	key, err := keys.PublicKeyFromBytes(w.Key)
	if err != nil {
		return nil, err
	}
	elders := make(map[xorname.XorName]string, len(w.Elders))
	for _, e := range w.Elders {
		name, err := xorname.FromBytes(e.Name)
		if err != nil {
			return nil, err
		}
		elders[name] = e.Addr
	}
	return section.NewSectionAuthorityProvider(prefix, key, elders), nil
}
