package section

import (
	"fmt"
	"sort"

	"github.com/sectornet/routing/src/crypto/keys"
	"github.com/sectornet/routing/src/xorname"
)

// SectionAuthorityProvider is a section's authority record: its prefix, its
// current section key and its elder set. A new instance is created whenever
// the elder set or the section key changes; existing instances are never
// mutated, only superseded.
type SectionAuthorityProvider struct {
	prefix xorname.Prefix
	key    keys.PublicKey
	elders map[xorname.XorName]string
}

// NewSectionAuthorityProvider builds a snapshot from a prefix, a section key
// and an elder name-to-address mapping. The mapping is copied.
func NewSectionAuthorityProvider(prefix xorname.Prefix, key keys.PublicKey, elders map[xorname.XorName]string) *SectionAuthorityProvider {
	copied := make(map[xorname.XorName]string, len(elders))
	for name, addr := range elders {
		copied[name] = addr
	}
	return &SectionAuthorityProvider{prefix: prefix, key: key, elders: copied}
}

// Prefix returns the section prefix.
func (s *SectionAuthorityProvider) Prefix() xorname.Prefix {
	return s.prefix
}

// SectionKey returns the section's current public key.
func (s *SectionAuthorityProvider) SectionKey() keys.PublicKey {
	return s.key
}

// Elders returns a copy of the elder name-to-address mapping.
func (s *SectionAuthorityProvider) Elders() map[xorname.XorName]string {
	copied := make(map[xorname.XorName]string, len(s.elders))
	for name, addr := range s.elders {
		copied[name] = addr
	}
	return copied
}

// ElderNames returns the elder names sorted by raw value.
func (s *SectionAuthorityProvider) ElderNames() []xorname.XorName {
	names := make([]xorname.XorName, 0, len(s.elders))
	for name := range s.elders {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i].Cmp(names[j]) < 0
	})
	return names
}

// Contains reports whether name is one of the elders.
func (s *SectionAuthorityProvider) Contains(name xorname.XorName) bool {
	_, ok := s.elders[name]
	return ok
}

// Addr returns the endpoint of the named elder.
func (s *SectionAuthorityProvider) Addr(name xorname.XorName) (string, bool) {
	addr, ok := s.elders[name]
	return addr, ok
}

// Len returns the number of elders.
func (s *SectionAuthorityProvider) Len() int {
	return len(s.elders)
}

// Quorum returns the number of elders forming a strong majority (+2/3) of
// the elder set.
func (s *SectionAuthorityProvider) Quorum() int {
	return 2*len(s.elders)/3 + 1
}

// String ...
func (s *SectionAuthorityProvider) String() string {
	return fmt.Sprintf("SAP{prefix: %q, key: %s, elders: %d}", s.prefix, s.key, len(s.elders))
}
