package section

import (
	"sort"

	"github.com/sectornet/routing/src/xorname"
)

// Network is a node's knowledge of sections other than its own, keyed by
// prefix. Knowledge is never fabricated: a lookup for a region no known
// section covers simply reports nothing.
type Network struct {
	sections map[string]*SectionAuthorityProvider
}

// NewNetwork ...
func NewNetwork() *Network {
	return &Network{sections: make(map[string]*SectionAuthorityProvider)}
}

// Insert records a remote section's authority record, superseding any
// record with a compatible prefix. After a remote split, inserting either
// child drops the stale parent record.
func (n *Network) Insert(sap *SectionAuthorityProvider) {
	for key, existing := range n.sections {
		if existing.Prefix().IsCompatible(sap.Prefix()) {
			delete(n.sections, key)
		}
	}
	n.sections[sap.Prefix().String()] = sap
}

// Matching returns the record whose prefix matches name, if any.
func (n *Network) Matching(name xorname.XorName) (*SectionAuthorityProvider, bool) {
	for _, sap := range n.sections {
		if sap.Prefix().Matches(name) {
			return sap, true
		}
	}
	return nil, false
}

// Closest returns the known record whose prefix region is XOR-closest to
// name: the matching record when one exists, otherwise the record with the
// longest common bit prefix.
func (n *Network) Closest(name xorname.XorName) (*SectionAuthorityProvider, bool) {
	var best *SectionAuthorityProvider
	bestCommon := uint(0)
	for _, sap := range n.All() {
		if sap.Prefix().Matches(name) {
			return sap, true
		}
		if common := sap.Prefix().Name().CommonPrefix(name); best == nil || common > bestCommon {
			best, bestCommon = sap, common
		}
	}
	return best, best != nil
}

// Neighbours returns the records of sections neighbouring the given prefix.
func (n *Network) Neighbours(prefix xorname.Prefix) []*SectionAuthorityProvider {
	var out []*SectionAuthorityProvider
	for _, sap := range n.All() {
		if sap.Prefix().IsNeighbour(prefix) {
			out = append(out, sap)
		}
	}
	return out
}

// All returns every known record, ordered by prefix for determinism.
func (n *Network) All() []*SectionAuthorityProvider {
	keys := make([]string, 0, len(n.sections))
	for key := range n.sections {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]*SectionAuthorityProvider, 0, len(keys))
	for _, key := range keys {
		out = append(out, n.sections[key])
	}
	return out
}

// Len returns the number of known remote sections.
func (n *Network) Len() int {
	return len(n.sections)
}
