// Package section tracks everything a node knows about its own section: the
// member list with ages and roles, the authority record (prefix, section key,
// elder set), and the proof chain of section keys. It also implements elder
// selection and the split bookkeeping.
package section

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sectornet/routing/src/chain"
	"github.com/sectornet/routing/src/xorname"
)

// ElderRanking orders adults for elder selection; it reports whether a ranks
// before b for the section identified by prefix. The exact ranking rule is
// pluggable because different networks may weigh age and distance
// differently.
type ElderRanking func(a, b MemberInfo, prefix xorname.Prefix) bool

// DefaultRanking ranks by age descending, then by XOR distance to the prefix
// name, then by raw name.
func DefaultRanking(a, b MemberInfo, prefix xorname.Prefix) bool {
	if a.Peer.Age() != b.Peer.Age() {
		return a.Peer.Age() > b.Peer.Age()
	}
	return xorname.CmpDistance(a.Peer.Name(), b.Peer.Name(), prefix.Name()) < 0
}

// Section is the node's mutable view of its own section. It is owned by a
// single routing state and updated serially; readers receive immutable
// snapshots (the SAP and chain), never the internals.
type Section struct {
	sap     *SectionAuthorityProvider
	chain   *chain.SectionChain
	members map[xorname.XorName]MemberInfo
	ranking ElderRanking
}

// NewSection creates a Section from its authority record and proof chain.
// The SAP's section key must be the last key of the chain.
func NewSection(sap *SectionAuthorityProvider, proofChain *chain.SectionChain, ranking ElderRanking) *Section {
	if ranking == nil {
		ranking = DefaultRanking
	}
	return &Section{
		sap:     sap,
		chain:   proofChain,
		members: make(map[xorname.XorName]MemberInfo),
		ranking: ranking,
	}
}

// Authority returns the current authority record.
func (s *Section) Authority() *SectionAuthorityProvider {
	return s.sap
}

// Chain returns the section proof chain.
func (s *Section) Chain() *chain.SectionChain {
	return s.chain
}

// SetAuthority replaces the authority record. Callers pass a freshly built
// snapshot; the old one stays valid for readers that still hold it.
func (s *Section) SetAuthority(sap *SectionAuthorityProvider) {
	s.sap = sap
}

// AddMember records a peer joining the section. Re-joining under a known
// name refreshes the record. Peers whose name does not match our prefix are
// rejected.
func (s *Section) AddMember(peer Peer) bool {
	if !s.sap.Prefix().Matches(peer.Name()) {
		return false
	}
	s.members[peer.Name()] = Joined(peer)
	return true
}

// RemoveMember records a peer leaving the section permanently. It returns
// the departing record, if any.
func (s *Section) RemoveMember(name xorname.XorName) (MemberInfo, bool) {
	info, ok := s.members[name]
	if !ok || info.State != StateJoined {
		return MemberInfo{}, false
	}
	s.members[name] = info.Leave()
	return info, true
}

// RelocateMember records a peer being relocated out of the section.
func (s *Section) RelocateMember(name, destination xorname.XorName) (MemberInfo, bool) {
	info, ok := s.members[name]
	if !ok || info.State != StateJoined {
		return MemberInfo{}, false
	}
	s.members[name] = info.Relocate(destination)
	return info, true
}

// Member returns the membership record for name.
func (s *Section) Member(name xorname.XorName) (MemberInfo, bool) {
	info, ok := s.members[name]
	return info, ok
}

// IncrementAge bumps the age of the named member, typically on a churn
// event that the member survived.
func (s *Section) IncrementAge(name xorname.XorName) {
	if info, ok := s.members[name]; ok && info.State == StateJoined {
		s.members[name] = info.IncrementAge()
	}
}

// Joined returns all active members, sorted by name.
func (s *Section) Joined() []MemberInfo {
	var out []MemberInfo
	for _, info := range s.members {
		if info.State == StateJoined {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Peer.Name().Cmp(out[j].Peer.Name()) < 0
	})
	return out
}

// Adults returns the active members at or above the adult age threshold,
// including those currently serving as elders.
func (s *Section) Adults() []MemberInfo {
	var out []MemberInfo
	for _, info := range s.Joined() {
		if info.IsAdult() {
			out = append(out, info)
		}
	}
	return out
}

// RoleOf returns the role the named member currently holds.
func (s *Section) RoleOf(name xorname.XorName) Role {
	if s.sap.Contains(name) {
		return Elder
	}
	if info, ok := s.members[name]; ok && info.State == StateJoined && info.IsAdult() {
		return Adult
	}
	return Infant
}

// ElderCandidates ranks the adults with the section's ranking function and
// returns the top count of them. This is what the elder set becomes after
// the next elder change.
func (s *Section) ElderCandidates(count int) []MemberInfo {
	return elderCandidates(count, s.sap.Prefix(), s.Adults(), s.ranking)
}

func elderCandidates(count int, prefix xorname.Prefix, adults []MemberInfo, ranking ElderRanking) []MemberInfo {
	sorted := make([]MemberInfo, len(adults))
	copy(sorted, adults)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ranking(sorted[i], sorted[j], prefix)
	})
	if len(sorted) > count {
		sorted = sorted[:count]
	}
	return sorted
}

// SplitThresholdMet reports whether both halves of the section would hold at
// least recommended/2 adults, which is the precondition for splitting.
func (s *Section) SplitThresholdMet(recommended int) bool {
	zero, one := s.splitCounts()
	return zero >= (recommended+1)/2 && one >= (recommended+1)/2
}

func (s *Section) splitCounts() (zero, one int) {
	splitBit := s.sap.Prefix().BitCount()
	for _, info := range s.Adults() {
		if info.Peer.Name().Bit(splitBit) {
			one++
		} else {
			zero++
		}
	}
	return zero, one
}

// SplitMembers partitions the active members by the next prefix bit:
// zero holds the members under prefix+0, one the members under prefix+1.
// Both halves exist from the moment the split happens; there is no
// intermediate state.
func (s *Section) SplitMembers() (zero, one []MemberInfo) {
	splitBit := s.sap.Prefix().BitCount()
	for _, info := range s.Joined() {
		if info.Peer.Name().Bit(splitBit) {
			one = append(one, info)
		} else {
			zero = append(zero, info)
		}
	}
	return zero, one
}

// ElderDiff compares two elder sets and returns the names promoted into and
// demoted out of the next set.
func ElderDiff(prev, next *SectionAuthorityProvider) (promoted, demoted []xorname.XorName) {
	oldSet := mapset.NewThreadUnsafeSet[xorname.XorName](prev.ElderNames()...)
	newSet := mapset.NewThreadUnsafeSet[xorname.XorName](next.ElderNames()...)

	promoted = newSet.Difference(oldSet).ToSlice()
	demoted = oldSet.Difference(newSet).ToSlice()

	sort.Slice(promoted, func(i, j int) bool { return promoted[i].Cmp(promoted[j]) < 0 })
	sort.Slice(demoted, func(i, j int) bool { return demoted[i].Cmp(demoted[j]) < 0 })
	return promoted, demoted
}

// SelfStatusChange derives how the named node moved between two elder sets.
func SelfStatusChange(prev, next *SectionAuthorityProvider, self xorname.XorName) StatusChange {
	was := prev.Contains(self)
	is := next.Contains(self)
	switch {
	case !was && is:
		return StatusPromoted
	case was && !is:
		return StatusDemoted
	default:
		return StatusNone
	}
}
