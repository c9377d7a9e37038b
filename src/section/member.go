package section

import "github.com/sectornet/routing/src/xorname"

// MinAge is the age a node starts with. Infants start above zero to prevent
// frequent relocations at the beginning of a node's lifetime.
const MinAge uint8 = 4

// MinAdultAge is the age at which an Infant becomes an Adult and starts
// counting towards elder selection.
const MinAdultAge uint8 = 5

// MemberState tracks what happened to a section member.
type MemberState int

const (
	// StateJoined - active member of the section.
	StateJoined MemberState = iota
	// StateLeft - went offline; never comes back under the same name.
	StateLeft
	// StateRelocated - moved to a different section.
	StateRelocated
)

// String ...
func (s MemberState) String() string {
	switch s {
	case StateJoined:
		return "Joined"
	case StateLeft:
		return "Left"
	case StateRelocated:
		return "Relocated"
	default:
		return "Unknown"
	}
}

// Role is the rank a member holds within its section.
type Role int

const (
	// Infant - below the adult age threshold.
	Infant Role = iota
	// Adult - counts towards elder selection but is not an elder.
	Adult
	// Elder - member of the section's decision-making quorum.
	Elder
)

// String ...
func (r Role) String() string {
	switch r {
	case Infant:
		return "Infant"
	case Adult:
		return "Adult"
	case Elder:
		return "Elder"
	default:
		return "Unknown"
	}
}

// StatusChange describes how the local node's own role moved in an elder
// change.
type StatusChange int

const (
	// StatusNone - the node's role did not change.
	StatusNone StatusChange = iota
	// StatusPromoted - the node entered the elder set.
	StatusPromoted
	// StatusDemoted - the node left the elder set.
	StatusDemoted
)

// String ...
func (s StatusChange) String() string {
	switch s {
	case StatusPromoted:
		return "Promoted"
	case StatusDemoted:
		return "Demoted"
	default:
		return "None"
	}
}

// MemberInfo is the membership record of one peer in our section.
type MemberInfo struct {
	Peer        Peer
	State       MemberState
	RelocatedTo xorname.XorName
}

// Joined creates a MemberInfo in the Joined state.
func Joined(peer Peer) MemberInfo {
	return MemberInfo{Peer: peer, State: StateJoined}
}

// IsAdult reports whether the member has reached the adult age threshold.
func (m MemberInfo) IsAdult() bool {
	return m.Peer.Age() >= MinAdultAge
}

// Leave converts the record to the Left state.
func (m MemberInfo) Leave() MemberInfo {
	m.State = StateLeft
	return m
}

// Relocate converts the record to the Relocated state with the given
// destination.
func (m MemberInfo) Relocate(destination xorname.XorName) MemberInfo {
	m.State = StateRelocated
	m.RelocatedTo = destination
	return m
}

// IncrementAge returns the record with the age increased by one.
func (m MemberInfo) IncrementAge() MemberInfo {
	if age := m.Peer.Age(); age < 255 {
		m.Peer = m.Peer.WithAge(age + 1)
	}
	return m
}
