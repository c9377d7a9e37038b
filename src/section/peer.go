package section

import (
	"fmt"

	"github.com/sectornet/routing/src/xorname"
)

// Peer is a node as seen by the section that lists it. Apart from the
// reachability flag, a Peer is immutable once constructed; membership changes
// replace the record rather than mutate it.
type Peer struct {
	name      xorname.XorName
	addr      string
	age       uint8
	reachable bool
}

// NewPeer creates a Peer. Peers start out reachable.
func NewPeer(name xorname.XorName, addr string, age uint8) Peer {
	return Peer{name: name, addr: addr, age: age, reachable: true}
}

// Name returns the peer's network name.
func (p Peer) Name() xorname.XorName {
	return p.name
}

// Addr returns the peer's network endpoint.
func (p Peer) Addr() string {
	return p.addr
}

// Age returns the peer's age. Age only grows, through churn and relocation.
func (p Peer) Age() uint8 {
	return p.age
}

// Reachable reports whether the transport currently considers the peer
// reachable.
func (p Peer) Reachable() bool {
	return p.reachable
}

// SetReachable returns a copy of the peer with the reachability flag set.
// This is the only mutation a Peer supports.
func (p Peer) SetReachable(reachable bool) Peer {
	p.reachable = reachable
	return p
}

// WithAge returns a copy of the peer with the given age.
func (p Peer) WithAge(age uint8) Peer {
	p.age = age
	return p
}

// String ...
func (p Peer) String() string {
	return fmt.Sprintf("%s@%s(age %d)", p.name, p.addr, p.age)
}
