// Package event defines the occurrences the routing core reports to the
// application that owns the node. Events arrive as a single ordered sequence;
// later events can invalidate conclusions drawn from earlier ones, so
// consumers must process them in order.
package event

import (
	"crypto/ecdsa"

	"github.com/sectornet/routing/src/crypto/keys"
	"github.com/sectornet/routing/src/section"
	"github.com/sectornet/routing/src/xorname"
)

// Event is one of the variants below. The interface is sealed so a switch
// over the variants is exhaustive.
type Event interface {
	isEvent()
}

// MessageReceived - a routed message addressed to us arrived and passed the
// trust checks.
type MessageReceived struct {
	Content []byte
	Src     xorname.XorName
	Dst     xorname.XorName
}

// MemberJoined - a new peer joined our section. PreviousName is set when the
// peer joined through relocation from another section.
type MemberJoined struct {
	Name         xorname.XorName
	PreviousName xorname.XorName
	Age          uint8
}

// MemberLeft - a peer left our section permanently.
type MemberLeft struct {
	Name xorname.XorName
	Age  uint8
}

// EldersChanged - our section's elder set or key changed. Both promoted and
// remaining elders receive the new authority record; SelfStatusChange tells
// the local node what happened to its own role.
type EldersChanged struct {
	Prefix           xorname.Prefix
	Key              keys.PublicKey
	Elders           []xorname.XorName
	SelfStatusChange section.StatusChange
}

// SectionSplit - our section split. Both resulting elder sets are carried
// together: there is no intermediate state in which only one child exists.
type SectionSplit struct {
	Elders        *section.SectionAuthorityProvider
	SiblingElders *section.SectionAuthorityProvider
	SelfPrefix    xorname.Prefix
}

// RelocationStarted - the network decided to relocate the local node. The
// node keeps operating under its old name until Relocated is delivered.
type RelocationStarted struct {
	PreviousName xorname.XorName
}

// Relocated - the local node completed relocation: its name and signing key
// changed atomically from the application's point of view.
type Relocated struct {
	PreviousName xorname.XorName
	NewKeypair   *ecdsa.PrivateKey
}

// RestartRequired - the node can no longer make progress and must be torn
// down and recreated by the application.
type RestartRequired struct{}

// ClientMessageReceived - a message from a directly connected client, outside
// the section routing rules.
type ClientMessageReceived struct {
	Content []byte
	Src     string
}

// ClientLost - a directly connected client disconnected, or an asynchronous
// send to it failed.
type ClientLost struct {
	Addr string
}

func (MessageReceived) isEvent()       {}
func (MemberJoined) isEvent()          {}
func (MemberLeft) isEvent()            {}
func (EldersChanged) isEvent()         {}
func (SectionSplit) isEvent()          {}
func (RelocationStarted) isEvent()     {}
func (Relocated) isEvent()             {}
func (RestartRequired) isEvent()       {}
func (ClientMessageReceived) isEvent() {}
func (ClientLost) isEvent()            {}
