package routing

import (
	"fmt"

	"github.com/sectornet/routing/src/xorname"
)

// LocationKind tags the variants of SrcLocation and DstLocation.
type LocationKind int

const (
	// LocationNode addresses a single named node.
	LocationNode LocationKind = iota
	// LocationSection addresses the section matching a name: delivery means
	// reaching at least a quorum of its elders.
	LocationSection
	// LocationDirect addresses a transport endpoint outside the routing
	// rules, used for clients and bootstrap.
	LocationDirect
)

// String ...
func (k LocationKind) String() string {
	switch k {
	case LocationNode:
		return "Node"
	case LocationSection:
		return "Section"
	case LocationDirect:
		return "Direct"
	default:
		return "Unknown"
	}
}

// SrcLocation identifies the origin of a message.
type SrcLocation struct {
	Kind LocationKind
	Name xorname.XorName
	Addr string
}

// NodeSrc builds a source location for a single node.
func NodeSrc(name xorname.XorName) SrcLocation {
	return SrcLocation{Kind: LocationNode, Name: name}
}

// SectionSrc builds a source location for the section matching name. Section
// sources carry section authority: receivers verify them against the
// section's key lineage.
func SectionSrc(name xorname.XorName) SrcLocation {
	return SrcLocation{Kind: LocationSection, Name: name}
}

// DirectSrc builds a source location for a raw endpoint.
func DirectSrc(addr string) SrcLocation {
	return SrcLocation{Kind: LocationDirect, Addr: addr}
}

func (l SrcLocation) valid() bool {
	switch l.Kind {
	case LocationNode, LocationSection:
		return true
	case LocationDirect:
		return l.Addr != ""
	default:
		return false
	}
}

// String ...
func (l SrcLocation) String() string {
	if l.Kind == LocationDirect {
		return fmt.Sprintf("Src(Direct %s)", l.Addr)
	}
	return fmt.Sprintf("Src(%s %s)", l.Kind, l.Name)
}

// DstLocation identifies the destination of a message.
type DstLocation struct {
	Kind LocationKind
	Name xorname.XorName
	Addr string
}

// NodeDst builds a destination location for a single node.
func NodeDst(name xorname.XorName) DstLocation {
	return DstLocation{Kind: LocationNode, Name: name}
}

// SectionDst builds a destination location for the section matching name.
func SectionDst(name xorname.XorName) DstLocation {
	return DstLocation{Kind: LocationSection, Name: name}
}

// DirectDst builds a destination location for a raw endpoint.
func DirectDst(addr string) DstLocation {
	return DstLocation{Kind: LocationDirect, Addr: addr}
}

func (l DstLocation) valid() bool {
	switch l.Kind {
	case LocationNode, LocationSection:
		return true
	case LocationDirect:
		return l.Addr != ""
	default:
		return false
	}
}

// String ...
func (l DstLocation) String() string {
	if l.Kind == LocationDirect {
		return fmt.Sprintf("Dst(Direct %s)", l.Addr)
	}
	return fmt.Sprintf("Dst(%s %s)", l.Kind, l.Name)
}
