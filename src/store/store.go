// Package store persists a node's section knowledge between restarts: the
// proof chain and the latest section authority. Two implementations are
// provided, an in-memory store for tests and short-lived nodes, and a
// Badger-backed store for durable deployments.
package store

import (
	"errors"

	"github.com/sectornet/routing/src/chain"
	"github.com/sectornet/routing/src/section"
)

// ErrNotFound is returned when the requested record was never stored.
var ErrNotFound = errors.New("store: not found")

// Store persists section knowledge.
type Store interface {
	// SetChain saves the section's proof chain, replacing any previous one.
	SetChain(c *chain.SectionChain) error
	// GetChain loads the saved proof chain.
	GetChain() (*chain.SectionChain, error)
	// SetAuthority saves the section's authority provider.
	SetAuthority(sap *section.SectionAuthorityProvider) error
	// GetAuthority loads the saved authority provider.
	GetAuthority() (*section.SectionAuthorityProvider, error)
	// Close releases underlying resources.
	Close() error
}
