package store

import (
	"sync"

	"github.com/sectornet/routing/src/chain"
	"github.com/sectornet/routing/src/section"
)

// InmemStore keeps section knowledge in memory. Records are serialized on
// the way in and out so the store observes the same wire shapes as the
// durable implementation.
type InmemStore struct {
	sync.RWMutex
	chainBytes []byte
	sapBytes   []byte
}

// NewInmemStore instantiates a new InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{}
}

// SetChain implements the Store interface.
func (s *InmemStore) SetChain(c *chain.SectionChain) error {
	b, err := c.Marshal()
	if err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	s.chainBytes = b
	return nil
}

// GetChain implements the Store interface.
func (s *InmemStore) GetChain() (*chain.SectionChain, error) {
	s.RLock()
	b := s.chainBytes
	s.RUnlock()
	if b == nil {
		return nil, ErrNotFound
	}
	return chain.Unmarshal(b)
}

// SetAuthority implements the Store interface.
func (s *InmemStore) SetAuthority(sap *section.SectionAuthorityProvider) error {
	b, err := marshalSAP(sap)
	if err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	s.sapBytes = b
	return nil
}

// GetAuthority implements the Store interface.
func (s *InmemStore) GetAuthority() (*section.SectionAuthorityProvider, error) {
	s.RLock()
	b := s.sapBytes
	s.RUnlock()
	if b == nil {
		return nil, ErrNotFound
	}
	return unmarshalSAP(b)
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}
