package store

import (
	"os"

	"github.com/dgraph-io/badger"

	"github.com/sectornet/routing/src/chain"
	"github.com/sectornet/routing/src/section"
)

var (
	chainKey = []byte("chain")
	sapKey   = []byte("sap")
)

// BadgerStore persists section knowledge in a Badger database so a node can
// resume from its last known section state after a restart.
type BadgerStore struct {
	db   *badger.DB
	path string
}

// NewBadgerStore opens, or creates, a Badger database at the given path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, path: path}, nil
}

// Path returns the location of the database on disk.
func (s *BadgerStore) Path() string {
	return s.path
}

func (s *BadgerStore) set(key, val []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (s *BadgerStore) get(key []byte) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	return val, err
}

// SetChain implements the Store interface.
func (s *BadgerStore) SetChain(c *chain.SectionChain) error {
	b, err := c.Marshal()
	if err != nil {
		return err
	}
	return s.set(chainKey, b)
}

// GetChain implements the Store interface.
func (s *BadgerStore) GetChain() (*chain.SectionChain, error) {
	b, err := s.get(chainKey)
	if err != nil {
		return nil, err
	}
	return chain.Unmarshal(b)
}

// SetAuthority implements the Store interface.
func (s *BadgerStore) SetAuthority(sap *section.SectionAuthorityProvider) error {
	b, err := marshalSAP(sap)
	if err != nil {
		return err
	}
	return s.set(sapKey, b)
}

// GetAuthority implements the Store interface.
func (s *BadgerStore) GetAuthority() (*section.SectionAuthorityProvider, error) {
	b, err := s.get(sapKey)
	if err != nil {
		return nil, err
	}
	return unmarshalSAP(b)
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
