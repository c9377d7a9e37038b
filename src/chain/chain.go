// Package chain implements the SectionChain: an append-only, fork-aware
// record of successive section keys, where every non-root key carries a
// signature from its parent key. A chain alone does not establish trust; it
// proves lineage, and callers decide which keys they already trust.
//
// Forks are legitimate. Concurrent elder-set changes, notably a section split
// producing two children of one parent key, give one key several children, so
// the chain is a tree of keys rather than a list. Consumers resolve to a
// single branch only at the point of trust checking.
package chain

import (
	"sort"

	"github.com/sectornet/routing/src/crypto/keys"
)

// TrustStatus is the result of a trust check.
type TrustStatus int

const (
	// Untrusted - no path from a trusted key reaches the checked key.
	Untrusted TrustStatus = iota
	// Trusted - the checked key descends from, or is, a trusted key.
	Trusted
)

// String ...
func (s TrustStatus) String() string {
	if s == Trusted {
		return "Trusted"
	}
	return "Untrusted"
}

// block records one proven key: the key itself, the parent that signed it,
// and the signature of the key bytes under the parent key.
type block struct {
	parent    keys.PublicKey
	signature keys.Signature
}

// SectionChain is the tree of section keys rooted at a single unproven key.
// The zero value is not usable; create chains with New.
//
// A SectionChain is not safe for concurrent mutation. The routing state that
// owns one replaces it wholesale on update.
type SectionChain struct {
	root   keys.PublicKey
	blocks map[keys.PublicKey]block
}

// New creates a chain consisting of only the root key. The root carries no
// signature; trusting it is the caller's bootstrap decision.
func New(root keys.PublicKey) *SectionChain {
	return &SectionChain{
		root:   root,
		blocks: make(map[keys.PublicKey]block),
	}
}

// Insert adds key as a child of parent, proven by signature. It fails with
// KeyNotFound if parent is not in the chain and with FailedSignature if the
// signature does not verify the key bytes under parent. A failed insert
// leaves the chain unchanged.
func (c *SectionChain) Insert(parent, key keys.PublicKey, sig keys.Signature) error {
	if !c.HasKey(parent) {
		return NewChainErr(KeyNotFound, parent.String())
	}
	if !parent.Verify(key[:], sig) {
		return NewChainErr(FailedSignature, key.String())
	}
	if existing, ok := c.blocks[key]; ok {
		if existing.parent == parent {
			return nil
		}
		return NewChainErr(InvalidOperation, key.String())
	}
	if key == c.root {
		return NewChainErr(InvalidOperation, key.String())
	}
	c.blocks[key] = block{parent: parent, signature: sig}
	return nil
}

// HasKey reports whether the chain contains the given key.
func (c *SectionChain) HasKey(key keys.PublicKey) bool {
	if key == c.root {
		return true
	}
	_, ok := c.blocks[key]
	return ok
}

// RootKey returns the unproven key the chain is rooted at.
func (c *SectionChain) RootKey() keys.PublicKey {
	return c.root
}

// Len returns the number of keys in the chain, including the root.
func (c *SectionChain) Len() int {
	return 1 + len(c.blocks)
}

// depth returns the number of edges between the root and key. The key must be
// present.
func (c *SectionChain) depth(key keys.PublicKey) int {
	d := 0
	for key != c.root {
		key = c.blocks[key].parent
		d++
	}
	return d
}

// Keys returns all keys in deterministic order: ascending depth, ties broken
// by raw key bytes.
func (c *SectionChain) Keys() []keys.PublicKey {
	all := make([]keys.PublicKey, 0, c.Len())
	all = append(all, c.root)
	for key := range c.blocks {
		all = append(all, key)
	}
	sort.Slice(all, func(i, j int) bool {
		di, dj := c.depth(all[i]), c.depth(all[j])
		if di != dj {
			return di < dj
		}
		return string(all[i][:]) < string(all[j][:])
	})
	return all
}

// LastKey returns the most recent section key: the deepest key in the chain,
// with the same deterministic tie-break as Keys. With no forks this is simply
// the end of the chain.
func (c *SectionChain) LastKey() keys.PublicKey {
	all := c.Keys()
	return all[len(all)-1]
}

// MainBranch returns the path of keys from the root to LastKey.
func (c *SectionChain) MainBranch() []keys.PublicKey {
	return c.pathFromRoot(c.LastKey())
}

func (c *SectionChain) pathFromRoot(key keys.PublicKey) []keys.PublicKey {
	var rev []keys.PublicKey
	for {
		rev = append(rev, key)
		if key == c.root {
			break
		}
		key = c.blocks[key].parent
	}
	path := make([]keys.PublicKey, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return path
}

// CheckTrust reports whether key descends from any of the trusted keys within
// this chain. A trusted key vouches for itself and for all of its
// descendants; keys on other branches, and keys in chains that contain none
// of the trusted keys, are Untrusted.
func (c *SectionChain) CheckTrust(trusted []keys.PublicKey, key keys.PublicKey) TrustStatus {
	if !c.HasKey(key) {
		return Untrusted
	}
	trustedSet := make(map[keys.PublicKey]struct{}, len(trusted))
	for _, t := range trusted {
		trustedSet[t] = struct{}{}
	}
	for {
		if _, ok := trustedSet[key]; ok {
			return Trusted
		}
		if key == c.root {
			return Untrusted
		}
		key = c.blocks[key].parent
	}
}

// RequireTrusted is the error form of CheckTrust, for callers that propagate
// the failure rather than branch on it.
func (c *SectionChain) RequireTrusted(trusted []keys.PublicKey, key keys.PublicKey) error {
	if c.CheckTrust(trusted, key) != Trusted {
		return NewChainErr(ErrUntrusted, key.String())
	}
	return nil
}

// Minimize returns the smallest sub-chain, by edge count, that still proves
// every required key from the root: the union of the root paths of the
// required keys. It fails with InvalidOperation if a required key is absent.
func (c *SectionChain) Minimize(required []keys.PublicKey) (*SectionChain, error) {
	for _, key := range required {
		if !c.HasKey(key) {
			return nil, NewChainErr(InvalidOperation, key.String())
		}
	}

	minimized := New(c.root)
	for _, key := range required {
		for key != c.root {
			b := c.blocks[key]
			minimized.blocks[key] = b
			key = b.parent
		}
	}
	return minimized, nil
}

// Merge unions the branches of two chains. The chains must share ancestry:
// one chain's root has to appear in the other. Conflicting records of the
// same key, and blocks whose signatures do not verify, fail the merge with
// InvalidOperation or FailedSignature and leave the receiver unchanged.
func (c *SectionChain) Merge(other *SectionChain) error {
	var base, extra *SectionChain
	switch {
	case c.HasKey(other.root):
		base, extra = c, other
	case other.HasKey(c.root):
		base, extra = other, c
	default:
		return NewChainErr(InvalidOperation, other.root.String())
	}

	// Build the union on a copy first so a failed merge has no effect.
	merged := New(base.root)
	for key, b := range base.blocks {
		merged.blocks[key] = b
	}
	for key, b := range extra.blocks {
		if existing, ok := merged.blocks[key]; ok {
			if existing.parent != b.parent {
				return NewChainErr(InvalidOperation, key.String())
			}
			continue
		}
		if key == merged.root {
			continue
		}
		if !b.parent.Verify(key[:], b.signature) {
			return NewChainErr(FailedSignature, key.String())
		}
		merged.blocks[key] = b
	}
	// Every block's parent must be reachable in the union.
	for key := range merged.blocks {
		if !merged.rooted(key) {
			return NewChainErr(InvalidOperation, key.String())
		}
	}

	c.root = merged.root
	c.blocks = merged.blocks
	return nil
}

// rooted reports whether walking parents from key terminates at the root.
func (c *SectionChain) rooted(key keys.PublicKey) bool {
	for i := 0; i <= len(c.blocks); i++ {
		if key == c.root {
			return true
		}
		b, ok := c.blocks[key]
		if !ok {
			return false
		}
		key = b.parent
	}
	return false
}

// Truncate returns a new chain holding only the last count keys of the main
// branch, together with any existing descendants of those keys. The new root
// is no longer provably rooted; the caller accepts the reduced trust.
func (c *SectionChain) Truncate(count int) *SectionChain {
	branch := c.MainBranch()
	if count < 1 {
		count = 1
	}
	if count >= len(branch) {
		return c.clone()
	}

	newRoot := branch[len(branch)-count]
	truncated := New(newRoot)
	for key, b := range c.blocks {
		if key != newRoot && c.descendsFrom(key, newRoot) {
			truncated.blocks[key] = b
		}
	}
	return truncated
}

func (c *SectionChain) descendsFrom(key, ancestor keys.PublicKey) bool {
	for {
		if key == ancestor {
			return true
		}
		if key == c.root {
			return false
		}
		key = c.blocks[key].parent
	}
}

// SelfVerify checks that every block's signature verifies under its parent.
// The root cannot be verified; a self-verified chain is internally consistent
// but not necessarily trusted.
func (c *SectionChain) SelfVerify() bool {
	for key, b := range c.blocks {
		if !c.rooted(key) {
			return false
		}
		if !b.parent.Verify(key[:], b.signature) {
			return false
		}
	}
	return true
}

func (c *SectionChain) clone() *SectionChain {
	out := New(c.root)
	for key, b := range c.blocks {
		out.blocks[key] = b
	}
	return out
}
